package postgres

// ══════════════════════════════════════════════════════════════════════════════
// EMBEDDED MIGRATIONS
// The schema mirrors the content pipeline's site envelope: one row per site,
// one row per sub-location, plus a single-row metadata table for the synced
// catalog version.
// ══════════════════════════════════════════════════════════════════════════════

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_catalog",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
	}
}

const migration001Up = `
CREATE TABLE IF NOT EXISTS sites (
    id           TEXT PRIMARY KEY,
    name         TEXT NOT NULL,
    arabic_name  TEXT NOT NULL DEFAULT '',
    era          TEXT NOT NULL,
    city         TEXT NOT NULL,
    latitude     DOUBLE PRECISION NOT NULL,
    longitude    DOUBLE PRECISION NOT NULL,
    updated_at   TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS sub_locations (
    id               TEXT PRIMARY KEY,
    site_id          TEXT NOT NULL REFERENCES sites(id) ON DELETE CASCADE,
    name             TEXT NOT NULL,
    arabic_name      TEXT NOT NULL DEFAULT '',
    story_card_count INTEGER NOT NULL DEFAULT 0,
    position         INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_sub_locations_site ON sub_locations(site_id, position);
CREATE INDEX IF NOT EXISTS idx_sites_city ON sites(city);
CREATE INDEX IF NOT EXISTS idx_sites_era ON sites(era);

CREATE TABLE IF NOT EXISTS catalog_meta (
    id           BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (id),
    version      TEXT NOT NULL DEFAULT '',
    last_updated TIMESTAMP WITH TIME ZONE,
    synced_at    TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`

const migration001Down = `
DROP TABLE IF EXISTS catalog_meta;
DROP TABLE IF EXISTS sub_locations;
DROP TABLE IF EXISTS sites;
`
