package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/shared"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/site"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG REPOSITORY
// Implements site.Catalog over the mirrored tables and exposes the upsert
// the sync job writes through.
// ══════════════════════════════════════════════════════════════════════════════

// CatalogRepo serves and mirrors the site catalog.
type CatalogRepo struct {
	conn *Connection
}

// NewCatalogRepo creates a new CatalogRepo.
func NewCatalogRepo(conn *Connection) *CatalogRepo {
	return &CatalogRepo{conn: conn}
}

// Sites implements site.Catalog.
func (r *CatalogRepo) Sites(ctx context.Context) ([]site.Site, error) {
	rows, err := r.conn.Pool().Query(ctx, `
		SELECT id, name, arabic_name, era, city, latitude, longitude
		FROM sites
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: query sites: %w", err)
	}
	defer rows.Close()

	var sites []site.Site
	index := make(map[shared.SiteID]int)
	for rows.Next() {
		var s site.Site
		var id string
		var era, city string
		if err := rows.Scan(&id, &s.Name, &s.ArabicName, &era, &city,
			&s.Coordinate.Latitude, &s.Coordinate.Longitude); err != nil {
			return nil, fmt.Errorf("postgres: scan site: %w", err)
		}
		s.ID = shared.SiteID(id)
		s.Era = site.Era(era)
		s.City = site.City(city)
		index[s.ID] = len(sites)
		sites = append(sites, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate sites: %w", err)
	}
	if len(sites) == 0 {
		return nil, shared.ErrCatalogEmpty
	}

	if err := r.attachSubLocations(ctx, sites, index); err != nil {
		return nil, err
	}
	return sites, nil
}

// SiteByID implements site.Catalog.
func (r *CatalogRepo) SiteByID(ctx context.Context, id shared.SiteID) (*site.Site, error) {
	var s site.Site
	var rawID, era, city string
	err := r.conn.Pool().QueryRow(ctx, `
		SELECT id, name, arabic_name, era, city, latitude, longitude
		FROM sites WHERE id = $1
	`, id.String()).Scan(&rawID, &s.Name, &s.ArabicName, &era, &city,
		&s.Coordinate.Latitude, &s.Coordinate.Longitude)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrSiteNotFound
		}
		return nil, fmt.Errorf("postgres: query site %s: %w", id, err)
	}
	s.ID = shared.SiteID(rawID)
	s.Era = site.Era(era)
	s.City = site.City(city)

	sites := []site.Site{s}
	if err := r.attachSubLocations(ctx, sites, map[shared.SiteID]int{s.ID: 0}); err != nil {
		return nil, err
	}
	return &sites[0], nil
}

func (r *CatalogRepo) attachSubLocations(ctx context.Context, sites []site.Site, index map[shared.SiteID]int) error {
	ids := make([]string, 0, len(sites))
	for _, s := range sites {
		ids = append(ids, s.ID.String())
	}

	rows, err := r.conn.Pool().Query(ctx, `
		SELECT id, site_id, name, arabic_name, story_card_count
		FROM sub_locations
		WHERE site_id = ANY($1)
		ORDER BY site_id, position
	`, ids)
	if err != nil {
		return fmt.Errorf("postgres: query sub-locations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sub site.SubLocation
		var id, siteID string
		if err := rows.Scan(&id, &siteID, &sub.Name, &sub.ArabicName, &sub.StoryCardCount); err != nil {
			return fmt.Errorf("postgres: scan sub-location: %w", err)
		}
		sub.ID = shared.SubLocationID(id)
		if i, ok := index[shared.SiteID(siteID)]; ok {
			sites[i].SubLocations = append(sites[i].SubLocations, sub)
		}
	}
	return rows.Err()
}

// UpsertSites replaces the mirrored catalog in one transaction: stale sites
// disappear, current ones are upserted, and the metadata row records the
// synced version.
func (r *CatalogRepo) UpsertSites(ctx context.Context, sites []site.Site, version string, lastUpdated time.Time) error {
	if len(sites) == 0 {
		return shared.ErrCatalogEmpty
	}

	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		keep := make([]string, 0, len(sites))
		for _, s := range sites {
			keep = append(keep, s.ID.String())
		}
		if _, err := tx.Exec(ctx, `DELETE FROM sites WHERE NOT (id = ANY($1))`, keep); err != nil {
			return fmt.Errorf("prune stale sites: %w", err)
		}

		for _, s := range sites {
			_, err := tx.Exec(ctx, `
				INSERT INTO sites (id, name, arabic_name, era, city, latitude, longitude, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
				ON CONFLICT (id) DO UPDATE SET
					name = EXCLUDED.name,
					arabic_name = EXCLUDED.arabic_name,
					era = EXCLUDED.era,
					city = EXCLUDED.city,
					latitude = EXCLUDED.latitude,
					longitude = EXCLUDED.longitude,
					updated_at = NOW()
			`, s.ID.String(), s.Name, s.ArabicName, string(s.Era), string(s.City),
				s.Coordinate.Latitude, s.Coordinate.Longitude)
			if err != nil {
				return fmt.Errorf("upsert site %s: %w", s.ID, err)
			}

			if _, err := tx.Exec(ctx, `DELETE FROM sub_locations WHERE site_id = $1`, s.ID.String()); err != nil {
				return fmt.Errorf("clear sub-locations of %s: %w", s.ID, err)
			}
			for i, sub := range s.SubLocations {
				_, err := tx.Exec(ctx, `
					INSERT INTO sub_locations (id, site_id, name, arabic_name, story_card_count, position)
					VALUES ($1, $2, $3, $4, $5, $6)
				`, sub.ID.String(), s.ID.String(), sub.Name, sub.ArabicName, sub.StoryCardCount, i)
				if err != nil {
					return fmt.Errorf("insert sub-location %s: %w", sub.ID, err)
				}
			}
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO catalog_meta (id, version, last_updated, synced_at)
			VALUES (TRUE, $1, $2, NOW())
			ON CONFLICT (id) DO UPDATE SET
				version = EXCLUDED.version,
				last_updated = EXCLUDED.last_updated,
				synced_at = NOW()
		`, version, lastUpdated)
		if err != nil {
			return fmt.Errorf("record catalog version: %w", err)
		}
		return nil
	})
}

// Version returns the synced catalog version, empty before the first sync.
func (r *CatalogRepo) Version(ctx context.Context) (string, error) {
	var version string
	err := r.conn.Pool().QueryRow(ctx, `SELECT version FROM catalog_meta WHERE id`).Scan(&version)
	if err != nil {
		if IsNoRows(err) {
			return "", nil
		}
		return "", fmt.Errorf("postgres: query catalog version: %w", err)
	}
	return version, nil
}
