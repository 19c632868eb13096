package progress

import (
	"encoding/json"
	"time"

	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERIALIZATION BOUNDARY
// One encode/decode pair for the whole state, one blob per field group.
// The key-value store never sees anything but these blobs.
// ══════════════════════════════════════════════════════════════════════════════

// Field-group keys in the key-value store.
const (
	KeyPoints         = "progress:points"
	KeyScholarBadges  = "progress:scholar_badges"
	KeyExplorerBadges = "progress:explorer_badges"
	KeySelfReported   = "progress:self_reported_sites"
	KeyVisits         = "progress:verified_visits"
	KeyQuizzes        = "progress:completed_quizzes"
	KeyPlaces         = "progress:discovered_places"
	KeyAchievements   = "progress:achievements"
	KeyFavorites      = "progress:favorite_sites"
)

// AllKeys lists every field-group key, in persistence order.
func AllKeys() []string {
	return []string{
		KeyPoints, KeyScholarBadges, KeyExplorerBadges, KeySelfReported,
		KeyVisits, KeyQuizzes, KeyPlaces, KeyAchievements, KeyFavorites,
	}
}

// achievementRecord is the persisted form of one unlock.
type achievementRecord struct {
	ID         string    `json:"id"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// Encode serializes the state into one blob per field-group key.
func Encode(s *State) (map[string][]byte, error) {
	scholar := make([]string, 0, len(s.ScholarBadges))
	for id := range s.ScholarBadges {
		scholar = append(scholar, id.String())
	}
	explorer := make([]string, 0, len(s.ExplorerBadges))
	for id := range s.ExplorerBadges {
		explorer = append(explorer, id.String())
	}
	selfReported := make([]string, 0, len(s.SelfReportedSites))
	for id := range s.SelfReportedSites {
		selfReported = append(selfReported, id.String())
	}
	visits := make(map[string]time.Time, len(s.VerifiedVisits))
	for id, t := range s.VerifiedVisits {
		visits[id.String()] = t
	}
	quizzes := make([]string, 0, len(s.CompletedQuizzes))
	for id := range s.CompletedQuizzes {
		quizzes = append(quizzes, id.String())
	}
	places := make(map[string]time.Time, len(s.DiscoveredPlaces))
	for id, t := range s.DiscoveredPlaces {
		places[id.String()] = t
	}
	achievements := make([]achievementRecord, 0, len(s.Achievements))
	for id, t := range s.Achievements {
		achievements = append(achievements, achievementRecord{ID: id.String(), UnlockedAt: t})
	}
	favorites := make([]string, 0, len(s.FavoriteSites))
	for id := range s.FavoriteSites {
		favorites = append(favorites, id.String())
	}

	out := make(map[string][]byte, 9)
	for key, v := range map[string]interface{}{
		KeyPoints:         s.TotalPoints.Int(),
		KeyScholarBadges:  scholar,
		KeyExplorerBadges: explorer,
		KeySelfReported:   selfReported,
		KeyVisits:         visits,
		KeyQuizzes:        quizzes,
		KeyPlaces:         places,
		KeyAchievements:   achievements,
		KeyFavorites:      favorites,
	} {
		blob, err := json.Marshal(v)
		if err != nil {
			return nil, shared.WrapError("progress", "Encode", shared.ErrInvalidFormat, "encode "+key, err)
		}
		out[key] = blob
	}
	return out, nil
}

// Decode rebuilds a state from persisted blobs. Missing keys fall back to
// the empty value for their group, so a fresh install and a partially
// persisted session both load cleanly.
func Decode(blobs map[string][]byte) (*State, error) {
	s := NewState()

	if blob, ok := blobs[KeyPoints]; ok {
		var points int
		if err := json.Unmarshal(blob, &points); err != nil {
			return nil, decodeError(KeyPoints, err)
		}
		p, err := shared.NewPoints(points)
		if err != nil {
			return nil, decodeError(KeyPoints, err)
		}
		s.TotalPoints = p
	}
	if blob, ok := blobs[KeyScholarBadges]; ok {
		var ids []string
		if err := json.Unmarshal(blob, &ids); err != nil {
			return nil, decodeError(KeyScholarBadges, err)
		}
		for _, id := range ids {
			s.ScholarBadges[shared.SubLocationID(id)] = true
		}
	}
	if blob, ok := blobs[KeyExplorerBadges]; ok {
		var ids []string
		if err := json.Unmarshal(blob, &ids); err != nil {
			return nil, decodeError(KeyExplorerBadges, err)
		}
		for _, id := range ids {
			s.ExplorerBadges[shared.SiteID(id)] = true
		}
	}
	if blob, ok := blobs[KeySelfReported]; ok {
		var ids []string
		if err := json.Unmarshal(blob, &ids); err != nil {
			return nil, decodeError(KeySelfReported, err)
		}
		for _, id := range ids {
			s.SelfReportedSites[shared.SiteID(id)] = true
		}
	}
	if blob, ok := blobs[KeyVisits]; ok {
		var visits map[string]time.Time
		if err := json.Unmarshal(blob, &visits); err != nil {
			return nil, decodeError(KeyVisits, err)
		}
		for id, t := range visits {
			s.VerifiedVisits[shared.SiteID(id)] = t
		}
	}
	if blob, ok := blobs[KeyQuizzes]; ok {
		var ids []string
		if err := json.Unmarshal(blob, &ids); err != nil {
			return nil, decodeError(KeyQuizzes, err)
		}
		for _, id := range ids {
			s.CompletedQuizzes[shared.QuizID(id)] = true
		}
	}
	if blob, ok := blobs[KeyPlaces]; ok {
		var places map[string]time.Time
		if err := json.Unmarshal(blob, &places); err != nil {
			return nil, decodeError(KeyPlaces, err)
		}
		for id, t := range places {
			s.DiscoveredPlaces[shared.PlaceID(id)] = t
		}
	}
	if blob, ok := blobs[KeyAchievements]; ok {
		var records []achievementRecord
		if err := json.Unmarshal(blob, &records); err != nil {
			return nil, decodeError(KeyAchievements, err)
		}
		for _, r := range records {
			s.Achievements[shared.AchievementID(r.ID)] = r.UnlockedAt
		}
	}
	if blob, ok := blobs[KeyFavorites]; ok {
		var ids []string
		if err := json.Unmarshal(blob, &ids); err != nil {
			return nil, decodeError(KeyFavorites, err)
		}
		for _, id := range ids {
			s.FavoriteSites[shared.SiteID(id)] = true
		}
	}

	// A self-report marker without its explorer badge means the groups
	// were written by different sessions; drop the orphan rather than
	// refusing to load.
	for id := range s.SelfReportedSites {
		if !s.ExplorerBadges[id] {
			delete(s.SelfReportedSites, id)
		}
	}

	return s, nil
}

func decodeError(key string, err error) error {
	return shared.WrapError("progress", "Decode", shared.ErrInvalidFormat, "decode "+key, err)
}
