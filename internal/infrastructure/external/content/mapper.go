package content

import (
	"fmt"

	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/shared"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/site"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAPPER - DTO to Domain transformations
// An anti-corruption layer: envelope quirks stop here, the engine only ever
// sees validated domain sites.
// ══════════════════════════════════════════════════════════════════════════════

// Mapper transforms content envelope DTOs into domain sites.
type Mapper struct{}

// NewMapper creates a new Mapper instance.
func NewMapper() *Mapper {
	return &Mapper{}
}

// SitesFromEnvelope converts the envelope's site list to domain sites. A
// single malformed site fails the whole envelope; the sync job must never
// replace a good catalog with a partial one.
func (m *Mapper) SitesFromEnvelope(env *EnvelopeDTO) ([]site.Site, error) {
	if env == nil {
		return nil, shared.ErrContentMalformed
	}
	if len(env.Sites) == 0 {
		return nil, fmt.Errorf("%w: envelope has no sites", shared.ErrContentMalformed)
	}

	sites := make([]site.Site, 0, len(env.Sites))
	seen := make(map[shared.SiteID]bool, len(env.Sites))
	for i := range env.Sites {
		s, err := m.siteFromDTO(&env.Sites[i])
		if err != nil {
			return nil, err
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("%w: duplicate site %q", shared.ErrContentMalformed, s.ID)
		}
		seen[s.ID] = true
		sites = append(sites, *s)
	}
	return sites, nil
}

func (m *Mapper) siteFromDTO(dto *SiteDTO) (*site.Site, error) {
	id, err := shared.NewSiteID(dto.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: site id %q", shared.ErrContentMalformed, dto.ID)
	}
	if dto.Name == "" {
		return nil, fmt.Errorf("%w: site %q has no name", shared.ErrContentMalformed, dto.ID)
	}

	coord := shared.Coordinate{Latitude: dto.Latitude, Longitude: dto.Longitude}
	if !coord.IsValid() {
		return nil, fmt.Errorf("%w: site %q coordinate %s", shared.ErrContentMalformed, dto.ID, coord)
	}

	s := &site.Site{
		ID:         id,
		Name:       dto.Name,
		ArabicName: dto.ArabicName,
		Era:        site.Era(dto.Era),
		City:       site.City(dto.City),
		Coordinate: coord,
	}

	seen := make(map[shared.SubLocationID]bool, len(dto.SubLocations))
	for i := range dto.SubLocations {
		sub, err := m.subLocationFromDTO(&dto.SubLocations[i])
		if err != nil {
			return nil, fmt.Errorf("site %q: %w", dto.ID, err)
		}
		if seen[sub.ID] {
			return nil, fmt.Errorf("%w: site %q has duplicate sub-location %q",
				shared.ErrContentMalformed, dto.ID, sub.ID)
		}
		seen[sub.ID] = true
		s.SubLocations = append(s.SubLocations, *sub)
	}
	return s, nil
}

func (m *Mapper) subLocationFromDTO(dto *SubLocationDTO) (*site.SubLocation, error) {
	id, err := shared.NewSubLocationID(dto.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: sub-location id %q", shared.ErrContentMalformed, dto.ID)
	}
	if dto.Name == "" {
		return nil, fmt.Errorf("%w: sub-location %q has no name", shared.ErrContentMalformed, dto.ID)
	}
	if dto.StoryCardCount < 0 {
		return nil, fmt.Errorf("%w: sub-location %q negative story card count",
			shared.ErrContentMalformed, dto.ID)
	}

	return &site.SubLocation{
		ID:             id,
		Name:           dto.Name,
		ArabicName:     dto.ArabicName,
		StoryCardCount: dto.StoryCardCount,
	}, nil
}
