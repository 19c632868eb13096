package achievement

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// Achievement Catalog
// ═══════════════════════════════════════════════════════════════════════════

// Catalog is an ordered, validated set of achievement definitions.
type Catalog struct {
	list []Achievement
	byID map[shared.AchievementID]*Achievement
}

// NewCatalog builds a catalog from definitions, rejecting duplicates and
// malformed requirements.
func NewCatalog(defs []Achievement) (*Catalog, error) {
	if len(defs) == 0 {
		return nil, shared.NewDomainError("achievement", "NewCatalog", shared.ErrValidation,
			"achievement catalog is empty")
	}
	byID := make(map[shared.AchievementID]*Achievement, len(defs))
	for i := range defs {
		a := &defs[i]
		if !a.ID.IsValid() {
			return nil, shared.NewDomainError("achievement", "NewCatalog", shared.ErrInvalidID,
				fmt.Sprintf("achievement %q: bad id", a.ID))
		}
		if err := a.Requirement.Validate(); err != nil {
			return nil, shared.WrapError("achievement", "NewCatalog", shared.ErrValidation,
				fmt.Sprintf("achievement %q: bad requirement", a.ID), err)
		}
		if a.RewardPoints < 0 {
			return nil, shared.NewDomainError("achievement", "NewCatalog", shared.ErrValueOutOfRange,
				fmt.Sprintf("achievement %q: negative reward", a.ID))
		}
		if _, dup := byID[a.ID]; dup {
			return nil, shared.NewDomainError("achievement", "NewCatalog", shared.ErrValidation,
				fmt.Sprintf("duplicate achievement id %q", a.ID))
		}
		byID[a.ID] = a
	}
	return &Catalog{list: defs, byID: byID}, nil
}

// DefaultCatalog returns the built-in catalog. Panics on a broken built-in
// table, which is a programming error caught by the package tests.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultDefinitions())
	if err != nil {
		panic(err)
	}
	return c
}

// LoadCatalogFile reads achievement definitions from a YAML file. Used to
// override the built-in catalog for seasonal campaigns without a release.
func LoadCatalogFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, shared.WrapError("achievement", "LoadCatalogFile", shared.ErrNotFound,
			"read "+path, err)
	}
	var doc struct {
		Achievements []Achievement `yaml:"achievements"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, shared.WrapError("achievement", "LoadCatalogFile", shared.ErrInvalidFormat,
			"parse "+path, err)
	}
	return NewCatalog(doc.Achievements)
}

// All returns the definitions in catalog order.
func (c *Catalog) All() []Achievement {
	out := make([]Achievement, len(c.list))
	copy(out, c.list)
	return out
}

// ByID returns one definition.
// Returns shared.ErrAchievementNotFound for unknown IDs.
func (c *Catalog) ByID(id shared.AchievementID) (*Achievement, error) {
	a, ok := c.byID[id]
	if !ok {
		return nil, shared.ErrAchievementNotFound
	}
	copied := *a
	return &copied, nil
}

// Len returns the number of definitions.
func (c *Catalog) Len() int {
	return len(c.list)
}
