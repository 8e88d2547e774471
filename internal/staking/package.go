package staking

import "fmt"

// Package is one staking tier. Immutable once the catalog is built.
type Package struct {
	Name            string `json:"name"`
	LockDays        int    `json:"lock_days"`
	BlockedDays     int    `json:"blocked_days"`
	InterestPercent int64  `json:"interest_percent"`
}

// Standard tier names.
const (
	Silver   = "silver"
	Gold     = "gold"
	Platinum = "platinum"
)

// Catalog is a read-only registry of staking tiers, fixed at construction.
// Changing tiers requires a new deployment, which keeps the semantics of
// historical stakes stable.
type Catalog struct {
	packages map[string]Package
}

// NewCatalog builds a catalog from the given tiers. Panics on a tier with
// BlockedDays > LockDays: the tier set is static program data, not input.
func NewCatalog(packages ...Package) *Catalog {
	c := &Catalog{packages: make(map[string]Package, len(packages))}
	for _, p := range packages {
		if p.BlockedDays > p.LockDays {
			panic(fmt.Sprintf("package %q: blocked days %d exceed lock days %d", p.Name, p.BlockedDays, p.LockDays))
		}
		c.packages[p.Name] = p
	}
	return c
}

// DefaultCatalog returns the three standard tiers.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		Package{Name: Silver, LockDays: 7, BlockedDays: 3, InterestPercent: 8},
		Package{Name: Gold, LockDays: 30, BlockedDays: 10, InterestPercent: 12},
		Package{Name: Platinum, LockDays: 60, BlockedDays: 20, InterestPercent: 15},
	)
}

// Get looks up a tier by name.
func (c *Catalog) Get(name string) (Package, error) {
	p, ok := c.packages[name]
	if !ok {
		return Package{}, ErrUnknownPackage
	}
	return p, nil
}

// Names lists the tier names in the catalog.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.packages))
	for name := range c.packages {
		names = append(names, name)
	}
	return names
}
