// internal/seeder/tiers.go
package seeder

import (
	"fmt"
	"strings"
)

type Tier string

const (
	TierSmall  Tier = "small"
	TierMedium Tier = "medium"
	TierLarge  Tier = "large"
)

// Counts are the rows a run adds per entity, plus the item range per order.
type Counts struct {
	Categories int `json:"categories"`
	Products   int `json:"products"`
	Users      int `json:"users"`
	Orders     int `json:"orders"`
	MinItems   int `json:"minItems"`
	MaxItems   int `json:"maxItems"`
}

var tierCounts = map[Tier]Counts{
	TierSmall:  {Categories: 10, Products: 100, Users: 100, Orders: 500, MinItems: 1, MaxItems: 5},
	TierMedium: {Categories: 20, Products: 1000, Users: 1000, Orders: 5000, MinItems: 1, MaxItems: 5},
	TierLarge:  {Categories: 50, Products: 5000, Users: 10000, Orders: 50000, MinItems: 1, MaxItems: 10},
}

func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := tierCounts[t]; !ok {
		return "", fmt.Errorf("unknown tier %q (expected small, medium or large)", s)
	}
	return t, nil
}

func (t Tier) Counts() Counts {
	return tierCounts[t]
}

func (c Counts) validate() error {
	switch {
	case c.Categories < 0 || c.Products < 0 || c.Users < 0 || c.Orders < 0:
		return fmt.Errorf("counts must not be negative")
	case c.Orders > 0 && (c.MinItems < 1 || c.MaxItems < c.MinItems):
		return fmt.Errorf("item range [%d, %d] is invalid", c.MinItems, c.MaxItems)
	}
	return nil
}
