// Package shipping prices delivery by destination zone.
//
// Estimates are a pure function of the destination and the rate table, so the
// quote a customer previews is exactly what checkout charges.
package shipping

import (
	"strings"

	"maplestore/internal/apperrors"
)

// ZoneOther is the flat-rate zone for destinations no rule recognizes.
const ZoneOther = "OTHER"

// Destination is the part of an address that shipping cost depends on.
type Destination struct {
	Country    string
	Region     string
	PostalCode string
}

// Estimate is the computed delivery price and the zone it came from.
type Estimate struct {
	CostCents int64  `json:"cost_cents"`
	Zone      string `json:"zone"`
}

// Rule prices one zone. Empty Region or PostalPrefix match any value.
type Rule struct {
	Zone         string `mapstructure:"zone" json:"zone"`
	Country      string `mapstructure:"country" json:"country"`
	Region       string `mapstructure:"region" json:"region"`
	PostalPrefix string `mapstructure:"postal_prefix" json:"postal_prefix"`
	CostCents    int64  `mapstructure:"cost_cents" json:"cost_cents"`
}

// RateTable is the zone lookup table used by the Estimator.
type RateTable struct {
	Rules         []Rule            `mapstructure:"rules"`
	FallbackCents int64             `mapstructure:"fallback_cents"`
	Aliases       map[string]string `mapstructure:"aliases"`
}

// DefaultRateTable prices local, provincial and national delivery, with a
// flat rate everywhere else.
func DefaultRateTable() RateTable {
	return RateTable{
		Rules: []Rule{
			{Zone: "LOCAL_RADIUS", Country: "CA", Region: "ON", PostalPrefix: "P0R", CostCents: 499},
			{Zone: "ONTARIO", Country: "CA", Region: "ON", CostCents: 799},
			{Zone: "CANADA", Country: "CA", CostCents: 1299},
		},
		FallbackCents: 2999,
		Aliases: map[string]string{
			"CANADA":  "CA",
			"ONTARIO": "ON",
		},
	}
}

// Estimator computes shipping estimates from a fixed rate table.
type Estimator struct {
	rules    []Rule
	fallback int64
	aliases  map[string]string
}

// NewEstimator creates an Estimator. Rule keys are normalized once so lookups
// compare like with like.
func NewEstimator(table RateTable) *Estimator {
	e := &Estimator{
		fallback: table.FallbackCents,
		aliases:  make(map[string]string, len(table.Aliases)),
	}
	for k, v := range table.Aliases {
		e.aliases[normalize(k)] = normalize(v)
	}
	for _, r := range table.Rules {
		e.rules = append(e.rules, Rule{
			Zone:         r.Zone,
			Country:      e.canonical(r.Country),
			Region:       e.canonical(r.Region),
			PostalPrefix: normalizePostal(r.PostalPrefix),
			CostCents:    r.CostCents,
		})
	}
	return e
}

// Estimate prices delivery to dest. Missing fields are a validation error;
// an unrecognized country falls back to the OTHER zone.
func (e *Estimator) Estimate(dest Destination) (Estimate, error) {
	country := e.canonical(dest.Country)
	region := e.canonical(dest.Region)
	postal := normalizePostal(dest.PostalCode)

	missing := map[string]string{}
	if country == "" {
		missing["country"] = "country is required"
	}
	if region == "" {
		missing["region"] = "region is required"
	}
	if postal == "" {
		missing["postal_code"] = "postal code is required"
	}
	if len(missing) > 0 {
		return Estimate{}, apperrors.Validation("shipping destination is incomplete", missing)
	}

	best, bestScore := -1, -1
	for i, r := range e.rules {
		score, ok := r.match(country, region, postal)
		if ok && score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return Estimate{CostCents: e.fallback, Zone: ZoneOther}, nil
	}
	return Estimate{CostCents: e.rules[best].CostCents, Zone: e.rules[best].Zone}, nil
}

// match reports whether r applies and how specific it is.
func (r Rule) match(country, region, postal string) (int, bool) {
	if r.Country != country {
		return 0, false
	}
	score := 1
	if r.Region != "" {
		if r.Region != region {
			return 0, false
		}
		score++
	}
	if r.PostalPrefix != "" {
		if !strings.HasPrefix(postal, r.PostalPrefix) {
			return 0, false
		}
		score++
	}
	return score, true
}

func (e *Estimator) canonical(v string) string {
	n := normalize(v)
	if alias, ok := e.aliases[n]; ok {
		return alias
	}
	return n
}

func normalize(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}

func normalizePostal(v string) string {
	return strings.ReplaceAll(normalize(v), " ", "")
}
