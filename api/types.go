// Package api - Request and response types
package api

import (
	"github.com/shopspring/decimal"

	"carbontrace/core/calc"
	"carbontrace/core/record"
)

// CalculateRequest carries raw rows for calculation. Rows may be partial:
// incomplete rows come back with unset emissions rather than an error.
type CalculateRequest struct {
	Rows []record.Record `json:"rows"`
}

// RowResult is one calculated row
type RowResult struct {
	// Category echoes the row discriminator
	Category string `json:"category"`

	// CO2Factor is the resolved factor, absent while the selection does not
	// fully resolve
	CO2Factor *decimal.Decimal `json:"co2_factor,omitempty"`

	// Emissions is the derived value, absent for incomplete rows
	Emissions *decimal.Decimal `json:"emissions,omitempty"`

	// Complete reports whether the row contributed to totals
	Complete bool `json:"complete"`
}

// CalculateResponse is the calculation outcome
type CalculateResponse struct {
	Rows []RowResult `json:"rows"`

	// Totals per category, keyed by discriminator
	Totals map[string]calc.Totals `json:"totals"`

	// GrandTotalKg sums all kilogram-denominated categories. Investment
	// rows are tonnes CO2e and reported only in their category total.
	GrandTotalKg decimal.Decimal `json:"grand_total_kg"`
}

// ResolveResponse is the outcome of a factor path lookup
type ResolveResponse struct {
	Table string   `json:"table"`
	Path  []string `json:"path"`

	// State is unresolved, resolved or not_applicable
	State string `json:"state"`

	// Options are the valid next-level keys for a partial path
	Options []string `json:"options,omitempty"`

	// Available is Options minus NotApplicable terminals (the selectable
	// subset, e.g. a material's offered disposal methods)
	Available []string `json:"available,omitempty"`

	// Factor is the terminal factor for a resolved path
	Factor *decimal.Decimal `json:"factor,omitempty"`
}

// ErrorResponse is the envelope for API failures
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
