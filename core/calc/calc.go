// Package calc implements the per-category emission calculators. Every
// calculator is a pure function from a row and the factor catalog to a
// derived emissions value; an incomplete row yields unset, never an error
// and never zero. Results are kilograms CO2e, except investment attribution
// which follows the reporting convention and stays in tonnes CO2e.
package calc

import (
	"strings"

	"github.com/shopspring/decimal"

	"carbontrace/core/entry"
	"carbontrace/core/factors"
)

// kmPerMile converts factors stored against a mile unit to per-kilometre
var kmPerMile = decimal.NewFromFloat(1.60934)

var hundred = decimal.NewFromInt(100)

// round6 is the storage precision for derived emissions
func round6(d decimal.Decimal) decimal.Decimal {
	return d.Round(6)
}

// set wraps a value as a present NullDecimal
func set(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

var unset = decimal.NullDecimal{}

// positive reports whether an optional amount is present and > 0
func positive(d decimal.NullDecimal) bool {
	return d.Valid && d.Decimal.IsPositive()
}

// PerKilometre converts a travel factor to per-kilometre. Factors stored
// against a mile unit (matched case-insensitively) are divided by 1.60934;
// everything else passes through.
func PerKilometre(factor decimal.Decimal, unit string) decimal.Decimal {
	if strings.Contains(strings.ToLower(unit), "mile") {
		return factor.Div(kmPerMile)
	}
	return factor
}

// ActivityKindFor dispatches a transport activity to the passenger or
// delivery table. The passenger table is checked first.
func ActivityKindFor(cat *factors.Catalog, activity string) entry.ActivityKind {
	if cat.Passenger.Has(activity) {
		return entry.KindPassenger
	}
	if cat.Delivery.Has(activity) {
		return entry.KindDelivery
	}
	return entry.KindUnknown
}

// Recompute derives ResolvedFactor and Emissions for a row from its current
// selection and quantities. It is the only writer of those fields: derived
// state is always recomputed in full, never patched.
func Recompute(cat *factors.Catalog, e entry.Entry) entry.Entry {
	switch e.Category {
	case entry.CategoryFuel:
		return recomputeFuel(cat, e)
	case entry.CategoryElectricity:
		return recomputeElectricity(cat, e)
	case entry.CategoryTransport:
		return recomputeTransport(cat, e)
	case entry.CategoryBusinessTravel:
		return recomputeTravel(cat, e)
	case entry.CategoryCommuting:
		return recomputeCommuting(cat, e)
	case entry.CategoryRefrigerant:
		return recomputeRefrigerant(cat, e)
	case entry.CategoryWaste, entry.CategoryEndOfLife:
		return recomputeWaste(cat, e)
	case entry.CategoryInvestment:
		return recomputeInvestment(e)
	default:
		e.ResolvedFactor = unset
		e.Emissions = unset
		return e
	}
}

// resolveFactor resolves a full selection against a table, returning the
// numeric factor or unset for incomplete, unknown and NotApplicable paths
func resolveFactor(t *factors.Table, selection []string) decimal.NullDecimal {
	for _, v := range selection {
		if v == "" {
			return unset
		}
	}
	res := t.Resolve(selection...)
	if res.State != factors.Resolved {
		return unset
	}
	return set(res.Factor.Value)
}

func recomputeFuel(cat *factors.Catalog, e entry.Entry) entry.Entry {
	e.ResolvedFactor = resolveFactor(cat.Fuel, e.Selection)
	if e.ResolvedFactor.Valid && positive(e.Quantity) {
		e.Emissions = set(round6(e.Quantity.Decimal.Mul(e.ResolvedFactor.Decimal)))
	} else {
		e.Emissions = unset
	}
	return e
}

// FuelSubEmissions computes one electricity other-source sub-row, which is
// itself a fuel-combustion calculation
func FuelSubEmissions(cat *factors.Catalog, s entry.OtherSource) decimal.NullDecimal {
	factor := resolveFactor(cat.Fuel, s.Selection)
	if !factor.Valid || !positive(s.Quantity) {
		return unset
	}
	return set(round6(s.Quantity.Decimal.Mul(factor.Decimal)))
}

// recomputeElectricity applies the mix formula:
//
//	gridPart  = gridPct/100 * totalKwh * gridFactor(country)
//	renewable = 0
//	otherPart = otherPct/100 * totalKwh * sum(otherSourceEmissions)
//
// The other-sources term multiplies the percentage-scaled kWh by the raw
// summed emissions of the sub-rows. That is the established reporting
// behaviour for this figure and is reproduced as-is.
func recomputeElectricity(cat *factors.Catalog, e entry.Entry) entry.Entry {
	gridFactor := unset
	if e.GridCountry != "" {
		if res := cat.GridFactor(e.GridCountry); res.State == factors.Resolved {
			gridFactor = set(res.Factor.Value)
		}
	}
	e.ResolvedFactor = gridFactor

	if len(e.OtherSources) > 0 {
		// Copy-on-write: the caller's slice stays untouched.
		subs := make([]entry.OtherSource, len(e.OtherSources))
		copy(subs, e.OtherSources)
		for i := range subs {
			subs[i].Emissions = FuelSubEmissions(cat, subs[i])
		}
		e.OtherSources = subs
	}

	if !e.TotalKWh.Valid {
		e.Emissions = unset
		return e
	}

	total := decimal.Zero

	if e.GridPct.Valid && gridFactor.Valid {
		gridPart := e.GridPct.Decimal.Div(hundred).
			Mul(e.TotalKWh.Decimal).
			Mul(gridFactor.Decimal)
		total = total.Add(gridPart)
	}

	// Renewable share is definitionally zero-emission in this model.

	if e.OtherPct.Valid {
		otherSum := decimal.Zero
		for _, s := range e.OtherSources {
			if s.Emissions.Valid {
				otherSum = otherSum.Add(s.Emissions.Decimal)
			}
		}
		otherPart := e.OtherPct.Decimal.Div(hundred).
			Mul(e.TotalKWh.Decimal).
			Mul(otherSum)
		total = total.Add(otherPart)
	}

	e.Emissions = set(round6(total))
	return e
}

func recomputeTransport(cat *factors.Catalog, e entry.Entry) entry.Entry {
	// Dispatch is resolved once per activity selection and kept on the row.
	if e.ActivityKind == entry.KindUnknown && e.Dimension(0) != "" {
		e = e.WithActivityKind(ActivityKindFor(cat, e.Dimension(0)))
	}

	var table *factors.Table
	switch e.ActivityKind {
	case entry.KindPassenger:
		table = cat.Passenger
	case entry.KindDelivery:
		table = cat.Delivery
	default:
		e.ResolvedFactor = unset
		e.Emissions = unset
		return e
	}

	e.ResolvedFactor = resolveFactor(table, e.Selection)
	if e.ResolvedFactor.Valid && positive(e.Distance) {
		e.Emissions = set(round6(e.Distance.Decimal.Mul(e.ResolvedFactor.Decimal)))
	} else {
		e.Emissions = unset
	}
	return e
}

func recomputeTravel(cat *factors.Catalog, e entry.Entry) entry.Entry {
	raw := resolveFactor(cat.Travel, e.Selection)
	if raw.Valid {
		e.ResolvedFactor = set(PerKilometre(raw.Decimal, e.Dimension(1)))
	} else {
		e.ResolvedFactor = unset
	}
	if e.ResolvedFactor.Valid && positive(e.Distance) {
		e.Emissions = set(round6(e.Distance.Decimal.Mul(e.ResolvedFactor.Decimal)))
	} else {
		e.Emissions = unset
	}
	return e
}

func recomputeCommuting(cat *factors.Catalog, e entry.Entry) entry.Entry {
	raw := resolveFactor(cat.Travel, e.Selection)
	if raw.Valid {
		e.ResolvedFactor = set(PerKilometre(raw.Decimal, e.Dimension(1)))
	} else {
		e.ResolvedFactor = unset
	}
	if e.ResolvedFactor.Valid && positive(e.Distance) && positive(e.Employees) {
		e.Emissions = set(round6(
			e.Employees.Decimal.Mul(e.Distance.Decimal).Mul(e.ResolvedFactor.Decimal)))
	} else {
		e.Emissions = unset
	}
	return e
}

func recomputeRefrigerant(cat *factors.Catalog, e entry.Entry) entry.Entry {
	e.ResolvedFactor = resolveFactor(cat.Refrigerant, e.Selection)
	if e.ResolvedFactor.Valid && positive(e.Quantity) {
		e.Emissions = set(round6(e.Quantity.Decimal.Mul(e.ResolvedFactor.Decimal)))
	} else {
		e.Emissions = unset
	}
	return e
}

func recomputeWaste(cat *factors.Catalog, e entry.Entry) entry.Entry {
	// A NotApplicable cell means the dataset offers no such disposal route:
	// the factor stays unset regardless of volume.
	e.ResolvedFactor = resolveFactor(cat.Waste, e.Selection)
	if e.ResolvedFactor.Valid && positive(e.Volume) {
		e.Emissions = set(round6(e.Volume.Decimal.Mul(e.ResolvedFactor.Decimal)))
	} else {
		e.Emissions = unset
	}
	return e
}

// recomputeInvestment attributes the investee's total emissions by ownership
// share. Both the input and the result are tonnes CO2e.
func recomputeInvestment(e entry.Entry) entry.Entry {
	e.ResolvedFactor = unset
	if e.OwnershipPct.Valid && e.TotalEmissions.Valid {
		e.Emissions = set(round6(
			e.TotalEmissions.Decimal.Mul(e.OwnershipPct.Decimal.Div(hundred))))
	} else {
		e.Emissions = unset
	}
	return e
}

// Display2 rounds a derived value to 2 decimal places for presentation. The
// stored value keeps full round6 precision; this is display-only.
func Display2(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.StringFixed(2)
}
