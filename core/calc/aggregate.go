package calc

import (
	"github.com/shopspring/decimal"

	"carbontrace/core/entry"
)

// Totals are the derived category sums. Every field follows the
// zero-exclusion law: a row with an unset value contributes exactly zero,
// never NaN and never an error.
type Totals struct {
	// Emissions is the sum over rows whose emissions are set
	Emissions decimal.Decimal `json:"emissions"`

	// Quantity, Distance, Volume, KWh and Employees are the secondary sums
	// over each category's natural quantity field
	Quantity  decimal.Decimal `json:"quantity"`
	Distance  decimal.Decimal `json:"distance"`
	Volume    decimal.Decimal `json:"volume"`
	KWh       decimal.Decimal `json:"kwh"`
	Employees decimal.Decimal `json:"employees"`

	// Rows is the number of rows seen, Complete the number contributing
	// emissions
	Rows     int `json:"rows"`
	Complete int `json:"complete"`
}

// Aggregate sums per-row emissions and secondary quantities. The sum is pure
// and positionally independent, and is recomputed in full on every row
// mutation rather than patched incrementally.
func Aggregate(rows []entry.Entry) Totals {
	t := Totals{
		Emissions: decimal.Zero,
		Quantity:  decimal.Zero,
		Distance:  decimal.Zero,
		Volume:    decimal.Zero,
		KWh:       decimal.Zero,
		Employees: decimal.Zero,
	}

	for _, e := range rows {
		t.Rows++
		if e.Emissions.Valid {
			t.Emissions = t.Emissions.Add(e.Emissions.Decimal)
			t.Complete++
		}
		t.Quantity = t.Quantity.Add(orZero(e.Quantity))
		t.Distance = t.Distance.Add(orZero(e.Distance))
		t.Volume = t.Volume.Add(orZero(e.Volume))
		t.KWh = t.KWh.Add(orZero(e.TotalKWh))
		t.Employees = t.Employees.Add(orZero(e.Employees))
	}

	return t
}

// GrandTotal sums category totals into one figure. Investment rows are
// tonnes CO2e and are kept out of kilogram grand totals by the caller.
func GrandTotal(totals ...Totals) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range totals {
		sum = sum.Add(t.Emissions)
	}
	return sum
}

func orZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}
