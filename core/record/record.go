// Package record maps activity rows to and from the shape external storage
// expects: snake_case fields, lowercase-with-underscores category
// discriminators, emissions included so saved state can be compared against
// in-memory state. Incomplete rows are never sent to persistence.
package record

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"carbontrace/core/entry"
	"carbontrace/internal/errors"
)

// EmissionsTolerance is the floating-point-safe equality window used when
// comparing saved emissions against recomputed ones
var EmissionsTolerance = decimal.NewFromFloat(0.01)

// OtherSourceRecord is the persisted shape of an electricity sub-row
type OtherSourceRecord struct {
	FuelTypeGroup string           `json:"fuel_type_group,omitempty"`
	Fuel          string           `json:"fuel,omitempty"`
	Unit          string           `json:"unit,omitempty"`
	Quantity      *decimal.Decimal `json:"quantity,omitempty"`
}

// Record is the persistence-ready shape of a completed row
type Record struct {
	Category string `json:"category"`

	FuelTypeGroup  string `json:"fuel_type_group,omitempty"`
	Fuel           string `json:"fuel,omitempty"`
	Unit           string `json:"unit,omitempty"`
	Activity       string `json:"activity,omitempty"`
	VehicleType    string `json:"vehicle_type,omitempty"`
	ActivityKind   string `json:"activity_kind,omitempty"`
	Mode           string `json:"mode,omitempty"`
	Refrigerant    string `json:"refrigerant,omitempty"`
	Material       string `json:"material,omitempty"`
	DisposalMethod string `json:"disposal_method,omitempty"`

	Quantity  *decimal.Decimal `json:"quantity,omitempty"`
	Distance  *decimal.Decimal `json:"distance,omitempty"`
	Volume    *decimal.Decimal `json:"volume,omitempty"`
	Employees *decimal.Decimal `json:"employees,omitempty"`

	TotalKWh     *decimal.Decimal    `json:"total_kwh,omitempty"`
	GridPct      *decimal.Decimal    `json:"grid_pct,omitempty"`
	OtherPct     *decimal.Decimal    `json:"other_pct,omitempty"`
	GridCountry  string              `json:"grid_country,omitempty"`
	OtherSources []OtherSourceRecord `json:"other_sources,omitempty"`

	OwnershipPct   *decimal.Decimal `json:"ownership_pct,omitempty"`
	TotalEmissions *decimal.Decimal `json:"total_emissions,omitempty"`

	CO2Factor *decimal.Decimal `json:"co2_factor,omitempty"`
	Emissions decimal.Decimal  `json:"emissions"`
}

func optional(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func fromOptional(p *decimal.Decimal) decimal.NullDecimal {
	if p == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *p, Valid: true}
}

// ToRecord shapes a row for persistence. It returns nil when the row fails
// its category's minimum-completeness predicate, which is exactly "derived
// emissions are set": incomplete rows never reach storage.
func ToRecord(e entry.Entry) *Record {
	if !e.Emissions.Valid {
		return nil
	}

	r := &Record{
		Category:  string(e.Category),
		CO2Factor: optional(e.ResolvedFactor),
		Emissions: e.Emissions.Decimal,
	}

	switch e.Category {
	case entry.CategoryFuel:
		r.FuelTypeGroup = e.Dimension(0)
		r.Fuel = e.Dimension(1)
		r.Unit = e.Dimension(2)
		r.Quantity = optional(e.Quantity)
	case entry.CategoryElectricity:
		r.TotalKWh = optional(e.TotalKWh)
		r.GridPct = optional(e.GridPct)
		r.OtherPct = optional(e.OtherPct)
		r.GridCountry = e.GridCountry
		for _, s := range e.OtherSources {
			r.OtherSources = append(r.OtherSources, OtherSourceRecord{
				FuelTypeGroup: s.Selection[0],
				Fuel:          s.Selection[1],
				Unit:          s.Selection[2],
				Quantity:      optional(s.Quantity),
			})
		}
	case entry.CategoryTransport:
		r.Activity = e.Dimension(0)
		r.VehicleType = e.Dimension(1)
		r.Unit = e.Dimension(2)
		r.ActivityKind = string(e.ActivityKind)
		r.Distance = optional(e.Distance)
	case entry.CategoryBusinessTravel:
		r.Mode = e.Dimension(0)
		r.Unit = e.Dimension(1)
		r.Distance = optional(e.Distance)
	case entry.CategoryCommuting:
		r.Mode = e.Dimension(0)
		r.Unit = e.Dimension(1)
		r.Distance = optional(e.Distance)
		r.Employees = optional(e.Employees)
	case entry.CategoryRefrigerant:
		r.Refrigerant = e.Dimension(0)
		r.Quantity = optional(e.Quantity)
	case entry.CategoryWaste, entry.CategoryEndOfLife:
		r.Material = e.Dimension(0)
		r.DisposalMethod = e.Dimension(1)
		r.Volume = optional(e.Volume)
	case entry.CategoryInvestment:
		r.OwnershipPct = optional(e.OwnershipPct)
		r.TotalEmissions = optional(e.TotalEmissions)
	}

	return r
}

// ToEntry reconstructs an in-memory row from a record without requiring
// completeness. Derived values are left for the calculator: emissions are
// always recomputed, never trusted from the wire.
func ToEntry(r *Record) (entry.Entry, error) {
	c := entry.Category(r.Category)
	if !c.Valid() {
		return entry.Entry{}, errors.Inputf("unknown category: %q", r.Category)
	}

	e := entry.New(c)

	switch c {
	case entry.CategoryFuel:
		e.Selection = []string{r.FuelTypeGroup, r.Fuel, r.Unit}
		e.Quantity = fromOptional(r.Quantity)
	case entry.CategoryElectricity:
		e.TotalKWh = fromOptional(r.TotalKWh)
		e.GridPct = fromOptional(r.GridPct)
		e.OtherPct = fromOptional(r.OtherPct)
		e.GridCountry = r.GridCountry
		for _, s := range r.OtherSources {
			e.OtherSources = append(e.OtherSources, entry.OtherSource{
				Selection: []string{s.FuelTypeGroup, s.Fuel, s.Unit},
				Quantity:  fromOptional(s.Quantity),
			})
		}
	case entry.CategoryTransport:
		e.Selection = []string{r.Activity, r.VehicleType, r.Unit}
		e.ActivityKind = entry.ActivityKind(r.ActivityKind)
		e.Distance = fromOptional(r.Distance)
	case entry.CategoryBusinessTravel:
		e.Selection = []string{r.Mode, r.Unit}
		e.Distance = fromOptional(r.Distance)
	case entry.CategoryCommuting:
		e.Selection = []string{r.Mode, r.Unit}
		e.Distance = fromOptional(r.Distance)
		e.Employees = fromOptional(r.Employees)
	case entry.CategoryRefrigerant:
		e.Selection = []string{r.Refrigerant}
		e.Quantity = fromOptional(r.Quantity)
	case entry.CategoryWaste, entry.CategoryEndOfLife:
		e.Selection = []string{r.Material, r.DisposalMethod}
		e.Volume = fromOptional(r.Volume)
	case entry.CategoryInvestment:
		e.OwnershipPct = fromOptional(r.OwnershipPct)
		e.TotalEmissions = fromOptional(r.TotalEmissions)
	}

	if err := validateRanges(e); err != nil {
		return entry.Entry{}, err
	}
	return e, nil
}

var oneHundred = decimal.NewFromInt(100)

// validateRanges applies the entry setters' range rules to a reconstructed
// row. Records arrive over the wire without going through the setters, so a
// negative quantity or an out-of-bounds percentage must be refused here with
// the same input error a setter would return.
func validateRanges(e entry.Entry) error {
	amounts := []struct {
		name string
		v    decimal.NullDecimal
	}{
		{"quantity", e.Quantity},
		{"distance", e.Distance},
		{"volume", e.Volume},
		{"employees", e.Employees},
		{"total kWh", e.TotalKWh},
		{"total emissions", e.TotalEmissions},
	}
	for _, a := range amounts {
		if a.v.Valid && a.v.Decimal.IsNegative() {
			return errors.Inputf("%s must not be negative: %s", a.name, a.v.Decimal)
		}
	}

	percents := []struct {
		name string
		v    decimal.NullDecimal
	}{
		{"grid percentage", e.GridPct},
		{"other percentage", e.OtherPct},
		{"ownership percentage", e.OwnershipPct},
	}
	for _, p := range percents {
		if p.v.Valid && (p.v.Decimal.IsNegative() || p.v.Decimal.GreaterThan(oneHundred)) {
			return errors.Inputf("%s must be between 0 and 100: %s", p.name, p.v.Decimal)
		}
	}

	for i, s := range e.OtherSources {
		if s.Quantity.Valid && s.Quantity.Decimal.IsNegative() {
			return errors.Inputf("other source %d quantity must not be negative: %s", i, s.Quantity.Decimal)
		}
	}
	return nil
}

// FromRecord reconstructs a saved row. The local ID is freshly generated
// (local IDs are never assumed stable across reloads); the persisted ID is
// tracked separately and the row comes back flagged clean.
func FromRecord(persistedID string, r *Record) (entry.Entry, error) {
	e, err := ToEntry(r)
	if err != nil {
		return entry.Entry{}, err
	}
	e.ID = uuid.NewString()
	e.PersistedID = persistedID
	e.State = entry.StateClean
	e.ResolvedFactor = fromOptional(r.CO2Factor)
	e.Emissions = decimal.NullDecimal{Decimal: r.Emissions, Valid: true}
	return e, nil
}

// Differs reports whether a row's in-memory state differs from what was last
// persisted. Every user-editable field is compared; emissions use the 0.01
// tolerance rather than exact equality.
func Differs(e entry.Entry, saved *Record) bool {
	current := ToRecord(e)
	if current == nil || saved == nil {
		// A row that is no longer complete differs from any saved state.
		return current != saved
	}

	if current.Category != saved.Category ||
		current.FuelTypeGroup != saved.FuelTypeGroup ||
		current.Fuel != saved.Fuel ||
		current.Unit != saved.Unit ||
		current.Activity != saved.Activity ||
		current.VehicleType != saved.VehicleType ||
		current.Mode != saved.Mode ||
		current.Refrigerant != saved.Refrigerant ||
		current.Material != saved.Material ||
		current.DisposalMethod != saved.DisposalMethod ||
		current.GridCountry != saved.GridCountry {
		return true
	}

	if !optionalEqual(current.Quantity, saved.Quantity) ||
		!optionalEqual(current.Distance, saved.Distance) ||
		!optionalEqual(current.Volume, saved.Volume) ||
		!optionalEqual(current.Employees, saved.Employees) ||
		!optionalEqual(current.TotalKWh, saved.TotalKWh) ||
		!optionalEqual(current.GridPct, saved.GridPct) ||
		!optionalEqual(current.OtherPct, saved.OtherPct) ||
		!optionalEqual(current.OwnershipPct, saved.OwnershipPct) ||
		!optionalEqual(current.TotalEmissions, saved.TotalEmissions) {
		return true
	}

	if len(current.OtherSources) != len(saved.OtherSources) {
		return true
	}
	for i := range current.OtherSources {
		a, b := current.OtherSources[i], saved.OtherSources[i]
		if a.FuelTypeGroup != b.FuelTypeGroup || a.Fuel != b.Fuel || a.Unit != b.Unit ||
			!optionalEqual(a.Quantity, b.Quantity) {
			return true
		}
	}

	return current.Emissions.Sub(saved.Emissions).Abs().GreaterThan(EmissionsTolerance)
}

func optionalEqual(a, b *decimal.Decimal) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	return a.Equal(*b)
}
