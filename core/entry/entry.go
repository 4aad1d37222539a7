// Package entry defines the activity rows users enter, one immutable value
// per row. Rows are never mutated in place: every update function returns a
// new Entry, refusing out-of-range input and clearing derived state so a row
// can never carry a factor that no longer matches its selection.
package entry

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"carbontrace/internal/errors"
)

// Category discriminates the row union. Values double as the persistence
// discriminator strings.
type Category string

const (
	CategoryFuel           Category = "fuel"
	CategoryElectricity    Category = "electricity"
	CategoryTransport      Category = "upstream_transportation"
	CategoryBusinessTravel Category = "business_travel"
	CategoryCommuting      Category = "employee_commuting"
	CategoryRefrigerant    Category = "refrigerants"
	CategoryWaste          Category = "waste_generated"
	CategoryEndOfLife      Category = "end_of_life_treatment"
	CategoryInvestment     Category = "investments"
)

// Categories lists all row categories in display order
func Categories() []Category {
	return []Category{
		CategoryFuel,
		CategoryElectricity,
		CategoryTransport,
		CategoryBusinessTravel,
		CategoryCommuting,
		CategoryRefrigerant,
		CategoryWaste,
		CategoryEndOfLife,
		CategoryInvestment,
	}
}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	for _, k := range Categories() {
		if c == k {
			return true
		}
	}
	return false
}

// Dimensions returns the ordered selection dimensions for a category.
// Categories without a cascading table (electricity, investments) have none.
func (c Category) Dimensions() []string {
	switch c {
	case CategoryFuel:
		return []string{"fuel_type_group", "fuel", "unit"}
	case CategoryTransport:
		return []string{"activity", "vehicle_type", "unit"}
	case CategoryBusinessTravel, CategoryCommuting:
		return []string{"mode", "unit"}
	case CategoryRefrigerant:
		return []string{"refrigerant"}
	case CategoryWaste, CategoryEndOfLife:
		return []string{"material", "disposal_method"}
	default:
		return nil
	}
}

// State tracks a row's persistence lifecycle
type State string

const (
	// StateNew marks a row that has never been persisted
	StateNew State = "new"

	// StateClean marks a persisted row with no local edits
	StateClean State = "clean"

	// StateDirty marks a persisted row with unsaved local edits
	StateDirty State = "dirty"
)

// ActivityKind is the transport table dispatch, resolved once when the
// activity is selected and stored on the row rather than re-derived by
// repeated membership checks.
type ActivityKind string

const (
	KindUnknown   ActivityKind = ""
	KindPassenger ActivityKind = "passenger"
	KindDelivery  ActivityKind = "delivery"
)

// OtherSource is one "other energy source" sub-row of an electricity entry.
// Each sub-row is itself a fuel-combustion calculation.
type OtherSource struct {
	Selection []string            `json:"selection"`
	Quantity  decimal.NullDecimal `json:"quantity"`
	Emissions decimal.NullDecimal `json:"emissions"`
}

// Entry is one user-entered activity row. Emissions and ResolvedFactor are
// derived: they are recomputed from the selection and quantities after every
// update and are never set independently.
type Entry struct {
	// ID is the local row identifier, stable for the row's lifetime but
	// never assumed stable across reloads
	ID string

	// PersistedID is the opaque identifier assigned by storage, empty for
	// unsaved rows
	PersistedID string

	// Category discriminates the union
	Category Category

	// State is the persistence lifecycle state
	State State

	// Selection holds the ordered dimension choices, "" where unset
	Selection []string

	// ActivityKind is the transport table dispatch (transport rows only)
	ActivityKind ActivityKind

	// Quantity is the activity amount for fuel and refrigerant rows
	Quantity decimal.NullDecimal

	// Distance is the travelled distance for transport, travel and
	// commuting rows
	Distance decimal.NullDecimal

	// Volume is the waste volume for waste rows, in tonnes
	Volume decimal.NullDecimal

	// Employees is the headcount multiplier for commuting rows
	Employees decimal.NullDecimal

	// Electricity-specific fields
	TotalKWh     decimal.NullDecimal
	GridPct      decimal.NullDecimal
	OtherPct     decimal.NullDecimal
	GridCountry  string
	OtherSources []OtherSource

	// Investment-specific fields. TotalEmissions and the derived result are
	// tonnes CO2e; every other category is kilograms.
	OwnershipPct   decimal.NullDecimal
	TotalEmissions decimal.NullDecimal

	// ResolvedFactor is the terminal factor once the selection fully
	// resolves
	ResolvedFactor decimal.NullDecimal

	// Emissions is the derived row result, unset (not zero) while the row
	// is incomplete
	Emissions decimal.NullDecimal
}

// New creates an empty row for a category with a fresh local ID
func New(c Category) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Category:  c,
		State:     StateNew,
		Selection: make([]string, len(c.Dimensions())),
	}
}

// clone deep-copies the entry's slices so updates never alias the original
func (e Entry) clone() Entry {
	out := e
	out.Selection = append([]string(nil), e.Selection...)
	if e.OtherSources != nil {
		out.OtherSources = make([]OtherSource, len(e.OtherSources))
		for i, s := range e.OtherSources {
			s.Selection = append([]string(nil), s.Selection...)
			out.OtherSources[i] = s
		}
	}
	return out
}

// touched marks a persisted row as locally edited
func (e Entry) touched() Entry {
	if e.State == StateClean {
		e.State = StateDirty
	}
	return e
}

// clearDerived drops the derived factor and emissions
func (e Entry) clearDerived() Entry {
	e.ResolvedFactor = decimal.NullDecimal{}
	e.Emissions = decimal.NullDecimal{}
	return e
}

// WithDimension sets the selection dimension at level, clearing every lower
// level and the derived factor and emissions. Stale lower-level selections
// must never silently keep a mismatched factor.
func (e Entry) WithDimension(level int, value string) (Entry, error) {
	dims := e.Category.Dimensions()
	if level < 0 || level >= len(dims) {
		return e, errors.Inputf("category %s has no dimension %d", e.Category, level)
	}

	out := e.clone()
	out.Selection[level] = value
	for i := level + 1; i < len(out.Selection); i++ {
		out.Selection[i] = ""
	}
	if e.Category == CategoryTransport && level == 0 {
		out.ActivityKind = KindUnknown
	}
	return out.clearDerived().touched(), nil
}

// WithActivityKind stores the transport table dispatch for the selected
// activity
func (e Entry) WithActivityKind(k ActivityKind) Entry {
	out := e.clone()
	out.ActivityKind = k
	return out
}

// nonNegative validates and wraps an amount
func nonNegative(field string, v decimal.Decimal) (decimal.NullDecimal, error) {
	if v.IsNegative() {
		return decimal.NullDecimal{}, errors.Inputf("%s must not be negative: %s", field, v)
	}
	return decimal.NullDecimal{Decimal: v, Valid: true}, nil
}

// percent validates a 0..100 percentage
func percent(field string, v decimal.Decimal) (decimal.NullDecimal, error) {
	if v.IsNegative() || v.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.NullDecimal{}, errors.Inputf("%s must be between 0 and 100: %s", field, v)
	}
	return decimal.NullDecimal{Decimal: v, Valid: true}, nil
}

// WithQuantity sets the activity quantity. Negative input is refused and the
// prior value retained.
func (e Entry) WithQuantity(v decimal.Decimal) (Entry, error) {
	q, err := nonNegative("quantity", v)
	if err != nil {
		return e, err
	}
	out := e.clone()
	out.Quantity = q
	return out.clearDerived().touched(), nil
}

// WithDistance sets the travelled distance
func (e Entry) WithDistance(v decimal.Decimal) (Entry, error) {
	d, err := nonNegative("distance", v)
	if err != nil {
		return e, err
	}
	out := e.clone()
	out.Distance = d
	return out.clearDerived().touched(), nil
}

// WithVolume sets the waste volume
func (e Entry) WithVolume(v decimal.Decimal) (Entry, error) {
	d, err := nonNegative("volume", v)
	if err != nil {
		return e, err
	}
	out := e.clone()
	out.Volume = d
	return out.clearDerived().touched(), nil
}

// WithEmployees sets the commuting headcount
func (e Entry) WithEmployees(v decimal.Decimal) (Entry, error) {
	d, err := nonNegative("employees", v)
	if err != nil {
		return e, err
	}
	out := e.clone()
	out.Employees = d
	return out.clearDerived().touched(), nil
}

// WithTotalKWh sets the electricity consumption
func (e Entry) WithTotalKWh(v decimal.Decimal) (Entry, error) {
	d, err := nonNegative("total kWh", v)
	if err != nil {
		return e, err
	}
	out := e.clone()
	out.TotalKWh = d
	return out.clearDerived().touched(), nil
}

// WithGridPct sets the grid share of the electricity mix
func (e Entry) WithGridPct(v decimal.Decimal) (Entry, error) {
	p, err := percent("grid percentage", v)
	if err != nil {
		return e, err
	}
	out := e.clone()
	out.GridPct = p
	return out.clearDerived().touched(), nil
}

// WithOtherPct sets the other-sources share of the electricity mix
func (e Entry) WithOtherPct(v decimal.Decimal) (Entry, error) {
	p, err := percent("other percentage", v)
	if err != nil {
		return e, err
	}
	out := e.clone()
	out.OtherPct = p
	return out.clearDerived().touched(), nil
}

// WithGridCountry selects the electricity grid country
func (e Entry) WithGridCountry(country string) (Entry, error) {
	out := e.clone()
	out.GridCountry = country
	return out.clearDerived().touched(), nil
}

// WithOwnershipPct sets the investment attribution share
func (e Entry) WithOwnershipPct(v decimal.Decimal) (Entry, error) {
	p, err := percent("ownership percentage", v)
	if err != nil {
		return e, err
	}
	out := e.clone()
	out.OwnershipPct = p
	return out.clearDerived().touched(), nil
}

// WithTotalEmissions sets the investee's total emissions, in tonnes CO2e
func (e Entry) WithTotalEmissions(v decimal.Decimal) (Entry, error) {
	d, err := nonNegative("total emissions", v)
	if err != nil {
		return e, err
	}
	out := e.clone()
	out.TotalEmissions = d
	return out.clearDerived().touched(), nil
}

// AddOtherSource appends an empty other-source sub-row
func (e Entry) AddOtherSource() Entry {
	out := e.clone()
	out.OtherSources = append(out.OtherSources, OtherSource{
		Selection: make([]string, 3),
	})
	return out.clearDerived().touched()
}

// RemoveOtherSource drops the sub-row at index i
func (e Entry) RemoveOtherSource(i int) (Entry, error) {
	if i < 0 || i >= len(e.OtherSources) {
		return e, errors.Inputf("no other source at index %d", i)
	}
	out := e.clone()
	out.OtherSources = append(out.OtherSources[:i], out.OtherSources[i+1:]...)
	return out.clearDerived().touched(), nil
}

// WithOtherSourceDimension sets a sub-row selection level, clearing lower
// levels the same way top-level selections do
func (e Entry) WithOtherSourceDimension(i, level int, value string) (Entry, error) {
	if i < 0 || i >= len(e.OtherSources) {
		return e, errors.Inputf("no other source at index %d", i)
	}
	if level < 0 || level >= 3 {
		return e, errors.Inputf("other source has no dimension %d", level)
	}
	out := e.clone()
	src := &out.OtherSources[i]
	src.Selection[level] = value
	for l := level + 1; l < len(src.Selection); l++ {
		src.Selection[l] = ""
	}
	src.Emissions = decimal.NullDecimal{}
	return out.clearDerived().touched(), nil
}

// WithOtherSourceQuantity sets a sub-row quantity
func (e Entry) WithOtherSourceQuantity(i int, v decimal.Decimal) (Entry, error) {
	if i < 0 || i >= len(e.OtherSources) {
		return e, errors.Inputf("no other source at index %d", i)
	}
	q, err := nonNegative("other source quantity", v)
	if err != nil {
		return e, err
	}
	out := e.clone()
	out.OtherSources[i].Quantity = q
	out.OtherSources[i].Emissions = decimal.NullDecimal{}
	return out.clearDerived().touched(), nil
}

// Dimension returns the selection value at level, "" when out of range
func (e Entry) Dimension(level int) string {
	if level < 0 || level >= len(e.Selection) {
		return ""
	}
	return e.Selection[level]
}

// SelectionComplete reports whether every dimension is set
func (e Entry) SelectionComplete() bool {
	for _, v := range e.Selection {
		if v == "" {
			return false
		}
	}
	return true
}
