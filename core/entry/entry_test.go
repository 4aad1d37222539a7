package entry

import (
	"testing"

	"github.com/shopspring/decimal"

	"carbontrace/internal/errors"
)

func TestNewEntryHasFreshIDAndEmptySelection(t *testing.T) {
	a := New(CategoryFuel)
	b := New(CategoryFuel)

	if a.ID == "" || b.ID == "" {
		t.Fatal("expected a generated local ID")
	}
	if a.ID == b.ID {
		t.Fatal("expected distinct local IDs")
	}
	if a.State != StateNew {
		t.Fatalf("expected new state, got %s", a.State)
	}
	if got, want := len(a.Selection), len(CategoryFuel.Dimensions()); got != want {
		t.Fatalf("expected %d selection slots, got %d", want, got)
	}
	if a.SelectionComplete() {
		t.Fatal("empty selection must not be complete")
	}
}

func TestWithDimensionClearsLowerLevels(t *testing.T) {
	e := New(CategoryFuel)
	var err error
	for level, v := range []string{"Liquid fuels", "Diesel", "Litre"} {
		if e, err = e.WithDimension(level, v); err != nil {
			t.Fatal(err)
		}
	}
	if !e.SelectionComplete() {
		t.Fatal("expected a complete selection")
	}

	e, err = e.WithDimension(1, "Petrol")
	if err != nil {
		t.Fatal(err)
	}
	if e.Dimension(1) != "Petrol" {
		t.Fatalf("dimension 1 = %q", e.Dimension(1))
	}
	if e.Dimension(2) != "" {
		t.Fatalf("dimension 2 should be cleared, got %q", e.Dimension(2))
	}
	if e.Dimension(0) != "Liquid fuels" {
		t.Fatalf("dimension 0 should survive, got %q", e.Dimension(0))
	}
}

func TestWithDimensionClearsDerivedValues(t *testing.T) {
	e := New(CategoryFuel)
	e.ResolvedFactor = decimal.NullDecimal{Decimal: decimal.NewFromFloat(2.7), Valid: true}
	e.Emissions = decimal.NullDecimal{Decimal: decimal.NewFromFloat(270.0), Valid: true}

	e, err := e.WithDimension(0, "Gaseous fuels")
	if err != nil {
		t.Fatal(err)
	}
	if e.ResolvedFactor.Valid || e.Emissions.Valid {
		t.Fatal("changing a dimension must clear the derived factor and emissions")
	}
}

func TestTransportActivityChangeClearsKind(t *testing.T) {
	e := New(CategoryTransport)
	e, err := e.WithDimension(0, "Passenger vehicles")
	if err != nil {
		t.Fatal(err)
	}
	e = e.WithActivityKind(KindPassenger)

	e, err = e.WithDimension(0, "Freighting goods")
	if err != nil {
		t.Fatal(err)
	}
	if e.ActivityKind != KindUnknown {
		t.Fatalf("activity change must reset the dispatch, got %q", e.ActivityKind)
	}

	// A vehicle-type change keeps the dispatch.
	e = e.WithActivityKind(KindDelivery)
	e, err = e.WithDimension(1, "Van (class II)")
	if err != nil {
		t.Fatal(err)
	}
	if e.ActivityKind != KindDelivery {
		t.Fatalf("vehicle change must keep the dispatch, got %q", e.ActivityKind)
	}
}

func TestNegativeQuantityRejectedPriorRetained(t *testing.T) {
	e := New(CategoryFuel)
	e, err := e.WithQuantity(decimal.NewFromInt(100))
	if err != nil {
		t.Fatal(err)
	}

	got, err := e.WithQuantity(decimal.NewFromInt(-5))
	if err == nil {
		t.Fatal("expected an error for a negative quantity")
	}
	if !errors.IsType(err, errors.TypeInput) {
		t.Fatalf("expected an input error, got %v", err)
	}
	if !got.Quantity.Valid || !got.Quantity.Decimal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("prior quantity must be retained, got %v", got.Quantity)
	}
}

func TestPercentBounds(t *testing.T) {
	e := New(CategoryElectricity)

	if _, err := e.WithGridPct(decimal.NewFromInt(101)); err == nil {
		t.Fatal("expected an error for a percentage above 100")
	}
	if _, err := e.WithGridPct(decimal.NewFromInt(-1)); err == nil {
		t.Fatal("expected an error for a negative percentage")
	}
	e, err := e.WithGridPct(decimal.NewFromInt(100))
	if err != nil {
		t.Fatal(err)
	}
	if !e.GridPct.Decimal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("grid pct = %v", e.GridPct)
	}
}

func TestSettersDoNotAliasTheOriginal(t *testing.T) {
	orig := New(CategoryElectricity)
	orig = orig.AddOtherSource()

	edited, err := orig.WithOtherSourceDimension(0, 0, "Liquid fuels")
	if err != nil {
		t.Fatal(err)
	}
	if orig.OtherSources[0].Selection[0] != "" {
		t.Fatal("editing a copy must not mutate the original's sub-rows")
	}
	if edited.OtherSources[0].Selection[0] != "Liquid fuels" {
		t.Fatal("edit lost")
	}
}

func TestOtherSourceIndexBounds(t *testing.T) {
	e := New(CategoryElectricity)
	if _, err := e.WithOtherSourceQuantity(0, decimal.NewFromInt(1)); err == nil {
		t.Fatal("expected an error for a missing sub-row")
	}
	e = e.AddOtherSource()
	if _, err := e.RemoveOtherSource(1); err == nil {
		t.Fatal("expected an error for an out-of-range index")
	}
	e, err := e.RemoveOtherSource(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(e.OtherSources) != 0 {
		t.Fatalf("expected no sub-rows, got %d", len(e.OtherSources))
	}
}

func TestCleanRowBecomesDirtyOnEdit(t *testing.T) {
	e := New(CategoryFuel)
	e.State = StateClean

	e, err := e.WithQuantity(decimal.NewFromInt(10))
	if err != nil {
		t.Fatal(err)
	}
	if e.State != StateDirty {
		t.Fatalf("expected dirty after edit, got %s", e.State)
	}

	// A new row stays new.
	n := New(CategoryFuel)
	n, err = n.WithQuantity(decimal.NewFromInt(10))
	if err != nil {
		t.Fatal(err)
	}
	if n.State != StateNew {
		t.Fatalf("expected new to stay new, got %s", n.State)
	}
}

func TestCategoryValidation(t *testing.T) {
	for _, c := range Categories() {
		if !c.Valid() {
			t.Fatalf("category %s should be valid", c)
		}
		if len(c.Dimensions()) != len(New(c).Selection) {
			t.Fatalf("category %s selection shape mismatch", c)
		}
	}
	if Category("logistics").Valid() {
		t.Fatal("unknown category should not validate")
	}
}
