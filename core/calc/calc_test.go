// Package calc - Calculator tests, anchored on worked reporting examples
package calc

import (
	"testing"

	"github.com/shopspring/decimal"

	"carbontrace/core/entry"
	"carbontrace/core/factors"
)

// mustUpdate unwraps a setter result, panicking on a rejected update. Test
// fixtures only use in-range values, so a rejection is a broken fixture.
func mustUpdate(e entry.Entry, err error) entry.Entry {
	if err != nil {
		panic(err)
	}
	return e
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func approxEqual(a, b decimal.Decimal, tol string) bool {
	return a.Sub(b).Abs().LessThanOrEqual(dec(tol))
}

func fuelRow(t *testing.T, group, fuel, unit, qty string) entry.Entry {
	t.Helper()
	e := entry.New(entry.CategoryFuel)
	e = mustUpdate(e.WithDimension(0, group))
	e = mustUpdate(e.WithDimension(1, fuel))
	e = mustUpdate(e.WithDimension(2, unit))
	e = mustUpdate(e.WithQuantity(dec(qty)))
	return e
}

func TestFuelEmissions(t *testing.T) {
	cat := factors.Builtin()
	e := Recompute(cat, fuelRow(t, "Liquid fuels", "Diesel", "Litre", "100"))

	if !e.ResolvedFactor.Valid {
		t.Fatal("expected resolved factor")
	}
	want := dec("270.553")
	if !e.Emissions.Valid || !e.Emissions.Decimal.Equal(want) {
		t.Errorf("expected emissions %s, got %+v", want, e.Emissions)
	}
}

func TestFuelZeroQuantityIsUnset(t *testing.T) {
	cat := factors.Builtin()
	e := Recompute(cat, fuelRow(t, "Liquid fuels", "Diesel", "Litre", "0"))

	if e.Emissions.Valid {
		t.Errorf("zero quantity must leave emissions unset, got %s", e.Emissions.Decimal)
	}
	if !e.ResolvedFactor.Valid {
		t.Error("factor still resolves when quantity is zero")
	}
}

func TestFuelResetOnTypeChange(t *testing.T) {
	cat := factors.Builtin()
	e := Recompute(cat, fuelRow(t, "Liquid fuels", "Diesel", "Litre", "100"))
	if !e.Emissions.Valid {
		t.Fatal("precondition: fully resolved row")
	}

	// Changing the top-level group must clear fuel, unit, factor, emissions.
	e = mustUpdate(e.WithDimension(0, "Gaseous fuels"))
	if e.Dimension(1) != "" || e.Dimension(2) != "" {
		t.Errorf("lower dimensions must be cleared, got %q/%q", e.Dimension(1), e.Dimension(2))
	}
	if e.ResolvedFactor.Valid || e.Emissions.Valid {
		t.Error("derived factor and emissions must be cleared on dimension change")
	}

	e = Recompute(cat, e)
	if e.Emissions.Valid {
		t.Error("recompute of an incomplete row must stay unset")
	}
}

func TestElectricityMixExample(t *testing.T) {
	// 1000 kWh, 60% grid at factor 0.42, no other sources: 252.000000.
	cat := factors.Builtin()
	e := entry.New(entry.CategoryElectricity)
	e = mustUpdate(e.WithTotalKWh(dec("1000")))
	e = mustUpdate(e.WithGridPct(dec("60")))
	e = mustUpdate(e.WithGridCountry("United States"))
	e = mustUpdate(e.WithOtherPct(dec("0")))

	e = Recompute(cat, e)
	want := dec("252")
	if !e.Emissions.Valid || !e.Emissions.Decimal.Equal(want) {
		t.Errorf("expected %s, got %+v", want, e.Emissions)
	}
}

func TestElectricityUnsetCountryContributesZeroGridPart(t *testing.T) {
	cat := factors.Builtin()
	e := entry.New(entry.CategoryElectricity)
	e = mustUpdate(e.WithTotalKWh(dec("1000")))
	e = mustUpdate(e.WithGridPct(dec("60")))
	// No country selected: grid part is zero, not an error.

	e = Recompute(cat, e)
	if !e.Emissions.Valid || !e.Emissions.Decimal.IsZero() {
		t.Errorf("expected zero total, got %+v", e.Emissions)
	}
}

func TestElectricityOtherSourcesBlending(t *testing.T) {
	// The other-sources term scales percentage-of-total-kWh by the raw
	// summed sub-row emissions.
	cat := factors.Builtin()
	e := entry.New(entry.CategoryElectricity)
	e = mustUpdate(e.WithTotalKWh(dec("100")))
	e = mustUpdate(e.WithOtherPct(dec("10")))
	e = e.AddOtherSource()
	e = mustUpdate(e.WithOtherSourceDimension(0, 0, "Liquid fuels"))
	e = mustUpdate(e.WithOtherSourceDimension(0, 1, "Diesel"))
	e = mustUpdate(e.WithOtherSourceDimension(0, 2, "Litre"))
	e = mustUpdate(e.WithOtherSourceQuantity(0, dec("2")))

	e = Recompute(cat, e)

	// Sub-row: 2 * 2.70553 = 5.41106. Other part: 0.1 * 100 * 5.41106.
	want := dec("54.1106")
	if !e.Emissions.Valid || !e.Emissions.Decimal.Equal(want) {
		t.Errorf("expected %s, got %+v", want, e.Emissions)
	}
	if !e.OtherSources[0].Emissions.Valid {
		t.Error("sub-row emissions must be recomputed alongside the row")
	}
}

func TestTransportDispatchPassengerFirst(t *testing.T) {
	cat := factors.Builtin()
	e := entry.New(entry.CategoryTransport)
	e = mustUpdate(e.WithDimension(0, "Passenger vehicles"))
	e = Recompute(cat, e)
	if e.ActivityKind != entry.KindPassenger {
		t.Fatalf("expected passenger dispatch, got %q", e.ActivityKind)
	}

	e = mustUpdate(e.WithDimension(0, "Freighting goods"))
	if e.ActivityKind != entry.KindUnknown {
		t.Fatal("changing activity must clear the stored dispatch")
	}
	e = Recompute(cat, e)
	if e.ActivityKind != entry.KindDelivery {
		t.Fatalf("expected delivery dispatch, got %q", e.ActivityKind)
	}
}

func TestTransportEmissions(t *testing.T) {
	cat := factors.Builtin()
	e := entry.New(entry.CategoryTransport)
	e = mustUpdate(e.WithDimension(0, "Delivery vehicles"))
	e = mustUpdate(e.WithDimension(1, "Van (class II)"))
	e = mustUpdate(e.WithDimension(2, "km"))
	e = mustUpdate(e.WithDistance(dec("250")))

	e = Recompute(cat, e)
	want := dec("44.9775") // 250 * 0.17991
	if !e.Emissions.Valid || !e.Emissions.Decimal.Equal(want) {
		t.Errorf("expected %s, got %+v", want, e.Emissions)
	}
}

func TestTravelMileConversionExample(t *testing.T) {
	// unit "Miles", factor 0.403, distance 10:
	// perKm = 0.403 / 1.60934 = 0.2504132..., emissions = 2.504132.
	cat := factors.Builtin()
	e := entry.New(entry.CategoryBusinessTravel)
	e = mustUpdate(e.WithDimension(0, "Car - large"))
	e = mustUpdate(e.WithDimension(1, "Miles"))
	e = mustUpdate(e.WithDistance(dec("10")))

	e = Recompute(cat, e)
	if !e.ResolvedFactor.Valid {
		t.Fatal("expected resolved per-km factor")
	}
	if !approxEqual(e.ResolvedFactor.Decimal, dec("0.2504132"), "0.0000001") {
		t.Errorf("expected per-km factor ~0.2504132, got %s", e.ResolvedFactor.Decimal)
	}
	if !e.Emissions.Valid || !e.Emissions.Decimal.Equal(dec("2.504132")) {
		t.Errorf("expected emissions 2.504132, got %+v", e.Emissions)
	}
}

func TestTravelKilometreUnitPassesThrough(t *testing.T) {
	got := PerKilometre(dec("0.2"), "km")
	if !got.Equal(dec("0.2")) {
		t.Errorf("km factor must pass through, got %s", got)
	}
	got = PerKilometre(dec("0.403"), "MILES")
	if !approxEqual(got, dec("0.2504132"), "0.0000001") {
		t.Errorf("mile match must be case-insensitive, got %s", got)
	}
}

func TestCommutingMultipliesEmployees(t *testing.T) {
	cat := factors.Builtin()
	e := entry.New(entry.CategoryCommuting)
	e = mustUpdate(e.WithDimension(0, "National rail"))
	e = mustUpdate(e.WithDimension(1, "km"))
	e = mustUpdate(e.WithDistance(dec("20")))
	e = mustUpdate(e.WithEmployees(dec("15")))

	e = Recompute(cat, e)
	want := dec("10.638") // 15 * 20 * 0.03546
	if !e.Emissions.Valid || !e.Emissions.Decimal.Equal(want) {
		t.Errorf("expected %s, got %+v", want, e.Emissions)
	}

	// Without a headcount the row is incomplete.
	e2 := entry.New(entry.CategoryCommuting)
	e2 = mustUpdate(e2.WithDimension(0, "National rail"))
	e2 = mustUpdate(e2.WithDimension(1, "km"))
	e2 = mustUpdate(e2.WithDistance(dec("20")))
	e2 = Recompute(cat, e2)
	if e2.Emissions.Valid {
		t.Error("missing employees must leave emissions unset")
	}
}

func TestRefrigerantEmissions(t *testing.T) {
	cat := factors.Builtin()
	e := entry.New(entry.CategoryRefrigerant)
	e = mustUpdate(e.WithDimension(0, "R-410A"))
	e = mustUpdate(e.WithQuantity(dec("0.5")))

	e = Recompute(cat, e)
	want := dec("1044") // 0.5 * 2088
	if !e.Emissions.Valid || !e.Emissions.Decimal.Equal(want) {
		t.Errorf("expected %s, got %+v", want, e.Emissions)
	}
}

func TestWasteNotApplicableStaysUnset(t *testing.T) {
	// Mixed Paper cannot be composted: emissions unset regardless of volume.
	cat := factors.Builtin()
	e := entry.New(entry.CategoryWaste)
	e = mustUpdate(e.WithDimension(0, "Mixed Paper"))
	e = mustUpdate(e.WithDimension(1, "Composted"))
	e = mustUpdate(e.WithVolume(dec("500")))

	e = Recompute(cat, e)
	if e.ResolvedFactor.Valid || e.Emissions.Valid {
		t.Errorf("NotApplicable route must stay unset, got %+v", e.Emissions)
	}
}

func TestWasteEmissions(t *testing.T) {
	cat := factors.Builtin()
	e := entry.New(entry.CategoryEndOfLife)
	e = mustUpdate(e.WithDimension(0, "Mixed Paper"))
	e = mustUpdate(e.WithDimension(1, "Landfilled"))
	e = mustUpdate(e.WithVolume(dec("2")))

	e = Recompute(cat, e)
	want := dec("2083.6") // 2 * 1041.80
	if !e.Emissions.Valid || !e.Emissions.Decimal.Equal(want) {
		t.Errorf("expected %s, got %+v", want, e.Emissions)
	}
}

func TestInvestmentAttributionExample(t *testing.T) {
	// 500 tCO2e at 20% ownership: 100 tCO2e.
	cat := factors.Builtin()
	e := entry.New(entry.CategoryInvestment)
	e = mustUpdate(e.WithTotalEmissions(dec("500")))
	e = mustUpdate(e.WithOwnershipPct(dec("20")))

	e = Recompute(cat, e)
	want := dec("100")
	if !e.Emissions.Valid || !e.Emissions.Decimal.Equal(want) {
		t.Errorf("expected %s tCO2e, got %+v", want, e.Emissions)
	}
}

func TestInvestmentRejectsOutOfRangePct(t *testing.T) {
	e := entry.New(entry.CategoryInvestment)
	e = mustUpdate(e.WithOwnershipPct(dec("20")))

	// 150% is refused and the prior value retained.
	_, err := e.WithOwnershipPct(dec("150"))
	if err == nil {
		t.Fatal("expected rejection of ownership percentage above 100")
	}
	if !e.OwnershipPct.Valid || !e.OwnershipPct.Decimal.Equal(dec("20")) {
		t.Errorf("prior value must be retained, got %+v", e.OwnershipPct)
	}
}

func TestNegativeQuantityRejected(t *testing.T) {
	e := entry.New(entry.CategoryFuel)
	updated, err := e.WithQuantity(dec("-5"))
	if err == nil {
		t.Fatal("expected rejection of negative quantity")
	}
	if updated.Quantity.Valid {
		t.Error("rejected value must not be stored")
	}
}

func TestRecomputeAgainstEmptyCatalog(t *testing.T) {
	// A still-loading catalog yields Unresolved for everything; calculators
	// must produce unset, not panic.
	cat := factors.EmptyCatalog()
	e := Recompute(cat, fuelRow(t, "Liquid fuels", "Diesel", "Litre", "100"))
	if e.ResolvedFactor.Valid || e.Emissions.Valid {
		t.Error("empty catalog must leave derived values unset")
	}
}

func TestDisplayRoundingIsPresentationOnly(t *testing.T) {
	v := decimal.NullDecimal{Decimal: dec("2.503805"), Valid: true}
	if got := Display2(v); got != "2.50" {
		t.Errorf("expected 2.50, got %s", got)
	}
	// The stored value keeps full precision.
	if !v.Decimal.Equal(dec("2.503805")) {
		t.Error("display rounding must not change the stored value")
	}
	if got := Display2(decimal.NullDecimal{}); got != "" {
		t.Errorf("unset value must display empty, got %q", got)
	}
}

func TestRecomputeDoesNotMutateInputSubRows(t *testing.T) {
	cat := factors.Builtin()
	e := entry.New(entry.CategoryElectricity)
	e = mustUpdate(e.WithTotalKWh(dec("100")))
	e = mustUpdate(e.WithOtherPct(dec("10")))
	e = e.AddOtherSource()
	e = mustUpdate(e.WithOtherSourceDimension(0, 0, "Liquid fuels"))
	e = mustUpdate(e.WithOtherSourceDimension(0, 1, "Diesel"))
	e = mustUpdate(e.WithOtherSourceDimension(0, 2, "Litre"))
	e = mustUpdate(e.WithOtherSourceQuantity(0, dec("2")))

	out := Recompute(cat, e)

	if e.OtherSources[0].Emissions.Valid {
		t.Error("input sub-rows must stay untouched")
	}
	if !out.OtherSources[0].Emissions.Valid {
		t.Error("expected recomputed sub-row emissions on the result")
	}
}
