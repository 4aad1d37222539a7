// Package factors - Resolver invariant tests
package factors

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestResolvePartialPathReturnsOptions(t *testing.T) {
	cat := Builtin()

	res := cat.Fuel.Resolve()
	if res.State != Unresolved {
		t.Fatalf("empty path must be Unresolved, got %s", res.State)
	}
	if len(res.Options) == 0 {
		t.Fatal("empty path must return top-level options")
	}

	res = cat.Fuel.Resolve("Liquid fuels")
	if res.State != Unresolved {
		t.Fatalf("partial path must be Unresolved, got %s", res.State)
	}
	found := false
	for _, opt := range res.Options {
		if opt == "Diesel" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected Diesel among options, got %v", res.Options)
	}
}

func TestResolveFullPathReturnsFactor(t *testing.T) {
	cat := Builtin()

	res := cat.Fuel.Resolve("Liquid fuels", "Diesel", "Litre")
	if res.State != Resolved {
		t.Fatalf("full path must be Resolved, got %s", res.State)
	}
	if len(res.Options) != 0 {
		t.Fatalf("terminal resolution must have no options, got %v", res.Options)
	}
	want := decimal.NewFromFloat(2.70553)
	if !res.Factor.Value.Equal(want) {
		t.Errorf("expected factor %s, got %s", want, res.Factor.Value)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	cat := Builtin()

	first := cat.Fuel.Resolve("Gaseous fuels", "Natural gas", "kWh")
	for i := 0; i < 10; i++ {
		again := cat.Fuel.Resolve("Gaseous fuels", "Natural gas", "kWh")
		if again.State != first.State || !again.Factor.Value.Equal(first.Factor.Value) {
			t.Fatalf("resolution changed between calls: %+v vs %+v", first, again)
		}
	}
}

func TestResolveUnknownKeyIsUnresolvedNotPanic(t *testing.T) {
	cat := Builtin()

	res := cat.Fuel.Resolve("Imaginary fuels", "Unobtainium", "Litre")
	if res.State != Unresolved {
		t.Fatalf("unknown key must be Unresolved, got %s", res.State)
	}
	if len(res.Options) != 0 {
		t.Fatalf("unknown key must have no options, got %v", res.Options)
	}
}

func TestResolveTrimsKeys(t *testing.T) {
	cat := Builtin()

	res := cat.Waste.Resolve("  Mixed Paper  ", "Recycled")
	if res.State != Resolved {
		t.Fatalf("trimmed key must resolve, got %s", res.State)
	}
}

func TestEmptyTableResolvesUnresolved(t *testing.T) {
	// A catalog that is still loading is present-but-empty.
	cat := EmptyCatalog()

	res := cat.Fuel.Resolve("Liquid fuels", "Diesel", "Litre")
	if res.State != Unresolved {
		t.Fatalf("empty table must resolve Unresolved, got %s", res.State)
	}
	if res.Factor.NotApplicable {
		t.Error("empty table must not report NotApplicable")
	}
}

func TestNotApplicableIsDistinctFromUnresolved(t *testing.T) {
	cat := Builtin()

	res := cat.Waste.Resolve("Mixed Paper", "Composted")
	if res.State != NotApplicableState {
		t.Fatalf("Mixed Paper/Composted must be NotApplicable, got %s", res.State)
	}

	res = cat.Waste.Resolve("Mixed Paper", "Incinerated in orbit")
	if res.State != Unresolved {
		t.Fatalf("unknown method must be Unresolved, got %s", res.State)
	}
}

func TestAvailableDisposalMethodsExcludesNA(t *testing.T) {
	cat := Builtin()

	methods := cat.AvailableDisposalMethods("Mixed Paper")
	if len(methods) == 0 {
		t.Fatal("expected disposal methods for Mixed Paper")
	}
	for _, m := range methods {
		if m == "Composted" || m == "Anaerobic digestion" {
			t.Errorf("NotApplicable method %q must be excluded from the selectable list", m)
		}
	}
}

func TestNASpellingVariants(t *testing.T) {
	for _, s := range []string{"N/A", "n/a", "na", "NA", " n/a "} {
		if !IsNASpelling(s) {
			t.Errorf("%q must normalize to NotApplicable", s)
		}
	}
	if IsNASpelling("0") {
		t.Error("numeric zero is not a NotApplicable spelling")
	}
}

func TestActivityDispatchMembership(t *testing.T) {
	cat := Builtin()

	if !cat.Passenger.Has("Passenger vehicles") {
		t.Error("passenger table must own Passenger vehicles")
	}
	if cat.Passenger.Has("Freighting goods") {
		t.Error("passenger table must not own Freighting goods")
	}
	if !cat.Delivery.Has("Freighting goods") {
		t.Error("delivery table must own Freighting goods")
	}
}

func TestMergeLayersOverrides(t *testing.T) {
	base := Builtin()
	override := EmptyCatalog()
	override.Grid = NewTable(TableGrid, DepthGrid, map[string]interface{}{
		"United Kingdom": 0.19000,
		"Norway":         0.00800,
	})

	merged := base.Merge(override)

	res := merged.Grid.Resolve("United Kingdom")
	if !res.Factor.Value.Equal(decimal.NewFromFloat(0.19)) {
		t.Errorf("override must win, got %s", res.Factor.Value)
	}
	if merged.Grid.Resolve("Norway").State != Resolved {
		t.Error("new country must be added by merge")
	}
	if merged.Grid.Resolve("France").State != Resolved {
		t.Error("untouched country must survive merge")
	}
	// Base catalog must be unchanged.
	if base.Grid.Resolve("Norway").State != Unresolved {
		t.Error("merge must not mutate the base catalog")
	}
}

func TestBuiltinLeavesAreNonNegative(t *testing.T) {
	cat := Builtin()
	for _, name := range TableNames() {
		tbl := cat.Table(name)
		walkLeaves(t, tbl, nil)
	}
}

func walkLeaves(t *testing.T, tbl *Table, path []string) {
	res := tbl.Resolve(path...)
	if len(res.Options) == 0 {
		if res.State == Resolved && res.Factor.Value.IsNegative() {
			t.Errorf("table %s path %v has negative factor %s", tbl.Name(), path, res.Factor.Value)
		}
		return
	}
	for _, opt := range res.Options {
		walkLeaves(t, tbl, append(append([]string{}, path...), opt))
	}
}
