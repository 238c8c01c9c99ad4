package copyengine

import (
	"testing"

	"github.com/google/uuid"
)

func managerCandidate(n int) candidate {
	return candidate{name: suffixName("Manager", n), key: suffixName("Manager", n)}
}

func TestResolveConflictNoCollision(t *testing.T) {
	set := newNameSet()

	res := resolveConflict(StrategySkip, set, managerCandidate)
	if res.skip || res.n != 0 || res.name != "Manager" {
		t.Fatalf("resolution = %+v, want untouched name", res)
	}
	if !set.has("Manager") {
		t.Fatal("winning key not reserved in set")
	}
}

func TestResolveConflictSkipReportsExistingID(t *testing.T) {
	existing := uuid.New()
	set := newNameSet()
	set.add("Manager", existing)

	res := resolveConflict(StrategySkip, set, managerCandidate)
	if !res.skip {
		t.Fatal("expected skip")
	}
	if res.existingID != existing {
		t.Fatalf("existingID = %s, want %s", res.existingID, existing)
	}
}

func TestResolveConflictSuffixCountsPastTakenVariants(t *testing.T) {
	set := newNameSet()
	set.add("Manager", uuid.New())
	set.add("Manager (copy)", uuid.New())
	set.add("Manager (copy 2)", uuid.New())

	res := resolveConflict(StrategySuffix, set, managerCandidate)
	if res.skip {
		t.Fatal("suffix strategy must never skip")
	}
	if res.n != 3 || res.name != "Manager (copy 3)" {
		t.Fatalf("resolution = %+v, want third suffix", res)
	}
	if !set.has("Manager (copy 3)") {
		t.Fatal("winning key not reserved in set")
	}
}

func TestResolveConflictReservationBlocksLaterRows(t *testing.T) {
	set := newNameSet()
	set.add("Manager", uuid.New())

	first := resolveConflict(StrategySuffix, set, managerCandidate)
	second := resolveConflict(StrategySuffix, set, managerCandidate)
	if first.name == second.name {
		t.Fatalf("both rows resolved to %q", first.name)
	}
	if second.name != "Manager (copy 2)" {
		t.Fatalf("second resolution = %+v", second)
	}
}

func TestSuffixHelpers(t *testing.T) {
	cases := []struct {
		n          int
		name, slug string
	}{
		{0, "Invoice", "invoice"},
		{1, "Invoice (copy)", "invoice-copy"},
		{2, "Invoice (copy 2)", "invoice-copy-2"},
		{7, "Invoice (copy 7)", "invoice-copy-7"},
	}
	for _, c := range cases {
		if got := suffixName("Invoice", c.n); got != c.name {
			t.Errorf("suffixName(%d) = %q, want %q", c.n, got, c.name)
		}
		if got := suffixSlug("invoice", c.n); got != c.slug {
			t.Errorf("suffixSlug(%d) = %q, want %q", c.n, got, c.slug)
		}
	}
	if got := route("GET", "/invoices"); got != "GET /invoices" {
		t.Errorf("route = %q", got)
	}
}
