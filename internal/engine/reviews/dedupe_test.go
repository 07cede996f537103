package reviews

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/law-makers/reviewcrawl/pkg/models"
	"github.com/tidwall/gjson"
)

func TestDedupeFirstSeenWins(t *testing.T) {
	in := []models.Review{
		{ID: "a", Name: "first"},
		{ID: "b"},
		{ID: "a", Name: "second"},
		{ID: "c"},
		{ID: "b", Rating: 5},
	}
	want := []models.Review{
		{ID: "a", Name: "first"},
		{ID: "b"},
		{ID: "c"},
	}
	if diff := cmp.Diff(want, Dedupe(in)); diff != "" {
		t.Errorf("Dedupe mismatch (-want +got):\n%s", diff)
	}
}

func TestDedupeIdempotent(t *testing.T) {
	in := []models.Review{{ID: "x"}, {ID: "y"}, {ID: "x"}, {ID: "z"}, {ID: "y"}}
	once := Dedupe(in)
	twice := Dedupe(once)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("Dedupe not idempotent (-once +twice):\n%s", diff)
	}

	seen := make(map[string]bool)
	for _, r := range twice {
		if seen[r.ID] {
			t.Errorf("duplicate id %q in output", r.ID)
		}
		seen[r.ID] = true
	}
}

func TestDedupeEmpty(t *testing.T) {
	if got := Dedupe(nil); len(got) != 0 {
		t.Errorf("expected empty output, got %v", got)
	}
}

func TestDeduperAdd(t *testing.T) {
	d := NewDeduper()
	if !d.Add(models.Review{ID: "a"}) {
		t.Error("first add should report new")
	}
	if d.Add(models.Review{ID: "a"}) {
		t.Error("second add should report duplicate")
	}
	if n := d.AddAll([]models.Review{{ID: "a"}, {ID: "b"}, {ID: "c"}}); n != 2 {
		t.Errorf("AddAll: got %d new, want 2", n)
	}
	if d.Len() != 3 {
		t.Errorf("Len: got %d, want 3", d.Len())
	}

	out := d.Reviews()
	out[0].ID = "mutated"
	if d.Reviews()[0].ID != "a" {
		t.Error("Reviews should return a copy")
	}
}

func TestDuplicateAcrossBatches(t *testing.T) {
	b1 := gjson.Parse(`[` + record("Ch999", "one", "d", `[[5]]`) + `]`)
	b2 := gjson.Parse(`[` + record("Ch999", "two", "d", `[[4]]`) + `]`)

	all, _ := ExtractAll([]gjson.Result{b1, b2})
	got := Dedupe(all)
	if len(got) != 1 || got[0].ID != "Ch999" || got[0].Name != "one" {
		t.Errorf("expected one Ch999 from first batch, got %+v", got)
	}
}
