package reviews

import "github.com/law-makers/reviewcrawl/pkg/models"

// Deduper collapses reviews by ID as they arrive. The first occurrence of an
// ID is kept, in its original position.
type Deduper struct {
	seen  map[string]struct{}
	order []models.Review
}

// NewDeduper returns an empty Deduper
func NewDeduper() *Deduper {
	return &Deduper{seen: make(map[string]struct{})}
}

// Add records r and reports whether its ID was new
func (d *Deduper) Add(r models.Review) bool {
	if _, ok := d.seen[r.ID]; ok {
		return false
	}
	d.seen[r.ID] = struct{}{}
	d.order = append(d.order, r)
	return true
}

// AddAll adds every review and returns how many were new
func (d *Deduper) AddAll(rs []models.Review) int {
	n := 0
	for _, r := range rs {
		if d.Add(r) {
			n++
		}
	}
	return n
}

// Len returns the number of unique reviews
func (d *Deduper) Len() int { return len(d.order) }

// Reviews returns the unique reviews in first-seen order
func (d *Deduper) Reviews() []models.Review {
	out := make([]models.Review, len(d.order))
	copy(out, d.order)
	return out
}

// Dedupe returns rs with later duplicates removed
func Dedupe(rs []models.Review) []models.Review {
	d := NewDeduper()
	d.AddAll(rs)
	return d.Reviews()
}
