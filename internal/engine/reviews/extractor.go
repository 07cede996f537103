package reviews

import (
	"errors"
	"fmt"

	"github.com/law-makers/reviewcrawl/pkg/models"
	"github.com/tidwall/gjson"
)

// ErrMalformedRecord is returned for a node that looks like a review record
// but whose detail block cannot be read.
var ErrMalformedRecord = errors.New("malformed review record")

// Positional paths relative to a record node
const (
	pathName    = "1.4.5.0"
	pathDate    = "1.6"
	pathDetail  = "2"
	pathRating  = "0.0"
	pathText    = "15.0.0"
	pathTextAlt = "16.0.0"
)

// Stats summarizes one extraction pass
type Stats struct {
	Records   int
	Discarded int
}

func (s *Stats) add(o Stats) {
	s.Records += o.Records
	s.Discarded += o.Discarded
}

// Extract walks root depth-first and returns every review record it finds,
// in discovery order. Malformed records are skipped and counted.
func Extract(root gjson.Result) ([]models.Review, Stats) {
	var (
		out   []models.Review
		stats Stats
	)
	walk(root, func(n gjson.Result) {
		r, err := FromNode(n)
		if err != nil {
			stats.Discarded++
			return
		}
		stats.Records++
		out = append(out, r)
	})
	return out, stats
}

// ExtractAll extracts every root in order and concatenates the results
func ExtractAll(roots []gjson.Result) ([]models.Review, Stats) {
	var (
		out   []models.Review
		stats Stats
	)
	for _, root := range roots {
		rs, s := Extract(root)
		out = append(out, rs...)
		stats.add(s)
	}
	return out, stats
}

// walk visits n in pre-order, calling fn for each record. Records are
// descended into as well since a record may nest further records.
func walk(n gjson.Result, fn func(gjson.Result)) {
	if IsRecord(n) {
		fn(n)
	}
	switch KindOf(n) {
	case List, Object:
		n.ForEach(func(_, v gjson.Result) bool {
			walk(v, fn)
			return true
		})
	}
}

// FromNode maps a record node to a Review. Missing name and date degrade to
// "Unknown", a missing rating to 0 and missing text to nil.
func FromNode(n gjson.Result) (models.Review, error) {
	if !IsRecord(n) {
		return models.Review{}, fmt.Errorf("%w: not a record", ErrMalformedRecord)
	}

	r := models.Review{
		ID:   n.Get("0").Str,
		Name: stringAt(n, pathName),
		Date: stringAt(n, pathDate),
	}

	detail := n.Get(pathDetail)
	if isBlank(detail) {
		return r, nil
	}
	if KindOf(detail) != List {
		return models.Review{}, fmt.Errorf("%w: %s: detail block is a %s", ErrMalformedRecord, r.ID, KindOf(detail))
	}

	if rating := detail.Get(pathRating); rating.Exists() && rating.Type != gjson.Null {
		if rating.Type != gjson.Number {
			return models.Review{}, fmt.Errorf("%w: %s: rating is not a number", ErrMalformedRecord, r.ID)
		}
		r.Rating = rating.Num
	}

	r.Text = textAt(detail, pathText)
	if r.Text == nil {
		r.Text = textAt(detail, pathTextAlt)
	}
	return r, nil
}

// isBlank reports a missing, null or zero-valued scalar, which all mean no detail
func isBlank(v gjson.Result) bool {
	switch v.Type {
	case gjson.Null, gjson.False:
		return true
	case gjson.String:
		return v.Str == ""
	case gjson.Number:
		return v.Num == 0
	}
	return false
}

func stringAt(n gjson.Result, path string) string {
	v := n.Get(path)
	if v.Type != gjson.String {
		return models.Unknown
	}
	return v.Str
}

func textAt(n gjson.Result, path string) *string {
	v := n.Get(path)
	if v.Type != gjson.String || v.Str == "" {
		return nil
	}
	s := v.Str
	return &s
}
