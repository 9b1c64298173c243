package services

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/pocketbase/pocketbase/core"
)

// Die mirrors a dies record.
type Die struct {
	ID          string     `json:"id"`
	DieCode     string     `json:"dieCode"`
	DieName     string     `json:"dieName"`
	JobType     string     `json:"jobType"`
	Type        string     `json:"type"`
	Frags       int        `json:"frags"`
	ProductSize Dimensions `json:"productSize"`
	DieSize     Dimensions `json:"dieSize"`
	Price       float64    `json:"price"`
	ImageURL    string     `json:"imageUrl,omitempty"`
}

// DieFromRecord converts a dies record. The image URL is left for the caller.
func DieFromRecord(rec *core.Record) Die {
	return Die{
		ID:      rec.Id,
		DieCode: rec.GetString("die_code"),
		DieName: rec.GetString("die_name"),
		JobType: rec.GetString("job_type"),
		Type:    rec.GetString("type"),
		Frags:   rec.GetInt("frags"),
		ProductSize: Dimensions{
			Length:  rec.GetFloat("product_size_l"),
			Breadth: rec.GetFloat("product_size_b"),
		},
		DieSize: Dimensions{
			Length:  rec.GetFloat("die_size_l"),
			Breadth: rec.GetFloat("die_size_b"),
		},
		Price: rec.GetFloat("price"),
	}
}

// DieQuery filters dies. Zero values mean "any".
type DieQuery struct {
	Text      string  // matches die code or name, case-insensitive
	JobType   string
	Type      string
	Length    float64 // product length to match
	Breadth   float64 // product breadth to match
	Tolerance float64 // allowed difference per side, cm
	Limit     int
}

// DefaultSizeTolerance applies when a size is requested without a tolerance.
const DefaultSizeTolerance = 0.5

// SearchDies filters dies in memory. With a requested size, matches are
// ordered by how close they are to it (either orientation), then by code.
func SearchDies(dies []Die, q DieQuery) []Die {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	sized := q.Length > 0 || q.Breadth > 0
	tol := q.Tolerance
	if tol <= 0 {
		tol = DefaultSizeTolerance
	}

	type match struct {
		die  Die
		dist float64
	}
	var matches []match

	for _, d := range dies {
		if text != "" &&
			!strings.Contains(strings.ToLower(d.DieCode), text) &&
			!strings.Contains(strings.ToLower(d.DieName), text) {
			continue
		}
		if q.JobType != "" && !strings.EqualFold(d.JobType, q.JobType) {
			continue
		}
		if q.Type != "" && !strings.EqualFold(d.Type, q.Type) {
			continue
		}
		var dist float64
		if sized {
			var ok bool
			dist, ok = sizeDistance(d.ProductSize, q.Length, q.Breadth, tol)
			if !ok {
				continue
			}
		}
		matches = append(matches, match{die: d, dist: dist})
	}

	slices.SortStableFunc(matches, func(a, b match) int {
		if c := cmp.Compare(a.dist, b.dist); c != 0 {
			return c
		}
		return cmp.Compare(a.die.DieCode, b.die.DieCode)
	})

	out := make([]Die, 0, len(matches))
	for _, m := range matches {
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
		out = append(out, m.die)
	}
	return out
}

// sizeDistance compares a product size with the requested one, allowing the
// die to be rotated. A zero requested side matches anything.
func sizeDistance(size Dimensions, length, breadth, tol float64) (float64, bool) {
	straight, okStraight := sideDistance(size.Length, size.Breadth, length, breadth, tol)
	rotated, okRotated := sideDistance(size.Breadth, size.Length, length, breadth, tol)
	switch {
	case okStraight && okRotated:
		return math.Min(straight, rotated), true
	case okStraight:
		return straight, true
	case okRotated:
		return rotated, true
	}
	return 0, false
}

func sideDistance(l, b, wantL, wantB, tol float64) (float64, bool) {
	var dist float64
	if wantL > 0 {
		d := math.Abs(l - wantL)
		if d > tol {
			return 0, false
		}
		dist += d
	}
	if wantB > 0 {
		d := math.Abs(b - wantB)
		if d > tol {
			return 0, false
		}
		dist += d
	}
	return dist, true
}
