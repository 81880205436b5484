// Package stats turns the raw offers of one query into point statistics and a
// bucketed salary distribution. Everything here is a pure function of its
// input and may be called concurrently for different queries.
package stats

import (
	"errors"
	"math"
	"sort"

	"github.com/aclements/go-moremath/stats"

	"github.com/fr4nk3nst1ner/salaryspread/internal/models"
)

// ErrEmptyQuery is returned when a query has no offers with an advertised
// salary. Callers skip such queries silently.
var ErrEmptyQuery = errors.New("query has no advertised salaries")

// MaxPlausibleSalary bounds an advertised salary. Larger values are treated
// like non-numeric ones.
const MaxPlausibleSalary = 1e9

// Clean coerces every field of the raw offers and keeps the ones with an
// advertised salary. A record survives only if its minSalary is a number in
// (0, MaxPlausibleSalary]. A missing, zero, non-numeric or implausible
// maxSalary becomes the minSalary.
//
// An inverted range (maxSalary < minSalary) is kept with its bounds swapped
// rather than left as an empty range, so it still carries mass in the
// distribution and the reported Min is the smaller bound.
func Clean(raw []models.RawOffer) []models.OfferRecord {
	cleaned := make([]models.OfferRecord, 0, len(raw))
	for _, r := range raw {
		fields := make(map[string]models.Value, len(r))
		for k, v := range r {
			fields[k] = models.Coerce(v)
		}

		minSalary, ok := salary(fields, models.FieldMinSalary)
		if !ok || minSalary <= 0 {
			continue
		}
		maxSalary, ok := salary(fields, models.FieldMaxSalary)
		if !ok || maxSalary == 0 {
			maxSalary = minSalary
		}
		if maxSalary < minSalary {
			minSalary, maxSalary = maxSalary, minSalary
			if minSalary <= 0 {
				continue
			}
		}

		delete(fields, models.FieldMinSalary)
		delete(fields, models.FieldMaxSalary)
		cleaned = append(cleaned, models.OfferRecord{
			MinSalary: minSalary,
			MaxSalary: maxSalary,
			Fields:    fields,
		})
	}
	return cleaned
}

func salary(fields map[string]models.Value, key string) (float64, bool) {
	v, ok := fields[key].Float()
	if !ok || v > MaxPlausibleSalary {
		return 0, false
	}
	return v, true
}

// Compute cleans the offers of q and summarises them. The mean and median are
// taken over each offer's midpoint, min and max over the advertised bounds.
// It returns ErrEmptyQuery when no offer survives cleaning.
func Compute(q models.Query, raw []models.RawOffer) (*models.QueryStats, error) {
	offers := Clean(raw)
	if len(offers) == 0 {
		return nil, ErrEmptyQuery
	}

	midpoints := make([]float64, len(offers))
	lows := make([]float64, len(offers))
	highs := make([]float64, len(offers))
	for i, o := range offers {
		midpoints[i] = float64(o.Midpoint())
		lows[i] = o.MinSalary
		highs[i] = o.MaxSalary
	}

	minSalary, _ := stats.Sample{Xs: lows}.Bounds()
	_, maxSalary := stats.Sample{Xs: highs}.Bounds()

	return &models.QueryStats{
		QueryID:   q.ID,
		QueryName: q.Name,
		Mean:      int64(math.Floor(stats.Sample{Xs: midpoints}.Mean())),
		Median:    int64(math.Floor(median(midpoints))),
		Min:       minSalary,
		Max:       maxSalary,
		Offers:    offers,
	}, nil
}

// median returns the middle value of xs, or the mean of the two middle values
// when len(xs) is even. xs must not be empty; it is not modified.
func median(xs []float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
