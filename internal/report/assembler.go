// Package report runs the per-query aggregation for every stored query and
// ranks the results for presentation.
package report

import (
	"sort"

	"github.com/fr4nk3nst1ner/salaryspread/internal/models"
)

// DefaultLivingWage is the reference line drawn on the charts. It is never
// used in a computation.
const DefaultLivingWage = 22360

// Entry is the result for one query that had usable offers.
type Entry struct {
	Stats *models.QueryStats
	// Overview is bucketed at the overview width, Detail at the detail width.
	Overview *models.BucketDistribution
	Detail   *models.BucketDistribution
}

// Skip records a query left out of the report and why.
type Skip struct {
	Query  models.Query
	Reason error
}

// Report holds the ranked entries in the two orders the presentation needs.
type Report struct {
	// Descending ranks by max then median, highest first.
	Descending []Entry
	// Ascending ranks by max then median, lowest first.
	Ascending []Entry
	Skipped   []Skip

	LivingWage float64
}

// Assemble ranks entries. Entries without stats are dropped. Entries that
// tie on both max and median keep their input order in both rankings.
func Assemble(entries []Entry) *Report {
	kept := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Stats == nil {
			continue
		}
		kept = append(kept, e)
	}

	desc := append([]Entry(nil), kept...)
	sort.SliceStable(desc, func(i, j int) bool {
		a, b := desc[i].Stats, desc[j].Stats
		if a.Max != b.Max {
			return a.Max > b.Max
		}
		return a.Median > b.Median
	})

	asc := append([]Entry(nil), kept...)
	sort.SliceStable(asc, func(i, j int) bool {
		a, b := asc[i].Stats, asc[j].Stats
		if a.Max != b.Max {
			return a.Max < b.Max
		}
		return a.Median < b.Median
	})

	return &Report{
		Descending: desc,
		Ascending:  asc,
		LivingWage: DefaultLivingWage,
	}
}
