package stats

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fr4nk3nst1ner/salaryspread/internal/models"
)

func record(minSalary, maxSalary float64) models.OfferRecord {
	return models.OfferRecord{MinSalary: minSalary, MaxSalary: maxSalary}
}

func TestDistribute_InvalidWidth(t *testing.T) {
	for _, width := range []int64{0, -1000} {
		got, err := Distribute([]models.OfferRecord{record(10000, 20000)}, width, 20000)
		require.ErrorIs(t, err, ErrInvalidBucketWidth)
		assert.Nil(t, got)
	}
}

func TestDistribute(t *testing.T) {
	tests := []struct {
		name         string
		offers       []models.OfferRecord
		width        int64
		rangeMax     float64
		want         map[int64]float64
		gridMax      int64
		contributing int
		degenerate   int
	}{
		{
			name:         "range split over two buckets, right edge excluded",
			offers:       []models.OfferRecord{record(10000, 20000)},
			width:        5000,
			rangeMax:     20000,
			want:         map[int64]float64{10000: 0.5, 15000: 0.5},
			gridMax:      20000,
			contributing: 1,
		},
		{
			name:       "single point offer covers no bucket",
			offers:     []models.OfferRecord{record(10000, 10000)},
			width:      5000,
			rangeMax:   10000,
			want:       map[int64]float64{},
			gridMax:    10000,
			degenerate: 1,
		},
		{
			name:       "narrow range between grid points",
			offers:     []models.OfferRecord{record(12000, 13000)},
			width:      5000,
			rangeMax:   13000,
			want:       map[int64]float64{},
			gridMax:    10000,
			degenerate: 1,
		},
		{
			name:         "weights accumulate across offers",
			offers:       []models.OfferRecord{record(1000, 3000), record(2000, 2500), record(500, 1500)},
			width:        1000,
			rangeMax:     3000,
			want:         map[int64]float64{1000: 1.5, 2000: 1.5},
			gridMax:      3000,
			contributing: 3,
		},
		{
			name:         "fractional bounds",
			offers:       []models.OfferRecord{record(999.5, 2000.5)},
			width:        1000,
			rangeMax:     2000.5,
			want:         map[int64]float64{1000: 0.5, 2000: 0.5},
			gridMax:      2000,
			contributing: 1,
		},
		{
			name:         "grid is capped at range max",
			offers:       []models.OfferRecord{record(1000, 9000)},
			width:        1000,
			rangeMax:     2500,
			want:         map[int64]float64{1000: 0.5, 2000: 0.5},
			gridMax:      2000,
			contributing: 1,
		},
		{
			name:         "offer reaching far past the grid",
			offers:       []models.OfferRecord{record(10000, 1e25)},
			width:        5000,
			rangeMax:     20000,
			want:         map[int64]float64{10000: 1.0 / 3, 15000: 1.0 / 3, 20000: 1.0 / 3},
			gridMax:      20000,
			contributing: 1,
		},
		{
			name:       "offer starting far past the grid",
			offers:     []models.OfferRecord{record(1e25, 1e25)},
			width:      5000,
			rangeMax:   20000,
			want:       map[int64]float64{},
			gridMax:    20000,
			degenerate: 1,
		},
		{
			name:       "offer entirely above the grid",
			offers:     []models.OfferRecord{record(5000, 9000)},
			width:      1000,
			rangeMax:   3000,
			want:       map[int64]float64{},
			gridMax:    3000,
			degenerate: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Distribute(tt.offers, tt.width, tt.rangeMax)
			require.NoError(t, err)

			require.Len(t, got.Weights, len(tt.want))
			for start, w := range tt.want {
				assert.InDelta(t, w, got.Weights[start], 1e-9, "bucket %d", start)
			}
			assert.Equal(t, tt.width, got.BucketWidth)
			assert.Equal(t, tt.gridMax, got.GridMax)
			assert.Equal(t, tt.contributing, got.Contributing)
			assert.Equal(t, tt.degenerate, got.Degenerate)
		})
	}
}

func TestDistribute_GridTooLarge(t *testing.T) {
	tests := []struct {
		name     string
		width    int64
		rangeMax float64
	}{
		{name: "overflowing range", width: 5000, rangeMax: 1e25},
		{name: "infinite range", width: 1000, rangeMax: math.Inf(1)},
		{name: "too many narrow buckets", width: 100, rangeMax: 5e8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Distribute([]models.OfferRecord{record(30000, 40000)}, tt.width, tt.rangeMax)
			require.ErrorIs(t, err, ErrGridTooLarge)
			assert.Nil(t, got)
		})
	}

	// The largest plausible salary still fits at the default widths.
	for _, width := range []int64{DefaultOverviewBucketWidth, DefaultDetailBucketWidth} {
		_, err := Distribute(nil, width, MaxPlausibleSalary)
		assert.NoError(t, err)
	}
}

func TestDistribute_FromStats(t *testing.T) {
	qs, err := Compute(models.Query{Name: "scenario"}, []models.RawOffer{offer(10000, 20000)})
	require.NoError(t, err)

	got, err := Distribute(qs.Offers, 5000, qs.Max)
	require.NoError(t, err)

	starts := make([]int64, 0)
	for _, b := range got.Dense() {
		starts = append(starts, b.Start)
	}
	assert.Equal(t, []int64{0, 5000, 10000, 15000, 20000}, starts)
	assert.Equal(t, []models.Bucket{{Start: 10000, Weight: 0.5}, {Start: 15000, Weight: 0.5}}, got.Buckets())
}

func TestDistribute_SinglePointFromStats(t *testing.T) {
	qs, err := Compute(models.Query{Name: "point"}, []models.RawOffer{offer(10000, 0)})
	require.NoError(t, err)
	require.Equal(t, record(10000, 10000).MaxSalary, qs.Offers[0].MaxSalary)

	got, err := Distribute(qs.Offers, 5000, qs.Max)
	require.NoError(t, err)
	assert.Zero(t, got.Mass())
	assert.Equal(t, 1, got.Degenerate)
}

func TestDistribute_MassMatchesContributingOffers(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 50; i++ {
		qs, err := Compute(models.Query{Name: "random"}, randomOffers(rng, 1+rng.Intn(60)))
		if err != nil {
			continue
		}
		for _, width := range []int64{1000, 5000} {
			d, err := Distribute(qs.Offers, width, qs.Max)
			require.NoError(t, err)

			assert.InDelta(t, float64(d.Contributing), d.Mass(), 1e-6)
			assert.LessOrEqual(t, d.Mass(), float64(len(qs.Offers))+1e-6)
			assert.Equal(t, len(qs.Offers), d.Contributing+d.Degenerate)
			for start, w := range d.Weights {
				assert.Zero(t, start%width)
				assert.LessOrEqual(t, start, d.GridMax)
				assert.Greater(t, w, 0.0)
			}
		}
	}
}

func TestDistribute_MassConservedUnderRefinement(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	for i := 0; i < 200; i++ {
		low := float64(1000 + rng.Intn(60)*500)
		o := record(low, low+float64(rng.Intn(20)*1000))
		rangeMax := o.MaxSalary + float64(rng.Intn(10)*1000)

		coarse, err := Distribute([]models.OfferRecord{o}, 5000, rangeMax)
		require.NoError(t, err)
		if coarse.Contributing == 0 {
			continue
		}
		for _, divisor := range []int64{1, 2, 5, 10} {
			fine, err := Distribute([]models.OfferRecord{o}, 5000/divisor, rangeMax)
			require.NoError(t, err)
			assert.Equal(t, 1, fine.Contributing)
			assert.InDelta(t, coarse.Mass(), fine.Mass(), 1e-9)
		}
	}
}
