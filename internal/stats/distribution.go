package stats

import (
	"errors"
	"fmt"
	"math"

	"github.com/fr4nk3nst1ner/salaryspread/internal/models"
)

// Bucket widths used by the report.
const (
	DefaultOverviewBucketWidth = 1000
	DefaultDetailBucketWidth   = 5000
)

// MaxGridBuckets caps the number of buckets of one distribution.
const MaxGridBuckets = 1 << 20

var (
	// ErrInvalidBucketWidth is returned for a bucket width that is not positive.
	ErrInvalidBucketWidth = errors.New("bucket width must be positive")
	// ErrGridTooLarge is returned when rangeMax needs more than MaxGridBuckets
	// buckets at the requested width.
	ErrGridTooLarge = errors.New("bucket grid too large")
)

// Distribute spreads one unit of mass per offer evenly over the buckets its
// range covers. Buckets start at every multiple of bucketWidth from 0 up to
// rangeMax inclusive, and an offer covers bucket b when
// MinSalary <= b < MaxSalary. Offers that cover no bucket add nothing and are
// counted as degenerate. A rangeMax needing more than MaxGridBuckets buckets
// yields ErrGridTooLarge.
//
// offers must already be cleaned (see Clean).
func Distribute(offers []models.OfferRecord, bucketWidth int64, rangeMax float64) (*models.BucketDistribution, error) {
	if bucketWidth <= 0 {
		return nil, ErrInvalidBucketWidth
	}

	width := float64(bucketWidth)
	if math.IsInf(rangeMax, 0) || rangeMax/width >= MaxGridBuckets {
		return nil, fmt.Errorf("%w: %.0f at width %d", ErrGridTooLarge, rangeMax, bucketWidth)
	}
	lastK := int64(-1)
	if rangeMax >= 0 {
		lastK = int64(math.Floor(rangeMax / width))
	}

	dist := &models.BucketDistribution{
		BucketWidth: bucketWidth,
		GridMax:     lastK * bucketWidth,
		Weights:     make(map[int64]float64),
	}
	if lastK < 0 {
		dist.GridMax = -1
	}

	for _, o := range offers {
		lo, hi := coveredRange(o, bucketWidth, lastK)
		n := hi - lo + 1
		if n <= 0 {
			dist.Degenerate++
			continue
		}
		weight := 1 / float64(n)
		for k := lo; k <= hi; k++ {
			dist.Weights[k*bucketWidth] += weight
		}
		dist.Contributing++
	}
	return dist, nil
}

// coveredRange returns the first and last grid index k in [0, lastK] with
// MinSalary <= k*width < MaxSalary. hi < lo when no bucket is covered. Bounds
// beyond the grid are settled before any index arithmetic.
func coveredRange(o models.OfferRecord, width, lastK int64) (lo, hi int64) {
	gridMax := float64(lastK * width)
	if lastK < 0 || o.MinSalary > gridMax {
		return 0, -1
	}
	w := float64(width)

	lo = int64(math.Ceil(o.MinSalary / w))
	for lo > 0 && float64((lo-1)*width) >= o.MinSalary {
		lo--
	}
	for float64(lo*width) < o.MinSalary {
		lo++
	}
	if lo < 0 {
		lo = 0
	}

	if o.MaxSalary > gridMax {
		return lo, lastK
	}
	hi = int64(math.Ceil(o.MaxSalary/w)) - 1
	for float64((hi+1)*width) < o.MaxSalary {
		hi++
	}
	for hi >= 0 && float64(hi*width) >= o.MaxSalary {
		hi--
	}
	return lo, hi
}
