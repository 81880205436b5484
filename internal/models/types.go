package models

import (
	"sort"
	"time"
)

// Field names the data source uses for the salary range of an offer.
const (
	FieldMinSalary = "minSalary"
	FieldMaxSalary = "maxSalary"
)

// Query is one named search whose offers are aggregated together.
type Query struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Count     int       `json:"count"`
}

// RawOffer is an offer exactly as the data source returned it. Values may be
// numbers, numeric strings, arbitrary text or nil.
type RawOffer map[string]any

// OfferRecord is a cleaned offer: MinSalary > 0 and MaxSalary >= MinSalary.
// Every other field of the raw offer is kept in Fields.
type OfferRecord struct {
	MinSalary float64          `json:"minSalary"`
	MaxSalary float64          `json:"maxSalary"`
	Fields    map[string]Value `json:"-"`
}

// Midpoint returns the offer's representative salary, floor((min+max)/2).
func (o OfferRecord) Midpoint() int64 {
	return int64((o.MinSalary + o.MaxSalary) / 2)
}

// QueryStats summarises the cleaned offers of one query.
type QueryStats struct {
	QueryID   int64         `json:"query_id"`
	QueryName string        `json:"query_name"`
	Mean      int64         `json:"mean"`
	Median    int64         `json:"median"`
	Min       float64       `json:"min"`
	Max       float64       `json:"max"`
	Offers    []OfferRecord `json:"-"`
}

// Bucket is one fixed-width slot of a distribution, identified by its start.
type Bucket struct {
	Start  int64   `json:"start"`
	Weight float64 `json:"weight"`
}

// BucketDistribution is the weighted histogram of one query's offers.
type BucketDistribution struct {
	BucketWidth int64 `json:"bucket_width"`
	// GridMax is the start of the last bucket on the grid, or -1 when the
	// grid is empty.
	GridMax int64             `json:"grid_max"`
	Weights map[int64]float64 `json:"weights"`
	// Contributing counts offers that overlapped at least one bucket.
	Contributing int `json:"contributing"`
	// Degenerate counts offers that overlapped none.
	Degenerate int `json:"degenerate"`
}

// Buckets returns the buckets that received mass, ascending by start.
func (d *BucketDistribution) Buckets() []Bucket {
	out := make([]Bucket, 0, len(d.Weights))
	for start, w := range d.Weights {
		out = append(out, Bucket{Start: start, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// Dense returns every bucket of the grid, including empty ones, so that
// distributions of different queries can be drawn on a common axis.
func (d *BucketDistribution) Dense() []Bucket {
	if d.BucketWidth <= 0 || d.GridMax < 0 {
		return nil
	}
	out := make([]Bucket, 0, d.GridMax/d.BucketWidth+1)
	for start := int64(0); start <= d.GridMax; start += d.BucketWidth {
		out = append(out, Bucket{Start: start, Weight: d.Weights[start]})
	}
	return out
}

// Mass returns the total accumulated weight.
func (d *BucketDistribution) Mass() float64 {
	var total float64
	for _, w := range d.Weights {
		total += w
	}
	return total
}

// Listing represents one job card scraped from a job board
type Listing struct {
	Company     string  `json:"company"`
	Title       string  `json:"title"`
	Location    string  `json:"location"`
	URL         string  `json:"url"`
	SalaryRange string  `json:"salary_range"`
	MinSalary   float64 `json:"min_salary"`
	MaxSalary   float64 `json:"max_salary"`
	Source      string  `json:"source"`
}

// Salary represents the schema.org baseSalary structure embedded in job postings
type Salary struct {
	BaseSalary struct {
		Currency string `json:"currency"`
		Value    struct {
			MinValue float64 `json:"minValue"`
			MaxValue float64 `json:"maxValue"`
			Value    float64 `json:"value"`
			UnitText string  `json:"unitText"`
		} `json:"value"`
	} `json:"baseSalary"`
}

// JobPosting is the subset of a schema.org JobPosting the ingester reads
type JobPosting struct {
	Salary
	Type               string `json:"@type"`
	Title              string `json:"title"`
	URL                string `json:"url"`
	HiringOrganization struct {
		Name string `json:"name"`
	} `json:"hiringOrganization"`
	JobLocation struct {
		Address struct {
			Locality string `json:"addressLocality"`
			Region   string `json:"addressRegion"`
		} `json:"address"`
	} `json:"jobLocation"`
}
