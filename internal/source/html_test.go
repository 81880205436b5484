package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fr4nk3nst1ner/salaryspread/internal/models"
)

const listingPage = `<!doctype html>
<html><head>
<script type="application/ld+json">
{
  "@context": "https://schema.org/",
  "@type": "JobPosting",
  "title": "Senior Go Engineer",
  "url": "https://jobs.example.com/go-senior",
  "hiringOrganization": {"@type": "Organization", "name": "Acme"},
  "jobLocation": {"@type": "Place", "address": {"addressLocality": "London", "addressRegion": "UK"}},
  "baseSalary": {"@type": "MonetaryAmount", "currency": "GBP",
    "value": {"@type": "QuantitativeValue", "minValue": 60000, "maxValue": 80000, "unitText": "YEAR"}}
}
</script>
<script type="application/ld+json">
{"@graph": [
  {"@type": "Organization", "name": "Globex"},
  {"@type": "JobPosting", "title": "Contract Go Developer", "hiringOrganization": {"name": "Globex"},
   "baseSalary": {"currency": "GBP", "value": {"value": 50, "unitText": "HOUR"}}}
]}
</script>
</head><body>
<ul>
  <li class="job">
    <a href="/jobs/1"><h3 class="job-title">Go Developer</h3></a>
    <span class="company">Initech</span>
    <span class="location">Leeds</span>
    <span class="salary">£40,000 - £50,000 a year</span>
  </li>
  <li class="job">
    <a href="/jobs/2"><h3 class="job-title">Backend Engineer</h3></a>
    <span class="company">Hooli</span>
    <p>Great team. Pays £45k - £55k plus bonus.</p>
  </li>
  <li class="job">
    <h3 class="job-title">Platform Engineer</h3>
    <span class="company">Umbrella</span>
    <span class="salary">Competitive</span>
  </li>
  <li class="job">
    <h3 class="job-title">Senior Go Engineer</h3>
    <span class="company">Acme</span>
  </li>
  <li class="job"><span class="company">No title</span></li>
</ul>
</body></html>`

func TestParseListings(t *testing.T) {
	listings, err := ParseListings(strings.NewReader(listingPage), "https://board.example.com/search?q=go", DefaultSelectors)
	require.NoError(t, err)
	require.Len(t, listings, 5)

	byTitle := map[string]models.Listing{}
	for _, l := range listings {
		byTitle[l.Title] = l
	}

	senior := byTitle["Senior Go Engineer"]
	assert.Equal(t, "Acme", senior.Company)
	assert.Equal(t, "London, UK", senior.Location)
	assert.Equal(t, 60000.0, senior.MinSalary)
	assert.Equal(t, 80000.0, senior.MaxSalary)
	assert.Equal(t, "json-ld", senior.Source, "the structured entry wins over the bare card")

	contract := byTitle["Contract Go Developer"]
	assert.Equal(t, 104000.0, contract.MinSalary)
	assert.Equal(t, 0.0, contract.MaxSalary)

	dev := byTitle["Go Developer"]
	assert.Equal(t, "Initech", dev.Company)
	assert.Equal(t, "Leeds", dev.Location)
	assert.Equal(t, "https://board.example.com/jobs/1", dev.URL)
	assert.Equal(t, 40000.0, dev.MinSalary)
	assert.Equal(t, 50000.0, dev.MaxSalary)
	assert.Equal(t, "£40,000 - £50,000", dev.SalaryRange)

	backend := byTitle["Backend Engineer"]
	assert.Equal(t, 45000.0, backend.MinSalary, "salary found in the card text")
	assert.Equal(t, 55000.0, backend.MaxSalary)

	platform := byTitle["Platform Engineer"]
	assert.Zero(t, platform.MinSalary)
	assert.Equal(t, "Not Available", platform.SalaryRange)
}

func TestDeduplicateListings(t *testing.T) {
	listings := DeduplicateListings([]models.Listing{
		{Company: "Acme, Inc.", Title: "Go  Developer"},
		{Company: "acme inc", Title: "go developer", MinSalary: 30000},
		{Company: "Acme Inc", Title: "Go-Developer", MinSalary: 40000},
		{Company: "Other", Title: "Go Developer"},
	})

	require.Len(t, listings, 2)
	assert.Equal(t, 30000.0, listings[0].MinSalary, "first listing with a salary wins")
	assert.Equal(t, "Other", listings[1].Company)
}

func TestLoad(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listingPage))
	}))
	defer srv.Close()

	ctx := context.Background()
	fromURL, err := Load(ctx, srv.Client(), srv.URL+"/search", DefaultSelectors)
	require.NoError(t, err)
	assert.Len(t, fromURL, 5)

	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(listingPage), 0o644))
	fromFile, err := Load(ctx, nil, path, DefaultSelectors)
	require.NoError(t, err)
	assert.Len(t, fromFile, 5)

	_, err = Load(ctx, nil, filepath.Join(t.TempDir(), "missing.html"), DefaultSelectors)
	assert.Error(t, err)
}
