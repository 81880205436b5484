package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fr4nk3nst1ner/salaryspread/internal/client"
	"github.com/fr4nk3nst1ner/salaryspread/internal/models"
	"github.com/fr4nk3nst1ner/salaryspread/internal/utils"
)

// Selectors locate the parts of a job card on a listing page.
type Selectors struct {
	Card     string
	Title    string
	Company  string
	Location string
	Salary   string
	Link     string
}

// DefaultSelectors match the markup of most job boards closely enough.
var DefaultSelectors = Selectors{
	Card:     ".job-card, .job_seen_beacon, .base-card, article.job, li.job",
	Title:    ".job-title, .base-search-card__title, h2, h3",
	Company:  ".company, .company-name, .base-search-card__subtitle",
	Location: ".location, .job-location, .job-search-card__location",
	Salary:   ".salary, .salary-snippet, .job-search-card__salary-info, .compensation",
	Link:     "a[href]",
}

// Load reads a listing page from a local file or an http(s) URL and extracts
// its job listings.
func Load(ctx context.Context, httpClient *http.Client, location string, sel Selectors) ([]models.Listing, error) {
	var (
		body    []byte
		err     error
		baseURL string
	)
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		body, err = client.Fetch(ctx, httpClient, location)
		baseURL = location
	} else {
		body, err = os.ReadFile(location)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", location, err)
	}
	return ParseListings(bytes.NewReader(body), baseURL, sel)
}

// ParseListings extracts listings from an HTML page. Structured schema.org
// JobPosting data is preferred; job cards fill in the rest. Listings for the
// same company and title are reported once.
func ParseListings(r io.Reader, baseURL string, sel Selectors) ([]models.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var listings []models.Listing
	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, s *goquery.Selection) {
		for _, posting := range decodeJobPostings([]byte(s.Text())) {
			listings = append(listings, listingFromPosting(posting))
		}
	})

	doc.Find(sel.Card).Each(func(i int, s *goquery.Selection) {
		listing := models.Listing{
			Title:    cleanText(s.Find(sel.Title).First().Text()),
			Company:  cleanText(s.Find(sel.Company).First().Text()),
			Location: cleanText(s.Find(sel.Location).First().Text()),
			Source:   "html",
		}
		if listing.Title == "" {
			return
		}
		if href, ok := s.Find(sel.Link).First().Attr("href"); ok {
			listing.URL = resolveURL(baseURL, href)
		}

		salaryText := utils.FindSalaryInText(cleanText(s.Find(sel.Salary).First().Text()))
		if salaryText == "" {
			salaryText = utils.FindSalaryInText(cleanText(s.Text()))
		}
		listing.SalaryRange = "Not Available"
		if minSalary, maxSalary, ok := utils.ParseSalaryRange(salaryText); ok {
			listing.SalaryRange = salaryText
			listing.MinSalary = minSalary
			listing.MaxSalary = maxSalary
		}
		listings = append(listings, listing)
	})

	return DeduplicateListings(listings), nil
}

// decodeJobPostings accepts a single object, an array or an @graph wrapper and
// returns the JobPosting entries among them.
func decodeJobPostings(data []byte) []models.JobPosting {
	var candidates []json.RawMessage

	var graph struct {
		Graph []json.RawMessage `json:"@graph"`
	}
	var list []json.RawMessage
	switch {
	case json.Unmarshal(data, &list) == nil:
		candidates = list
	case json.Unmarshal(data, &graph) == nil && len(graph.Graph) > 0:
		candidates = graph.Graph
	default:
		candidates = []json.RawMessage{data}
	}

	var postings []models.JobPosting
	for _, c := range candidates {
		var p models.JobPosting
		if err := json.Unmarshal(c, &p); err != nil || p.Type != "JobPosting" {
			continue
		}
		postings = append(postings, p)
	}
	return postings
}

func listingFromPosting(p models.JobPosting) models.Listing {
	value := p.BaseSalary.Value
	minSalary, maxSalary := value.MinValue, value.MaxValue
	if minSalary == 0 {
		minSalary = value.Value
	}

	switch strings.ToUpper(value.UnitText) {
	case "HOUR":
		minSalary *= utils.HoursPerYear
		maxSalary *= utils.HoursPerYear
	case "MONTH":
		minSalary *= 12
		maxSalary *= 12
	}

	location := p.JobLocation.Address.Locality
	if region := p.JobLocation.Address.Region; region != "" {
		location = strings.TrimPrefix(location+", "+region, ", ")
	}

	salaryRange := "Not Available"
	switch {
	case minSalary > 0 && maxSalary > 0:
		salaryRange = fmt.Sprintf("%s %.0f - %.0f", p.BaseSalary.Currency, minSalary, maxSalary)
	case minSalary > 0:
		salaryRange = fmt.Sprintf("%s %.0f", p.BaseSalary.Currency, minSalary)
	}

	return models.Listing{
		Company:     p.HiringOrganization.Name,
		Title:       p.Title,
		Location:    location,
		URL:         p.URL,
		SalaryRange: strings.TrimSpace(salaryRange),
		MinSalary:   minSalary,
		MaxSalary:   maxSalary,
		Source:      "json-ld",
	}
}

// DeduplicateListings removes duplicate listings based on company + title.
// When duplicates are found, the one with salary information wins.
func DeduplicateListings(listings []models.Listing) []models.Listing {
	seen := make(map[string]int)
	var result []models.Listing

	for _, l := range listings {
		key := normalizeForDedup(l.Company) + "|" + normalizeForDedup(l.Title)

		if idx, exists := seen[key]; exists {
			if result[idx].MinSalary == 0 && l.MinSalary > 0 {
				result[idx] = l
			}
			continue
		}
		seen[key] = len(result)
		result = append(result, l)
	}
	return result
}

// normalizeForDedup normalizes a string for deduplication comparison
func normalizeForDedup(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), " ")
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func resolveURL(baseURL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	base, err := url.Parse(baseURL)
	if err != nil || baseURL == "" {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
