package utils

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// HoursPerYear annualizes hourly rates (40 hours, 52 weeks).
const HoursPerYear = 2080

var (
	// Ordered from most to least specific; the first match wins.
	salaryPatterns = []*regexp.Regexp{
		// Ranges with K suffix
		regexp.MustCompile(`(?i)[$£€]\s?\d{2,3}(?:\.\d)?k?\s*(?:-|–|to)\s*[$£€]?\s?\d{2,3}(?:\.\d)?k`),
		// Ranges with thousands separators
		regexp.MustCompile(`(?i)[$£€]\s?\d{1,3}(?:,\d{3})+(?:\.\d{2})?\s*(?:-|–|to)\s*[$£€]?\s?\d{1,3}(?:,\d{3})+(?:\.\d{2})?`),
		// Hourly ranges and rates
		regexp.MustCompile(`(?i)[$£€]\s?\d{1,3}(?:\.\d{2})?\s*(?:-|–|to)\s*[$£€]?\s?\d{1,3}(?:\.\d{2})?\s*(?:per hour|/hr|/hour|an hour)`),
		regexp.MustCompile(`(?i)[$£€]\s?\d{1,3}(?:\.\d{2})?\s*(?:per hour|/hr|/hour|an hour)`),
		// Single values
		regexp.MustCompile(`(?i)[$£€]\s?\d{2,3}(?:\.\d)?k`),
		regexp.MustCompile(`(?i)[$£€]\s?\d{1,3}(?:,\d{3})+(?:\.\d{2})?`),
	}

	rangeSeparator = regexp.MustCompile(`(?i)\s*(?:-|–|\bto\b)\s*`)
	hourlyMarker   = regexp.MustCompile(`(?i)(?:per hour|/hr|/hour|an hour)`)
	currencyMarker = regexp.MustCompile(`[$£€]`)
)

// FindSalaryInText returns the first salary-looking fragment of text, or ""
func FindSalaryInText(text string) string {
	for _, re := range salaryPatterns {
		if match := re.FindString(text); match != "" {
			return strings.TrimSpace(match)
		}
	}
	return ""
}

// ExtractNumericValue extracts the numeric value from a single salary string
// such as "$120,000", "£45k" or "52.5K". It returns 0 when nothing parses.
func ExtractNumericValue(salaryStr string) float64 {
	// Remove any currency symbols, commas, and spaces
	salaryStr = strings.TrimSpace(salaryStr)
	salaryStr = hourlyMarker.ReplaceAllString(salaryStr, "")
	salaryStr = currencyMarker.ReplaceAllString(salaryStr, "")
	salaryStr = strings.ReplaceAll(salaryStr, ",", "")
	salaryStr = strings.TrimSpace(salaryStr)

	multiplier := 1.0
	// Handle "K" suffix (e.g., "100K" -> 100000)
	if strings.HasSuffix(strings.ToUpper(salaryStr), "K") {
		multiplier = 1000
		salaryStr = strings.TrimSpace(salaryStr[:len(salaryStr)-1])
	}

	val, err := strconv.ParseFloat(salaryStr, 64)
	if err != nil || val < 0 || math.IsInf(val, 0) || math.IsNaN(val) {
		return 0
	}
	return val * multiplier
}

// ParseSalaryRange finds a salary in text and returns its bounds, annualizing
// hourly rates. A single value yields a zero maximum, which the stats package
// reads as a single-point offer. ok is false when no salary is found.
func ParseSalaryRange(text string) (minSalary, maxSalary float64, ok bool) {
	match := FindSalaryInText(text)
	if match == "" {
		return 0, 0, false
	}

	parts := rangeSeparator.Split(match, 2)
	minSalary = ExtractNumericValue(parts[0])
	if len(parts) == 2 {
		maxSalary = ExtractNumericValue(parts[1])
		// "£45-55k" style: the suffix applies to both ends
		if strings.HasSuffix(strings.ToUpper(strings.TrimSpace(parts[1])), "K") && minSalary < 1000 {
			minSalary *= 1000
		}
	}
	if minSalary == 0 {
		return 0, 0, false
	}

	if hourlyMarker.MatchString(match) {
		minSalary *= HoursPerYear
		maxSalary *= HoursPerYear
	}
	return minSalary, maxSalary, true
}

// FormatSalary formats a salary with thousands separators, e.g. "£45,000".
func FormatSalary(value float64, symbol string) string {
	if value == 0 {
		return "Not Available"
	}
	return fmt.Sprintf("%s%s", symbol, humanize.Comma(int64(value)))
}

// FormatThousands renders an axis label, e.g. 20000 -> "£20k".
func FormatThousands(value float64, symbol string) string {
	return fmt.Sprintf("%s%dk", symbol, int64(value/1000))
}
