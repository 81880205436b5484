package ui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/fr4nk3nst1ner/salaryspread/internal/models"
	"github.com/fr4nk3nst1ner/salaryspread/internal/report"
	"github.com/fr4nk3nst1ner/salaryspread/internal/utils"
)

// RenderOverview renders the descending ranking as a table with the point
// statistics of every query and the peak bucket of its overview distribution.
func RenderOverview(rep *report.Report, symbol string) (string, error) {
	data := pterm.TableData{{"Query", "Offers", "Mean", "Median", "Min", "Max", "Peak"}}
	for _, e := range rep.Descending {
		s := e.Stats
		data = append(data, []string{
			s.QueryName,
			strconv.Itoa(len(s.Offers)),
			ColorizeSalary(float64(s.Mean), rep.LivingWage, symbol),
			ColorizeSalary(float64(s.Median), rep.LivingWage, symbol),
			ColorizeSalary(s.Min, rep.LivingWage, symbol),
			ColorizeSalary(s.Max, rep.LivingWage, symbol),
			peakLabel(e.Overview, symbol),
		})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
	if err != nil {
		return "", fmt.Errorf("render overview: %w", err)
	}
	return table + "\nLiving wage: " + utils.FormatSalary(rep.LivingWage, symbol) + "\n", nil
}

// peakLabel names the bucket holding the most mass, e.g. "£30k-£31k".
func peakLabel(d *models.BucketDistribution, symbol string) string {
	if d == nil {
		return "-"
	}
	var (
		peak  models.Bucket
		found bool
	)
	for _, b := range d.Buckets() {
		if !found || b.Weight > peak.Weight {
			peak, found = b, true
		}
	}
	if !found {
		return "-"
	}
	return utils.FormatThousands(float64(peak.Start), symbol) + "-" +
		utils.FormatThousands(float64(peak.Start+d.BucketWidth), symbol)
}

// RenderRanges draws one lane per query on a shared salary axis, in the
// descending order: [ and ] mark min and max, M the median, A the mean and
// a colon the living wage.
func RenderRanges(rep *report.Report, symbol string, width int) string {
	if len(rep.Descending) == 0 || width < 10 {
		return ""
	}

	axisMax := rep.LivingWage
	labelWidth := 0
	for _, e := range rep.Descending {
		axisMax = math.Max(axisMax, e.Stats.Max)
		labelWidth = max(labelWidth, len([]rune(e.Stats.QueryName)))
	}
	col := func(v float64) int {
		c := int(v * float64(width-1) / axisMax)
		return min(max(c, 0), width-1)
	}

	var sb strings.Builder
	for _, e := range rep.Descending {
		s := e.Stats
		lane := []rune(strings.Repeat(" ", width))
		for c := col(s.Min); c <= col(s.Max); c++ {
			lane[c] = '-'
		}
		if wage := col(rep.LivingWage); lane[wage] == ' ' {
			lane[wage] = ':'
		}
		lane[col(s.Min)] = '['
		lane[col(s.Max)] = ']'
		lane[col(float64(s.Mean))] = 'A'
		lane[col(float64(s.Median))] = 'M'

		fmt.Fprintf(&sb, "%-*s |%s|\n", labelWidth, s.QueryName, string(lane))
	}

	left := utils.FormatThousands(0, symbol)
	right := utils.FormatThousands(axisMax, symbol)
	gap := max(width+2-len([]rune(left))-len([]rune(right)), 1)
	fmt.Fprintf(&sb, "%-*s  %s%s%s\n", labelWidth, "", left, strings.Repeat(" ", gap), right)
	fmt.Fprintf(&sb, "%-*s  [min ]max M median A mean : living wage %s\n",
		labelWidth, "", utils.FormatSalary(rep.LivingWage, symbol))
	return sb.String()
}

// RenderDistributions renders the detail distribution of every query as a
// horizontal bar chart, stacked in ascending order. Bars share the grid of
// their own query; the bucket holding the living wage is starred.
func RenderDistributions(rep *report.Report, symbol string) (string, error) {
	var sb strings.Builder
	for _, e := range rep.Ascending {
		sb.WriteString(pterm.DefaultSection.Sprint(e.Stats.QueryName))
		sb.WriteString("\n")

		d := e.Detail
		mass := 0.0
		if d != nil {
			mass = d.Mass()
		}
		if mass == 0 {
			sb.WriteString("no offer covers a bucket start\n")
			continue
		}

		var bars pterm.Bars
		for _, b := range d.Dense() {
			share := b.Weight / mass
			label := fmt.Sprintf("%6s %5.1f%%", utils.FormatThousands(float64(b.Start), symbol), 100*share)
			if float64(b.Start) <= rep.LivingWage && rep.LivingWage < float64(b.Start+d.BucketWidth) {
				label += " *"
			}
			bars = append(bars, pterm.Bar{
				Label: label,
				Value: int(math.Ceil(1000 * share)),
			})
		}

		chart, err := pterm.DefaultBarChart.WithHorizontal().WithBars(bars).Srender()
		if err != nil {
			return "", fmt.Errorf("render distribution of %q: %w", e.Stats.QueryName, err)
		}
		sb.WriteString(chart)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
