package ui

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"github.com/fr4nk3nst1ner/salaryspread/internal/utils"
)

// PrintBanner displays the application banner
func PrintBanner(silence bool) {
	if silence {
		return
	}
	banner, err := pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("Salary", pterm.FgCyan.ToStyle()),
		putils.LettersFromStringWithStyle("Spread", pterm.FgLightMagenta.ToStyle()),
	).Srender()
	if err != nil {
		return
	}
	fmt.Println(banner)
}

// ColorizeSalary colours a salary relative to the living wage: red below it,
// yellow up to 1.5x, light green up to 2.5x, green above. A missing salary is
// grey.
func ColorizeSalary(value, livingWage float64, symbol string) string {
	if value <= 0 {
		return pterm.Gray(utils.FormatSalary(0, symbol))
	}

	formatted := utils.FormatSalary(value, symbol)
	switch {
	case value < livingWage:
		return pterm.Red(formatted)
	case value < 1.5*livingWage:
		return pterm.Yellow(formatted)
	case value < 2.5*livingWage:
		return pterm.LightGreen(formatted)
	default:
		return pterm.Green(formatted)
	}
}
