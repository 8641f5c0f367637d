package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/savings/internal/model"
	"github.com/cleared-dev/savings/internal/rates"
	"github.com/cleared-dev/savings/internal/savings"
)

// Report is everything shown at the end of a run.
type Report struct {
	Currency    string
	Series      model.SavingsSeries
	Summary     savings.Summary
	Resolutions []rates.Resolution
}

// Markdown renders the report as GitHub-flavored markdown.
func Markdown(r Report) string {
	var b strings.Builder
	s := r.Summary

	fmt.Fprintf(&b, "# Savings in %s\n\n", r.Currency)
	if len(r.Series.Periods) == 0 {
		b.WriteString("No periods.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Last period: **%s**\n\n", s.Last.Format(time.DateOnly))

	b.WriteString("## Totals\n\n")
	fmt.Fprintf(&b, "| Period | %s | %s | Rolling total (%d) | Rolling increment (%d) |\n",
		TotalColumn, IncrColumn, s.Window, s.Window)
	b.WriteString("|---|---:|---:|---:|---:|\n")
	for p, period := range r.Series.Periods {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			period.Format(time.DateOnly),
			FormatNullMoney(r.Series.Total[p], r.Currency),
			FormatNullMoney(r.Series.Incremental[p], r.Currency),
			FormatNullMoney(at(s.RollingTotal, p), r.Currency),
			FormatNullMoney(at(s.RollingIncremental, p), r.Currency))
	}

	b.WriteString("\n## Statistics\n\n")
	b.WriteString("| Figure | Value |\n|---|---:|\n")
	stats := []struct {
		name  string
		value string
	}{
		{"Total savings", FormatNullMoney(s.LastTotal, r.Currency)},
		{"Last increment", FormatNullMoney(s.LastIncremental, r.Currency)},
		{"Mean increment", FormatNullMoney(s.Mean, r.Currency)},
		{"Median increment", FormatNullMoney(s.Median, r.Currency)},
		{"Standard deviation", FormatNullMoney(s.StdDev, r.Currency)},
		{"Change vs previous", SignedMoney(s.DeltaPrevious, r.Currency)},
		{"Change vs mean", SignedMoney(s.DeltaMean, r.Currency)},
	}
	for _, st := range stats {
		fmt.Fprintf(&b, "| %s | %s |\n", st.name, st.value)
	}

	if len(s.Current) > 0 {
		b.WriteString("\n## Distribution\n\n")
		b.WriteString("| Account | Share |\n|---|---:|\n")
		for _, sh := range s.Current {
			fmt.Fprintf(&b, "| %s | %s |\n", escape(sh.Account), FormatPercent(sh.Share))
		}
	}

	if len(r.Resolutions) > 0 {
		b.WriteString("\n## Exchange rates\n\n")
		b.WriteString("| From | To | As of | Rate | Source |\n|---|---|---|---:|---|\n")
		for _, res := range r.Resolutions {
			asOf := "latest"
			if !res.Key.AsOf.IsZero() {
				asOf = res.Key.AsOf.Format(time.DateOnly)
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				res.Key.From, res.Key.To, asOf, res.Rate.String(), res.Source)
		}
	}
	return b.String()
}

// Render formats markdown for a terminal. plain disables colors.
func Render(md string, plain bool, width int) (string, error) {
	style := glamour.WithAutoStyle()
	if plain {
		style = glamour.WithStandardStyle("notty")
	}
	if width <= 0 {
		width = 100
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("creating renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	return out, nil
}

func at(values []decimal.NullDecimal, p int) decimal.NullDecimal {
	if p < len(values) {
		return values[p]
	}
	return decimal.NullDecimal{}
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
