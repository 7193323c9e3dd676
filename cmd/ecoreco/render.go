package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"

	"github.com/ecoreco/backend/internal/domain"
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderResults prints ranked products as a table, or JSON when asJSON is set
func renderResults(w io.Writer, results []domain.RankedResult, asJSON bool) error {
	if asJSON {
		return writeJSON(w, map[string]interface{}{"results": results})
	}
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "no results")
		return err
	}

	data := make([][]string, 0, len(results))
	for i, r := range results {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			strconv.FormatInt(r.ID, 10),
			r.Name,
			r.Category,
			formatFloat(r.EcoRating, 1),
			formatFloat(r.Price, 2),
			formatFloat(r.Score, 2),
			r.Method,
		})
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"#", "ID", "Name", "Category", "Eco", "Price", "Score", "Method"})
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// renderAdjustment prints the signals behind one rating change
func renderAdjustment(w io.Writer, a *domain.RatingAdjustment, asJSON bool) error {
	if asJSON {
		return writeJSON(w, map[string]interface{}{"ok": true, "adjustment": a})
	}

	degraded := "-"
	if a.Degraded() {
		degraded = strings.Join(a.DegradedSignals, ", ")
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Signal", "Value"})
	err := table.Bulk([][]string{
		{"product", strconv.FormatInt(a.ProductID, 10)},
		{"sentiment", fmt.Sprintf("%s (%s)", formatFloat(a.Polarity, 3), a.Sentiment)},
		{"affordability", formatFloat(a.Affordability, 3)},
		{"popularity", formatFloat(a.Popularity, 3)},
		{"base delta", formatFloat(a.BaseDelta, 2)},
		{"multiplier", formatFloat(a.Multiplier, 3)},
		{"delta", formatFloat(a.Delta, 4)},
		{"rating", formatFloat(a.PreviousRating, 2) + " -> " + formatFloat(a.NewRating, 2)},
		{"degraded", degraded},
	})
	if err != nil {
		return err
	}
	return table.Render()
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}
