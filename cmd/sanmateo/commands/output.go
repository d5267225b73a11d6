package commands

import (
	"fmt"
	"io"

	"covid19-scrapers/lib/dataset"
	"covid19-scrapers/lib/scrapers/sanmateo"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func newTable(out io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	t.SetTitle(title)
	return t
}

func writeJSON(out io.Writer, doc dataset.Document) error {
	contents, err := doc.JSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(contents))
	return err
}

// writeTables prints the age groups side by side in catalog order,
// followed by the timeseries.
func writeTables(out io.Writer, doc dataset.Document) {
	fmt.Fprintf(out, "%s, updated %s\n%s\n", doc.Name, doc.UpdateTime, doc.SourceUrl)

	ages := newTable(out, "Age groups")
	ages.AppendHeader(table.Row{"Age group", "Cases", "Deaths"})
	labels := sanmateo.AgeGroupLabels()
	for i, key := range sanmateo.AgeGroupKeys() {
		ages.AppendRow(table.Row{
			labels[i],
			doc.CaseTotals.AgeGroup[key],
			doc.DeathTotals.AgeGroup[sanmateo.DeathKeyPrefix+key],
		})
	}
	ages.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	ages.Render()

	series := newTable(out, "Cases by day")
	series.AppendHeader(table.Row{"Date", "New", "Total"})
	for _, p := range doc.Series {
		series.AppendRow(table.Row{p.Date, p.Cases, p.CumulCases})
	}
	series.Render()
}
