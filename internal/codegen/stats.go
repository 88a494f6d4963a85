package codegen

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Stats counts what Generate emitted.
type Stats struct {
	Moves      int
	Modifies   int
	Writes     int
	Reads      int
	Loops      int // loops emitted
	Vacuous    int // loops skipped as never entered
	SkippedOps int // ops inside vacuous loops
	Lines      int // assembly lines written
}

// Ops returns the number of ops emitted, loops included.
func (st Stats) Ops() int {
	return st.Moves + st.Modifies + st.Writes + st.Reads + st.Loops
}

// Table renders the stats as a text table.
func (st Stats) Table() string {
	tw := table.NewWriter()
	tw.SetTitle("Generated")
	tw.AppendHeader(table.Row{"Kind", "Count"})
	tw.AppendRows([]table.Row{
		{"move", st.Moves},
		{"modify", st.Modifies},
		{"write", st.Writes},
		{"read", st.Reads},
		{"loop", st.Loops},
	})
	tw.AppendSeparator()
	tw.AppendRows([]table.Row{
		{"vacuous loops", st.Vacuous},
		{"skipped ops", st.SkippedOps},
	})
	tw.AppendFooter(table.Row{"lines", st.Lines})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	tw.SetStyle(table.StyleLight)
	return tw.Render()
}
