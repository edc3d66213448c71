package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// WriteText prints the view as a plain-text table
func WriteText(w io.Writer, view ScreenView) error {
	var b strings.Builder

	b.WriteString(view.Headline + "\n")
	if view.Interpretation != "" {
		fmt.Fprintf(&b, "Interpreted as: %s (%s)\n", view.Interpretation, view.IntentSource)
	}
	for _, line := range NoticeLines(view.Notices) {
		b.WriteString("⚠️  " + line + "\n")
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	if view.Kind != KindResults {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\n#\tSYMBOL\tNAME\tSECTOR\tPRICE\tGROWTH\tP/E\tYIELD\tMKT CAP\tSCORE")
	for _, r := range view.Rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			r.Rank, r.Symbol, r.Name, r.Sector, r.Price, r.Growth, r.PE, r.DividendYield, r.MarketCap, r.Score)
	}
	return tw.Flush()
}
