package export

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/sells-group/lead-cli/internal/model"
)

// tableColumns is the subset shown in the terminal.
var tableColumns = []string{"name", "score", "tier", "emails", "email_status", "phone", "website", "social"}

// WriteTable writes a compact aligned table.
func WriteTable(w io.Writer, leads []model.Lead) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	upper := make([]string, len(tableColumns))
	dashes := make([]string, len(tableColumns))
	for i, c := range tableColumns {
		upper[i] = strings.ToUpper(c)
		dashes[i] = strings.Repeat("-", len(c))
	}
	_, _ = fmt.Fprintln(tw, strings.Join(upper, "\t"))
	_, _ = fmt.Fprintln(tw, strings.Join(dashes, "\t"))

	for _, l := range leads {
		r := Row(l)
		social := make([]string, 0, len(l.Social))
		for _, p := range model.AllPlatforms() {
			if l.Social[p] != "" {
				social = append(social, string(p))
			}
		}
		s := model.Unknown
		if len(social) > 0 {
			s = strings.Join(social, ",")
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			truncate(r[0], 40), r[2], r[3], truncate(r[4], 50), r[5], r[6], r[7], s)
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}
