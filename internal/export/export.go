// Package export filters leads and writes them as a terminal table, CSV,
// XLSX or GeoJSON.
package export

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/scorer"
)

// Format is an output format.
type Format string

const (
	FormatTable   Format = "table"
	FormatCSV     Format = "csv"
	FormatXLSX    Format = "xlsx"
	FormatGeoJSON Format = "geojson"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatTable, FormatCSV, FormatXLSX, FormatGeoJSON}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FormatTable, nil
	}
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", eris.Errorf("export: unknown format %q", s)
}

// FormatForPath infers a format from a file extension, falling back to def.
func FormatForPath(path string, def Format) Format {
	switch strings.ToLower(path[strings.LastIndexByte(path, '.')+1:]) {
	case "csv":
		return FormatCSV
	case "xlsx":
		return FormatXLSX
	case "geojson":
		return FormatGeoJSON
	}
	return def
}

// Filter selects leads for output.
type Filter struct {
	MinScore int
	// Query matches name, category, address, website or any email,
	// ignoring case.
	Query string
}

// Apply returns the leads passing f, in order.
func (f Filter) Apply(leads []model.Lead) []model.Lead {
	fold := cases.Fold()
	q := fold.String(strings.TrimSpace(f.Query))
	out := make([]model.Lead, 0, len(leads))
	for _, l := range leads {
		if l.Score < f.MinScore {
			continue
		}
		if q != "" && !matches(l, q, fold) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func matches(l model.Lead, q string, fold cases.Caser) bool {
	fields := []*string{l.Name, l.Category, l.Address, l.Website}
	for _, f := range fields {
		if f != nil && strings.Contains(fold.String(*f), q) {
			return true
		}
	}
	for _, e := range l.Emails {
		if strings.Contains(e, q) {
			return true
		}
	}
	return false
}

// Columns are the header of tabular outputs.
func Columns() []string {
	cols := []string{
		"name", "category", "score", "tier", "emails", "email_status",
		"phone", "website", "address", "latitude", "longitude", "google_maps",
	}
	for _, p := range model.AllPlatforms() {
		cols = append(cols, string(p))
	}
	return cols
}

// Row renders a lead in Columns order. Absent values render as N/A.
func Row(l model.Lead) []string {
	emails := model.Unknown
	if len(l.Emails) > 0 {
		emails = strings.Join(l.Emails, "; ")
	}
	maps, ok := l.MapsURL()
	if !ok {
		maps = model.Unknown
	}
	status := string(l.EmailStatus)
	if status == "" {
		status = string(model.EmailUnchecked)
	}
	row := []string{
		model.Display(l.Name),
		model.Display(l.Category),
		strconv.Itoa(l.Score),
		scorer.Tier(l.Score),
		emails,
		status,
		model.Display(l.Phone),
		model.Display(l.Website),
		model.Display(l.Address),
		coord(l.Latitude),
		coord(l.Longitude),
		maps,
	}
	for _, p := range model.AllPlatforms() {
		v := l.Social[p]
		if v == "" {
			v = model.Unknown
		}
		row = append(row, v)
	}
	return row
}

func coord(f *float64) string {
	if f == nil {
		return model.Unknown
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

// Write renders leads to w in format.
func Write(w io.Writer, format Format, leads []model.Lead) error {
	switch format {
	case FormatTable, "":
		return WriteTable(w, leads)
	case FormatCSV:
		return WriteCSV(w, leads)
	case FormatXLSX:
		return WriteXLSX(w, leads)
	case FormatGeoJSON:
		return WriteGeoJSON(w, leads)
	}
	return eris.Errorf("export: unknown format %q", format)
}

// WriteFile writes leads to path, creating or truncating it.
func WriteFile(path string, format Format, leads []model.Lead) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	if err := Write(f, format, leads); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "export: close %s", path)
	}
	return nil
}
