package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	errors "github.com/frahmantamala/grievance-portal/internal"
	"github.com/frahmantamala/grievance-portal/internal/grievance"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON, "":
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", errors.NewValidationFieldError("format", "format must be json or csv", errors.ErrCodeInvalidFormat)
	}
}

func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/json; charset=utf-8"
}

// CSVMode selects how text cells are quoted.
type CSVMode string

const (
	// CSVModeRFC4180 quotes every text cell and doubles embedded quotes.
	CSVModeRFC4180 CSVMode = "rfc4180"
	// CSVModeLegacy quotes only title, description and location and does not
	// escape anything. Cells containing quotes or commas produce malformed
	// rows; it exists for consumers of the old export.
	CSVModeLegacy CSVMode = "legacy"
)

// CSVHeader is the fixed column order of the CSV export.
var CSVHeader = []string{"ID", "Title", "Description", "Location", "Department", "Status", "Reporter", "Contact", "Date", "Votes"}

type jsonDocument struct {
	Problems   []grievance.Grievance `json:"problems"`
	ExportDate string                `json:"exportDate"`
}

// ToJSON renders the collection with an ISO-8601 UTC export timestamp,
// indented by two spaces.
func ToJSON(grievances []grievance.Grievance, at time.Time) ([]byte, error) {
	if grievances == nil {
		grievances = []grievance.Grievance{}
	}
	doc := jsonDocument{
		Problems:   grievances,
		ExportDate: at.UTC().Format("2006-01-02T15:04:05.000Z"),
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ToCSV renders one header line and one line per grievance joined by "\n".
func ToCSV(grievances []grievance.Grievance, mode CSVMode) []byte {
	lines := make([]string, 0, len(grievances)+1)
	lines = append(lines, strings.Join(CSVHeader, ","))

	for i := range grievances {
		g := &grievances[i]
		var cells []string
		if mode == CSVModeLegacy {
			cells = []string{
				strconv.FormatInt(g.ID, 10),
				`"` + g.Title + `"`,
				`"` + g.Description + `"`,
				`"` + g.Location + `"`,
				g.Authority,
				string(g.Status),
				g.ReporterName,
				g.ReporterContact,
				g.DateReported,
				strconv.Itoa(g.Votes),
			}
		} else {
			cells = []string{
				strconv.FormatInt(g.ID, 10),
				quote(g.Title),
				quote(g.Description),
				quote(g.Location),
				quote(g.Authority),
				quote(string(g.Status)),
				quote(g.ReporterName),
				quote(g.ReporterContact),
				quote(g.DateReported),
				strconv.Itoa(g.Votes),
			}
		}
		lines = append(lines, strings.Join(cells, ","))
	}

	return []byte(strings.Join(lines, "\n"))
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// FileName is the download name for an export taken at.
func FileName(format Format, at time.Time) string {
	return fmt.Sprintf("grievance_report_%d.%s", at.UnixMilli(), format)
}
