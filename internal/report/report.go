package report

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/frahmantamala/grievance-portal/internal/grievance"
)

type DepartmentCounts struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Resolved   int `json:"resolved"`
}

type Report struct {
	GeneratedOn     time.Time                   `json:"generatedOn"`
	TotalGrievances int                         `json:"totalGrievances"`
	Pending         int                         `json:"pending"`
	InProgress      int                         `json:"inProgress"`
	Resolved        int                         `json:"resolved"`
	ByDepartment    map[string]DepartmentCounts `json:"byDepartment"`
}

// Build aggregates a snapshot in a single pass. A grievance with a status
// outside the known set counts toward the totals only.
func Build(grievances []grievance.Grievance, at time.Time) Report {
	r := Report{
		GeneratedOn:     at,
		TotalGrievances: len(grievances),
		ByDepartment:    make(map[string]DepartmentCounts),
	}

	for i := range grievances {
		g := &grievances[i]
		dept := r.ByDepartment[g.Authority]
		dept.Total++
		switch g.Status {
		case grievance.StatusPending:
			r.Pending++
			dept.Pending++
		case grievance.StatusInProgress:
			r.InProgress++
			dept.InProgress++
		case grievance.StatusResolved:
			r.Resolved++
			dept.Resolved++
		}
		r.ByDepartment[g.Authority] = dept
	}
	return r
}

// Departments returns the department names in alphabetical order.
func (r Report) Departments() []string {
	names := make([]string, 0, len(r.ByDepartment))
	for name := range r.ByDepartment {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WriteText renders the report as an aligned table for terminals.
func (r Report) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Generated on:\t%s\n", r.GeneratedOn.Format(time.RFC1123))
	fmt.Fprintf(tw, "Total grievances:\t%d\n", r.TotalGrievances)
	fmt.Fprintf(tw, "Pending:\t%d\n", r.Pending)
	fmt.Fprintf(tw, "In Progress:\t%d\n", r.InProgress)
	fmt.Fprintf(tw, "Resolved:\t%d\n\n", r.Resolved)

	fmt.Fprintln(tw, "DEPARTMENT\tTOTAL\tPENDING\tIN PROGRESS\tRESOLVED")
	for _, name := range r.Departments() {
		d := r.ByDepartment[name]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", name, d.Total, d.Pending, d.InProgress, d.Resolved)
	}
	return tw.Flush()
}

type Source interface {
	List(ctx context.Context, filter grievance.Filter) ([]grievance.Grievance, error)
}

// Engine generates reports on demand. Nothing is cached.
type Engine struct {
	source Source
	now    func() time.Time
	logger *slog.Logger
}

func NewEngine(source Source, logger *slog.Logger) *Engine {
	return &Engine{
		source: source,
		now:    time.Now,
		logger: logger,
	}
}

func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

func (e *Engine) Generate(ctx context.Context) (*Report, error) {
	grievances, err := e.source.List(ctx, grievance.Filter{})
	if err != nil {
		e.logger.Error("failed to load grievances for report", "error", err)
		return nil, err
	}

	r := Build(grievances, e.now())
	e.logger.Info("report generated", "total", r.TotalGrievances, "departments", len(r.ByDepartment))
	return &r, nil
}
