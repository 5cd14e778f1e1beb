package grievance

import (
	"time"
)

type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusResolved   Status = "Resolved"
)

// Statuses lists every valid status in workflow order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusResolved}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// FilterAll is the filter value meaning "no constraint".
const FilterAll = "all"

const dateLayout = "2006-01-02"

// Grievance is a citizen complaint routed to a department. The JSON names are
// the persisted record format.
type Grievance struct {
	ID              int64    `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Location        string   `json:"location"`
	Authority       string   `json:"authority"`
	ReporterName    string   `json:"reporterName"`
	ReporterContact string   `json:"reporterContact"`
	Photo           string   `json:"photo,omitempty"`
	Status          Status   `json:"status"`
	DateReported    string   `json:"dateReported"`
	Votes           int      `json:"votes"`
	Notes           []string `json:"notes"`
}

func NewGrievance(id int64, dto SubmitDTO, now time.Time) *Grievance {
	return &Grievance{
		ID:              id,
		Title:           dto.Title,
		Description:     dto.Description,
		Location:        dto.Location,
		Authority:       dto.Authority,
		ReporterName:    dto.ReporterName,
		ReporterContact: dto.ReporterContact,
		Photo:           dto.Photo,
		Status:          StatusPending,
		DateReported:    now.Format(dateLayout),
		Votes:           0,
		Notes:           []string{},
	}
}

func (g *Grievance) Upvote() {
	g.Votes++
}

func (g *Grievance) SetStatus(s Status) {
	g.Status = s
}

func (g *Grievance) AddNote(note string) {
	g.Notes = append(g.Notes, note)
}

// Filter narrows a listing. Empty fields and FilterAll match everything;
// other values must match exactly.
type Filter struct {
	Status    string
	Authority string
}

func (f Filter) Matches(g *Grievance) bool {
	if f.Status != "" && f.Status != FilterAll && string(g.Status) != f.Status {
		return false
	}
	if f.Authority != "" && f.Authority != FilterAll && g.Authority != f.Authority {
		return false
	}
	return true
}

// Stats are the headline counters shown on the public page.
type Stats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Resolved   int `json:"resolved"`
}

func CountByStatus(grievances []Grievance) Stats {
	var s Stats
	for i := range grievances {
		s.Total++
		switch grievances[i].Status {
		case StatusPending:
			s.Pending++
		case StatusInProgress:
			s.InProgress++
		case StatusResolved:
			s.Resolved++
		}
	}
	return s
}
