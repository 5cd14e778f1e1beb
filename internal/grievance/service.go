package grievance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	errors "github.com/frahmantamala/grievance-portal/internal"
	"github.com/frahmantamala/grievance-portal/internal/core/events"
	"github.com/frahmantamala/grievance-portal/internal/store"
)

const (
	OpSubmit       = "submit"
	OpUpvote       = "upvote"
	OpStatusChange = "status_change"
	OpAddNote      = "add_note"
	OpClear        = "clear"
)

type MetricsRecorder interface {
	IncGrievanceMutation(op string)
}

// Service is the grievance repository. It holds no locks across store calls:
// concurrent mutations of the same collection are last-write-wins, so two
// simultaneous upvotes can lose one increment.
type Service struct {
	store   store.Adapter
	bus     events.Publisher
	metrics MetricsRecorder
	ids     *IDGenerator
	now     func() time.Time
	logger  *slog.Logger
}

func NewService(adapter store.Adapter, bus events.Publisher, metrics MetricsRecorder, logger *slog.Logger) *Service {
	return &Service{
		store:   adapter,
		bus:     bus,
		metrics: metrics,
		ids:     NewIDGenerator(time.Now),
		now:     time.Now,
		logger:  logger,
	}
}

// WithClock replaces the time source for ids and report dates.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	s.ids = NewIDGenerator(now)
	return s
}

func (s *Service) Submit(ctx context.Context, dto SubmitDTO) (*Grievance, string, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, "", err
	}

	// keep ids ahead of whatever another process already stored
	existing, err := s.load(ctx)
	if err != nil {
		return nil, "", err
	}
	for i := range existing {
		s.ids.Observe(existing[i].ID)
	}

	g := NewGrievance(s.ids.Next(), dto, s.now())
	raw, err := json.Marshal(g)
	if err != nil {
		return nil, "", fmt.Errorf("encode grievance: %w", err)
	}
	key, err := s.store.Append(ctx, store.CollectionGrievances, raw)
	if err != nil {
		s.logger.Error("failed to store grievance", "error", err)
		return nil, "", err
	}

	s.logger.Info("grievance submitted", "id", g.ID, "authority", g.Authority)
	s.record(ctx, OpSubmit, events.NewGrievanceSubmittedEvent(g.ID, g.Authority))
	return g, key, nil
}

func (s *Service) List(ctx context.Context, filter Filter) ([]Grievance, error) {
	all, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Grievance, 0, len(all))
	for i := range all {
		if filter.Matches(&all[i]) {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// Get returns nil without an error when the id is unknown.
func (s *Service) Get(ctx context.Context, id int64) (*Grievance, error) {
	all, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	all, err := s.load(ctx)
	if err != nil {
		return Stats{}, err
	}
	return CountByStatus(all), nil
}

// Upvote adds one vote. An unknown id is a no-op and yields nil.
// Two concurrent upvotes may count once: the read and the write are separate
// store calls and the last write wins.
func (s *Service) Upvote(ctx context.Context, id int64) (*Grievance, error) {
	g, err := s.mutate(ctx, id, func(g *Grievance) { g.Upvote() })
	if err != nil || g == nil {
		return g, err
	}

	s.logger.Info("grievance upvoted", "id", id, "votes", g.Votes)
	s.record(ctx, OpUpvote, events.NewGrievanceUpvotedEvent(id, g.Votes))
	return g, nil
}

// UpdateStatus sets the status. An unknown id is a no-op and yields nil.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (*Grievance, error) {
	next := Status(strings.TrimSpace(status))
	if !next.Valid() {
		return nil, errors.ErrInvalidStatus
	}

	var prev Status
	g, err := s.mutate(ctx, id, func(g *Grievance) {
		prev = g.Status
		g.SetStatus(next)
	})
	if err != nil || g == nil {
		return g, err
	}

	s.logger.Info("grievance status changed", "id", id, "from", prev, "to", next)
	s.record(ctx, OpStatusChange, events.NewGrievanceStatusChangedEvent(id, string(prev), string(next)))
	return g, nil
}

// AppendNote adds an admin note. An unknown id is a no-op and yields nil.
func (s *Service) AppendNote(ctx context.Context, id int64, note string) (*Grievance, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, errors.NewValidationFieldError("note", "note is required", errors.ErrCodeRequiredField)
	}

	g, err := s.mutate(ctx, id, func(g *Grievance) { g.AddNote(note) })
	if err != nil || g == nil {
		return g, err
	}

	s.logger.Info("grievance note added", "id", id, "notes", len(g.Notes))
	s.record(ctx, OpAddNote, events.NewGrievanceNoteAddedEvent(id, len(g.Notes)))
	return g, nil
}

// ClearAll deletes every grievance. Nothing is touched unless both
// confirmations are given.
func (s *Service) ClearAll(ctx context.Context, confirm ClearConfirmation) (int, error) {
	if !confirm.Confirmed() {
		return 0, errors.ErrClearNotConfirmed
	}

	all, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.store.WriteAll(ctx, store.CollectionGrievances, []json.RawMessage{}); err != nil {
		s.logger.Error("failed to clear grievances", "error", err)
		return 0, err
	}

	s.logger.Warn("all grievances cleared", "removed", len(all))
	s.record(ctx, OpClear, events.NewGrievancesClearedEvent(len(all)))
	return len(all), nil
}

// mutate applies fn to the grievance with id and writes the collection back.
// It returns nil when the id is unknown.
func (s *Service) mutate(ctx context.Context, id int64, fn func(*Grievance)) (*Grievance, error) {
	all, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range all {
		if all[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.logger.Debug("grievance not found, ignoring", "id", id)
		return nil, nil
	}

	fn(&all[idx])

	records, err := store.EncodeAll(all)
	if err != nil {
		return nil, fmt.Errorf("encode grievances: %w", err)
	}
	if err := s.store.WriteAll(ctx, store.CollectionGrievances, records); err != nil {
		s.logger.Error("failed to save grievances", "id", id, "error", err)
		return nil, err
	}

	g := all[idx]
	return &g, nil
}

func (s *Service) load(ctx context.Context) ([]Grievance, error) {
	records, err := s.store.Read(ctx, store.CollectionGrievances)
	if err != nil {
		s.logger.Error("failed to read grievances", "error", err)
		return nil, err
	}
	all, err := store.DecodeAll[Grievance](records)
	if err != nil {
		return nil, errors.NewInternalError("corrupt grievance record", err)
	}
	for i := range all {
		if all[i].Notes == nil {
			all[i].Notes = []string{}
		}
	}
	return all, nil
}

func (s *Service) record(ctx context.Context, op string, event events.Event) {
	if s.metrics != nil {
		s.metrics.IncGrievanceMutation(op)
	}
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Warn("publish grievance event", "op", op, "error", err)
	}
}
