package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeGrievanceSubmitted     = "grievance.submitted"
	EventTypeGrievanceUpvoted       = "grievance.upvoted"
	EventTypeGrievanceStatusChanged = "grievance.status_changed"
	EventTypeGrievanceNoteAdded     = "grievance.note_added"
	EventTypeGrievancesCleared      = "grievance.cleared"
	EventTypeAdminRegistered        = "admin.registered"
	EventTypeStoreChanged           = "store.changed"
)

func newBase(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

type GrievanceSubmittedEvent struct {
	BaseEvent
	GrievanceID int64  `json:"grievance_id"`
	Authority   string `json:"authority"`
}

func NewGrievanceSubmittedEvent(id int64, authority string) *GrievanceSubmittedEvent {
	return &GrievanceSubmittedEvent{
		BaseEvent: newBase(EventTypeGrievanceSubmitted, map[string]interface{}{
			"grievance_id": id,
			"authority":    authority,
		}),
		GrievanceID: id,
		Authority:   authority,
	}
}

type GrievanceUpvotedEvent struct {
	BaseEvent
	GrievanceID int64 `json:"grievance_id"`
	Votes       int   `json:"votes"`
}

func NewGrievanceUpvotedEvent(id int64, votes int) *GrievanceUpvotedEvent {
	return &GrievanceUpvotedEvent{
		BaseEvent: newBase(EventTypeGrievanceUpvoted, map[string]interface{}{
			"grievance_id": id,
			"votes":        votes,
		}),
		GrievanceID: id,
		Votes:       votes,
	}
}

type GrievanceStatusChangedEvent struct {
	BaseEvent
	GrievanceID int64  `json:"grievance_id"`
	From        string `json:"from"`
	To          string `json:"to"`
}

func NewGrievanceStatusChangedEvent(id int64, from, to string) *GrievanceStatusChangedEvent {
	return &GrievanceStatusChangedEvent{
		BaseEvent: newBase(EventTypeGrievanceStatusChanged, map[string]interface{}{
			"grievance_id": id,
			"from":         from,
			"to":           to,
		}),
		GrievanceID: id,
		From:        from,
		To:          to,
	}
}

type GrievanceNoteAddedEvent struct {
	BaseEvent
	GrievanceID int64 `json:"grievance_id"`
	NoteCount   int   `json:"note_count"`
}

func NewGrievanceNoteAddedEvent(id int64, noteCount int) *GrievanceNoteAddedEvent {
	return &GrievanceNoteAddedEvent{
		BaseEvent: newBase(EventTypeGrievanceNoteAdded, map[string]interface{}{
			"grievance_id": id,
			"note_count":   noteCount,
		}),
		GrievanceID: id,
		NoteCount:   noteCount,
	}
}

type GrievancesClearedEvent struct {
	BaseEvent
	Removed int `json:"removed"`
}

func NewGrievancesClearedEvent(removed int) *GrievancesClearedEvent {
	return &GrievancesClearedEvent{
		BaseEvent: newBase(EventTypeGrievancesCleared, map[string]interface{}{
			"removed": removed,
		}),
		Removed: removed,
	}
}

type AdminRegisteredEvent struct {
	BaseEvent
	Username   string `json:"username"`
	Department string `json:"department"`
}

func NewAdminRegisteredEvent(username, department string) *AdminRegisteredEvent {
	return &AdminRegisteredEvent{
		BaseEvent: newBase(EventTypeAdminRegistered, map[string]interface{}{
			"username":   username,
			"department": department,
		}),
		Username:   username,
		Department: department,
	}
}

// StoreChangedEvent forwards a backend change notification onto the bus.
type StoreChangedEvent struct {
	BaseEvent
	Collection string `json:"collection"`
	Op         string `json:"op"`
}

func NewStoreChangedEvent(collection, op string) *StoreChangedEvent {
	return &StoreChangedEvent{
		BaseEvent: newBase(EventTypeStoreChanged, map[string]interface{}{
			"collection": collection,
			"op":         op,
		}),
		Collection: collection,
		Op:         op,
	}
}
