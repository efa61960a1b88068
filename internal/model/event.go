package model

import (
	"strings"
	"time"
)

// EventKind labels an event; behaviour never differs by kind.
type EventKind string

const (
	EventConcert    EventKind = "CONCERT"
	EventShow       EventKind = "SHOW"
	EventConference EventKind = "CONFERENCE"
)

// ParseEventKind accepts any casing and reports whether the kind is known.
func ParseEventKind(s string) (EventKind, bool) {
	switch k := EventKind(strings.ToUpper(strings.TrimSpace(s))); k {
	case EventConcert, EventShow, EventConference:
		return k, true
	}
	return "", false
}

// Event is a dated happening with seats split into priced categories.
type Event struct {
	ID           uint64    `db:"id" json:"id"`
	OrganizerID  uint64    `db:"organizer_id" json:"organizer_id"`
	Name         string    `db:"name" json:"name"`
	Kind         EventKind `db:"kind" json:"kind"`
	StartsAt     time.Time `db:"starts_at" json:"starts_at"`
	Location     string    `db:"location" json:"location"`
	SpecialGuest string    `db:"special_guest" json:"special_guest,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// EventDetail is an event together with its categories.
type EventDetail struct {
	Event
	Categories []SeatCategory `json:"categories"`
}

// EventQuery filters and pages a catalog search. Zero values mean "any",
// except From which the service defaults to now.
type EventQuery struct {
	Name     string
	Location string
	Kind     EventKind
	From     time.Time
	To       time.Time
	Page     int
	PageSize int
}

// EventPage is one page of search results.
type EventPage struct {
	Items    []Event `json:"items"`
	Total    int64   `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
}
