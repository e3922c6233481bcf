package repository

import (
	"context"

	"github.com/Malcolm-Mukorera/campus-events-api/internal/domain/entity"
)

// EventRepository defines the persistence operations for events. Returned
// events always carry a resolved Organizer (id, name, email).
type EventRepository interface {
	// List returns the page selected by f sorted by date ascending, and the
	// number of events matching f ignoring Offset/Limit.
	List(ctx context.Context, f entity.EventFilter) ([]entity.Event, int64, error)
	GetByID(ctx context.Context, id string) (*entity.Event, error)
	Create(ctx context.Context, e *entity.Event) error
	// Update persists the editable fields of e. It returns
	// ErrCapacityBelowAttendees when e.Capacity is lower than the stored
	// attendee count.
	Update(ctx context.Context, e *entity.Event) error
	Delete(ctx context.Context, id string) error
	// ToggleAttendee removes userID from the attendees of event id if present,
	// otherwise appends it unless the event is at capacity (ErrCapacityReached).
	// The check and the write happen as one atomic store operation.
	ToggleAttendee(ctx context.Context, id, userID string) (joined bool, err error)
	DeleteAll(ctx context.Context) error
}
