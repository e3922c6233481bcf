package entity

import (
	"slices"
	"time"
)

type Category string

const (
	CategoryAcademic Category = "academic"
	CategorySocial   Category = "social"
	CategorySports   Category = "sports"
	CategoryCareer   Category = "career"
	CategoryOther    Category = "other"
)

// Categories lists the accepted event categories in display order.
var Categories = []Category{CategoryAcademic, CategorySocial, CategorySports, CategoryCareer, CategoryOther}

// Valid reports whether c is one of Categories.
func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

const DefaultFaculty = "All"

// Event is a campus event. Organizer is fixed at creation; Attendees keeps
// insertion order and never exceeds Capacity when Capacity is set.
type Event struct {
	ID          string
	Title       string
	Description string
	Date        time.Time
	Location    string
	Category    Category
	Faculty     string
	Organizer   UserRef
	Attendees   []string
	Capacity    *int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasAttendee reports whether userID has RSVP'd.
func (e *Event) HasAttendee(userID string) bool {
	return slices.Contains(e.Attendees, userID)
}

// IsFull reports whether a new attendee would exceed Capacity.
func (e *Event) IsFull() bool {
	return e.Capacity != nil && len(e.Attendees) >= *e.Capacity
}

// EventFilter narrows an event listing. Zero values mean "no constraint".
type EventFilter struct {
	// Terms are matched case-insensitively against title and description;
	// an event matches when any term occurs.
	Terms    []string
	Category Category
	// Faculty is a case-insensitive substring.
	Faculty string
	// From/To bound the event date as [From, To).
	From *time.Time
	To   *time.Time
	// IDs restricts results to the given ids when non-nil (search index hits).
	IDs []string

	Offset int
	Limit  int
}
