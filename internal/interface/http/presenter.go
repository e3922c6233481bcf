package handlers

import (
	"time"

	"github.com/Malcolm-Mukorera/campus-events-api/internal/domain/entity"
)

// userJSON is the public user shape; the password hash never leaves the service.
type userJSON struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type eventJSON struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	Category    string    `json:"category"`
	Faculty     string    `json:"faculty"`
	Organizer   userJSON  `json:"organizer"`
	Attendees   []string  `json:"attendees"`
	Capacity    *int      `json:"capacity"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toUserJSON(u *entity.User) userJSON {
	return userJSON{ID: u.ID, Name: u.Name, Email: u.Email}
}

func toEventJSON(e *entity.Event) eventJSON {
	attendees := e.Attendees
	if attendees == nil {
		attendees = []string{}
	}
	return eventJSON{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Date:        e.Date.UTC(),
		Location:    e.Location,
		Category:    string(e.Category),
		Faculty:     e.Faculty,
		Organizer:   userJSON{ID: e.Organizer.ID, Name: e.Organizer.Name, Email: e.Organizer.Email},
		Attendees:   attendees,
		Capacity:    e.Capacity,
		CreatedAt:   e.CreatedAt.UTC(),
		UpdatedAt:   e.UpdatedAt.UTC(),
	}
}

func toEventsJSON(events []entity.Event) []eventJSON {
	out := make([]eventJSON, 0, len(events))
	for i := range events {
		out = append(out, toEventJSON(&events[i]))
	}
	return out
}
