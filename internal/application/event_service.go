package application

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Malcolm-Mukorera/campus-events-api/internal/domain/entity"
	repo "github.com/Malcolm-Mukorera/campus-events-api/internal/domain/repository"
	"github.com/Malcolm-Mukorera/campus-events-api/pkg/mailer"
	"github.com/Malcolm-Mukorera/campus-events-api/pkg/mailer/templates"
	"github.com/Malcolm-Mukorera/campus-events-api/pkg/metrics"
	"github.com/Malcolm-Mukorera/campus-events-api/pkg/validation"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	// searchHitLimit caps the ids taken from the search index per listing.
	searchHitLimit = 1000
)

type EventService struct {
	Events   repo.EventRepository
	Users    repo.UserRepository
	Index    EventIndex
	Notifier Notifier
	Logger   *logrus.Logger
}

func NewEventService(events repo.EventRepository, users repo.UserRepository, index EventIndex, notifier Notifier, logger *logrus.Logger) *EventService {
	return &EventService{Events: events, Users: users, Index: index, Notifier: notifier, Logger: logger}
}

// EventInput is the body of a create request and the shape every stored
// event must satisfy after an update.
type EventInput struct {
	Title       string `json:"title" validate:"required,max=120"`
	Description string `json:"description" validate:"required,max=2000"`
	Date        string `json:"date" validate:"required,isodate"`
	Location    string `json:"location" validate:"required"`
	Category    string `json:"category" validate:"required,oneof=academic social sports career other"`
	Faculty     string `json:"faculty"`
	Capacity    *int   `json:"capacity" validate:"omitnil,gte=1"`
}

func (in *EventInput) trim() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Date = strings.TrimSpace(in.Date)
	in.Location = strings.TrimSpace(in.Location)
	in.Category = strings.TrimSpace(in.Category)
	in.Faculty = strings.TrimSpace(in.Faculty)
	if in.Faculty == "" {
		in.Faculty = entity.DefaultFaculty
	}
}

// OptionalInt tells an absent JSON field apart from an explicit null.
type OptionalInt struct {
	Set   bool
	Value *int
}

func (o *OptionalInt) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v int
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// EventPatch is the body of an update request. Nil fields are left as stored.
type EventPatch struct {
	Title       *string     `json:"title"`
	Description *string     `json:"description"`
	Date        *string     `json:"date"`
	Location    *string     `json:"location"`
	Category    *string     `json:"category"`
	Faculty     *string     `json:"faculty"`
	Capacity    OptionalInt `json:"capacity"`
}

// ListQuery carries the raw listing parameters. Page and Limit values below 1
// fall back to the defaults.
type ListQuery struct {
	Search   string
	Category string
	Faculty  string
	Date     string
	Page     int
	Limit    int
}

type EventPage struct {
	Items      []entity.Event
	Total      int64
	TotalPages int
	Page       int
	Limit      int
}

// List returns one page of events matching q, sorted by date ascending.
func (s *EventService) List(ctx context.Context, q ListQuery) (*EventPage, error) {
	page, limit := q.Page, q.Limit
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	f := entity.EventFilter{
		Category: entity.Category(strings.TrimSpace(q.Category)),
		Faculty:  strings.TrimSpace(q.Faculty),
		Limit:    limit,
	}
	// A page whose offset does not fit in an int is past the end; the store
	// is still queried so the total stays accurate.
	beyond := page-1 > (math.MaxInt-limit)/limit
	if beyond {
		f.Limit = 1
	} else {
		f.Offset = (page - 1) * limit
	}
	if d := strings.TrimSpace(q.Date); d != "" {
		from, err := validation.ParseDate(d)
		if err != nil {
			return nil, validationFailed(validation.FieldError{Field: "date", Message: "must be a valid date (YYYY-MM-DD)"})
		}
		to := from.Add(24 * time.Hour)
		f.From, f.To = &from, &to
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		f.Terms = strings.Fields(search)
		if ids, ok := s.searchIndex(ctx, search); ok {
			f.Terms = nil
			f.IDs = ids
		}
	}

	items, total, err := s.Events.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if beyond {
		items = []entity.Event{}
	}
	return &EventPage{
		Items:      items,
		Total:      total,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
		Page:       page,
		Limit:      limit,
	}, nil
}

// searchIndex resolves search to event ids. ok is false when no index is
// configured, the index failed, it returned no hits, or the hits reached
// searchHitLimit; the store then matches terms itself so events missing from
// the index are still found and the total is exact.
func (s *EventService) searchIndex(ctx context.Context, search string) (ids []string, ok bool) {
	if s.Index == nil {
		return nil, false
	}
	ids, err := s.Index.Search(ctx, search, searchHitLimit)
	if err != nil {
		s.logger().WithError(err).Warn("event search index unavailable, falling back to store search")
		return nil, false
	}
	if len(ids) == 0 || len(ids) >= searchHitLimit {
		return nil, false
	}
	return ids, true
}

func (s *EventService) Get(ctx context.Context, id string) (*entity.Event, error) {
	ev, err := s.Events.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return ev, nil
}

// Create stores a new event organized by organizerID.
func (s *EventService) Create(ctx context.Context, in EventInput, organizerID string) (*entity.Event, error) {
	in.trim()
	if err := validate(in); err != nil {
		return nil, err
	}
	date, _ := validation.ParseDate(in.Date)

	organizer, err := s.Users.GetByID(ctx, organizerID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserGone
	}
	if err != nil {
		return nil, fmt.Errorf("load organizer: %w", err)
	}

	ev := &entity.Event{
		Title:       in.Title,
		Description: in.Description,
		Date:        date,
		Location:    in.Location,
		Category:    entity.Category(in.Category),
		Faculty:     in.Faculty,
		Organizer:   organizer.Ref(),
		Attendees:   []string{},
		Capacity:    in.Capacity,
	}
	if err := s.Events.Create(ctx, ev); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	metrics.EventMutations.WithLabelValues("create").Inc()
	s.index(ctx, ev)
	return ev, nil
}

// RequireOwner returns ErrForbidden unless userID organizes ev.
func RequireOwner(ev *entity.Event, userID string) error {
	if ev == nil || userID == "" || ev.Organizer.ID != userID {
		return ErrForbidden
	}
	return nil
}

// Update applies patch to event id on behalf of userID.
func (s *EventService) Update(ctx context.Context, id string, patch EventPatch, userID string) (*entity.Event, error) {
	ev, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := RequireOwner(ev, userID); err != nil {
		return nil, err
	}

	merged := mergePatch(ev, patch)
	if err := validate(merged); err != nil {
		return nil, err
	}
	if merged.Capacity != nil && *merged.Capacity < len(ev.Attendees) {
		return nil, capacityBelowAttendees(len(ev.Attendees))
	}

	ev.Title = merged.Title
	ev.Description = merged.Description
	ev.Date, _ = validation.ParseDate(merged.Date)
	ev.Location = merged.Location
	ev.Category = entity.Category(merged.Category)
	ev.Faculty = merged.Faculty
	ev.Capacity = merged.Capacity

	switch err := s.Events.Update(ctx, ev); {
	case errors.Is(err, repo.ErrNotFound):
		return nil, ErrEventNotFound
	case errors.Is(err, repo.ErrCapacityBelowAttendees):
		// attendees joined between the read and the write
		fresh, gerr := s.Get(ctx, id)
		if gerr != nil {
			return nil, gerr
		}
		return nil, capacityBelowAttendees(len(fresh.Attendees))
	case err != nil:
		return nil, fmt.Errorf("update event: %w", err)
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	metrics.EventMutations.WithLabelValues("update").Inc()
	s.index(ctx, updated)
	return updated, nil
}

func mergePatch(ev *entity.Event, p EventPatch) EventInput {
	in := EventInput{
		Title:       ev.Title,
		Description: ev.Description,
		Date:        ev.Date.UTC().Format(time.RFC3339Nano),
		Location:    ev.Location,
		Category:    string(ev.Category),
		Faculty:     ev.Faculty,
		Capacity:    ev.Capacity,
	}
	if p.Title != nil {
		in.Title = *p.Title
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	if p.Date != nil {
		in.Date = *p.Date
	}
	if p.Location != nil {
		in.Location = *p.Location
	}
	if p.Category != nil {
		in.Category = *p.Category
	}
	if p.Faculty != nil {
		in.Faculty = *p.Faculty
	}
	if p.Capacity.Set {
		in.Capacity = p.Capacity.Value
	}
	in.trim()
	return in
}

func capacityBelowAttendees(n int) error {
	return validationFailed(validation.FieldError{
		Field:   "capacity",
		Message: "cannot be lower than the current number of attendees (" + strconv.Itoa(n) + ")",
	})
}

// Delete removes event id on behalf of userID.
func (s *EventService) Delete(ctx context.Context, id, userID string) error {
	ev, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := RequireOwner(ev, userID); err != nil {
		return err
	}
	if err := s.Events.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	metrics.EventMutations.WithLabelValues("delete").Inc()
	if s.Index != nil {
		if err := s.Index.Remove(ctx, id); err != nil {
			s.logger().WithError(err).WithField("event_id", id).Warn("remove event from search index failed")
		}
	}
	return nil
}

// ToggleRSVP adds userID to the attendees of event id, or removes them if
// they already attend. joined reports the resulting membership.
func (s *EventService) ToggleRSVP(ctx context.Context, id, userID string) (*entity.Event, bool, error) {
	joined, err := s.Events.ToggleAttendee(ctx, id, userID)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return nil, false, ErrEventNotFound
	case errors.Is(err, repo.ErrCapacityReached):
		metrics.RSVPToggles.WithLabelValues("full").Inc()
		return nil, false, ErrCapacityExceeded
	case err != nil:
		return nil, false, fmt.Errorf("toggle rsvp: %w", err)
	}

	ev, err := s.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if joined {
		metrics.RSVPToggles.WithLabelValues("joined").Inc()
		s.notifyRSVP(ctx, ev, userID)
	} else {
		metrics.RSVPToggles.WithLabelValues("left").Inc()
	}
	return ev, joined, nil
}

func (s *EventService) notifyRSVP(ctx context.Context, ev *entity.Event, userID string) {
	if s.Notifier == nil {
		return
	}
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		s.logger().WithError(err).WithField("user_id", userID).Warn("load attendee for rsvp email failed")
		return
	}
	job := mailer.EmailJob{
		To:       u.Email,
		Template: templates.RSVPConfirmed,
		Data: map[string]any{
			"Name":          u.Name,
			"EventID":       ev.ID,
			"EventTitle":    ev.Title,
			"EventDate":     ev.Date.Format(time.RFC3339),
			"EventLocation": ev.Location,
		},
	}
	if err := s.Notifier.Notify(ctx, job); err != nil {
		s.logger().WithError(err).WithFields(logrus.Fields{"event_id": ev.ID, "user_id": userID}).Warn("enqueue rsvp email failed")
	}
}

func (s *EventService) index(ctx context.Context, ev *entity.Event) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, ev); err != nil {
		s.logger().WithError(err).WithField("event_id", ev.ID).Warn("index event failed")
	}
}

func (s *EventService) logger() *logrus.Logger {
	if s.Logger == nil {
		return logrus.StandardLogger()
	}
	return s.Logger
}
