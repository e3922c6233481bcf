// Package memory is a process-local store used for development and as the
// repository fake in tests. A single mutex guards users and events.
package memory

import (
	"context"
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Malcolm-Mukorera/campus-events-api/internal/domain/entity"
	"github.com/Malcolm-Mukorera/campus-events-api/internal/domain/repository"
)

type Store struct {
	mu     sync.Mutex
	users  map[string]entity.User
	events map[string]entity.Event
	now    func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:  map[string]entity.User{},
		events: map[string]entity.Event{},
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Users returns the user repository view of s.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Events returns the event repository view of s.
func (s *Store) Events() *EventRepository { return &EventRepository{s: s} }

type UserRepository struct{ s *Store }

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := r.s.now()
	u.CreatedAt, u.UpdatedAt = now, now
	r.s.users[u.ID] = *u
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) DeleteAll(context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.users = map[string]entity.User{}
	return nil
}

type EventRepository struct{ s *Store }

func (r *EventRepository) List(_ context.Context, f entity.EventFilter) ([]entity.Event, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var faculty *regexp.Regexp
	if f.Faculty != "" {
		faculty = regexp.MustCompile("(?i)" + regexp.QuoteMeta(f.Faculty))
	}
	terms := make([]string, 0, len(f.Terms))
	for _, t := range f.Terms {
		terms = append(terms, strings.ToLower(t))
	}

	matched := make([]entity.Event, 0)
	for _, e := range r.s.events {
		if f.IDs != nil && !slices.Contains(f.IDs, e.ID) {
			continue
		}
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		if faculty != nil && !faculty.MatchString(e.Faculty) {
			continue
		}
		if f.From != nil && e.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && !e.Date.Before(*f.To) {
			continue
		}
		if len(terms) > 0 && !matchesAny(e, terms) {
			continue
		}
		matched = append(matched, r.s.resolve(e))
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	total := int64(len(matched))
	if f.Offset >= len(matched) {
		return []entity.Event{}, total, nil
	}
	end := len(matched)
	if f.Limit > 0 && f.Offset+f.Limit < end {
		end = f.Offset + f.Limit
	}
	return matched[f.Offset:end], total, nil
}

func matchesAny(e entity.Event, terms []string) bool {
	title, desc := strings.ToLower(e.Title), strings.ToLower(e.Description)
	for _, t := range terms {
		if strings.Contains(title, t) || strings.Contains(desc, t) {
			return true
		}
	}
	return false
}

func (r *EventRepository) GetByID(_ context.Context, id string) (*entity.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	e = r.s.resolve(e)
	return &e, nil
}

func (r *EventRepository) Create(_ context.Context, e *entity.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Attendees == nil {
		e.Attendees = []string{}
	}
	now := r.s.now()
	e.CreatedAt, e.UpdatedAt = now, now
	r.s.events[e.ID] = clone(*e)
	return nil
}

func (r *EventRepository) Update(_ context.Context, e *entity.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.events[e.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if e.Capacity != nil && *e.Capacity < len(stored.Attendees) {
		return repository.ErrCapacityBelowAttendees
	}
	stored.Title = e.Title
	stored.Description = e.Description
	stored.Date = e.Date
	stored.Location = e.Location
	stored.Category = e.Category
	stored.Faculty = e.Faculty
	stored.Capacity = copyInt(e.Capacity)
	stored.UpdatedAt = r.s.now()
	r.s.events[e.ID] = stored
	e.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *EventRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.events[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.events, id)
	return nil
}

func (r *EventRepository) ToggleAttendee(_ context.Context, id, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if i := slices.Index(e.Attendees, userID); i >= 0 {
		e.Attendees = slices.Delete(slices.Clone(e.Attendees), i, i+1)
		e.UpdatedAt = r.s.now()
		r.s.events[id] = e
		return false, nil
	}
	if e.IsFull() {
		return false, repository.ErrCapacityReached
	}
	e.Attendees = append(slices.Clone(e.Attendees), userID)
	e.UpdatedAt = r.s.now()
	r.s.events[id] = e
	return true, nil
}

func (r *EventRepository) DeleteAll(context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.events = map[string]entity.Event{}
	return nil
}

// resolve fills the organizer projection from the current user record and
// returns a copy that shares no slices with the store. Callers hold s.mu.
func (s *Store) resolve(e entity.Event) entity.Event {
	e = clone(e)
	if u, ok := s.users[e.Organizer.ID]; ok {
		e.Organizer = u.Ref()
	}
	return e
}

func clone(e entity.Event) entity.Event {
	e.Attendees = slices.Clone(e.Attendees)
	if e.Attendees == nil {
		e.Attendees = []string{}
	}
	e.Capacity = copyInt(e.Capacity)
	return e
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

var (
	_ repository.UserRepository  = (*UserRepository)(nil)
	_ repository.EventRepository = (*EventRepository)(nil)
)
