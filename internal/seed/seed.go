// Package seed loads a sample organizer and a handful of events so a fresh
// deployment has something to list.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Malcolm-Mukorera/campus-events-api/internal/application"
	"github.com/Malcolm-Mukorera/campus-events-api/internal/domain/entity"
	repo "github.com/Malcolm-Mukorera/campus-events-api/internal/domain/repository"
)

const (
	SampleName     = "Test User"
	SampleEmail    = "test@university.ac.uk"
	SamplePassword = "password123"
)

// ErrAlreadySeeded is returned when the sample user already exists.
var ErrAlreadySeeded = errors.New("sample data already present; run with --clear first")

type sampleEvent struct {
	title       string
	description string
	in          time.Duration
	location    string
	category    entity.Category
	faculty     string
	capacity    int // 0 means unlimited
}

const day = 24 * time.Hour

var sampleEvents = []sampleEvent{
	{
		title:       "Annual Tech & Innovation Fair",
		description: "Showcase your projects and network with industry professionals. Open to all students from any faculty. Refreshments provided.",
		in:          7 * day,
		location:    "Main Hall, Student Union Building",
		category:    entity.CategoryAcademic,
		faculty:     "Engineering",
		capacity:    200,
	},
	{
		title:       "Inter-Faculty Football Tournament",
		description: "Annual football competition between faculties. Form your team of 11 and register at the sports office before the deadline.",
		in:          14 * day,
		location:    "University Sports Ground",
		category:    entity.CategorySports,
		faculty:     entity.DefaultFaculty,
		capacity:    150,
	},
	{
		title:       "Graduate Careers & Networking Evening",
		description: "Meet recruiters from over 20 top companies. Bring copies of your CV. Smart casual dress code applies.",
		in:          5 * day,
		location:    "Business School Atrium",
		category:    entity.CategoryCareer,
		faculty:     entity.DefaultFaculty,
		capacity:    300,
	},
	{
		title:       "International Food Festival",
		description: "A celebration of cultures with food, music and performances from students around the world. Free entry for all students.",
		in:          10 * day,
		location:    "Campus Quad",
		category:    entity.CategorySocial,
		faculty:     entity.DefaultFaculty,
	},
	{
		title:       "Machine Learning Workshop",
		description: "Hands-on introduction to machine learning using Python and scikit-learn. Laptops required. Beginners welcome.",
		in:          3 * day,
		location:    "Computer Lab 2B",
		category:    entity.CategoryAcademic,
		faculty:     "Computer Science",
		capacity:    30,
	},
}

// Result summarizes a seed run.
type Result struct {
	User   *entity.User
	Events []entity.Event
}

// Run creates the sample user and its events dated relative to now. Each
// event is added to index when one is given.
func Run(ctx context.Context, users repo.UserRepository, events repo.EventRepository, index application.EventIndex, hasher application.PasswordHasher, now time.Time) (*Result, error) {
	if _, err := users.GetByEmail(ctx, SampleEmail); err == nil {
		return nil, ErrAlreadySeeded
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("lookup sample user: %w", err)
	}

	hash, err := hasher.Hash(SamplePassword)
	if err != nil {
		return nil, fmt.Errorf("hash sample password: %w", err)
	}
	u := &entity.User{Name: SampleName, Email: SampleEmail, Password: hash}
	if err := users.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrAlreadySeeded
		}
		return nil, fmt.Errorf("create sample user: %w", err)
	}

	res := &Result{User: u, Events: make([]entity.Event, 0, len(sampleEvents))}
	for _, s := range sampleEvents {
		e := &entity.Event{
			Title:       s.title,
			Description: s.description,
			Date:        now.Add(s.in).UTC().Truncate(time.Second),
			Location:    s.location,
			Category:    s.category,
			Faculty:     s.faculty,
			Organizer:   u.Ref(),
			Attendees:   []string{},
		}
		if s.capacity > 0 {
			c := s.capacity
			e.Capacity = &c
		}
		if err := events.Create(ctx, e); err != nil {
			return nil, fmt.Errorf("create event %q: %w", s.title, err)
		}
		if index != nil {
			if err := index.Index(ctx, e); err != nil {
				return nil, fmt.Errorf("index event %q: %w", s.title, err)
			}
		}
		res.Events = append(res.Events, *e)
	}
	return res, nil
}

// Clear removes every event, then every user. Removed events are dropped from
// index when one is given.
func Clear(ctx context.Context, users repo.UserRepository, events repo.EventRepository, index application.EventIndex) error {
	var ids []string
	if index != nil {
		all, _, err := events.List(ctx, entity.EventFilter{})
		if err != nil {
			return fmt.Errorf("list events: %w", err)
		}
		for _, e := range all {
			ids = append(ids, e.ID)
		}
	}
	if err := events.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear events: %w", err)
	}
	for _, id := range ids {
		if err := index.Remove(ctx, id); err != nil {
			return fmt.Errorf("unindex event %s: %w", id, err)
		}
	}
	if err := users.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear users: %w", err)
	}
	return nil
}

const reindexBatch = 100

// Reindex adds every stored event to index, in date order, and returns how
// many were indexed.
func Reindex(ctx context.Context, events repo.EventRepository, index application.EventIndex) (int, error) {
	n := 0
	for {
		batch, _, err := events.List(ctx, entity.EventFilter{Offset: n, Limit: reindexBatch})
		if err != nil {
			return n, fmt.Errorf("list events: %w", err)
		}
		for i := range batch {
			if err := index.Index(ctx, &batch[i]); err != nil {
				return n, fmt.Errorf("index event %s: %w", batch[i].ID, err)
			}
			n++
		}
		if len(batch) < reindexBatch {
			return n, nil
		}
	}
}
