package application_test

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Malcolm-Mukorera/campus-events-api/internal/application"
	"github.com/Malcolm-Mukorera/campus-events-api/internal/domain/entity"
	"github.com/Malcolm-Mukorera/campus-events-api/pkg/mailer/templates"
)

func TestCreate_DefaultsAndOrganizer(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "Ada", "ada@uni.ac.uk")

	in := validEvent()
	in.Faculty = "   "
	ev, err := f.events.Create(context.Background(), in, u.ID)
	require.NoError(t, err)

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, entity.DefaultFaculty, ev.Faculty)
	assert.Equal(t, entity.UserRef{ID: u.ID, Name: "Ada", Email: "ada@uni.ac.uk"}, ev.Organizer)
	assert.Empty(t, ev.Attendees)
	assert.NotNil(t, ev.Attendees)
	assert.Nil(t, ev.Capacity)
	assert.True(t, time.Date(2030, 5, 1, 18, 0, 0, 0, time.UTC).Equal(ev.Date))
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "Ada", "ada@uni.ac.uk")

	in := validEvent()
	in.Title = ""
	in.Date = "next tuesday"
	in.Category = "party"
	in.Capacity = intPtr(0)
	_, err := f.events.Create(context.Background(), in, u.ID)

	fields := validationFields(t, err)
	assert.Equal(t, "is required", fields["title"])
	assert.Equal(t, "must be a valid ISO 8601 date", fields["date"])
	assert.Contains(t, fields["category"], "must be one of")
	assert.Equal(t, "must be greater than or equal to 1", fields["capacity"])

	page, err := f.events.List(context.Background(), application.ListQuery{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestGet_UnknownAndMalformedIDs(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"does-not-exist", "00000000-0000-0000-0000-000000000000"} {
		_, err := f.events.Get(context.Background(), id)
		assert.ErrorIs(t, err, application.ErrEventNotFound, id)
	}
}

func TestUpdate_OwnerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Ada", "ada@uni.ac.uk")
	other := f.register(t, "Bob", "bob@uni.ac.uk")
	ev, err := f.events.Create(ctx, validEvent(), owner.ID)
	require.NoError(t, err)

	_, err = f.events.Update(ctx, ev.ID, application.EventPatch{Title: strPtr("Hijacked")}, other.ID)
	assert.ErrorIs(t, err, application.ErrForbidden)

	err = f.events.Delete(ctx, ev.ID, other.ID)
	assert.ErrorIs(t, err, application.ErrForbidden)

	got, err := f.events.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tech Fair", got.Title)
}

func TestUpdate_MergesPatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Ada", "ada@uni.ac.uk")
	in := validEvent()
	in.Capacity = intPtr(50)
	ev, err := f.events.Create(ctx, in, owner.ID)
	require.NoError(t, err)

	updated, err := f.events.Update(ctx, ev.ID, application.EventPatch{
		Title:    strPtr("  Tech Fair 2030 "),
		Category: strPtr("career"),
	}, owner.ID)
	require.NoError(t, err)

	assert.Equal(t, "Tech Fair 2030", updated.Title)
	assert.Equal(t, entity.CategoryCareer, updated.Category)
	assert.Equal(t, ev.Description, updated.Description)
	assert.Equal(t, "Engineering", updated.Faculty)
	require.NotNil(t, updated.Capacity)
	assert.Equal(t, 50, *updated.Capacity)
	assert.Equal(t, owner.ID, updated.Organizer.ID)
}

func TestUpdate_InvalidPatchLeavesEventUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Ada", "ada@uni.ac.uk")
	ev, err := f.events.Create(ctx, validEvent(), owner.ID)
	require.NoError(t, err)

	_, err = f.events.Update(ctx, ev.ID, application.EventPatch{Title: strPtr(""), Category: strPtr("party")}, owner.ID)
	fields := validationFields(t, err)
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "category")

	got, err := f.events.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, ev.Title, got.Title)
	assert.Equal(t, ev.Category, got.Category)
}

func TestUpdate_CapacityNullClearsLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Ada", "ada@uni.ac.uk")
	in := validEvent()
	in.Capacity = intPtr(1)
	ev, err := f.events.Create(ctx, in, owner.ID)
	require.NoError(t, err)

	var patch application.EventPatch
	require.NoError(t, patch.Capacity.UnmarshalJSON([]byte("null")))
	updated, err := f.events.Update(ctx, ev.ID, patch, owner.ID)
	require.NoError(t, err)
	assert.Nil(t, updated.Capacity)
}

func TestUpdate_CapacityBelowAttendees(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Ada", "ada@uni.ac.uk")
	in := validEvent()
	in.Capacity = intPtr(5)
	ev, err := f.events.Create(ctx, in, owner.ID)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		u := f.register(t, fmt.Sprintf("Student %d", i), fmt.Sprintf("s%d@uni.ac.uk", i))
		_, joined, err := f.events.ToggleRSVP(ctx, ev.ID, u.ID)
		require.NoError(t, err)
		require.True(t, joined)
	}

	_, err = f.events.Update(ctx, ev.ID, application.EventPatch{Capacity: application.OptionalInt{Set: true, Value: intPtr(2)}}, owner.ID)
	fields := validationFields(t, err)
	assert.Equal(t, "cannot be lower than the current number of attendees (3)", fields["capacity"])

	updated, err := f.events.Update(ctx, ev.ID, application.EventPatch{Capacity: application.OptionalInt{Set: true, Value: intPtr(3)}}, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, *updated.Capacity)
	assert.Len(t, updated.Attendees, 3)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	idx := &fakeIndex{}
	f.events.Index = idx
	owner := f.register(t, "Ada", "ada@uni.ac.uk")
	ev, err := f.events.Create(ctx, validEvent(), owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tech Fair", idx.indexed[ev.ID])

	require.NoError(t, f.events.Delete(ctx, ev.ID, owner.ID))
	assert.Equal(t, []string{ev.ID}, idx.removed)

	_, err = f.events.Get(ctx, ev.ID)
	assert.ErrorIs(t, err, application.ErrEventNotFound)
	assert.ErrorIs(t, f.events.Delete(ctx, ev.ID, owner.ID), application.ErrEventNotFound)
}

func TestToggleRSVP_JoinLeave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Ada", "ada@uni.ac.uk")
	student := f.register(t, "Bob", "bob@uni.ac.uk")
	ev, err := f.events.Create(ctx, validEvent(), owner.ID)
	require.NoError(t, err)

	got, joined, err := f.events.ToggleRSVP(ctx, ev.ID, student.ID)
	require.NoError(t, err)
	assert.True(t, joined)
	assert.Equal(t, []string{student.ID}, got.Attendees)

	got, joined, err = f.events.ToggleRSVP(ctx, ev.ID, student.ID)
	require.NoError(t, err)
	assert.False(t, joined)
	assert.Empty(t, got.Attendees)

	var rsvpJobs int
	for _, j := range f.notifier.Jobs() {
		if j.Template == templates.RSVPConfirmed {
			rsvpJobs++
			assert.Equal(t, "bob@uni.ac.uk", j.To)
			assert.Equal(t, ev.ID, j.Data["EventID"])
			assert.Equal(t, "Tech Fair", j.Data["EventTitle"])
		}
	}
	assert.Equal(t, 1, rsvpJobs)

	_, _, err = f.events.ToggleRSVP(ctx, "missing", student.ID)
	assert.ErrorIs(t, err, application.ErrEventNotFound)
}

func TestToggleRSVP_CapacityReached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Ada", "ada@uni.ac.uk")
	a := f.register(t, "A", "a@uni.ac.uk")
	b := f.register(t, "B", "b@uni.ac.uk")
	in := validEvent()
	in.Capacity = intPtr(1)
	ev, err := f.events.Create(ctx, in, owner.ID)
	require.NoError(t, err)

	_, _, err = f.events.ToggleRSVP(ctx, ev.ID, a.ID)
	require.NoError(t, err)
	_, _, err = f.events.ToggleRSVP(ctx, ev.ID, b.ID)
	assert.ErrorIs(t, err, application.ErrCapacityExceeded)

	// an attendee of a full event can still leave
	_, joined, err := f.events.ToggleRSVP(ctx, ev.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, joined)

	_, joined, err = f.events.ToggleRSVP(ctx, ev.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, joined)
}

func TestToggleRSVP_ConcurrentJoinsRespectCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Ada", "ada@uni.ac.uk")
	in := validEvent()
	in.Capacity = intPtr(5)
	ev, err := f.events.Create(ctx, in, owner.ID)
	require.NoError(t, err)

	const students = 20
	ids := make([]string, students)
	for i := range ids {
		ids[i] = f.register(t, fmt.Sprintf("S%d", i), fmt.Sprintf("s%d@uni.ac.uk", i)).ID
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		joined int
		full   int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, ok, err := f.events.ToggleRSVP(ctx, ev.ID, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && ok:
				joined++
			case assert.ErrorIs(t, err, application.ErrCapacityExceeded):
				full++
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 5, joined)
	assert.Equal(t, students-5, full)
	got, err := f.events.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Len(t, got.Attendees, 5)
}

func seedEvents(t *testing.T, f *fixture, organizerID string, n int) []*entity.Event {
	t.Helper()
	base := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	out := make([]*entity.Event, 0, n)
	// created in reverse date order so listing must sort
	for i := n - 1; i >= 0; i-- {
		in := validEvent()
		in.Title = fmt.Sprintf("Event %02d", i)
		in.Date = base.Add(time.Duration(i) * time.Hour).Format(time.RFC3339)
		ev, err := f.events.Create(context.Background(), in, organizerID)
		require.NoError(t, err)
		out = append(out, ev)
	}
	return out
}

func TestList_Pagination(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, "Ada", "ada@uni.ac.uk")
	seedEvents(t, f, owner.ID, 25)
	ctx := context.Background()

	page, err := f.events.List(ctx, application.ListQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 25, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 1, page.Page)
	require.Len(t, page.Items, 10)
	assert.Equal(t, "Event 00", page.Items[0].Title)

	page, err = f.events.List(ctx, application.ListQuery{Page: 3})
	require.NoError(t, err)
	require.Len(t, page.Items, 5)
	assert.Equal(t, "Event 20", page.Items[0].Title)
	assert.Equal(t, "Event 24", page.Items[4].Title)

	page, err = f.events.List(ctx, application.ListQuery{Page: 9})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.EqualValues(t, 25, page.Total)

	page, err = f.events.List(ctx, application.ListQuery{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, application.MaxLimit, page.Limit)
	assert.Len(t, page.Items, 25)
	assert.Equal(t, 1, page.TotalPages)
}

func TestList_Filters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Ada", "ada@uni.ac.uk")

	mk := func(title, desc, date, category, faculty string) {
		in := validEvent()
		in.Title, in.Description, in.Date, in.Category, in.Faculty = title, desc, date, category, faculty
		_, err := f.events.Create(ctx, in, owner.ID)
		require.NoError(t, err)
	}
	mk("Robotics Expo", "Build robots", "2030-03-01T10:00:00Z", "academic", "Engineering")
	mk("Football Final", "Cup final", "2030-03-01T23:59:00Z", "sports", "All")
	mk("Career Fair", "Meet recruiters", "2030-03-02T00:00:00Z", "career", "Business (Evening)")

	page, err := f.events.List(ctx, application.ListQuery{Date: "2030-03-01"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)

	page, err = f.events.List(ctx, application.ListQuery{Category: "sports"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Football Final", page.Items[0].Title)

	page, err = f.events.List(ctx, application.ListQuery{Faculty: "engin"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	page, err = f.events.List(ctx, application.ListQuery{Faculty: "(Evening)"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	page, err = f.events.List(ctx, application.ListQuery{Search: "ROBOTS cup"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)

	_, err = f.events.List(ctx, application.ListQuery{Date: "soon"})
	fields := validationFields(t, err)
	assert.Equal(t, "must be a valid date (YYYY-MM-DD)", fields["date"])
}

func TestList_SearchIndex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Ada", "ada@uni.ac.uk")
	evs := seedEvents(t, f, owner.ID, 3)

	f.events.Index = &fakeIndex{ids: []string{evs[0].ID}}
	page, err := f.events.List(ctx, application.ListQuery{Search: "anything"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, evs[0].ID, page.Items[0].ID)

	f.events.Index = &fakeIndex{ids: nil}
	page, err = f.events.List(ctx, application.ListQuery{Search: "anything"})
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	// store term matching takes over when the index fails
	f.events.Index = &fakeIndex{err: errIndexDown}
	page, err = f.events.List(ctx, application.ListQuery{Search: "event 01"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
}

func TestList_SearchFindsEventsMissingFromIndex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Ada", "ada@uni.ac.uk")

	// written straight to the store, as the seed command and failed index
	// calls leave it
	ev := &entity.Event{
		Title:       "Inter-Faculty Football Tournament",
		Description: "Annual football competition",
		Date:        time.Date(2030, 6, 1, 10, 0, 0, 0, time.UTC),
		Location:    "Sports Ground",
		Category:    entity.CategorySports,
		Faculty:     entity.DefaultFaculty,
		Organizer:   entity.UserRef{ID: owner.ID},
	}
	require.NoError(t, f.store.Events().Create(ctx, ev))

	f.events.Index = &fakeIndex{ids: []string{}}
	page, err := f.events.List(ctx, application.ListQuery{Search: "Football"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, ev.ID, page.Items[0].ID)
}

func TestList_SearchAtHitLimitCountsInStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Ada", "ada@uni.ac.uk")
	evs := seedEvents(t, f, owner.ID, 3)

	// a full page of hits may be truncated, so the store gives the total
	hits := make([]string, 1000)
	for i := range hits {
		hits[i] = evs[0].ID
	}
	f.events.Index = &fakeIndex{ids: hits}
	page, err := f.events.List(ctx, application.ListQuery{Search: "event"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
}

func TestList_PageBeyondLastOffset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Ada", "ada@uni.ac.uk")
	seedEvents(t, f, owner.ID, 3)

	for _, p := range []int{922337203685477582, math.MaxInt} {
		page, err := f.events.List(ctx, application.ListQuery{Page: p, Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.NotNil(t, page.Items)
		assert.EqualValues(t, 3, page.Total)
		assert.Equal(t, 1, page.TotalPages)
		assert.Equal(t, p, page.Page)
	}
}

func TestRequireOwner(t *testing.T) {
	ev := &entity.Event{Organizer: entity.UserRef{ID: "u1"}}
	assert.NoError(t, application.RequireOwner(ev, "u1"))
	assert.ErrorIs(t, application.RequireOwner(ev, "u2"), application.ErrForbidden)
	assert.ErrorIs(t, application.RequireOwner(ev, ""), application.ErrForbidden)
	assert.ErrorIs(t, application.RequireOwner(nil, "u1"), application.ErrForbidden)
}
