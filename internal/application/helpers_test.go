package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Malcolm-Mukorera/campus-events-api/internal/application"
	"github.com/Malcolm-Mukorera/campus-events-api/internal/domain/entity"
	"github.com/Malcolm-Mukorera/campus-events-api/internal/infrastructure/memory"
	"github.com/Malcolm-Mukorera/campus-events-api/pkg/helpers"
	"github.com/Malcolm-Mukorera/campus-events-api/pkg/mailer"
)

type recordingNotifier struct {
	mu   sync.Mutex
	jobs []mailer.EmailJob
}

func (n *recordingNotifier) Notify(_ context.Context, job mailer.EmailJob) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.jobs = append(n.jobs, job)
	return nil
}

func (n *recordingNotifier) Jobs() []mailer.EmailJob {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]mailer.EmailJob(nil), n.jobs...)
}

type fakeIndex struct {
	ids     []string
	err     error
	indexed map[string]string
	removed []string
}

func (f *fakeIndex) Index(_ context.Context, e *entity.Event) error {
	if f.indexed == nil {
		f.indexed = map[string]string{}
	}
	f.indexed[e.ID] = e.Title
	return nil
}

func (f *fakeIndex) Remove(_ context.Context, id string) error {
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeIndex) Search(context.Context, string, int) ([]string, error) {
	return f.ids, f.err
}

var errIndexDown = errors.New("index down")

type fixture struct {
	store    *memory.Store
	auth     *application.AuthService
	events   *application.EventService
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	notifier := &recordingNotifier{}
	logger := helpers.NewNopLogger()
	return &fixture{
		store:    store,
		notifier: notifier,
		auth: application.NewAuthService(store.Users(), helpers.NewBcryptHasher(bcrypt.MinCost),
			helpers.NewJWTManager("test-secret", time.Hour), notifier, logger),
		events: application.NewEventService(store.Events(), store.Users(), nil, notifier, logger),
	}
}

func (f *fixture) register(t *testing.T, name, email string) *entity.User {
	t.Helper()
	res, err := f.auth.Register(context.Background(), application.RegisterInput{Name: name, Email: email, Password: "password123"})
	require.NoError(t, err)
	return res.User
}

func intPtr(v int) *int { return &v }

func strPtr(s string) *string { return &s }

func validEvent() application.EventInput {
	return application.EventInput{
		Title:       "Tech Fair",
		Description: "Projects and recruiters",
		Date:        "2030-05-01T18:00:00Z",
		Location:    "Main Hall",
		Category:    "academic",
		Faculty:     "Engineering",
	}
}

func validationFields(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *application.ValidationError
	require.ErrorAs(t, err, &verr)
	out := map[string]string{}
	for _, f := range verr.Fields {
		out[f.Field] = f.Message
	}
	return out
}
