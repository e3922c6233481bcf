package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Malcolm-Mukorera/campus-events-api/pkg/helpers"
	"github.com/Malcolm-Mukorera/campus-events-api/pkg/mailer"
	"github.com/Malcolm-Mukorera/campus-events-api/pkg/mailer/templates"
)

type sent struct {
	to, subject, text, html string
}

type fakeSender struct {
	sent []sent
	err  error
}

func (s *fakeSender) Send(_ context.Context, to, subject, text, html string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sent{to, subject, text, html})
	return nil
}

func newWorker(s Sender) *EmailWorker {
	return &EmailWorker{Sender: s, AppName: "Campus Events", AppURL: "https://events.example", Logger: helpers.NewNopLogger()}
}

func body(t *testing.T, job mailer.EmailJob) []byte {
	t.Helper()
	b, err := json.Marshal(job)
	require.NoError(t, err)
	return b
}

func TestHandle_Template(t *testing.T) {
	s := &fakeSender{}
	w := newWorker(s)

	out := w.Handle(context.Background(), body(t, mailer.EmailJob{
		To:       "ada@uni.ac.uk",
		Template: templates.RSVPConfirmed,
		Data: map[string]any{
			"Name":          "Ada",
			"EventID":       "e1",
			"EventTitle":    "Quiz Night",
			"EventDate":     "2030-06-01T18:00:00Z",
			"EventLocation": "Main Hall",
		},
	}))

	assert.Equal(t, Ack, out)
	require.Len(t, s.sent, 1)
	assert.Equal(t, "ada@uni.ac.uk", s.sent[0].to)
	assert.Equal(t, "You're going: Quiz Night", s.sent[0].subject)
	assert.Contains(t, s.sent[0].text, "https://events.example/events/e1")
	assert.Contains(t, s.sent[0].html, "Main Hall")
}

func TestHandle_LiteralContent(t *testing.T) {
	s := &fakeSender{}
	out := newWorker(s).Handle(context.Background(), body(t, mailer.EmailJob{To: "a@b.c", Subject: "Hi", Text: "Hello"}))

	assert.Equal(t, Ack, out)
	require.Len(t, s.sent, 1)
	assert.Equal(t, sent{"a@b.c", "Hi", "Hello", ""}, s.sent[0])
}

func TestHandle_Drops(t *testing.T) {
	s := &fakeSender{}
	w := newWorker(s)
	ctx := context.Background()

	assert.Equal(t, Drop, w.Handle(ctx, []byte("{not json")))
	assert.Equal(t, Drop, w.Handle(ctx, body(t, mailer.EmailJob{Template: templates.Welcome})))
	assert.Equal(t, Drop, w.Handle(ctx, body(t, mailer.EmailJob{To: "a@b.c", Template: "universal"})))
	assert.Equal(t, Drop, w.Handle(ctx, body(t, mailer.EmailJob{To: "a@b.c"})))
	assert.Empty(t, s.sent)
}

func TestHandle_RetriesSendFailure(t *testing.T) {
	w := newWorker(&fakeSender{err: errors.New("mailgun 503")})
	out := w.Handle(context.Background(), body(t, mailer.EmailJob{To: "a@b.c", Template: templates.Welcome}))
	assert.Equal(t, Retry, out)
}

func TestRender_UnknownTemplateIsMalformed(t *testing.T) {
	_, _, _, err := newWorker(&fakeSender{}).Render(&mailer.EmailJob{To: "a@b.c", Template: "nope"})
	assert.ErrorIs(t, err, ErrMalformed)
}
