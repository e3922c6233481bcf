// Package worker consumes queued email jobs, renders them and hands them to
// the mail provider.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/Malcolm-Mukorera/campus-events-api/pkg/helpers"
	"github.com/Malcolm-Mukorera/campus-events-api/pkg/mailer"
	"github.com/Malcolm-Mukorera/campus-events-api/pkg/mailer/templates"
)

const sendTimeout = 15 * time.Second

// Sender delivers one rendered email.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Outcome tells the consumer how to settle a delivery.
type Outcome int

const (
	Ack Outcome = iota
	Drop
	Retry
)

// ErrMalformed marks jobs that can never be delivered as written.
var ErrMalformed = errors.New("malformed email job")

type EmailWorker struct {
	Sender  Sender
	AppName string
	AppURL  string
	Logger  *logrus.Logger
}

// Render turns a job into subject and bodies, from its template when one is
// named and from the literal fields otherwise.
func (w *EmailWorker) Render(job *mailer.EmailJob) (subject, text, html string, err error) {
	helpers.NormalizeEmailJob(job, w.AppName, w.AppURL)
	if job.To == "" {
		return "", "", "", fmt.Errorf("%w: missing recipient", ErrMalformed)
	}
	if job.Template == "" {
		if job.Subject == "" || (job.Text == "" && job.HTML == "") {
			return "", "", "", fmt.Errorf("%w: no template and no content", ErrMalformed)
		}
		return job.Subject, job.Text, job.HTML, nil
	}
	if !templates.Known(job.Template) {
		return "", "", "", fmt.Errorf("%w: unknown template %q", ErrMalformed, job.Template)
	}
	subject, text, html, err = templates.Render(job.Template, job.Data)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: render %s: %v", ErrMalformed, job.Template, err)
	}
	return subject, text, html, nil
}

// Handle processes one message body. Undeliverable jobs are dropped, send
// failures are retried.
func (w *EmailWorker) Handle(ctx context.Context, body []byte) Outcome {
	log := w.Logger.WithField("component", "email_worker")

	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		log.WithError(err).Warn("bad message")
		return Drop
	}
	subject, text, html, err := w.Render(&job)
	if err != nil {
		log.WithError(err).WithField("template", job.Template).Warn("dropping email job")
		return Drop
	}

	c, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := w.Sender.Send(c, job.To, subject, text, html); err != nil {
		log.WithError(err).WithField("template", job.Template).Error("send failed")
		return Retry
	}
	log.WithFields(logrus.Fields{"template": job.Template, "to": job.To}).Info("email sent")
	return Ack
}

// Consume settles deliveries until msgs closes or ctx is cancelled.
func (w *EmailWorker) Consume(ctx context.Context, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			switch w.Handle(ctx, msg.Body) {
			case Ack:
				_ = msg.Ack(false)
			case Drop:
				_ = msg.Nack(false, false)
			case Retry:
				_ = msg.Nack(false, true)
			}
		}
	}
}
