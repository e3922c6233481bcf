package container

import (
	"context"

	"github.com/Malcolm-Mukorera/campus-events-api/internal/application"
	"github.com/Malcolm-Mukorera/campus-events-api/pkg/helpers"
	"github.com/Malcolm-Mukorera/campus-events-api/pkg/mailer"
)

// JobPublisher puts a JSON message on the email queue.
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// QueueNotifier fills the common template data of each job and publishes it.
func QueueNotifier(pub JobPublisher, appName, appURL string) application.Notifier {
	return application.NotifierFunc(func(ctx context.Context, job mailer.EmailJob) error {
		helpers.NormalizeEmailJob(&job, appName, appURL)
		return pub.PublishJSON(ctx, job)
	})
}
