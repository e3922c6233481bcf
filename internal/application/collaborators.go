package application

import (
	"context"
	"time"

	"github.com/Malcolm-Mukorera/campus-events-api/internal/domain/entity"
	"github.com/Malcolm-Mukorera/campus-events-api/pkg/mailer"
)

// PasswordHasher hashes passwords one way. Implemented by helpers.BcryptHasher.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) bool
}

// TokenManager signs and verifies session tokens. Implemented by helpers.JWTManager.
type TokenManager interface {
	Issue(userID string) (token string, expiresAt time.Time, err error)
	Verify(token string) (userID string, err error)
}

// Notifier hands email jobs to the delivery pipeline. Implemented by
// helpers.RabbitPublisher through NotifierFunc.
type Notifier interface {
	Notify(ctx context.Context, job mailer.EmailJob) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, job mailer.EmailJob) error

func (f NotifierFunc) Notify(ctx context.Context, job mailer.EmailJob) error { return f(ctx, job) }

// EventIndex is an optional full-text index over event titles and descriptions.
type EventIndex interface {
	Index(ctx context.Context, e *entity.Event) error
	Remove(ctx context.Context, id string) error
	// Search returns the ids of up to limit events matching any term of query.
	Search(ctx context.Context, query string, limit int) ([]string, error)
}
