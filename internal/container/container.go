package container

import (
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Malcolm-Mukorera/campus-events-api/config"
	"github.com/Malcolm-Mukorera/campus-events-api/internal/application"
	repo "github.com/Malcolm-Mukorera/campus-events-api/internal/domain/repository"
)

// Container carries the components built once in main to the router modules.
// Optional components are left nil when their backend is not configured.
type Container struct {
	Config *config.Config
	Logger *logrus.Logger

	Users  repo.UserRepository
	Events repo.EventRepository

	Hasher application.PasswordHasher
	Tokens application.TokenManager

	// Redis backs rate limiting and the response cache; nil when REDIS_ADDR is empty.
	Redis *redis.Client
	// Notifier publishes email jobs; nil when mail sending is disabled.
	Notifier application.Notifier
	// Index is the search index; nil when Elasticsearch is not configured.
	Index application.EventIndex
}
