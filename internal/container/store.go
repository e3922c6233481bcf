package container

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Malcolm-Mukorera/campus-events-api/config"
	repo "github.com/Malcolm-Mukorera/campus-events-api/internal/domain/repository"
	"github.com/Malcolm-Mukorera/campus-events-api/internal/infrastructure/memory"
	"github.com/Malcolm-Mukorera/campus-events-api/internal/infrastructure/mongodb"
	pginfra "github.com/Malcolm-Mukorera/campus-events-api/internal/infrastructure/postgres"
)

// Stores are the repositories of the configured STORE_DRIVER. Close releases
// the underlying connections.
type Stores struct {
	Users  repo.UserRepository
	Events repo.EventRepository
	Close  func()
}

// OpenStores connects to the backend named by cfg.StoreDriver. The postgres
// driver applies pending migrations when migrate is true; the mongo driver
// ensures its indexes.
func OpenStores(ctx context.Context, cfg *config.Config, logger *logrus.Logger, migrate bool) (*Stores, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if migrate {
			if err := pginfra.Migrate(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
				pool.Close()
				return nil, err
			}
		}
		logger.WithField("driver", cfg.StoreDriver).Info("store ready")
		return &Stores{
			Users:  pginfra.NewUserRepository(pool),
			Events: pginfra.NewEventRepository(pool),
			Close:  pool.Close,
		}, nil

	case config.StoreMongo:
		client, err := mongodb.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.MongoDatabase)
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			closeFn()
			return nil, err
		}
		users := mongodb.NewUserRepository(db)
		logger.WithField("driver", cfg.StoreDriver).Info("store ready")
		return &Stores{Users: users, Events: mongodb.NewEventRepository(db, users), Close: closeFn}, nil

	case config.StoreMemory:
		s := memory.NewStore()
		logger.WithField("driver", cfg.StoreDriver).Warn("using in-memory store; data is lost on restart")
		return &Stores{Users: s.Users(), Events: s.Events(), Close: func() {}}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
