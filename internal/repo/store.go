package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"secrets-service/internal/domain"
)

var (
	// ErrNotFound is returned by lookups when no document matches.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique key (username, google_id) collides.
	ErrDuplicate = errors.New("duplicate key")
)

// UserStore is the persistence contract handlers depend on. The Mongo
// Store implements it in production; tests use MemoryStore.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByGoogleID(ctx context.Context, googleID string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	FindOrCreateByGoogleID(ctx context.Context, googleID string, defaults domain.User) (*domain.User, error)
	Ping(ctx context.Context) error
}

// Store wraps the Mongo client and database handle.
type Store struct {
	Client *mongo.Client
	DB     *mongo.Database
}

func NewStore(ctx context.Context, uri, dbname string) (*Store, error) {
	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	return &Store{Client: cli, DB: cli.Database(dbname)}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.Client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}
