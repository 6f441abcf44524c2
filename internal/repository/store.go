package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Store bundles both repositories over one store connection. It is opened
// once at startup and closed on shutdown.
type Store struct {
	Users    UserRepository
	Thoughts ThoughtRepository
	Driver   string

	close func(context.Context) error
}

// NewGormStore wraps a relational connection.
func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Users:    NewUserRepository(db),
		Thoughts: NewThoughtRepository(db),
		Driver:   db.Dialector.Name(),
		close: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}

// NewMongoStore wraps a MongoDB client and database.
func NewMongoStore(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		Users:    NewMongoUserRepository(db),
		Thoughts: NewMongoThoughtRepository(db),
		Driver:   "mongo",
		close:    client.Disconnect,
	}
}

// Close releases the underlying connection.
func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}
