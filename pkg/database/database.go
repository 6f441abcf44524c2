package database

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/d60-Lab/social-graph/config"
	"github.com/d60-Lab/social-graph/internal/model"
)

// Driver names a store backend.
type Driver string

const (
	DriverMongo    Driver = "mongo"
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// DefaultMongoDatabase is used when the connection string names no database.
const DefaultMongoDatabase = "socialNetworkDB"

// DetectDriver picks the backend from the connection string scheme.
func DetectDriver(uri string) (Driver, error) {
	switch {
	case strings.HasPrefix(uri, "mongodb://"), strings.HasPrefix(uri, "mongodb+srv://"):
		return DriverMongo, nil
	case strings.HasPrefix(uri, "postgres://"), strings.HasPrefix(uri, "postgresql://"):
		return DriverPostgres, nil
	case strings.HasPrefix(uri, "sqlite://"), strings.HasPrefix(uri, "file:"),
		uri == ":memory:", strings.HasSuffix(uri, ".db"):
		return DriverSQLite, nil
	default:
		return "", fmt.Errorf("unsupported database uri scheme: %q", redact(uri))
	}
}

// InitDB opens a relational store (PostgreSQL or SQLite) and migrates it.
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	return Open(cfg.Database.URI)
}

// Open opens and migrates a relational store from a connection string.
func Open(uri string) (*gorm.DB, error) {
	driver, err := DetectDriver(uri)
	if err != nil {
		return nil, err
	}
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(uri)
	case DriverSQLite:
		dialector = sqlite.Open(strings.TrimPrefix(uri, "sqlite://"))
	default:
		return nil, fmt.Errorf("%s is not a relational store", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// SQLite serialises writers; one connection avoids SQLITE_BUSY and
		// keeps in-memory databases alive across queries.
		sqlDB.SetMaxOpenConns(1)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates the document tables and the reference edge tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.User{}, &model.Thought{}, &model.UserThought{}, &model.Friend{}); err != nil {
		return fmt.Errorf("failed to migrate tables: %w", err)
	}
	return nil
}

// InitMongo connects to MongoDB, verifies the connection and returns the
// database named by the connection string.
func InitMongo(ctx context.Context, cfg *config.Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Database.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().ApplyURI(cfg.Database.URI).SetServerSelectionTimeout(timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, client.Database(MongoDatabaseName(cfg.Database.URI)), nil
}

// MongoDatabaseName returns the database path segment of a connection
// string, falling back to DefaultMongoDatabase.
func MongoDatabaseName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return DefaultMongoDatabase
	}
	name := strings.Trim(u.Path, "/")
	if name == "" {
		return DefaultMongoDatabase
	}
	return name
}

func redact(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.User == nil {
		return uri
	}
	u.User = url.User("***")
	return u.String()
}
