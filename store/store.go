// Package store persists plugin state: named options (feed secret, last
// reported plugin version, sync cursors) and the mapping between WooCommerce
// orders and remote commerce orders.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var (
	// ErrNotFound is returned when an option or order mapping does not exist
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedURL is returned for database URLs that match no driver
	ErrUnsupportedURL = errors.New("unsupported database URL")
)

// Well-known option names
const (
	OptionFeedSecret         = "feed_secret"
	OptionPluginVersion      = "plugin_version_sent"
	OptionOrdersUpdatedAfter = "orders_updated_after"
)

// Option is a named value
type Option struct {
	Name      string `gorm:"primaryKey;size:191"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

// OrderMapping links a WooCommerce order to a remote commerce order
type OrderMapping struct {
	ID            uint   `gorm:"primaryKey"`
	LocalOrderID  int64  `gorm:"uniqueIndex;not null"`
	RemoteOrderID string `gorm:"uniqueIndex;size:64;not null"`
	Status        string `gorm:"size:32"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Store is a gorm backed state store
type Store struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// Open connects to a database URL and migrates the schema. sqlite://path
// selects SQLite; postgres:// and postgresql:// select PostgreSQL.
func Open(databaseURL string, log zerolog.Logger) (*Store, error) {
	dialector, err := dialectorFor(databaseURL)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&Option{}, &OrderMapping{}); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.Debug().Str("driver", dialector.Name()).Msg("Store opened")
	return &Store{db: db, logger: log}, nil
}

func dialectorFor(databaseURL string) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(databaseURL, "sqlite://")), nil
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgres.Open(databaseURL), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedURL, databaseURL)
	}
}

// Close closes the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Get returns an option value
func (s *Store) Get(ctx context.Context, name string) (string, error) {
	var opt Option
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&opt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("option %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read option %s: %w", name, err)
	}
	return opt.Value, nil
}

// Set stores an option value, replacing any previous value
func (s *Store) Set(ctx context.Context, name, value string) error {
	opt := Option{Name: name, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&opt).Error
	if err != nil {
		return fmt.Errorf("failed to write option %s: %w", name, err)
	}
	return nil
}

// Delete removes an option. Deleting a missing option is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := s.db.WithContext(ctx).Delete(&Option{}, "name = ?", name).Error; err != nil {
		return fmt.Errorf("failed to delete option %s: %w", name, err)
	}
	return nil
}

// FeedSecret returns the feed secret, generating and storing one on first use
func (s *Store) FeedSecret(ctx context.Context) (string, error) {
	secret, err := s.Get(ctx, OptionFeedSecret)
	if err == nil && secret != "" {
		return secret, nil
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return "", err
	}

	secret = strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := s.Set(ctx, OptionFeedSecret, secret); err != nil {
		return "", err
	}

	s.logger.Info().Msg("Generated new feed secret")
	return secret, nil
}
