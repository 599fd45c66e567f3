package users

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrMissingInstagramID indicates an upsert without a subject identifier.
	ErrMissingInstagramID = errors.New("users: instagram id required")
	// ErrMissingAccessToken indicates an upsert without a bearer credential.
	ErrMissingAccessToken = errors.New("users: access token required")
)

// StoreConfig describes the dependencies required by the user store.
type StoreConfig struct {
	Database *gorm.DB
	Logger   *zap.Logger
}

// Store persists authorized users keyed by their Instagram subject id.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStore constructs the store with validated configuration.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("users: database connection required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: cfg.Database, logger: logger}, nil
}

// Upsert inserts or replaces the record identified by its Instagram id.
// Username, account type, and access token are last-write-wins; created_at is
// set on first insert and preserved on conflict.
func (s *Store) Upsert(ctx context.Context, record AuthorizedUser) error {
	record.InstagramID = normalize(record.InstagramID)
	if record.InstagramID == "" {
		return ErrMissingInstagramID
	}
	if record.AccessToken == "" {
		return ErrMissingAccessToken
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "instagram_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"username", "account_type", "access_token"}),
		}).
		Create(&record).
		Error
	if err != nil {
		s.logger.Error("failed to save authorized user",
			zap.String("instagram_id", record.InstagramID),
			zap.Error(err),
		)
		return err
	}

	s.logger.Info("authorized user saved",
		zap.String("instagram_id", record.InstagramID),
		zap.String("username", record.Username),
	)
	return nil
}

// ListAll returns every authorized user without access tokens. A storage
// failure is surfaced to the caller rather than hidden behind an empty list.
func (s *Store) ListAll(ctx context.Context) ([]ListedUser, error) {
	var listed []ListedUser
	err := s.db.WithContext(ctx).
		Model(&AuthorizedUser{}).
		Select("instagram_id", "username", "account_type", "created_at").
		Find(&listed).
		Error
	if err != nil {
		s.logger.Error("failed to list authorized users", zap.Error(err))
		return nil, err
	}
	return listed, nil
}
