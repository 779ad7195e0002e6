package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kenislabs/arka-gateway/internal/logging"
	"github.com/kenislabs/arka-gateway/internal/oauth"
)

// credentialRecord is the persisted shape of a grant. Tokens are stored
// as issued; encrypting at rest is the deployment's database concern.
type credentialRecord struct {
	ID           uint   `gorm:"primaryKey"`
	ProviderKey  string `gorm:"uniqueIndex:idx_provider_principal;size:64"`
	Principal    string `gorm:"uniqueIndex:idx_provider_principal;size:255"`
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scopes       string
	ExpiresAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (credentialRecord) TableName() string { return "credentials" }

// SQLiteStore is the durable CredentialStore backed by gorm over the
// pure-Go sqlite driver.
type SQLiteStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) the database at path and migrates the
// schema. Use ":memory:" for an ephemeral store.
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open credential database: %w", err)
	}
	if err := db.AutoMigrate(&credentialRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate credential schema: %w", err)
	}
	logger.Debug("credential store opened", slog.String("path", path))
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, providerKey, principal string) (*oauth.Credential, error) {
	var rec credentialRecord
	err := s.db.WithContext(ctx).
		Where("provider_key = ? AND principal = ?", providerKey, principal).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, oauth.ErrCredentialNotFound
		}
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}
	return recordToCredential(&rec), nil
}

func (s *SQLiteStore) Save(ctx context.Context, cred *oauth.Credential) error {
	rec := credentialToRecord(cred)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "provider_key"}, {Name: "principal"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"access_token", "refresh_token", "token_type", "scopes", "expires_at", "updated_at",
			}),
		}).
		Create(rec).Error
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	s.logger.Debug("credential saved",
		logging.Provider(cred.ProviderKey),
		logging.PrincipalHash(cred.Principal))
	return nil
}

func (s *SQLiteStore) Revoke(ctx context.Context, providerKey, principal string) error {
	err := s.db.WithContext(ctx).
		Where("provider_key = ? AND principal = ?", providerKey, principal).
		Delete(&credentialRecord{}).Error
	if err != nil {
		return fmt.Errorf("failed to revoke credential: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func credentialToRecord(cred *oauth.Credential) *credentialRecord {
	return &credentialRecord{
		ProviderKey:  cred.ProviderKey,
		Principal:    cred.Principal,
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		TokenType:    cred.TokenType,
		Scopes:       strings.Join(cred.Scopes, " "),
		ExpiresAt:    cred.ExpiresAt,
	}
}

func recordToCredential(rec *credentialRecord) *oauth.Credential {
	cred := &oauth.Credential{
		ProviderKey:  rec.ProviderKey,
		Principal:    rec.Principal,
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
		TokenType:    rec.TokenType,
		ExpiresAt:    rec.ExpiresAt,
	}
	if rec.Scopes != "" {
		cred.Scopes = strings.Fields(rec.Scopes)
	}
	return cred
}
