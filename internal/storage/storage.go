// Package storage persists profiles, ephemeral tokens, waves, and matches
// in PostgreSQL and keeps the fast-path state (rate limits, presence,
// event fan-out) in Redis.
package storage

import (
	"context"
	"errors"

	"echogo/backend/internal/errs"
	"echogo/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Storage interface {
	// Profiles
	EnsureProfile(ctx context.Context, userID string, anonymous bool) error
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	SetContactHandle(ctx context.Context, userID, handle string) error
	SavePushToken(ctx context.Context, userID, token, platform string) error
	PushTokensForUser(ctx context.Context, userID string) ([]models.PushToken, error)
	DeleteAccount(ctx context.Context, userID string) error

	// Ephemeral tokens
	IssueEphemeralID(ctx context.Context, userID string) (*models.EphemeralID, error)
	ActiveTokenForUser(ctx context.Context, userID string) (string, error)

	// Waves and matches
	CheckAndCreateMatch(ctx context.Context, waverID, targetToken string) (*models.WaveOutcome, error)
	UndoWave(ctx context.Context, waverID, targetToken string) (targetUserID string, err error)
	RemoveMatch(ctx context.Context, userID, matchID string) (otherUserID string, err error)
	ListMatchesForUser(ctx context.Context, userID string) ([]models.Match, error)

	// Maintenance
	Sweep(ctx context.Context) (SweepResult, error)

	// Fast path
	AllowWave(ctx context.Context, userID string) (bool, error)
	PublishEvent(ctx context.Context, userID string, ev models.Event) error
	EventStream(ctx context.Context) <-chan UserEvent
	SetOnline(ctx context.Context, userID string) error
	SetOffline(ctx context.Context, userID string) error
	IsOnline(ctx context.Context, userID string) (bool, error)
}

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	log   *zap.Logger
}

func NewService(db *gorm.DB, rdb *redis.Client, log *zap.Logger) *Service {
	return &Service{DB: db, Redis: rdb, log: log}
}

// EnsureProfile creates the profile row if it does not exist yet. Handles
// the first call after an anonymous sign-in. The lookup conditions on the
// id alone; anonymity is an attribute applied only on create, so a row
// whose is_anonymous flag has since flipped still resolves.
func (s *Service) EnsureProfile(ctx context.Context, userID string, anonymous bool) error {
	return s.DB.WithContext(ctx).
		Where(models.Profile{ID: userID}).
		Attrs(models.Profile{IsAnonymous: anonymous}).
		FirstOrCreate(&models.Profile{}).Error
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	err := s.DB.WithContext(ctx).Where("id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SetContactHandle stores the opt-in handle and marks the profile claimed.
func (s *Service) SetContactHandle(ctx context.Context, userID, handle string) error {
	res := s.DB.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"contact_handle": handle,
			"is_anonymous":   handle == "",
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (s *Service) SavePushToken(ctx context.Context, userID, token, platform string) error {
	row := models.PushToken{UserID: userID, Token: token, Platform: platform}
	// Re-registering the same device token moves it to the current account.
	return s.DB.WithContext(ctx).
		Where("token = ?", token).
		Assign(models.PushToken{UserID: userID, Platform: platform}).
		FirstOrCreate(&row).Error
}

func (s *Service) PushTokensForUser(ctx context.Context, userID string) ([]models.PushToken, error) {
	var rows []models.PushToken
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error
	return rows, err
}

/// DeleteAccount removes the profile and everything keyed to it: tokens,
// waves in either direction, matches, and push registrations.
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.EphemeralID{}).Error; err != nil {
			return err
		}
		if err := tx.Where("waver_id = ? OR target_id = ?", userID, userID).Delete(&models.Wave{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_a = ? OR user_b = ?", userID, userID).Delete(&models.Match{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.PushToken{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", userID).Delete(&models.Profile{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.ErrNotFound
		}
		return nil
	})
}
