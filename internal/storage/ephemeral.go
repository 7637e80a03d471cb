package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"echogo/backend/internal/config"
	"echogo/backend/internal/errs"
	"echogo/backend/internal/models"

	"gorm.io/gorm"
)

// IssueEphemeralID deactivates every active token the account holds and
// inserts a fresh one, as a single transaction so concurrent rotation
// requests can never leave two active tokens behind.
func (s *Service) IssueEphemeralID(ctx context.Context, userID string) (*models.EphemeralID, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	row := models.EphemeralID{
		Token:     token,
		UserID:    userID,
		IsActive:  true,
		ExpiresAt: time.Now().Add(config.TokenTTL),
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.EphemeralID{}).
			Where("user_id = ? AND is_active = ?", userID, true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ActiveTokenForUser returns the account's single active token, or "" when
// none is held.
func (s *Service) ActiveTokenForUser(ctx context.Context, userID string) (string, error) {
	var row models.EphemeralID
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return row.Token, nil
}

// resolveToken finds the account currently reachable through the token:
// the row must be active or not yet expired.
func resolveToken(tx *gorm.DB, token string, now time.Time) (*models.EphemeralID, error) {
	var row models.EphemeralID
	err := tx.
		Where("token = ?", token).
		Where("is_active = ? OR expires_at > ?", true, now).
		Order("created_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// newToken draws 8 random bytes and hex-encodes them: 16 lowercase hex
// characters, 64 bits of entropy.
func newToken() (string, error) {
	buf := make([]byte, config.TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
