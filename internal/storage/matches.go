package storage

import (
	"context"
	"errors"

	"echogo/backend/internal/errs"
	"echogo/backend/internal/models"

	"gorm.io/gorm"
)

// RemoveMatch deletes the match for both participants. The caller must be
// one of them; anything else reports not found, including an unknown id.
func (s *Service) RemoveMatch(ctx context.Context, userID, matchID string) (string, error) {
	var other string

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Match
		err := tx.Where("match_id = ?", matchID).First(&m).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.ErrNotFound
		}
		if err != nil {
			return err
		}
		if !m.Involves(userID) {
			return errs.ErrNotFound
		}
		other = m.Other(userID)
		return tx.Delete(&m).Error
	})
	if err != nil {
		return "", err
	}
	return other, nil
}

func (s *Service) ListMatchesForUser(ctx context.Context, userID string) ([]models.Match, error) {
	var rows []models.Match
	err := s.DB.WithContext(ctx).
		Where("user_a = ? OR user_b = ?", userID, userID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}
