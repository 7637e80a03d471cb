package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"echogo/backend/internal/config"
	"echogo/backend/internal/errs"
	"echogo/backend/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CheckAndCreateMatch runs the matching procedure for one wave request,
// atomically under serializable isolation:
//
//  1. resolve the target token to its owning account,
//  2. short-circuit if the pair is already matched,
//  3. enforce the wave-frequency limit,
//  4. if the target has an open wave toward the waver, consume both
//     directions and create exactly one Match; otherwise record a pending
//     wave (re-waving an open wave is a no-op).
//
// The unique index on the normalized pair backs the isolation level up: a
// concurrent duplicate insert surfaces as already_matched, never as a
// second Match row.
func (s *Service) CheckAndCreateMatch(ctx context.Context, waverID, targetToken string) (*models.WaveOutcome, error) {
	now := time.Now()
	out := &models.WaveOutcome{}

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		eph, err := resolveToken(tx, targetToken, now)
		if err != nil {
			return err
		}
		if eph.UserID == waverID {
			// A pair cannot be formed with oneself; waving at your own
			// rotated-out token resolves here.
			return errs.ErrInvalidToken
		}
		out.TargetUserID = eph.UserID

		a, b := models.NormalizePair(waverID, eph.UserID)
		var existing models.Match
		err = tx.Where("user_a = ? AND user_b = ?", a, b).First(&existing).Error
		if err == nil {
			out.Status = models.StatusAlreadyMatched
			out.MatchID = existing.MatchID
			out.MatchedUserID = eph.UserID
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		allowed, err := s.AllowWave(ctx, waverID)
		if err != nil {
			return err
		}
		if !allowed {
			out.Status = models.StatusRateLimited
			return nil
		}

		cutoff := now.Add(-config.WaveLifetime)

		var reciprocal models.Wave
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("waver_id = ? AND target_id = ? AND is_consumed = ?", eph.UserID, waverID, false).
			Where("created_at > ?", cutoff).
			Order("created_at DESC").
			First(&reciprocal).Error
		if err == nil {
			// Reciprocity: consume the target's wave plus any open wave of
			// ours toward them, then materialize the match.
			if err := tx.Model(&models.Wave{}).
				Where("id = ?", reciprocal.ID).
				Update("is_consumed", true).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Wave{}).
				Where("waver_id = ? AND target_id = ? AND is_consumed = ?", waverID, eph.UserID, false).
				Update("is_consumed", true).Error; err != nil {
				return err
			}
			match := models.Match{UserA: waverID, UserB: eph.UserID}
			if err := tx.Create(&match).Error; err != nil {
				return err
			}
			out.Status = models.StatusMatch
			out.MatchID = match.MatchID
			out.MatchedUserID = eph.UserID
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var open models.Wave
		err = tx.
			Where("waver_id = ? AND target_id = ? AND is_consumed = ?", waverID, eph.UserID, false).
			Where("created_at > ?", cutoff).
			First(&open).Error
		if err == nil {
			// Same open wave re-sent; nothing to write.
			out.Status = models.StatusPending
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		wave := models.Wave{WaverID: waverID, TargetToken: targetToken, TargetID: eph.UserID}
		if err := tx.Create(&wave).Error; err != nil {
			return err
		}
		out.Status = models.StatusPending
		return nil
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})

	if errors.Is(txErr, gorm.ErrDuplicatedKey) {
		// Lost the insert race for the pair; the winner's row is the match.
		return s.pairAsAlreadyMatched(ctx, waverID, out.TargetUserID)
	}
	if isRetryableTxError(txErr) {
		// Serialization abort under concurrent waving; the request can be
		// replayed as-is and the caller is told so.
		return nil, errs.ErrTxConflict
	}
	if txErr != nil {
		return nil, txErr
	}
	return out, nil
}

// isRetryableTxError recognizes the serialization-failure (40001) and
// deadlock (40P01) classes Postgres raises when serializable
// transactions collide.
func isRetryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

func (s *Service) pairAsAlreadyMatched(ctx context.Context, waverID, targetID string) (*models.WaveOutcome, error) {
	a, b := models.NormalizePair(waverID, targetID)
	var m models.Match
	if err := s.DB.WithContext(ctx).Where("user_a = ? AND user_b = ?", a, b).First(&m).Error; err != nil {
		return nil, err
	}
	return &models.WaveOutcome{
		Status:        models.StatusAlreadyMatched,
		MatchID:       m.MatchID,
		MatchedUserID: targetID,
		TargetUserID:  targetID,
	}, nil
}

// UndoWave deletes the caller's open wave toward the token, provided it is
// still unconsumed and within the wave lifetime window. Returns the
// resolved target account so the caller can clear their indicator.
func (s *Service) UndoWave(ctx context.Context, waverID, targetToken string) (string, error) {
	now := time.Now()
	var targetID string

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var wave models.Wave
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("waver_id = ? AND target_token = ? AND is_consumed = ?", waverID, targetToken, false).
			Where("created_at > ?", now.Add(-config.WaveLifetime)).
			Order("created_at DESC").
			First(&wave).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.ErrUndoExpired
		}
		if err != nil {
			return err
		}
		targetID = wave.TargetID
		return tx.Delete(&wave).Error
	})
	if err != nil {
		return "", err
	}
	return targetID, nil
}
