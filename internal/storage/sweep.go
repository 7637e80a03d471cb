package storage

import (
	"context"
	"time"

	"echogo/backend/internal/config"
	"echogo/backend/internal/models"

	"go.uber.org/zap"
)

// SweepResult counts the rows removed by one maintenance pass.
type SweepResult struct {
	ExpiredTokens int64 `json:"expired_tokens"`
	ConsumedWaves int64 `json:"consumed_waves"`
	ExpiredWaves  int64 `json:"expired_waves"`
}

// Sweep bounds storage growth: ephemeral tokens well past expiry, consumed
// waves older than the retention window, and unconsumed waves past their
// own expiry. Runs off the request path on an external schedule.
func (s *Service) Sweep(ctx context.Context) (SweepResult, error) {
	now := time.Now()
	var res SweepResult

	db := s.DB.WithContext(ctx)

	del := db.Where("expires_at < ?", now.Add(-config.ExpiredTokenSweepGrace)).
		Delete(&models.EphemeralID{})
	if del.Error != nil {
		return res, del.Error
	}
	res.ExpiredTokens = del.RowsAffected

	del = db.Where("is_consumed = ? AND created_at < ?", true, now.Add(-config.ConsumedWaveRetention)).
		Delete(&models.Wave{})
	if del.Error != nil {
		return res, del.Error
	}
	res.ConsumedWaves = del.RowsAffected

	del = db.Where("is_consumed = ? AND created_at < ?", false, now.Add(-config.WaveLifetime-config.UnconsumedWaveExpiry)).
		Delete(&models.Wave{})
	if del.Error != nil {
		return res, del.Error
	}
	res.ExpiredWaves = del.RowsAffected

	s.log.Info("sweep complete",
		zap.Int64("expired_tokens", res.ExpiredTokens),
		zap.Int64("consumed_waves", res.ConsumedWaves),
		zap.Int64("expired_waves", res.ExpiredWaves),
	)
	return res, nil
}
