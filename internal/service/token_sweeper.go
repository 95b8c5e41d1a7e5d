package service

import (
	"context"
	"time"

	"expense_tracker/internal/logger"
	"expense_tracker/internal/repository"
)

// TokenSweeper deletes expired password reset tokens on a ticker.
type TokenSweeper struct {
	tokens repository.ResetTokenStore
	log    *logger.Logger
	now    func() time.Time
}

func NewTokenSweeper(tokens repository.ResetTokenStore, log *logger.Logger) *TokenSweeper {
	return &TokenSweeper{tokens: tokens, log: log, now: time.Now}
}

// Run ticks at the given interval until ctx is canceled. A non-positive
// interval disables sweeping.
func (s *TokenSweeper) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.sweep(ctx)
		}
	}
}

func (s *TokenSweeper) sweep(ctx context.Context) int {
	n, err := s.tokens.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		if ctx.Err() == nil {
			s.log.Errorw("reset_token_sweep_failed", "err", err)
		}
		return 0
	}
	if n > 0 {
		s.log.Infow("reset_tokens_swept", "deleted", n)
	}
	return n
}
