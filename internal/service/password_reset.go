package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"expense_tracker/internal/logger"
	"expense_tracker/internal/models"
	"expense_tracker/internal/notification"
	"expense_tracker/internal/repository"
)

const (
	resetTokenTTL   = 15 * time.Minute
	resetTokenBytes = 32
)

// PasswordResetService issues and redeems single-use reset tokens.
// Tokens move Issued -> Consumed on success; expiry is checked at redemption.
type PasswordResetService struct {
	users  repository.UserRepo
	tokens repository.ResetTokenStore
	mailer notification.Sender
	log    *logger.Logger
	now    func() time.Time
}

func NewPasswordResetService(
	users repository.UserRepo,
	tokens repository.ResetTokenStore,
	mailer notification.Sender,
	log *logger.Logger,
) *PasswordResetService {
	if mailer == nil {
		mailer = notification.NewLogSender(log)
	}
	return &PasswordResetService{users: users, tokens: tokens, mailer: mailer, log: log, now: time.Now}
}

// RequestReset returns nil for unknown emails so callers cannot enumerate accounts.
// Provider failures are logged, not returned.
func (s *PasswordResetService) RequestReset(ctx context.Context, email, linkBase string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return validationError("email is required")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return dependencyError("lookup user", err)
	}
	if u == nil {
		s.log.Infow("password_reset_unknown_email")
		return nil
	}

	token, err := newResetToken()
	if err != nil {
		return err
	}
	now := s.now().UTC()
	err = s.tokens.Put(ctx, models.ResetToken{
		UserID:    u.ID,
		TokenHash: hashResetToken(token),
		ExpiresAt: now.Add(resetTokenTTL),
		CreatedAt: now,
	})
	if err != nil {
		return dependencyError("store reset token", err)
	}

	msg, err := notification.ResetEmail(u.Email, notification.ResetData{
		Name:     u.Name,
		Link:     resetLink(linkBase, token),
		ValidFor: resetTokenTTL,
	})
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		kind, _ := notification.KindOf(err)
		s.log.Errorw("password_reset_email_failed", "user_id", u.ID, "kind", kind.String(), "err", err)
		return nil
	}
	s.log.Infow("password_reset_email_sent", "user_id", u.ID)
	return nil
}

// ConfirmReset consumes the token, stores the new password hash and deletes
// every other outstanding token of the user. A failed password write leaves
// the token redeemable.
func (s *PasswordResetService) ConfirmReset(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return validationError("token and new password are required")
	}
	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}

	hash := hashResetToken(token)
	rec, err := s.tokens.Get(ctx, hash)
	if err != nil {
		return dependencyError("load reset token", err)
	}
	if err := s.checkToken(rec); err != nil {
		s.log.Infow("password_reset_rejected", "reason", err.Error())
		return err
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}

	var n int
	if r, ok := s.tokens.(repository.PasswordRedeemer); ok {
		n, err = s.redeemInTx(ctx, r, hash, rec.UserID, passwordHash)
	} else {
		n, err = s.redeemWithRelease(ctx, hash, rec.UserID, passwordHash)
	}
	if err != nil {
		return err
	}
	s.log.Infow("password_reset_completed", "user_id", rec.UserID, "invalidated_tokens", n)
	return nil
}

func (s *PasswordResetService) redeemInTx(ctx context.Context, r repository.PasswordRedeemer, hash string, userID int64, passwordHash string) (int, error) {
	n, err := r.RedeemResetToken(ctx, hash, userID, passwordHash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrResetTokenConsumed
		}
		return 0, dependencyError("redeem reset token", err)
	}
	return n, nil
}

// redeemWithRelease is used when tokens live outside the users database:
// the consume is undone if the password write fails.
func (s *PasswordResetService) redeemWithRelease(ctx context.Context, hash string, userID int64, passwordHash string) (int, error) {
	if err := s.tokens.Consume(ctx, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrResetTokenConsumed
		}
		return 0, dependencyError("consume reset token", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, passwordHash); err != nil {
		if relErr := s.tokens.Release(ctx, hash); relErr != nil {
			s.log.Errorw("password_reset_release_failed", "user_id", userID, "err", relErr)
		}
		return 0, dependencyError("update password", err)
	}
	n, err := s.tokens.InvalidateUser(ctx, userID, hash)
	if err != nil {
		s.log.Errorw("password_reset_invalidate_failed", "user_id", userID, "err", err)
	}
	return n, nil
}

func (s *PasswordResetService) checkToken(rec *models.ResetToken) error {
	switch {
	case rec == nil:
		return ErrResetTokenUnknown
	case rec.Used:
		return ErrResetTokenConsumed
	case rec.Expired(s.now()):
		return ErrResetTokenExpired
	}
	return nil
}

func newResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// resetLink appends the token as a query parameter, keeping any existing query.
func resetLink(base, token string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}
