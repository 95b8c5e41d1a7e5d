// Package memstore keeps password reset tokens in process memory.
//
// Tokens do not survive a restart and are not shared between processes, so
// this store is meant for development and tests only.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"expense_tracker/internal/models"
	"expense_tracker/internal/repository"
)

type ResetTokens struct {
	mu     sync.Mutex
	nextID int64
	byHash map[string]models.ResetToken
}

var _ repository.ResetTokenStore = (*ResetTokens)(nil)

func NewResetTokens() *ResetTokens {
	return &ResetTokens{byHash: make(map[string]models.ResetToken)}
}

func (s *ResetTokens) Put(_ context.Context, t models.ResetToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byHash[t.TokenHash]; ok {
		return fmt.Errorf("put reset token for user %d: %w", t.UserID, repository.ErrDuplicate)
	}
	s.nextID++
	t.ID = s.nextID
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	s.byHash[t.TokenHash] = t
	return nil
}

func (s *ResetTokens) Get(_ context.Context, tokenHash string) (*models.ResetToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.byHash[tokenHash]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (s *ResetTokens) Consume(_ context.Context, tokenHash string) error {
	return s.setUsed(tokenHash, true)
}

func (s *ResetTokens) Release(_ context.Context, tokenHash string) error {
	return s.setUsed(tokenHash, false)
}

// setUsed flips the used flag, failing with ErrNotFound if it already has that value.
func (s *ResetTokens) setUsed(tokenHash string, used bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.byHash[tokenHash]
	if !ok || t.Used == used {
		return fmt.Errorf("mark reset token used=%t: %w", used, repository.ErrNotFound)
	}
	t.Used = used
	s.byHash[tokenHash] = t
	return nil
}

func (s *ResetTokens) InvalidateUser(_ context.Context, userID int64, keepHash string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for hash, t := range s.byHash {
		if t.UserID == userID && hash != keepHash {
			delete(s.byHash, hash)
			n++
		}
	}
	return n, nil
}

func (s *ResetTokens) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for hash, t := range s.byHash {
		if t.Expired(now) {
			delete(s.byHash, hash)
			n++
		}
	}
	return n, nil
}

// Len reports how many tokens are held.
func (s *ResetTokens) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byHash)
}
