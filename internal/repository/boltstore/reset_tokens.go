// Package boltstore persists password reset tokens in a bbolt file, for
// deployments that keep reset state apart from the main database.
package boltstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"expense_tracker/internal/models"
	"expense_tracker/internal/repository"
)

var bucketResetTokens = []byte("reset_tokens")

type ResetTokens struct {
	db *bbolt.DB
}

var _ repository.ResetTokenStore = (*ResetTokens)(nil)

// Open opens (or creates) the bbolt file at path.
func Open(path string) (*ResetTokens, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open boltdb at %q: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketResetTokens)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create reset_tokens bucket: %w", err)
	}
	return &ResetTokens{db: db}, nil
}

func (s *ResetTokens) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *ResetTokens) Put(_ context.Context, t models.ResetToken) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketResetTokens)
		key := []byte(t.TokenHash)
		if b.Get(key) != nil {
			return fmt.Errorf("put reset token for user %d: %w", t.UserID, repository.ErrDuplicate)
		}
		id, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("next reset token id: %w", err)
		}
		t.ID = int64(id)
		if t.CreatedAt.IsZero() {
			t.CreatedAt = time.Now().UTC()
		}
		return putToken(b, t)
	})
}

func (s *ResetTokens) Get(_ context.Context, tokenHash string) (*models.ResetToken, error) {
	var out *models.ResetToken
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketResetTokens).Get([]byte(tokenHash))
		if data == nil {
			return nil
		}
		var t models.ResetToken
		if err := json.Unmarshal(data, &t); err != nil {
			return fmt.Errorf("unmarshal reset token: %w", err)
		}
		out = &t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ResetTokens) Consume(_ context.Context, tokenHash string) error {
	return s.setUsed(tokenHash, true)
}

func (s *ResetTokens) Release(_ context.Context, tokenHash string) error {
	return s.setUsed(tokenHash, false)
}

// setUsed flips the used flag, failing with ErrNotFound if the token is
// unknown or already has that value.
func (s *ResetTokens) setUsed(tokenHash string, used bool) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketResetTokens)
		data := b.Get([]byte(tokenHash))
		if data == nil {
			return fmt.Errorf("mark reset token used=%t: %w", used, repository.ErrNotFound)
		}
		var t models.ResetToken
		if err := json.Unmarshal(data, &t); err != nil {
			return fmt.Errorf("unmarshal reset token: %w", err)
		}
		if t.Used == used {
			return fmt.Errorf("mark reset token used=%t: %w", used, repository.ErrNotFound)
		}
		t.Used = used
		return putToken(b, t)
	})
}

func (s *ResetTokens) InvalidateUser(_ context.Context, userID int64, keepHash string) (int, error) {
	return s.deleteWhere(func(t models.ResetToken) bool {
		return t.UserID == userID && t.TokenHash != keepHash
	})
}

func (s *ResetTokens) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	return s.deleteWhere(func(t models.ResetToken) bool {
		return t.Expired(now)
	})
}

func (s *ResetTokens) deleteWhere(match func(models.ResetToken) bool) (int, error) {
	n := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketResetTokens)
		var doomed [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var t models.ResetToken
			if err := json.Unmarshal(v, &t); err != nil {
				return fmt.Errorf("unmarshal reset token: %w", err)
			}
			if match(t) {
				doomed = append(doomed, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range doomed {
			if err := b.Delete(k); err != nil {
				return fmt.Errorf("delete reset token: %w", err)
			}
		}
		n = len(doomed)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func putToken(b *bbolt.Bucket, t models.ResetToken) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal reset token: %w", err)
	}
	if err := b.Put([]byte(t.TokenHash), data); err != nil {
		return fmt.Errorf("save reset token: %w", err)
	}
	return nil
}
