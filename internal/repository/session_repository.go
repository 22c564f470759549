package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"chatbox/internal/model"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session *model.Session) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("create session failed: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session failed: %w", err)
	}
	return &session, nil
}

// Touch bumps last_activity. gorm's Updates skips the write when the session
// row is gone, which keeps the call idempotent for expired sessions.
func (r *SessionRepository) Touch(ctx context.Context, id string, at time.Time) error {
	if err := r.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("id = ? AND last_activity < ?", id, at).
		Update("last_activity", at).Error; err != nil {
		return fmt.Errorf("touch session failed: %w", err)
	}
	return nil
}

func (r *SessionRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Session{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count sessions failed: %w", err)
	}
	return n, nil
}
