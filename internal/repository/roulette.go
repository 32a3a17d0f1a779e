package repository

import (
	"context"
	"time"

	"github.com/questx-lab/prizeengine/internal/entity"
	"github.com/questx-lab/prizeengine/pkg/xcontext"
	"gorm.io/gorm"
)

type RouletteRepository interface {
	// Session
	CreateSession(ctx context.Context, session *entity.RouletteSession) error
	GetSessionByID(ctx context.Context, sessionID string) (*entity.RouletteSession, error)

	// AdvanceSession increases spin count and version of an active session
	// only if its version is still the given one. When finished is true the
	// session also moves to FINISHED. It returns gorm.ErrRecordNotFound if
	// another writer advanced the session first.
	AdvanceSession(ctx context.Context, sessionID string, version int, finished bool, now time.Time) error

	// CancelSession moves an active session to CANCELLED. It returns
	// gorm.ErrRecordNotFound if the session is not active.
	CancelSession(ctx context.Context, sessionID string, now time.Time) error

	// Spin
	CreateSpin(ctx context.Context, spin *entity.RouletteSpin) error
	GetSpinsBySessionID(ctx context.Context, sessionID string) ([]entity.RouletteSpin, error)
}

type rouletteRepository struct{}

func NewRouletteRepository() *rouletteRepository {
	return &rouletteRepository{}
}

func (r *rouletteRepository) CreateSession(ctx context.Context, session *entity.RouletteSession) error {
	return xcontext.DB(ctx).Create(session).Error
}

func (r *rouletteRepository) GetSessionByID(ctx context.Context, sessionID string) (*entity.RouletteSession, error) {
	var result entity.RouletteSession
	if err := xcontext.DB(ctx).Take(&result, "id=?", sessionID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *rouletteRepository) AdvanceSession(
	ctx context.Context, sessionID string, version int, finished bool, now time.Time,
) error {
	updates := map[string]any{
		"spin_count": gorm.Expr("spin_count+?", 1),
		"version":    gorm.Expr("version+?", 1),
	}

	if finished {
		updates["status"] = entity.RouletteFinished
		updates["finished_at"] = now
	}

	tx := xcontext.DB(ctx).Model(&entity.RouletteSession{}).
		Where("id=? AND version=? AND status=?", sessionID, version, entity.RouletteActive).
		Updates(updates)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *rouletteRepository) CancelSession(ctx context.Context, sessionID string, now time.Time) error {
	tx := xcontext.DB(ctx).Model(&entity.RouletteSession{}).
		Where("id=? AND status=?", sessionID, entity.RouletteActive).
		Updates(map[string]any{
			"status":      entity.RouletteCancelled,
			"finished_at": now,
			"version":     gorm.Expr("version+?", 1),
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *rouletteRepository) CreateSpin(ctx context.Context, spin *entity.RouletteSpin) error {
	return xcontext.DB(ctx).Create(spin).Error
}

func (r *rouletteRepository) GetSpinsBySessionID(ctx context.Context, sessionID string) ([]entity.RouletteSpin, error) {
	var result []entity.RouletteSpin
	err := xcontext.DB(ctx).Where("session_id=?", sessionID).
		Order("spin_order ASC").Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
