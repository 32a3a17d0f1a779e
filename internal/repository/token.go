package repository

import (
	"context"
	"time"

	"github.com/questx-lab/prizeengine/internal/entity"
	"github.com/questx-lab/prizeengine/pkg/xcontext"
	"gorm.io/gorm"
)

type PrizeCount struct {
	PrizeID string
	Count   int64
}

type TokenRepository interface {
	CreateMany(ctx context.Context, tokens []entity.Token) error
	GetByID(ctx context.Context, id string) (*entity.Token, error)
	GetEligibleByBatchID(ctx context.Context, batchID string, now time.Time) ([]entity.Token, error)
	CountByPrize(ctx context.Context) ([]PrizeCount, error)
	CountPendingEnable(ctx context.Context, now time.Time) (int64, error)
	Statistic(ctx context.Context, now time.Time) ([]entity.BatchStats, error)

	// The following methods are single conditional statements. All of them
	// return gorm.ErrRecordNotFound when no row matched the condition.
	Reveal(ctx context.Context, id string, now time.Time) error
	Deliver(ctx context.Context, id string, now time.Time) error
	// Redeem also reveals a token which was not revealed yet.
	Redeem(ctx context.Context, id string, now time.Time) error

	// The following methods are set based and converge when repeated.
	EnableInRange(ctx context.Context, start, end time.Time) (int64, error)
	EnableActiveWindow(ctx context.Context, now time.Time) (int64, error)
	DeleteUnusedInRange(ctx context.Context, start, end time.Time) (int64, error)
}

type tokenRepository struct{}

func NewTokenRepository() *tokenRepository {
	return &tokenRepository{}
}

func (r *tokenRepository) CreateMany(ctx context.Context, tokens []entity.Token) error {
	if len(tokens) == 0 {
		return nil
	}

	return xcontext.DB(ctx).CreateInBatches(tokens, 100).Error
}

func (r *tokenRepository) GetByID(ctx context.Context, id string) (*entity.Token, error) {
	var result entity.Token
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *tokenRepository) GetEligibleByBatchID(
	ctx context.Context, batchID string, now time.Time,
) ([]entity.Token, error) {
	var result []entity.Token
	err := xcontext.DB(ctx).
		Where("batch_id=? AND disabled=? AND expires_at>? AND redeemed_at IS NULL", batchID, false, now).
		Order("id ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *tokenRepository) CountByPrize(ctx context.Context) ([]PrizeCount, error) {
	var result []PrizeCount
	err := xcontext.DB(ctx).Model(&entity.Token{}).
		Select("prize_id, COUNT(*) AS count").
		Group("prize_id").
		Scan(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *tokenRepository) CountPendingEnable(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := xcontext.DB(ctx).Model(&entity.Token{}).
		Where("disabled=? AND expires_at>? AND valid_from<=? AND (end_time IS NULL OR end_time>?)",
			true, now, now, now).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *tokenRepository) Statistic(ctx context.Context, now time.Time) ([]entity.BatchStats, error) {
	var result []entity.BatchStats
	err := xcontext.DB(ctx).Model(&entity.Token{}).
		Select(`batch_id,
			COUNT(*) AS total,
			SUM(CASE WHEN expires_at>? AND disabled=? AND redeemed_at IS NULL THEN 1 ELSE 0 END) AS enabled,
			SUM(CASE WHEN expires_at>? AND disabled=? THEN 1 ELSE 0 END) AS disabled,
			SUM(CASE WHEN expires_at>? AND disabled=? AND valid_from<=? AND (end_time IS NULL OR end_time>?)
				THEN 1 ELSE 0 END) AS pending_enable,
			SUM(CASE WHEN expires_at<=? THEN 1 ELSE 0 END) AS expired,
			SUM(CASE WHEN revealed_at IS NOT NULL THEN 1 ELSE 0 END) AS revealed,
			SUM(CASE WHEN delivered_at IS NOT NULL THEN 1 ELSE 0 END) AS delivered,
			SUM(CASE WHEN redeemed_at IS NOT NULL THEN 1 ELSE 0 END) AS redeemed`,
			now, false, now, true, now, true, now, now, now).
		Group("batch_id").
		Order("batch_id ASC").
		Scan(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *tokenRepository) Reveal(ctx context.Context, id string, now time.Time) error {
	tx := xcontext.DB(ctx).Model(&entity.Token{}).
		Where("id=? AND revealed_at IS NULL AND disabled=? AND expires_at>?", id, false, now).
		Where("valid_from IS NULL OR valid_from<=?", now).
		Updates(map[string]any{
			"revealed_at":       now,
			"assigned_prize_id": gorm.Expr("prize_id"),
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *tokenRepository) Deliver(ctx context.Context, id string, now time.Time) error {
	tx := xcontext.DB(ctx).Model(&entity.Token{}).
		Where("id=? AND revealed_at IS NOT NULL AND delivered_at IS NULL AND disabled=? AND expires_at>?",
			id, false, now).
		Update("delivered_at", now)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *tokenRepository) Redeem(ctx context.Context, id string, now time.Time) error {
	tx := xcontext.DB(ctx).Model(&entity.Token{}).
		Where("id=? AND redeemed_at IS NULL AND disabled=? AND expires_at>?", id, false, now).
		Where("valid_from IS NULL OR valid_from<=?", now).
		Updates(map[string]any{
			"redeemed_at":       now,
			"revealed_at":       gorm.Expr("COALESCE(revealed_at, ?)", now),
			"assigned_prize_id": gorm.Expr("COALESCE(assigned_prize_id, prize_id)"),
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *tokenRepository) EnableInRange(ctx context.Context, start, end time.Time) (int64, error) {
	tx := xcontext.DB(ctx).Model(&entity.Token{}).
		Where("disabled=? AND expires_at>=? AND expires_at<?", true, start, end).
		Update("disabled", false)

	return tx.RowsAffected, tx.Error
}

func (r *tokenRepository) EnableActiveWindow(ctx context.Context, now time.Time) (int64, error) {
	tx := xcontext.DB(ctx).Model(&entity.Token{}).
		Where("disabled=? AND valid_from<=? AND end_time>?", true, now, now).
		Update("disabled", false)

	return tx.RowsAffected, tx.Error
}

func (r *tokenRepository) DeleteUnusedInRange(ctx context.Context, start, end time.Time) (int64, error) {
	tx := xcontext.DB(ctx).
		Where("expires_at>=? AND expires_at<? AND delivered_at IS NULL AND redeemed_at IS NULL", start, end).
		Delete(&entity.Token{})

	return tx.RowsAffected, tx.Error
}
