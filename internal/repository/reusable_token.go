package repository

import (
	"context"
	"time"

	"github.com/questx-lab/prizeengine/internal/entity"
	"github.com/questx-lab/prizeengine/pkg/xcontext"
	"gorm.io/gorm"
)

type ReusableTokenRepository interface {
	CreateMany(ctx context.Context, tokens []entity.ReusableToken) error
	GetByID(ctx context.Context, id string) (*entity.ReusableToken, error)
	CountByPrize(ctx context.Context) ([]PrizeCount, error)

	// Consume increases the used count by one only while it is below max uses
	// and the token is enabled and not expired. It returns
	// gorm.ErrRecordNotFound when no row matched.
	Consume(ctx context.Context, id string, now time.Time) error

	EnableInRange(ctx context.Context, start, end time.Time) (int64, error)
	EnableActiveWindow(ctx context.Context, now time.Time) (int64, error)
	DeleteUnusedInRange(ctx context.Context, start, end time.Time) (int64, error)
}

type reusableTokenRepository struct{}

func NewReusableTokenRepository() *reusableTokenRepository {
	return &reusableTokenRepository{}
}

func (r *reusableTokenRepository) CreateMany(ctx context.Context, tokens []entity.ReusableToken) error {
	if len(tokens) == 0 {
		return nil
	}

	return xcontext.DB(ctx).CreateInBatches(tokens, 100).Error
}

func (r *reusableTokenRepository) GetByID(ctx context.Context, id string) (*entity.ReusableToken, error) {
	var result entity.ReusableToken
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *reusableTokenRepository) CountByPrize(ctx context.Context) ([]PrizeCount, error) {
	var result []PrizeCount
	err := xcontext.DB(ctx).Model(&entity.ReusableToken{}).
		Select("prize_id, COUNT(*) AS count").
		Group("prize_id").
		Scan(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *reusableTokenRepository) Consume(ctx context.Context, id string, now time.Time) error {
	tx := xcontext.DB(ctx).Model(&entity.ReusableToken{}).
		Where("id=? AND used_count<max_uses AND disabled=? AND expires_at>?", id, false, now).
		Where("valid_from IS NULL OR valid_from<=?", now).
		Updates(map[string]any{
			"used_count":   gorm.Expr("used_count+?", 1),
			"last_used_at": now,
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *reusableTokenRepository) EnableInRange(ctx context.Context, start, end time.Time) (int64, error) {
	tx := xcontext.DB(ctx).Model(&entity.ReusableToken{}).
		Where("disabled=? AND expires_at>=? AND expires_at<?", true, start, end).
		Update("disabled", false)

	return tx.RowsAffected, tx.Error
}

func (r *reusableTokenRepository) EnableActiveWindow(ctx context.Context, now time.Time) (int64, error) {
	tx := xcontext.DB(ctx).Model(&entity.ReusableToken{}).
		Where("disabled=? AND valid_from<=? AND end_time>?", true, now, now).
		Update("disabled", false)

	return tx.RowsAffected, tx.Error
}

func (r *reusableTokenRepository) DeleteUnusedInRange(ctx context.Context, start, end time.Time) (int64, error) {
	tx := xcontext.DB(ctx).
		Where("expires_at>=? AND expires_at<? AND used_count=?", start, end, 0).
		Delete(&entity.ReusableToken{})

	return tx.RowsAffected, tx.Error
}
