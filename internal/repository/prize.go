package repository

import (
	"context"

	"github.com/questx-lab/prizeengine/internal/entity"
	"github.com/questx-lab/prizeengine/pkg/xcontext"
	"gorm.io/gorm"
)

type PrizeRepository interface {
	Create(ctx context.Context, prize *entity.Prize) error
	GetByID(ctx context.Context, id string) (*entity.Prize, error)
	GetByKey(ctx context.Context, key string) (*entity.Prize, error)
	GetByIDs(ctx context.Context, ids []string) ([]entity.Prize, error)
	GetList(ctx context.Context) ([]entity.Prize, error)
	UpdateActive(ctx context.Context, id string, active bool) error

	// CheckAndConsumeStock decreases stock and increases emitted total by count
	// in a single statement. It returns gorm.ErrRecordNotFound if the prize is
	// inactive or has less than count in stock.
	CheckAndConsumeStock(ctx context.Context, id string, count int) error
}

type prizeRepository struct{}

func NewPrizeRepository() *prizeRepository {
	return &prizeRepository{}
}

func (r *prizeRepository) Create(ctx context.Context, prize *entity.Prize) error {
	return xcontext.DB(ctx).Create(prize).Error
}

func (r *prizeRepository) GetByID(ctx context.Context, id string) (*entity.Prize, error) {
	var result entity.Prize
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *prizeRepository) GetByKey(ctx context.Context, key string) (*entity.Prize, error) {
	var result entity.Prize
	if err := xcontext.DB(ctx).Take(&result, "`key`=?", key).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *prizeRepository) GetByIDs(ctx context.Context, ids []string) ([]entity.Prize, error) {
	var result []entity.Prize
	if err := xcontext.DB(ctx).Find(&result, "id IN (?)", ids).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *prizeRepository) GetList(ctx context.Context) ([]entity.Prize, error) {
	var result []entity.Prize
	if err := xcontext.DB(ctx).Order("`key` ASC").Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *prizeRepository) UpdateActive(ctx context.Context, id string, active bool) error {
	tx := xcontext.DB(ctx).Model(&entity.Prize{}).Where("id=?", id).Update("active", active)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *prizeRepository) CheckAndConsumeStock(ctx context.Context, id string, count int) error {
	tx := xcontext.DB(ctx).Model(&entity.Prize{}).
		Where("id=? AND active=? AND stock>=?", id, true, count).
		Updates(map[string]any{
			"stock":         gorm.Expr("stock-?", count),
			"emitted_total": gorm.Expr("emitted_total+?", count),
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
