package repository

import (
	"context"

	"github.com/questx-lab/prizeengine/internal/entity"
	"github.com/questx-lab/prizeengine/pkg/xcontext"
)

type BatchRepository interface {
	Create(ctx context.Context, batch *entity.Batch) error
	GetByID(ctx context.Context, id string) (*entity.Batch, error)
	GetList(ctx context.Context) ([]entity.Batch, error)

	// DeleteEmpty removes every batch which has no token left in either token
	// table.
	DeleteEmpty(ctx context.Context) (int64, error)
}

type batchRepository struct{}

func NewBatchRepository() *batchRepository {
	return &batchRepository{}
}

func (r *batchRepository) Create(ctx context.Context, batch *entity.Batch) error {
	return xcontext.DB(ctx).Create(batch).Error
}

func (r *batchRepository) GetByID(ctx context.Context, id string) (*entity.Batch, error) {
	var result entity.Batch
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *batchRepository) GetList(ctx context.Context) ([]entity.Batch, error) {
	var result []entity.Batch
	if err := xcontext.DB(ctx).Order("created_at ASC").Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *batchRepository) DeleteEmpty(ctx context.Context) (int64, error) {
	tx := xcontext.DB(ctx).
		Where("NOT EXISTS (SELECT 1 FROM tokens WHERE tokens.batch_id = batches.id)").
		Where("NOT EXISTS (SELECT 1 FROM reusable_tokens WHERE reusable_tokens.batch_id = batches.id)").
		Delete(&entity.Batch{})
	if tx.Error != nil {
		return 0, tx.Error
	}

	return tx.RowsAffected, nil
}
