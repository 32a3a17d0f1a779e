package repository

import (
	"context"

	"github.com/questx-lab/prizeengine/internal/entity"
	"github.com/questx-lab/prizeengine/pkg/xcontext"
	"gorm.io/gorm/clause"
)

type SystemSettingRepository interface {
	Get(ctx context.Context, key string) (*entity.SystemSetting, error)
	Upsert(ctx context.Context, setting *entity.SystemSetting) error
}

type systemSettingRepository struct{}

func NewSystemSettingRepository() *systemSettingRepository {
	return &systemSettingRepository{}
}

func (r *systemSettingRepository) Get(ctx context.Context, key string) (*entity.SystemSetting, error) {
	var result entity.SystemSetting
	if err := xcontext.DB(ctx).Take(&result, "`key`=?", key).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *systemSettingRepository) Upsert(ctx context.Context, setting *entity.SystemSetting) error {
	return xcontext.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(setting).Error
}
