package migration

import (
	"context"

	"github.com/questx-lab/prizeengine/internal/entity"
	"github.com/questx-lab/prizeengine/pkg/xcontext"
	"gorm.io/gorm/clause"
)

// migrate0001 turns redemption on for a fresh database.
func migrate0001(ctx context.Context) error {
	return xcontext.DB(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entity.SystemSetting{Key: entity.SettingRedemptionEnabled, Value: "true"}).Error
}
