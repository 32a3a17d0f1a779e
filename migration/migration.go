package migration

import (
	"context"
	"errors"

	"github.com/questx-lab/prizeengine/internal/entity"
	"github.com/questx-lab/prizeengine/pkg/xcontext"
	"gorm.io/gorm"
)

type Migrator func(ctx context.Context) error

// Migrators are the versioned migrations, run in order by Migrate. A version
// is recorded in the migrations table once it succeeded.
var Migrators = map[string]Migrator{
	"0000": migrate0000,
	"0001": migrate0001,
}

var versions = []string{"0000", "0001"}

// Migrate runs every migrator which is not recorded yet.
func Migrate(ctx context.Context) error {
	if err := xcontext.DB(ctx).AutoMigrate(&entity.Migration{}); err != nil {
		return err
	}

	for _, version := range versions {
		var m entity.Migration
		err := xcontext.DB(ctx).Take(&m, "version=?", version).Error
		if err == nil {
			continue
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := Migrators[version](ctx); err != nil {
			return err
		}

		if err := xcontext.DB(ctx).Create(&entity.Migration{Version: version}).Error; err != nil {
			return err
		}

		xcontext.Logger(ctx).Infof("Migrated database to version %s", version)
	}

	return nil
}

// When this migrator is called, no need to call other migrators.
func AutoMigrate(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&entity.Prize{},
		&entity.Batch{},
		&entity.Token{},
		&entity.ReusableToken{},
		&entity.RouletteSession{},
		&entity.RouletteSpin{},
		&entity.SystemSetting{},
		&entity.Migration{},
	)
}
