package testutil

import (
	"context"
	"time"

	"github.com/questx-lab/prizeengine/config"
	"github.com/questx-lab/prizeengine/migration"
	"github.com/questx-lab/prizeengine/pkg/logger"
	"github.com/questx-lab/prizeengine/pkg/xcontext"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func MockConfigs() config.Configs {
	return config.Configs{
		Env:      "test",
		LogLevel: "ERROR",
		ApiServer: config.APIServerConfigs{
			SchedulerSecret: "scheduler-secret",
		},
		Signer: config.SignerConfigs{
			CurrentVersion: 2,
			Keys: map[int]string{
				1: "legacy-secret",
				2: "current-secret",
			},
		},
		Schedule: config.ScheduleConfigs{
			Timezone: "UTC",
		},
		Roulette: config.RouletteConfigs{
			MaxSpinRetries: 5,
		},
		Cache: config.CacheConfigs{
			SwitchTTL: time.Minute,
			PrizeTTL:  time.Minute,
		},
		WaitReady: config.WaitReadyConfigs{
			Interval: 10 * time.Millisecond,
			Deadline: 200 * time.Millisecond,
		},
	}
}

// MockContext returns a context holding a migrated in-memory sqlite database.
// The database uses a single connection so every goroutine of a test sees
// the same data.
func MockContext() context.Context {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		panic(err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxOpenConns(1)

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, MockConfigs())
	ctx = xcontext.WithLogger(ctx, logger.NewLogger(logger.ERROR))
	ctx = xcontext.WithDB(ctx, db)

	if err := migration.Migrate(ctx); err != nil {
		panic(err)
	}

	return ctx
}
