package testutil

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/questx-lab/prizeengine/internal/entity"
	"github.com/questx-lab/prizeengine/internal/repository"
)

// SamplePrize creates an active prize in database. Zero fields of init are
// filled with random or default values.
func SamplePrize(ctx context.Context, init entity.Prize) entity.Prize {
	if init.ID == "" {
		init.ID = uuid.NewString()
	}

	if init.Key == "" {
		init.Key = uuid.NewString()[:8]
	}

	if init.Label == "" {
		init.Label = "Prize " + init.Key
	}

	if init.Color == "" {
		init.Color = "#ffffff"
	}

	if err := repository.NewPrizeRepository().Create(ctx, &init); err != nil {
		panic(err)
	}

	return init
}

func SampleBatch(ctx context.Context, init entity.Batch) entity.Batch {
	if init.ID == "" {
		init.ID = uuid.NewString()
	}

	if init.WindowMode == "" {
		init.WindowMode = entity.WindowNone
	}

	if err := repository.NewBatchRepository().Create(ctx, &init); err != nil {
		panic(err)
	}

	return init
}

// SampleToken creates a token in database. It is not signed unless init
// carries a signature. The default token is enabled and expires in one day.
func SampleToken(ctx context.Context, init entity.Token) entity.Token {
	if init.ID == "" {
		init.ID = uuid.NewString()
	}

	if init.ExpiresAt.IsZero() {
		init.ExpiresAt = time.Now().UTC().Add(24 * time.Hour)
	}

	if err := repository.NewTokenRepository().CreateMany(ctx, []entity.Token{init}); err != nil {
		panic(err)
	}

	return init
}

func SampleReusableToken(ctx context.Context, init entity.ReusableToken) entity.ReusableToken {
	if init.ID == "" {
		init.ID = uuid.NewString()
	}

	if init.ExpiresAt.IsZero() {
		init.ExpiresAt = time.Now().UTC().Add(24 * time.Hour)
	}

	if init.MaxUses == 0 {
		init.MaxUses = 1
	}

	if err := repository.NewReusableTokenRepository().CreateMany(ctx, []entity.ReusableToken{init}); err != nil {
		panic(err)
	}

	return init
}

func TimePtr(t time.Time) *time.Time {
	return &t
}
