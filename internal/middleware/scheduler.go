package middleware

import (
	"context"
	"crypto/subtle"

	"github.com/questx-lab/prizeengine/pkg/errorx"
	"github.com/questx-lab/prizeengine/pkg/router"
	"github.com/questx-lab/prizeengine/pkg/xcontext"
)

const SchedulerSecretHeader = "X-Scheduler-Secret"

// SchedulerSecret only lets through the requests carrying the configured
// scheduler secret. Every request is rejected if no secret is configured.
func SchedulerSecret() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		secret := xcontext.Configs(ctx).ApiServer.SchedulerSecret
		presented := xcontext.HTTPRequest(ctx).Header.Get(SchedulerSecretHeader)

		if secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(presented)) != 1 {
			return nil, errorx.Of(errorx.Unauthenticated)
		}

		return ctx, nil
	}
}

// NoStore forbids any cache to keep the response.
func NoStore() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		if w := xcontext.HTTPWriter(ctx); w != nil {
			w.Header().Set("Cache-Control", "no-store")
		}

		return ctx, nil
	}
}
