package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/questx-lab/prizeengine/internal/common"
	"github.com/questx-lab/prizeengine/pkg/errorx"
	"github.com/questx-lab/prizeengine/pkg/router"
	"github.com/questx-lab/prizeengine/pkg/xcontext"
)

func WithStartTime() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		return xcontext.WithStartTime(ctx, time.Now()), nil
	}
}

func Prometheus() router.CloserFunc {
	return func(ctx context.Context) {
		startTime := xcontext.StartTime(ctx)
		method := xcontext.HTTPRequest(ctx).Method
		code := strconv.Itoa(errorx.HTTPStatus(xcontext.Error(ctx)))

		for key, counter := range common.PromCounters {
			switch key {
			case common.HTTPRequestTotal:
				counter.WithLabelValues(method, code).Inc()
			}
		}

		for key, histogram := range common.PromHistograms {
			switch key {
			case common.HTTPRequestDurationSeconds:
				histogram.WithLabelValues(method, code).Observe(time.Since(startTime).Seconds())
			}
		}
	}
}
