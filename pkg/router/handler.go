package router

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/questx-lab/prizeengine/pkg/errorx"
	"github.com/questx-lab/prizeengine/pkg/xcontext"
)

func wrapHandler[Request, Response any](
	router *Router,
	method string,
	handler HandlerFunc[Request, Response],
) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := router.newContext(c)

		defer func() {
			for _, closer := range router.closers {
				closer(ctx)
			}
		}()

		ctx, err := router.runMiddlewares(ctx, router.befores)
		if err != nil {
			ctx = xcontext.WithError(ctx, err)
			writeResponse(ctx, c)
			return
		}

		req := new(Request)
		if err := router.bind(c, method, req); err != nil {
			xcontext.Logger(ctx).Debugf("Cannot bind request: %v", err)
			ctx = xcontext.WithError(ctx, errorx.New(errorx.BadRequest, "Invalid request"))
			writeResponse(ctx, c)
			return
		}

		resp, err := handler(ctx, req)
		if err != nil {
			ctx = xcontext.WithError(ctx, err)
			writeResponse(ctx, c)
			return
		}

		ctx = xcontext.WithResponse(ctx, resp)
		ctx, err = router.runMiddlewares(ctx, router.afters)
		if err != nil {
			ctx = xcontext.WithError(ctx, err)
		}

		writeResponse(ctx, c)
	}
}

func (r *Router) newContext(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	ctx = xcontext.WithDB(ctx, r.db)
	ctx = xcontext.WithConfigs(ctx, r.cfg)
	ctx = xcontext.WithLogger(ctx, r.logger)
	ctx = xcontext.WithHTTPRequest(ctx, c.Request)
	ctx = xcontext.WithHTTPWriter(ctx, c.Writer)
	ctx = xcontext.WithStartTime(ctx, time.Now())
	return ctx
}

func (r *Router) runMiddlewares(ctx context.Context, middlewares []MiddlewareFunc) (context.Context, error) {
	for _, m := range middlewares {
		newCtx, err := m(ctx)
		if err != nil {
			return ctx, err
		}

		if newCtx != nil {
			ctx = newCtx
		}
	}

	return ctx, nil
}

func (r *Router) bind(c *gin.Context, method string, req any) error {
	if len(c.Params) > 0 {
		if err := c.ShouldBindUri(req); err != nil {
			return err
		}
	}

	switch method {
	case "GET":
		if err := c.ShouldBindQuery(req); err != nil {
			return err
		}
	case "POST":
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(req); err != nil {
				return err
			}
		}
	}

	return r.validate.Struct(req)
}
