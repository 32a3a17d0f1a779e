package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/questx-lab/prizeengine/config"
	"github.com/questx-lab/prizeengine/pkg/errorx"
	"github.com/questx-lab/prizeengine/pkg/logger"
	"github.com/questx-lab/prizeengine/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

type echoRequest struct {
	ID   string `uri:"id" validate:"required"`
	Name string `json:"name"`
}

type echoResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func echo(ctx context.Context, req *echoRequest) (*echoResponse, error) {
	if req.ID == "missing" {
		return nil, errorx.Of(errorx.NotFound)
	}

	return &echoResponse{ID: req.ID, Name: req.Name}, nil
}

func newTestRouter() *Router {
	return New(nil, config.Configs{Env: "local"}, logger.NewLogger(logger.SILENCE))
}

func serve(r *Router, method, target, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range header {
		req.Header[k] = v
	}

	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, req)
	return w
}

func TestRouter_Success(t *testing.T) {
	r := newTestRouter()
	POST(r, "/echo/:id", echo)

	w := serve(r, http.MethodPost, "/echo/abc", `{"name":"foo"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Code int64        `json:"code"`
		Data echoResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, int64(0), resp.Code)
	require.Equal(t, echoResponse{ID: "abc", Name: "foo"}, resp.Data)
}

func TestRouter_Error(t *testing.T) {
	r := newTestRouter()
	GET(r, "/echo/:id", echo)

	w := serve(r, http.MethodGet, "/echo/missing", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	var resp response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, int64(errorx.NotFound), resp.Code)
	require.Equal(t, "Not found", resp.Error)
}

func TestRouter_BadJSON(t *testing.T) {
	r := newTestRouter()
	POST(r, "/echo/:id", echo)

	w := serve(r, http.MethodPost, "/echo/abc", `{"name":`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_MiddlewareAndCloser(t *testing.T) {
	r := newTestRouter()
	closed := []error{}
	r.AddCloser(func(ctx context.Context) {
		closed = append(closed, xcontext.Error(ctx))
	})

	protected := r.Branch()
	protected.Before(func(ctx context.Context) (context.Context, error) {
		if xcontext.HTTPRequest(ctx).Header.Get("X-Test") != "ok" {
			return nil, errorx.Of(errorx.Unauthenticated)
		}

		return ctx, nil
	})
	POST(protected, "/protected/:id", echo)
	POST(r, "/public/:id", echo)

	w := serve(r, http.MethodPost, "/protected/abc", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodPost, "/protected/abc", "", http.Header{"X-Test": {"ok"}})
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodPost, "/public/abc", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, closed, 3)
	require.True(t, errorx.Is(closed[0], errorx.Unauthenticated))
	require.NoError(t, closed[1])
	require.NoError(t, closed[2])
}
