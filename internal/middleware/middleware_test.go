package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/questx-lab/prizeengine/config"
	"github.com/questx-lab/prizeengine/pkg/errorx"
	"github.com/questx-lab/prizeengine/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func Test_SchedulerSecret(t *testing.T) {
	testCases := []struct {
		name      string
		secret    string
		presented string
		wantErr   bool
	}{
		{name: "matching secret", secret: "s3cret", presented: "s3cret"},
		{name: "wrong secret", secret: "s3cret", presented: "guess", wantErr: true},
		{name: "missing header", secret: "s3cret", wantErr: true},
		{name: "no configured secret", secret: "", presented: "", wantErr: true},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/tokens/enable-hourly", nil)
			if tt.presented != "" {
				req.Header.Set(SchedulerSecretHeader, tt.presented)
			}

			ctx := xcontext.WithConfigs(context.Background(), config.Configs{
				ApiServer: config.APIServerConfigs{SchedulerSecret: tt.secret},
			})
			ctx = xcontext.WithHTTPRequest(ctx, req)

			_, err := SchedulerSecret()(ctx)
			if tt.wantErr {
				require.True(t, errorx.Is(err, errorx.Unauthenticated))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func Test_NoStore(t *testing.T) {
	w := httptest.NewRecorder()
	ctx := xcontext.WithHTTPWriter(context.Background(), w)

	_, err := NoStore()(ctx)
	require.NoError(t, err)
	require.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}
