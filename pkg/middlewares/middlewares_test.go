package middlewares

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JacMa99/appless-workout-mvp/config"
	"github.com/JacMa99/appless-workout-mvp/pkg/consts"
	"github.com/JacMa99/appless-workout-mvp/pkg/entities"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(secret string) (*gin.Engine, *Middlewares) {
	m := NewMiddlewares(&config.AppConfModel{Cron: config.Cron{Secret: secret}})
	router := gin.New()
	router.GET("/cron", m.ValidateCronSecret, func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router, m
}

func TestValidateCronSecret(t *testing.T) {
	tests := []struct {
		name     string
		secret   string
		target   string
		header   string
		wantCode int
		wantErr  string
	}{
		{"query secret", "s3cret", "/cron?secret=s3cret", "", http.StatusOK, ""},
		{"header secret", "s3cret", "/cron", "s3cret", http.StatusOK, ""},
		{"wrong secret", "s3cret", "/cron?secret=nope", "", http.StatusUnauthorized, "unauthorized"},
		{"missing secret", "s3cret", "/cron", "", http.StatusUnauthorized, "unauthorized"},
		{"prefix of secret", "s3cret", "/cron?secret=s3c", "", http.StatusUnauthorized, "unauthorized"},
		{"not configured", "", "/cron?secret=anything", "", http.StatusInternalServerError, consts.ErrMissingCronSecret.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newRouter(tt.secret)

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set(consts.CronSecretHeader, tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantErr == "" {
				return
			}

			var resp entities.CronErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.OK)
			assert.Equal(t, tt.wantErr, resp.Error)
		})
	}
}

func TestValidateCronSecret_LocksOutRepeatedFailures(t *testing.T) {
	router, _ := newRouter("s3cret")

	for i := 0; i < consts.MaxFailedCronAttempts; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cron?secret=bad", nil))
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cron?secret=bad", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cron?secret=s3cret", nil))
	assert.Equal(t, http.StatusOK, w.Code, "the right secret is admitted during a lockout")
}

func TestValidateCronSecret_ForwardedForFromUntrustedPeer(t *testing.T) {
	router, m := newRouter("s3cret")
	require.NoError(t, router.SetTrustedProxies(nil))

	const schedulerIP = "203.0.113.7"
	for i := 0; i < consts.MaxFailedCronAttempts+2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/cron?secret=bad", nil)
		req.Header.Set("X-Forwarded-For", schedulerIP)
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Zero(t, m.failedAttempts(schedulerIP), "forwarded header from an untrusted peer is ignored")

	req := httptest.NewRequest(http.MethodGet, "/cron", nil)
	req.Header.Set("X-Forwarded-For", schedulerIP)
	req.Header.Set(consts.CronSecretHeader, "s3cret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
