package middlewares

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"

	"github.com/JacMa99/appless-workout-mvp/config"
	"github.com/JacMa99/appless-workout-mvp/pkg/consts"
	"github.com/JacMa99/appless-workout-mvp/pkg/entities"
	"github.com/JacMa99/appless-workout-mvp/utilities"
)

type Middlewares struct {
	// Cache counts failed trigger authentications per client IP.
	Cache *cache.Cache
	conf  *config.AppConfModel
}

// NewMiddlewares
func NewMiddlewares(conf *config.AppConfModel) *Middlewares {
	return &Middlewares{
		Cache: cache.New(consts.FailedCronWindow, 2*consts.FailedCronWindow),
		conf:  conf,
	}
}

// ValidateCronSecret admits scheduler calls carrying the shared secret in
// the query string or the X-Cron-Secret header.
func (m *Middlewares) ValidateCronSecret(ctx *gin.Context) {
	log := utilities.NewLoggerWithFields("ValidateCronSecret", map[string]interface{}{
		"client": ctx.ClientIP(),
	})

	secret := m.conf.Cron.Secret
	if secret == "" {
		log.Error("cron secret is not configured")
		ctx.AbortWithStatusJSON(
			http.StatusInternalServerError, entities.CronErrorResponse{
				OK:    false,
				Error: consts.ErrMissingCronSecret.Error(),
			},
		)
		return
	}

	provided := strings.TrimSpace(ctx.Query(consts.CronSecretQuery))
	if provided == "" {
		provided = strings.TrimSpace(ctx.GetHeader(consts.CronSecretHeader))
	}

	// the right secret is always admitted; the lockout only cuts failures short
	if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) == 1 {
		ctx.Next()
		return
	}

	if m.failedAttempts(ctx.ClientIP()) >= consts.MaxFailedCronAttempts {
		log.Warn("too many failed attempts")
		ctx.AbortWithStatusJSON(
			http.StatusTooManyRequests, entities.CronErrorResponse{
				OK:    false,
				Error: "too many failed attempts",
			},
		)
		return
	}

	m.recordFailure(ctx.ClientIP())
	log.Warn("rejected trigger with bad secret")
	ctx.AbortWithStatusJSON(
		http.StatusUnauthorized, entities.CronErrorResponse{
			OK:    false,
			Error: consts.ErrUnauthorized.Error(),
		},
	)
}

func (m *Middlewares) failedAttempts(client string) int {
	if v, found := m.Cache.Get(client); found {
		if n, ok := v.(int); ok {
			return n
		}
	}
	return 0
}

func (m *Middlewares) recordFailure(client string) {
	if err := m.Cache.Add(client, 1, cache.DefaultExpiration); err != nil {
		_, _ = m.Cache.IncrementInt(client, 1)
	}
}
