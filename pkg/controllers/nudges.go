package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JacMa99/appless-workout-mvp/config"
	"github.com/JacMa99/appless-workout-mvp/pkg/consts"
	"github.com/JacMa99/appless-workout-mvp/pkg/entities"
	"github.com/JacMa99/appless-workout-mvp/pkg/middlewares"
	"github.com/JacMa99/appless-workout-mvp/pkg/usecases"
	"github.com/JacMa99/appless-workout-mvp/utilities"
)

type NudgeController struct {
	router      *gin.RouterGroup
	conf        *config.AppConfModel
	useCases    usecases.NudgeUsecaseImply
	middleWares *middlewares.Middlewares
}

// NewNudgeController
func NewNudgeController(
	router *gin.RouterGroup, conf *config.AppConfModel, nudgeUseCase usecases.NudgeUsecaseImply,
	middleWare *middlewares.Middlewares,
) *NudgeController {
	return &NudgeController{
		router:      router,
		conf:        conf,
		useCases:    nudgeUseCase,
		middleWares: middleWare,
	}
}

// InitRoutes registers the scheduler trigger. Hosted cron services differ on
// the verb, so both GET and POST are accepted.
func (n *NudgeController) InitRoutes() {
	v1 := n.router.Group(n.conf.Server.APIVersion)

	cron := v1.Group("/cron", n.middleWares.ValidateCronSecret)
	{
		cron.GET("/nudges", n.RunNudges)
		cron.POST("/nudges", n.RunNudges)
	}
}

// RunNudges runs one batch and returns its summary. ?debug=1 returns
// configuration diagnostics instead, ?dry_run=1 runs without sending.
func (n *NudgeController) RunNudges(ctx *gin.Context) {
	log := utilities.NewLogger("RunNudges")

	if ctx.Query("debug") == "1" {
		ctx.JSON(http.StatusOK, n.useCases.Diagnostics(ctx.Request.Context()))
		return
	}

	opts := usecases.RunOptions{DryRun: ctx.Query("dry_run") == "1"}

	// hosted schedulers hang up on long runs; the batch carries on regardless
	summary, err := n.useCases.RunNudges(context.WithoutCancel(ctx.Request.Context()), opts)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, consts.ErrRunInProgress) {
			status = http.StatusConflict
		}

		log.WithError(err).Error("nudge run failed")
		ctx.JSON(
			status, entities.CronErrorResponse{
				OK:    false,
				Error: err.Error(),
			},
		)
		return
	}

	ctx.JSON(http.StatusOK, summary)
}
