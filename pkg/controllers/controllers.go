package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JacMa99/appless-workout-mvp/config"
	"github.com/JacMa99/appless-workout-mvp/pkg/entities"
	"github.com/JacMa99/appless-workout-mvp/pkg/middlewares"
	"github.com/JacMa99/appless-workout-mvp/pkg/usecases"
)

type Controller struct {
	router      *gin.RouterGroup
	conf        *config.AppConfModel
	useCases    usecases.UseCaseImply
	middleWares *middlewares.Middlewares
}

// NewController
func NewController(
	router *gin.RouterGroup, conf *config.AppConfModel, useCases usecases.UseCaseImply,
	middleWare *middlewares.Middlewares,
) *Controller {
	return &Controller{
		router:      router,
		conf:        conf,
		useCases:    useCases,
		middleWares: middleWare,
	}
}

// InitRoutes
func (c *Controller) InitRoutes() {

	v1 := c.router.Group(c.conf.Server.APIVersion)
	{
		v1.GET("/", c.RootHandler)
		v1.GET("/health", c.HealthHandler)
		v1.GET("/db/health", c.DatabaseHealthHandler)
	}

}

func (c *Controller) RootHandler(ctx *gin.Context) {
	ctx.JSON(
		http.StatusOK, entities.Response{
			StatusCode: 200,
			Message:    "Appless nudge service. The scheduler calls /cron/nudges.",
		},
	)
}

// HealthHandler
func (c *Controller) HealthHandler(ctx *gin.Context) {
	ctx.JSON(
		http.StatusOK, entities.Response{
			StatusCode: 200,
			Message:    "Heath check ok",
		},
	)
}

func (c *Controller) DatabaseHealthHandler(ctx *gin.Context) {
	err := c.useCases.DBHealthHandler(ctx)
	if err != nil {
		ctx.JSON(
			http.StatusOK, entities.ErrorResponse{
				StatusCode: 400,
				Message:    "unhealthy database",
			},
		)
		return
	}

	ctx.JSON(
		http.StatusOK, entities.Response{
			StatusCode: 200,
			Message:    "database health is okay",
		},
	)
}
