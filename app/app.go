package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"github.com/JacMa99/appless-workout-mvp/config"
	"github.com/JacMa99/appless-workout-mvp/pkg/calendar"
	"github.com/JacMa99/appless-workout-mvp/pkg/consts"
	controllersLib "github.com/JacMa99/appless-workout-mvp/pkg/controllers"
	"github.com/JacMa99/appless-workout-mvp/pkg/entities"
	"github.com/JacMa99/appless-workout-mvp/pkg/middlewares"
	repoLib "github.com/JacMa99/appless-workout-mvp/pkg/repo"
	"github.com/JacMa99/appless-workout-mvp/pkg/repo/driver/db"
	"github.com/JacMa99/appless-workout-mvp/pkg/repo/driver/medium"
	"github.com/JacMa99/appless-workout-mvp/pkg/usecases"
	"github.com/JacMa99/appless-workout-mvp/utilities"
)

// services holds the long-lived clients of one process.
type services struct {
	firestore *firestore.Client
	session   *gocql.Session
	calendar  *calendar.Service
	useCases  usecases.UseCaseImply
	nudges    usecases.NudgeUsecaseImply
}

func (s *services) Close() {
	if s.session != nil {
		s.session.Close()
	}
	if s.firestore != nil {
		_ = s.firestore.Close()
	}
}

func initReporters(ctx context.Context, conf *config.AppConfModel) []medium.Reporter {
	log := utilities.NewLogger("initReporters")

	reporters := make([]medium.Reporter, 0, 2)

	if conf.Report.Discord.Enabled {
		log.Info("Initialising Discord")
		discord, err := medium.NewDiscordReporter(conf.Report.Discord)
		if err != nil {
			log.WithError(err).Error("unable to initialize discord, run reports disabled")
		} else {
			reporters = append(reporters, discord)
		}
	}

	if conf.Report.Email.Enabled {
		log.Info("Initialising Email")
		email, err := medium.NewEmailReporter(ctx, conf.Report.Email)
		if err != nil {
			log.WithError(err).Error("unable to initialize email, run reports disabled")
		} else {
			reporters = append(reporters, email)
		}
	}

	return reporters
}

func initServices(ctx context.Context, conf *config.AppConfModel) (*services, error) {
	log := utilities.NewLogger("initServices")

	svc := new(services)

	cal, err := calendar.New(conf.Calendar.Timezone)
	if err != nil {
		return nil, err
	}
	svc.calendar = cal

	log.Info("Initialising firestore")
	svc.firestore, err = db.NewFirestoreClient(ctx, conf.Firebase)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise firestore: %w", err)
	}

	if conf.Ledger.Backend == consts.LedgerCassandra {
		log.Info("Initialising DB")
		svc.session, err = db.NewCassandraSession(conf.DB)
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("unable to create cassandra session: %w", err)
		}
	}

	ledger, err := repoLib.NewLedgerRepo(conf, svc.firestore, svc.session)
	if err != nil {
		svc.Close()
		return nil, err
	}

	// A missing transport is reported per run, so the health endpoints and
	// diagnostics stay reachable while credentials are being fixed.
	messenger, err := medium.NewMessenger(conf)
	if err != nil {
		log.WithError(err).Warn("message transport not ready")
		messenger = nil
	}

	var reporters []medium.Reporter
	if !conf.IsLocal() {
		reporters = initReporters(ctx, conf)
	}

	svc.useCases = usecases.NewUseCases(repoLib.NewRepo(svc.firestore, conf))
	svc.nudges = usecases.NewNudgeUsecases(
		conf, cal,
		repoLib.NewGroupRepo(svc.firestore, conf),
		repoLib.NewWorkoutRepo(svc.firestore, conf),
		repoLib.NewUserRepo(svc.firestore, conf),
		ledger, messenger, reporters...,
	)

	return svc, nil
}

// RunOnce executes a single batch, for shells and external schedulers that
// prefer a process over an HTTP call.
func RunOnce(ctx context.Context, conf *config.AppConfModel, dryRun bool) (*entities.NudgeRunSummary, error) {
	svc, err := initServices(ctx, conf)
	if err != nil {
		return nil, err
	}
	defer svc.Close()

	return svc.nudges.RunNudges(context.WithoutCancel(ctx), usecases.RunOptions{DryRun: dryRun})
}

func Run(conf *config.AppConfModel) error {
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	log := utilities.NewLogger("run")

	svc, err := initServices(ctx, conf)
	if err != nil {
		return err
	}
	defer svc.Close()

	if conf.Scheduler.Enabled {
		log.Info("Initialising nudge scheduler")
		usecases.NudgeSchedulerStub(ctx, svc.nudges, conf, svc.calendar)
	}

	// here initalizing the router
	if conf.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := initRouter(conf)
	if err != nil {
		return err
	}

	path, err := url.JoinPath("/", conf.Server.APIPrefix)
	if err != nil {
		return err
	}

	api := router.Group(path)
	{
		m := middlewares.NewMiddlewares(conf)

		controllers := controllersLib.NewController(api, conf, svc.useCases, m)
		nudgeControllers := controllersLib.NewNudgeController(api, conf, svc.nudges, m)

		controllers.InitRoutes()
		nudgeControllers.InitRoutes()
	}

	// run the app
	return launch(ctx, cancelFn, conf, router)
}

func initRouter(conf *config.AppConfModel) (*gin.Engine, error) {

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	// ClientIP keys the trigger lockout, so forwarded headers count only from known proxies
	if err := router.SetTrustedProxies(conf.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid server.trusted_proxies: %w", err)
	}

	router.Use(
		cors.New(
			cors.Config{
				AllowOrigins: []string{"*"},
				AllowMethods: []string{"POST", "GET", "OPTIONS"},
				AllowHeaders: []string{
					"Content-Type", "Content-Length", "Accept-Encoding", "accept", "origin", "Cache-Control",
					consts.CronSecretHeader,
				},
				MaxAge: 12 * time.Hour,
			},
		),
	)

	if conf.Mode == consts.ModeStage || conf.Mode == consts.ModeLocal {
		router.GET("/debug/pprof/*profile", gin.WrapF(pprof.Index))
	}

	router.Use(gzip.Gzip(gzip.DefaultCompression))

	return router, nil
}

// launch
func launch(ctx context.Context, cancelFn context.CancelFunc, conf *config.AppConfModel, router *gin.Engine) error {
	log := utilities.NewLogger("launch")
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", conf.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		// service connections
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	log.Infof("Server listening on %d", conf.Server.Port)

	// kill (no param) default send syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		cancelFn()
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutdown Server ...")
	cancelFn()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info("Server exiting")
	return nil
}
