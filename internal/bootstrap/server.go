package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/daffahilmyf/users-api/internal/config"
	"github.com/daffahilmyf/users-api/internal/domain/repository"
	"github.com/daffahilmyf/users-api/internal/domain/service"
	"github.com/daffahilmyf/users-api/internal/infra/messaging"
	"github.com/daffahilmyf/users-api/internal/infra/persistence"
	"github.com/daffahilmyf/users-api/internal/transport/http/handlers"
	"github.com/daffahilmyf/users-api/internal/transport/http/middleware"
	"github.com/daffahilmyf/users-api/internal/transport/http/validation"
	"github.com/daffahilmyf/users-api/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func Run(ctx context.Context, cfg config.Config) error {
	start := time.Now()
	log, err := BuildLogger(cfg)
	if err != nil {
		return err
	}

	conn, err := openDB(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Infof("bootstrap: db ready in %s", time.Since(start))

	// the API still starts when sync fails; requests against a missing table return 500
	if err := conn.Sync(ctx); err != nil {
		log.WithError(err).Error("bootstrap: schema sync failed")
	} else {
		log.Info("bootstrap: schema synced")
	}

	natsClient, err := messaging.NewNATS(ctx, cfg.NATS)
	if err != nil {
		return err
	}
	defer natsClient.Close()
	var events repository.EventPublisher
	if natsClient != nil {
		events = natsClient
		log.Infof("bootstrap: publishing user events to stream %s", cfg.NATS.Stream)
	}

	userUC := usecase.NewUser(persistence.NewUserRepository(conn), events, log)
	router, err := NewEngine(cfg, log, userUC, conn)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("bootstrap: server is running on port %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
		log.WithError(serveErr).Error("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown error")
	}

	return serveErr
}

// NewEngine wires middleware and routes around the user service.
func NewEngine(cfg config.Config, log *logrus.Logger, users service.UserService, store repository.Store) (*gin.Engine, error) {
	if err := validation.Register(); err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logger(log), gin.Recovery())
	if corsMW := middleware.CORS(cfg.CORS); corsMW != nil {
		router.Use(corsMW)
	}

	handler := handlers.NewHandler(users, store)
	handlers.NewRouter(handler).RegisterRoutes(router)
	return router, nil
}

func openDB(ctx context.Context, cfg config.Config, log *logrus.Logger) (*persistence.DB, error) {
	conn, err := persistence.New(ctx, persistence.ConfigFrom(cfg.Database))
	if err != nil {
		return nil, err
	}

	pingCtx := ctx
	if cfg.Database.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
		defer cancel()
	}
	if err := conn.Ping(pingCtx); err != nil {
		conn.Close()
		return nil, err
	}
	log.WithField("driver", cfg.Database.Driver).Debug("bootstrap: db ping ok")
	return conn, nil
}
