// Package server wires the dealership application together: storage,
// services, the web layer and the HTTP server, and handles graceful
// shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/csemotors/internal/logging"
	"github.com/dmitrijs2005/csemotors/internal/server/auth"
	"github.com/dmitrijs2005/csemotors/internal/server/config"
	"github.com/dmitrijs2005/csemotors/internal/server/flash"
	"github.com/dmitrijs2005/csemotors/internal/server/httpserver"
	"github.com/dmitrijs2005/csemotors/internal/server/metrics"
	"github.com/dmitrijs2005/csemotors/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/csemotors/internal/server/services"
	"github.com/dmitrijs2005/csemotors/internal/server/storage"
	"github.com/dmitrijs2005/csemotors/internal/server/web"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	redis   *redis.Client
	handler *web.Handler
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, logging.ParseLevel(c.LogLevel))

	db, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	codec, err := auth.NewCodec(c.SecretKey, auth.TokenTTL)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &App{config: c, logger: logger, db: db}

	store, err := app.newFlashStore()
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	var presigner services.ImagePresigner
	if c.S3Bucket != "" {
		p, err := storage.NewS3Presigner(ctx, c)
		if err != nil {
			app.close()
			return nil, err
		}
		presigner = p
	} else {
		logger.Info(ctx, "image uploads disabled, no bucket configured")
	}

	accounts := services.NewAccountService(db, rm, auth.NewHasher(logger), codec, logger)
	inventory := services.NewInventoryService(db, rm, presigner)

	app.handler = web.NewHandler(c, web.Deps{
		Accounts:   accounts,
		Inventory:  inventory,
		Codec:      codec,
		FlashStore: store,
		Metrics:    metrics.New(),
		Logger:     logger,
	})

	return app, nil
}

// newFlashStore keeps flash messages in Redis when a URL is configured and
// in a cookie otherwise.
func (app *App) newFlashStore() (flash.Store, error) {
	opts := flash.CookieOptions{Secure: !app.config.Development()}
	if app.config.RedisURL == "" {
		return flash.NewCookieStore(opts), nil
	}

	redisOpts, err := redis.ParseURL(app.config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	app.redis = redis.NewClient(redisOpts)
	return flash.NewRedisStore(app.redis, opts, app.config.FlashTTL), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpserver.NewHTTPServer(app.config.HTTPAddr, app.handler.Router(), app.logger, app.config.ShutdownTimeout)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) close() {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn(context.Background(), "closing redis failed", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(context.Background(), "closing database failed", "error", err)
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()
	app.close()
	app.logger.Info(ctx, "App stopped")
}
