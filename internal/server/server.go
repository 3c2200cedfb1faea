// Package server boots the DesignHaven process: configuration, backends,
// the store, the scheduler, queue workers, and the HTTP surface.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sridharani/designhaven/app/jobs"
	"github.com/sridharani/designhaven/app/routes"
	"github.com/sridharani/designhaven/app/services"
	"github.com/sridharani/designhaven/config"
	"github.com/sridharani/designhaven/internal/localstore"
	"github.com/sridharani/designhaven/internal/push"
	"github.com/sridharani/designhaven/internal/store"
	"github.com/sridharani/designhaven/pkg/cache"
	"github.com/sridharani/designhaven/pkg/logger"
	"github.com/sridharani/designhaven/pkg/metrics"
	"github.com/sridharani/designhaven/pkg/middleware"
	"github.com/sridharani/designhaven/pkg/queue"
	"github.com/sridharani/designhaven/pkg/reqid"
	"github.com/sridharani/designhaven/pkg/router"
	"github.com/sridharani/designhaven/pkg/schedule"
	"github.com/sridharani/designhaven/pkg/storage"
)

// App holds the wired application for the lifetime of the process.
type App struct {
	Store       *store.Store
	Catalog     *services.CatalogService
	Cart        *services.CartService
	Orders      *services.OrderService
	Auth        *services.AuthService
	Reviews     *services.ReviewService
	Banner      *services.BannerService
	Broadcaster *push.Broadcaster

	kv     localstore.KV
	remote *store.RemoteBackend
}

// Bootstrap loads configuration and wires the data layer. The remote
// backend is probed here, once; a failed probe means the whole session
// runs on the local store.
func Bootstrap(ctx context.Context) (*App, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("server: load config: %w", err)
	}

	kv, err := localstore.Open()
	if err != nil {
		return nil, fmt.Errorf("server: open local store: %w", err)
	}

	var remote *store.RemoteBackend
	if uri := config.MongoURI(); uri != "" {
		remote, err = store.NewRemote(ctx, uri, config.MongoDatabase())
		if err != nil {
			logger.Warn("remote store unavailable, running local-only", "error", err)
			remote = nil
		} else if mh, err := logger.NewMongoHandler(uri, config.MongoDatabase(), "logs"); err == nil {
			logger.AttachHandler(mh)
		}
	}

	var st *store.Store
	if remote != nil {
		st = store.New(store.NewLocal(kv), remote)
	} else {
		st = store.New(store.NewLocal(kv), nil)
	}
	st.Init(ctx)

	app := &App{Store: st, kv: kv, remote: remote}
	app.Catalog = services.NewCatalog(st)
	app.Cart = services.NewCart(st, app.Catalog)
	app.Orders = services.NewOrders(st)
	app.Auth = services.NewAuth(st)
	app.Reviews = services.NewReviews(st)
	app.Banner = services.NewBanner(st)
	return app, nil
}

// Run boots everything and blocks until SIGINT/SIGTERM.
func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := Bootstrap(ctx)
	if err != nil {
		return err
	}
	defer app.Close(context.Background())

	// Ambient services. Redis is optional; cache and queue degrade when
	// it is missing.
	storage.Connect()
	if err := cache.Connect(); err != nil {
		logger.Warn("cache unavailable, queue falls back to memory", "error", err)
		queue.SetDriver(queue.NewMemoryDriver())
	} else {
		queue.SetDriver(queue.NewRedisDriver(cache.RDB))
	}
	if sq, ok := app.kv.(*localstore.SQLiteKV); ok {
		queue.UseDB(sq.DB())
	}
	jobs.Register()
	queue.StartWorkers(ctx, 2)

	app.Broadcaster = push.NewBroadcaster()
	app.Broadcaster.Wire(app.Store)
	defer app.Broadcaster.Shutdown()

	app.Store.RegisterRefresh(ctx)
	schedule.Start(ctx)

	r := router.New()
	r.Use(middleware.Recovery, reqid.Middleware(), middleware.Logger,
		metrics.Middleware(), middleware.CORS(middleware.DefaultCORSOptions()))
	routes.RegisterAPI(r, routes.Deps{
		Store:       app.Store,
		Catalog:     app.Catalog,
		Cart:        app.Cart,
		Orders:      app.Orders,
		Auth:        app.Auth,
		Reviews:     app.Reviews,
		Banner:      app.Banner,
		Broadcaster: app.Broadcaster,
	})

	srv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: listen: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	return nil
}

// Close releases the data-layer handles.
func (a *App) Close(ctx context.Context) {
	if a.remote != nil {
		if err := a.remote.Close(ctx); err != nil {
			logger.Error("remote close", "error", err)
		}
	}
	if a.kv != nil {
		if err := a.kv.Close(); err != nil {
			logger.Error("local store close", "error", err)
		}
	}
}
