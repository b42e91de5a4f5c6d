package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	adapterdb "restaurant-system/internal/order/adapter/db"
	"restaurant-system/internal/order/adapter/memdb"
	"restaurant-system/internal/order/app/core"
	"restaurant-system/internal/order/app/services"
	"restaurant-system/internal/xpkg/config"
	"restaurant-system/internal/xpkg/db"
	"restaurant-system/internal/xpkg/logger"

	brokermessage "restaurant-system/internal/order/adapter/broker_message"
)

var ErrServerClosed = errors.New("Server closed")

// sampleTables is how many tables the in-memory store starts with.
const sampleTables = 4

type Server struct {
	mux         *http.ServeMux
	cfg         *config.Config
	srv         *http.Server
	orderParams *core.OrderParams
	mylog       logger.Logger
	db          *db.DB
	store       core.IStore
	publisher   core.IPublisher
	ctx         context.Context
	appCtx      context.Context
	mu          sync.Mutex
}

func NewServer(ctx, appCtx context.Context, cfg *config.Config, orderParams *core.OrderParams, mylog logger.Logger) *Server {
	return &Server{
		ctx:         ctx,
		appCtx:      appCtx,
		cfg:         cfg,
		orderParams: orderParams,
		mylog:       mylog,
		mux:         http.NewServeMux(),
	}
}

// Run opens the store and the broker, registers routes and starts
// listening. It returns when the server stops.
func (s *Server) Run() error {
	mylog := s.mylog.Action("server_started")

	if err := s.initializeStore(); err != nil {
		mylog.Action("store_init_failed").Error("Failed to open order store", err, "store", s.orderParams.Store)
		return err
	}
	mylog.Action("store_ready").Info("Order store ready", "store", s.orderParams.Store)

	if err := s.initializePublisher(); err != nil {
		mylog.Action("mb_connection_failed").Error("Failed to connect to message broker", err)
		return err
	}
	mylog.Action("mb_connected").Info("Message broker ready", "broker", s.cfg.Broker)

	handler := s.Configure()

	s.mu.Lock()
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.orderParams.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Unlock()

	mylog.WithGroup("details").With("port", s.orderParams.Port, "store", s.orderParams.Store).Info("server is running")
	return s.startHTTPServer()
}

// Stop provides a programmatic shutdown. Accepts a context for timeout control.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mylog.Action("graceful_shutdown_started").Info("Shutting down HTTP server...")

	if s.srv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, core.WaitTime*time.Second)
		defer cancel()

		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.mylog.Action("graceful_shutdown_failed").Error("Failed to shut down HTTP server gracefully", err)
			return errors.Wrap(err, "http server shutdown")
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			s.mylog.Action("mb_close_failed").Error("Failed to close message broker", err)
			return errors.Wrap(err, "mb close")
		}
		s.mylog.Action("mb_closed").Info("Message broker closed")
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.mylog.Action("store_close_failed").Error("Failed to close order store", err)
			return errors.Wrap(err, "store close")
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return errors.Wrap(err, "db close")
		}
	}

	s.mylog.Action("graceful_shutdown_completed").Info("HTTP server shut down gracefully")
	return nil
}

func (s *Server) startHTTPServer() error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		} else {
			errCh <- nil
		}
	}()

	select {
	case <-s.ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) initializeStore() error {
	switch s.orderParams.Store {
	case core.StoreMemory:
		store := memdb.New(s.mylog, memdb.WithLockTimeout(lockTimeout(s.cfg.DB.LockTimeoutMS)))
		if err := store.SeedSample(sampleTables); err != nil {
			return errors.Wrap(err, "seed in-memory store")
		}
		s.store = store
		return nil

	case core.StorePostgres:
		database, err := db.Start(s.appCtx, s.cfg.DB, s.mylog)
		if err != nil {
			return errors.Mark(err, core.ErrDBConn)
		}
		if s.orderParams.Migrate {
			if err := database.Migrate(s.appCtx); err != nil {
				database.Close()
				return err
			}
		}
		s.db = database
		s.store = adapterdb.NewStore(database.Pool(), s.cfg.DB.LockTimeoutMS, s.mylog)
		return nil
	}
	return errors.Newf("unknown store %q", s.orderParams.Store)
}

func (s *Server) initializePublisher() error {
	publisher, err := brokermessage.New(s.appCtx, s.cfg, s.mylog)
	if err != nil {
		return err
	}
	s.publisher = publisher
	return nil
}

// Configure builds the order service over the opened store and registers
// its routes.
func (s *Server) Configure() http.Handler {
	orderService := services.NewOrderService(s.store, s.publisher, s.mylog)
	return Routes(s.mux, orderService, s.store, s.mylog)
}

func lockTimeout(ms int) time.Duration {
	if ms <= 0 {
		return memdb.DefaultLockTimeout
	}
	return time.Duration(ms) * time.Millisecond
}
