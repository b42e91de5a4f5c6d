package order

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"restaurant-system/internal/order/api/http"
	"restaurant-system/internal/order/app/core"
	"restaurant-system/internal/xpkg/config"
	"restaurant-system/internal/xpkg/logger"

	xerrors "restaurant-system/internal/xpkg/errors"
)

type params struct {
	orderParams *core.OrderParams
	configPath  string
	cfg         *config.Config
}

// Execute starts order service
func Execute(ctx context.Context, mylog logger.Logger, args []string) error {
	newCtx, close := signal.NotifyContext(ctx, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer close()

	params, err := parseParams(args)
	if err != nil {
		if errors.Is(err, xerrors.ErrHelp) {
			return err
		}
		mylog.Action("command_parse_failed").Error("Invalid command received", err)
		return err
	}
	if err = validateParams(params); err != nil {
		mylog.Action("command_validation_failed").Error("Invalid command received", err)
		return err
	}
	mylog.Action("command_validation_completed").Info("Successfully validate params")

	server := http.NewServer(newCtx, context.Background(), params.cfg, params.orderParams, mylog)

	g, gctx := errgroup.WithContext(newCtx)
	g.Go(func() error {
		err := server.Run()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			mylog.Action("order_service_failed").Error("Server failed unexpectedly", err)
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		if newCtx.Err() != nil {
			mylog.Action("shutdown_signal_received").Info("Shutdown signal received")
		}
		return server.Stop(context.Background())
	})
	return g.Wait()
}

// parseParams parse params from terminal
func parseParams(args []string) (*params, error) {
	fs := flag.NewFlagSet("order-service", flag.ContinueOnError)
	showHelp := fs.Bool("help", false, "Show help")
	configPath := fs.String("config-path", "config.yaml", "path for config yaml")

	port := fs.Int("port", 3000, "Port to run the order service")
	store := fs.String("store", core.StorePostgres, "Order store: postgres or memory")
	migrate := fs.Bool("migrate", false, "Apply schema migrations before serving (postgres only)")

	if err := fs.Parse(args); err != nil {
		return nil, errors.Wrap(err, "cannot parse arguments")
	}

	if *showHelp {
		fs.Usage()
		return nil, xerrors.ErrHelp
	}

	return &params{
		orderParams: &core.OrderParams{
			Port:    *port,
			Store:   *store,
			Migrate: *migrate,
		},
		configPath: *configPath,
	}, nil
}

// validateParams loads the config and checks the flags. The memory store
// runs without a config file: it then reads the environment and publishes
// nowhere unless BROKER is set.
func validateParams(params *params) error {
	orderParams := params.orderParams
	if orderParams.Port <= 0 || orderParams.Port >= 65536 {
		return errors.Newf("port must be in [1: 65,535]: %d", orderParams.Port)
	}

	switch orderParams.Store {
	case core.StorePostgres:
		cfg, err := config.LoadConfig(params.configPath)
		if err != nil {
			return err
		}
		params.cfg = cfg
	case core.StoreMemory:
		cfg, err := config.LoadConfig(params.configPath)
		if err != nil {
			cfg = config.LoadDotEnv()
			if os.Getenv("BROKER") == "" {
				cfg.Broker = config.BrokerNone
			}
		}
		params.cfg = cfg
		if orderParams.Migrate {
			return errors.New("--migrate needs --store=postgres")
		}
	default:
		return errors.Newf("unknown store %q, expected postgres or memory", orderParams.Store)
	}
	return nil
}
