package notsub

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"

	"restaurant-system/internal/notsub/adapter/consumer"
	"restaurant-system/internal/xpkg/config"
	"restaurant-system/internal/xpkg/logger"

	xerrors "restaurant-system/internal/xpkg/errors"
)

type params struct {
	configPath string
	workers    int
	cfg        *config.Config
}

// Execute starts the notification subscriber
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
	mylog.Action("command_parse_completed").Debug("Received params", "config_path", params.configPath)

	if err = validateParams(params); err != nil {
		mylog.Action("command_validation_failed").Error("Invalid command received", err)
		return err
	}
	mylog.Action("command_validation_completed").Info("Successfully validate params")

	notsub := consumer.NewNotification(newCtx, params.cfg, os.Stdout, params.workers, mylog)

	runErr := notsub.Run()
	if runErr != nil {
		mylog.Action("notsub_run_failed").Error("Notification subscriber stopped with error", runErr)
	}
	return errors.CombineErrors(runErr, notsub.Stop())
}

// parseParams parse params from terminal
func parseParams(args []string) (*params, error) {
	fs := flag.NewFlagSet("notification-subscriber", flag.ContinueOnError)
	showHelp := fs.Bool("help", false, "Show help")
	configPath := fs.String("config-path", "config.yaml", "path for config yaml")
	workers := fs.Int("workers", 4, "Concurrent message handlers (rabbitmq only)")

	if err := fs.Parse(args); err != nil {
		return nil, errors.Wrap(err, "cannot parse arguments")
	}

	if *showHelp {
		fs.Usage()
		return nil, xerrors.ErrHelp
	}

	return &params{
		configPath: *configPath,
		workers:    *workers,
	}, nil
}

// validateParams validates params
func validateParams(params *params) error {
	if params.workers <= 0 {
		return errors.Newf("workers must be positive: %d", params.workers)
	}
	cfg, err := config.LoadConfig(params.configPath)
	if err != nil {
		return err
	}
	if cfg.Broker == config.BrokerNone {
		return errors.New("broker is none, nothing to subscribe to")
	}
	params.cfg = cfg
	return nil
}
