package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"

	"restaurant-system/internal/notsub"
	"restaurant-system/internal/order"
	"restaurant-system/internal/xpkg/config"
	"restaurant-system/internal/xpkg/logger"

	xerrors "restaurant-system/internal/xpkg/errors"
)

const (
	modeOrderService = "order-service"
	modeNotification = "notification-subscriber"
	modeMigrate      = "migrate"
)

func main() {
	mylog, err := logger.FromConfig(config.LoadDotEnv().Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(context.Background(), mylog, os.Args[1:]); err != nil {
		if errors.Is(err, xerrors.ErrHelp) {
			return
		}
		if errors.Is(err, xerrors.ErrModeFlag) || errors.Is(err, xerrors.ErrUnknownService) {
			fmt.Fprintln(os.Stderr, err)
			printUsage()
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, mylog logger.Logger, args []string) error {
	mode, serviceArgs, err := splitMode(args)
	if err != nil {
		return err
	}

	mylog = mylog.With("mode", mode)
	switch mode {
	case modeOrderService:
		return order.Execute(ctx, mylog, serviceArgs)
	case modeNotification:
		return notsub.Execute(ctx, mylog, serviceArgs)
	case modeMigrate:
		return order.Migrate(ctx, mylog, serviceArgs)
	}
	return errors.Wrapf(xerrors.ErrUnknownService, "mode %q", mode)
}

// splitMode pulls --mode out of args, accepting a bare first word as
// well. The rest is left for the service's own flags.
func splitMode(args []string) (string, []string, error) {
	var (
		mode string
		rest []string
	)
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--help" || arg == "-h":
			if mode == "" {
				printUsage()
				return "", nil, xerrors.ErrHelp
			}
			rest = append(rest, arg)
		case strings.HasPrefix(arg, "--mode="):
			mode = strings.TrimPrefix(arg, "--mode=")
		case arg == "--mode" && i+1 < len(args):
			mode = args[i+1]
			i++
		case i == 0 && !strings.HasPrefix(arg, "-"):
			mode = arg
		default:
			rest = append(rest, arg)
		}
	}
	if mode == "" {
		return "", nil, xerrors.ErrModeFlag
	}
	return mode, rest, nil
}

func printUsage() {
	fmt.Println("Usage: restaurant-system --mode=<service-mode> [service-specific-flags]")
	fmt.Println("Available modes:")
	fmt.Println("  order-service --port=3000 --store=postgres|memory --config-path=config.yaml [--migrate]")
	fmt.Println("  notification-subscriber --config-path=config.yaml --workers=4")
	fmt.Println("  migrate --config-path=config.yaml")
}
