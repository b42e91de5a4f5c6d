package order

import (
	"context"
	"flag"

	"github.com/cockroachdb/errors"

	"restaurant-system/internal/xpkg/config"
	"restaurant-system/internal/xpkg/db"
	"restaurant-system/internal/xpkg/logger"

	xerrors "restaurant-system/internal/xpkg/errors"
)

// Migrate applies the schema and sample data to the configured database
// and exits.
func Migrate(ctx context.Context, mylog logger.Logger, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	showHelp := fs.Bool("help", false, "Show help")
	configPath := fs.String("config-path", "config.yaml", "path for config yaml")
	if err := fs.Parse(args); err != nil {
		return errors.Wrap(err, "cannot parse arguments")
	}
	if *showHelp {
		fs.Usage()
		return xerrors.ErrHelp
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		mylog.Action("config_load_failed").Error("Failed to load config", err)
		return err
	}

	database, err := db.Start(ctx, cfg.DB, mylog)
	if err != nil {
		return errors.Mark(err, xerrors.ErrDBConn)
	}
	defer database.Close()

	return database.Migrate(ctx)
}
