package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/csemotors/internal/ctl"
	"github.com/dmitrijs2005/csemotors/internal/flagx"
	"github.com/dmitrijs2005/csemotors/internal/logging"
	"github.com/dmitrijs2005/csemotors/internal/server/auth"
	"github.com/dmitrijs2005/csemotors/internal/server/config"
	"github.com/dmitrijs2005/csemotors/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/csemotors/internal/server/services"
)

func open(logger logging.Logger) ctl.Opener {
	return func(ctx context.Context, dsn string) (ctl.AccountAdmin, io.Closer, error) {
		db, err := repomanager.Open(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		rm := repomanager.NewPostgresRepositoryManager()
		if err := rm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		// no tokens are issued here, so no codec
		return services.NewAccountService(db, rm, auth.NewHasher(logger), nil, logger), db, nil
	}
}

func main() {
	defaults := &config.Config{}
	defaults.LoadDefaults()
	flagx.EnvStrings(os.LookupEnv, map[string]*string{"DATABASE_URL": &defaults.DatabaseDSN})

	logger := logging.NewJSON(os.Stderr, logging.ParseLevel("warn"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ctl.NewRootCmd(open(logger), defaults.DatabaseDSN, os.Stdin).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		stop()
		os.Exit(1)
	}
}
