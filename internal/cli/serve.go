package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/watzon/holdoff/internal/config"
	"github.com/watzon/holdoff/internal/database"
	"github.com/watzon/holdoff/internal/scheduler"
	"github.com/watzon/holdoff/internal/server"
)

const shutdownTimeout = 10 * time.Second

var (
	servePort  int
	serveHost  string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the holdoff server",
	Long: `Start the holdoff server.

The server will:
  - Open the SQLite database and apply migrations
  - Re-arm wake timers for any pending executions
  - Start the optional cron trigger
  - Serve the schedule and status endpoints

Use --watch to apply logging-level changes from the config file at runtime.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", config.DefaultPort, "Port to listen on")
	serveCmd.Flags().StringVar(&serveHost, "host", config.DefaultHost, "Host to bind to")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Watch the config file for changes")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.LoadOptions{ConfigFile: cfgFile})
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serveHost
	}

	applyLogging(&cfg.Logging)

	db, err := database.Open(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	sched := scheduler.New(db, &cfg.Trigger)
	defer sched.Stop()

	if err := sched.Recover(context.Background()); err != nil {
		return err
	}

	var cronRunner *scheduler.CronRunner
	if cfg.Trigger.Cron != "" {
		cronRunner, err = scheduler.NewCronRunner(sched, cfg.Trigger.Cron, cfg.Trigger.DelaySeconds)
		if err != nil {
			return err
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	if serveWatch {
		stopWatch, err := watchConfig(cfgFile, func() {
			reloadLogging()
		})
		if err != nil {
			log.Warn().Err(err).Msg("Config watching disabled")
		} else {
			defer stopWatch()
		}
	}

	srv := server.New(cfg, db, sched)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(context.Background())
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(ctx)
}

// reloadLogging re-reads the config file and applies the logging section.
// Other sections require a restart.
func reloadLogging() {
	cfg, err := config.Load(config.LoadOptions{ConfigFile: cfgFile})
	if err != nil {
		log.Warn().Err(err).Msg("Ignoring config change, reload failed")
		return
	}

	applyLogging(&cfg.Logging)
	log.Info().
		Str("level", zerolog.GlobalLevel().String()).
		Msg("Logging configuration reloaded")
}
