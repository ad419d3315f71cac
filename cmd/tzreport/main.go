// Package main provides the tzreport entry point.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/unseeyou/odometer-app/internal/app/reporter"
	"github.com/unseeyou/odometer-app/internal/backend"
	"github.com/unseeyou/odometer-app/internal/logger"
	"github.com/unseeyou/odometer-app/internal/timezone"
)

const (
	defaultServerURL    = "http://localhost:5000"
	defaultDrainTimeout = "10s"
)

var (
	app     = kingpin.New("tzreport", "Reports the local time zone to the odometer backend")
	server  = app.Flag("server", "Backend base URL").Default(defaultServerURL).Envar("ODO_SERVER_URL").String()
	verbose = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Envar("ODO_VERBOSE").Bool()
	logfile = app.Flag("logfile", "Path to log file (default: stdout)").Envar("ODO_LOGFILE").String()

	tzName  = app.Flag("timezone", "IANA time zone to use instead of detecting it").Envar("ODO_TIMEZONE").String()
	timeout = app.Flag("timeout", "Request timeout, 0 for none").Default("0s").Envar("ODO_REPORT_TIMEOUT").Duration()
	drain   = app.Flag("drain", "How long to wait for the report before exiting").Default(defaultDrainTimeout).Envar("ODO_DRAIN_TIMEOUT").Duration()

	reportCmd = app.Command("report", "Detect the time zone and send it to the backend (default)").Default()
	detectCmd = app.Command("detect", "Print the detected time zone without sending it")
)

func init() {
	timezone.Init()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if err := logger.Init(*verbose, *logfile); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	cfg := reporter.Config{
		ServerURL:    *server,
		Timezone:     *tzName,
		Timeout:      *timeout,
		DrainTimeout: *drain,
	}
	if err := cfg.Validate(); err != nil {
		zlog.Error().Msgf("Config validation failed: %v", err)
		zlog.Info().Msg("Please provide settings via flags or ODO_* environment variables.")
		os.Exit(1)
	}

	zlog.Debug().Msgf("config.server:[%s]", cfg.ServerURL)
	zlog.Debug().Msgf("config.timezone:[%s]", cfg.Timezone)
	zlog.Debug().Msgf("config.timeout:[%s] drain:[%s]", cfg.Timeout, cfg.DrainTimeout)

	source := cfg.Source()

	switch command {
	case detectCmd.FullCommand():
		os.Exit(detect(source, os.Stdout))
	case reportCmd.FullCommand():
		os.Exit(report(&cfg, source))
	}
}

// detect prints the resolved identifier and sends nothing.
func detect(source timezone.Source, out io.Writer) int {
	name, err := source.Resolve()
	if err != nil {
		zlog.Error().Msgf("Failed to detect time zone: %v", err)
		return 1
	}
	fmt.Fprintln(out, name)
	return 0
}

// report sends the time zone once and gives the request up to cfg.DrainTimeout
// to finish. The network outcome never changes the exit code.
func report(cfg *reporter.Config, source timezone.Source) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := backend.NewClient(cfg.ServerURL, backend.WithTimeout(cfg.Timeout))
	r := reporter.New(source, client)

	d, err := r.Report(ctx)
	if err != nil {
		zlog.Error().Msgf("Failed to report time zone: %v", err)
		return 1
	}
	zlog.Info().Msgf("Reporting time zone [%s] to %s", d.Timezone(), cfg.ServerURL)

	drainCtx, cancel := context.WithTimeout(ctx, cfg.DrainTimeout)
	defer cancel()
	if err := r.Drain(drainCtx); err != nil {
		zlog.Debug().Msgf("Stopped waiting for the report: %v", err)
	}
	return 0
}
