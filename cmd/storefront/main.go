// Command storefront is the command-line front end of the storefront client.
// Each invocation restores the session and cart from the durable store, runs
// one command and exits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jcmexdev/storefront/internal/pkg/config"
	"github.com/jcmexdev/storefront/internal/pkg/telemetry"
	"github.com/jcmexdev/storefront/internal/storefront/app"
)

var errUsage = errors.New("usage")

func main() {
	envFile := flag.String("env", ".env", "optional .env file")
	apiURL := flag.String("api", "", "backend base URL (overrides STOREFRONT_API_BASE_URL)")
	backend := flag.String("state", "", "state backend: sqlite, redis or memory")
	statePath := flag.String("state-path", "", "sqlite state file")
	logLevel := flag.String("log-level", "", "debug, info, warn or error")
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(2)
	}

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	override(&cfg.APIBaseURL, *apiURL)
	override(&cfg.StateBackend, *backend)
	override(&cfg.StatePath, *statePath)
	override(&cfg.LogLevel, *logLevel)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	telemetry.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, cfg, flag.Args())
	stop()
	os.Exit(code)
}

func run(ctx context.Context, cfg *config.Client, args []string) int {
	shutdown, err := telemetry.SetupTracer(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		slog.Error("failed to initialise tracer", "error", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	a, err := app.New(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer a.Close()

	cli := &cli{app: a, out: os.Stdout}
	if err := cli.dispatch(ctx, args[0], args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			printUsage()
			return 2
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		if app.AuthFailure(err) {
			fmt.Fprintln(os.Stderr, "hint: sign in again with `storefront login`")
		}
		return 1
	}
	return 0
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Storefront client

Usage:
  storefront [global flags] <command> [options]

Commands:
  login -u <user> -p <password>            sign in
  register -u <user> -p <password> [-role] create an account and sign in
  logout                                   clear the session and cart
  whoami                                   show the current session and screen
  open <route>                             navigate to a screen through the guard
  products                                 list the catalog
  cart show|add|inc|dec|remove|clear       inspect or change the cart
  checkout                                 pay for the cart
  orders                                   list your orders
  receipt <order-id>                       show one order
  refund <order-id>                        refund a PAID order
  inventory list|add|price|refill          manage the catalog (OWNER)
  all-orders                               every order with revenue metrics (OWNER)
  journal [-limit n]                       recent checkout attempts

Global flags:
`)
	flag.PrintDefaults()
}
