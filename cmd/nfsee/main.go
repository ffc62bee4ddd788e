package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/erazemk/nfsee/internal/api"
	"github.com/erazemk/nfsee/internal/config"
	"github.com/erazemk/nfsee/internal/db"
	"github.com/erazemk/nfsee/internal/metrics"
	"github.com/erazemk/nfsee/internal/model"
	"github.com/erazemk/nfsee/internal/repo"
)

const usage = `Usage: nfsee <command> [flags]

Commands:
  serve        run the HTTP API
  seed         insert sample data into an empty database
  search       search items across all containers
  containers   list containers

Run "nfsee <command> -h" for the flags of a command.
Flags can also be set through NFSEE_* environment variables or a .env file.
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprint(stderr, usage)
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	var cmd func(context.Context, *config.Config, []string, io.Writer) error
	fs := pflag.NewFlagSet(args[0], pflag.ContinueOnError)
	fs.SetOutput(stderr)

	switch args[0] {
	case "serve":
		cfg.BindServeFlags(fs)
		cmd = cmdServe
	case "seed":
		cfg.BindStorageFlags(fs)
		cmd = cmdSeed
	case "search":
		cfg.BindStorageFlags(fs)
		query := fs.StringP("query", "q", "", "text to match against item name, category and container name")
		status := fs.StringP("status", "s", "", "only show items with this status (IN, OUT, REMOVED)")
		cmd = func(ctx context.Context, cfg *config.Config, _ []string, out io.Writer) error {
			return cmdSearch(ctx, cfg, *query, *status, out)
		}
	case "containers":
		cfg.BindStorageFlags(fs)
		cmd = cmdContainers
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n\n%s", args[0], usage)
		return 1
	}

	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	// INFO/WARN go to stdout only for the server. The other commands print
	// their results there.
	logOut := stdout
	if args[0] != "serve" {
		logOut = stderr
	}
	_, closeLog, err := setupLogger(cfg, logOut, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd(ctx, cfg, fs.Args(), stdout); err != nil {
		slog.Error(args[0]+" failed", "error", err)
		return 1
	}
	return 0
}

// openRepo opens and migrates the database and wraps it in a repository.
func openRepo(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*repo.SQLite, func(), error) {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx, database); err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("migrating database: %w", err)
	}

	version, err := db.SchemaVersion(ctx, database)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("reading schema version: %w", err)
	}
	slog.Info("database ready", "path", cfg.DBPath, "schema_version", version)

	r := repo.New(database,
		repo.WithLogger(slog.Default()),
		repo.WithMetrics(metrics.New(reg)),
	)
	return r, func() { database.Close() }, nil
}

func cmdServe(ctx context.Context, cfg *config.Config, _ []string, _ io.Writer) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r, closeDB, err := openRepo(ctx, cfg, reg)
	if err != nil {
		return err
	}
	defer closeDB()

	if cfg.Seed {
		if _, err := r.SeedIfEmpty(ctx); err != nil {
			return fmt.Errorf("seeding: %w", err)
		}
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewRouter(r, slog.Default(), reg),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
		// Search streams stay open, so there is no write timeout.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server started", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("server stopped, closing database")
	return nil
}

func cmdSeed(ctx context.Context, cfg *config.Config, _ []string, out io.Writer) error {
	r, closeDB, err := openRepo(ctx, cfg, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer closeDB()

	seeded, err := r.SeedIfEmpty(ctx)
	if err != nil {
		return err
	}
	if seeded {
		fmt.Fprintf(out, "Sample data inserted into %s.\n", cfg.DBPath)
	} else {
		fmt.Fprintf(out, "%s already has containers, nothing inserted.\n", cfg.DBPath)
	}
	return nil
}

func cmdSearch(ctx context.Context, cfg *config.Config, text, status string, out io.Writer) error {
	q := model.SearchQuery{Text: text}
	if status != "" {
		s, err := model.ParseStatus(status)
		if err != nil {
			return err
		}
		q.Status = s
	}

	r, closeDB, err := openRepo(ctx, cfg, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer closeDB()

	feed, err := r.SearchItems(ctx, q)
	if err != nil {
		return err
	}
	results, ok := <-feed.C
	feed.Close()
	if !ok {
		return fmt.Errorf("search: %w", feed.Err())
	}

	now := r.Now()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCATEGORY\tSTATUS\tINDICATOR\tCONTAINER\tLOCATION")
	for _, res := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			res.Name, res.Category, res.Status, res.Indicator(now), res.ContainerName, res.ContainerLocation)
	}
	return tw.Flush()
}

func cmdContainers(ctx context.Context, cfg *config.Config, _ []string, out io.Writer) error {
	r, closeDB, err := openRepo(ctx, cfg, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer closeDB()

	feed, err := r.ListContainers(ctx)
	if err != nil {
		return err
	}
	containers, ok := <-feed.C
	feed.Close()
	if !ok {
		return fmt.Errorf("listing containers: %w", feed.Err())
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tLOCATION")
	for _, c := range containers {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", c.ID, c.Name, c.LocationLabel)
	}
	return tw.Flush()
}
