package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/contactbook/internal/client/client"
	"github.com/dmitrijs2005/contactbook/internal/client/config"
	"github.com/dmitrijs2005/contactbook/internal/client/filter"
	"github.com/dmitrijs2005/contactbook/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/contactbook/internal/client/services"
	"github.com/dmitrijs2005/contactbook/internal/client/session"
	"github.com/dmitrijs2005/contactbook/internal/client/store"
	"github.com/dmitrijs2005/contactbook/internal/filex"
	"github.com/dmitrijs2005/contactbook/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
)

type App struct {
	config         *config.Config
	db             *sql.DB
	store          *store.Store
	authService    services.AuthService
	contactService services.ContactService
	metrics        prometheus.Gatherer
	log            logging.Logger
	userName       string
	reader         *bufio.Reader
	out            io.Writer
}

// NewApp opens the token database, restores a previous session and wires the
// gateway, contact store and services together.
func NewApp(c *config.Config) (*App, error) {

	ctx := context.Background()

	log, err := newLogger(c)
	if err != nil {
		return nil, err
	}

	if _, err := filex.EnsureParentDir(c.DatabasePath); err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "path", c.DatabasePath, "error", err)
		return nil, err
	}

	sess := session.New(metadata.NewSQLiteRepository(db))
	if ok, err := sess.Restore(ctx); err != nil {
		log.Warn(ctx, "could not restore session", "error", err)
	} else if ok {
		log.Debug(ctx, "session restored")
	}

	reg := prometheus.NewRegistry()
	m, err := client.NewMetrics(reg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	apiClient, err := client.NewHTTPClient(c.ServerURL, sess,
		client.WithHTTPClient(client.NewTransportClient(c.RequestTimeout)),
		client.WithMetrics(m),
		client.WithLogger(log),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	st := store.New(apiClient, log)
	as := services.NewAuthService(apiClient, sess, log)
	cs := services.NewContactService(as, st, filter.NewMemo(st, 0))

	return &App{
		config:         c,
		db:             db,
		store:          st,
		authService:    as,
		contactService: cs,
		metrics:        reg,
		log:            log,
		reader:         bufio.NewReader(os.Stdin),
		out:            os.Stdout,
	}, nil
}

func newLogger(c *config.Config) (logging.Logger, error) {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(c.LogBackend) {
	case "", "slog":
		return logging.NewTextLogger(os.Stderr, level), nil
	case "zap":
		return logging.NewZapConsoleLogger(os.Stderr, level), nil
	}
	return nil, fmt.Errorf("unknown log backend %q", c.LogBackend)
}

// Run starts the interactive session and releases resources when it ends.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.store != nil {
		events, stop := a.store.Subscribe()
		defer stop()
		go a.watchStore(ctx, events)
	}

	a.Root(ctx)
}

// Close flushes the logger and closes the token database.
func (a *App) Close() {
	if s, ok := a.log.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) isLoggedIn() bool {
	return a.authService != nil && a.authService.Authorized()
}

// watchStore logs settled store operations until ctx is done or the channel
// is closed.
func (a *App) watchStore(ctx context.Context, events <-chan store.Event) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Outcome.State == store.StatePending {
				continue
			}
			a.logger().Debug(ctx, "store operation settled",
				"op", string(ev.Op), "id", ev.ID, "state", ev.Outcome.State.String(), "version", ev.Version)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) logger() logging.Logger {
	if a.log == nil {
		return logging.Discard()
	}
	return a.log
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.writer(), args...)
}

func (a *App) writer() io.Writer {
	if a.out == nil {
		return os.Stdout
	}
	return a.out
}
