package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-sync/internal/api"
	"github.com/vovakirdan/wirechat-sync/internal/config"
	"github.com/vovakirdan/wirechat-sync/internal/core"
	transporthttp "github.com/vovakirdan/wirechat-sync/internal/transport/http"
	"github.com/vovakirdan/wirechat-sync/internal/transport/ws"
)

// App wires together the relay connection, the conversation store and the local API.
type App struct {
	cfg config.Config
	dir Directory
	log *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &App{
		cfg: cfg,
		dir: api.New(cfg.APIBaseURL, cfg.RequestTimeout),
		log: logger,
	}, nil
}

// Connection is a live session bound to a relay connection.
type Connection struct {
	Session *Session
	conn    *ws.Conn
	store   *core.ConversationStore
	done    chan error
}

// Done yields the read loop's result once the relay connection ends.
func (c *Connection) Done() <-chan error {
	return c.done
}

// Close stops typing timers and closes the relay connection.
func (c *Connection) Close() error {
	c.store.Close()
	return c.conn.Close()
}

// Connect dials the relay, attaches a fresh store and announces the user.
func (a *App) Connect(ctx context.Context) (*Connection, error) {
	dialCtx, cancel := context.WithTimeout(ctx, a.cfg.DialTimeout)
	defer cancel()

	conn, err := ws.Dial(dialCtx, a.cfg.RelayURL, a.log)
	if err != nil {
		return nil, err
	}
	a.log.Info().Str("relay", a.cfg.RelayURL).Msg("connected to relay")

	store := core.NewConversationStore(a.cfg.User, conn,
		core.WithLogger(a.log),
		core.WithTypingTimeout(a.cfg.TypingTimeout),
	)
	store.Attach(conn)

	c := &Connection{
		Session: NewSession(store, a.dir, a.log),
		conn:    conn,
		store:   store,
		done:    make(chan error, 1),
	}
	go func() {
		c.done <- conn.Run(ctx)
	}()

	if err := c.Session.Start(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// Run connects and serves the local API until ctx is cancelled or the relay drops.
func (a *App) Run(ctx context.Context) error {
	conn, err := a.Connect(ctx)
	if err != nil {
		return err
	}
	defer a.closeConnection(conn)

	server := transporthttp.NewServer(conn.Session, a.cfg.APIAddr, a.log)
	serverErr := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.cfg.APIAddr).Msg("local api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	var runErr error
	select {
	case runErr = <-serverErr:
	case err := <-conn.Done():
		if err != nil {
			runErr = fmt.Errorf("relay connection: %w", err)
		} else {
			runErr = errors.New("relay closed the connection")
		}
	case <-ctx.Done():
	}

	a.shutdown(server)
	return runErr
}

func (a *App) shutdown(server *stdhttp.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
	defer cancel()

	a.log.Info().Msg("shutting down local api")
	if err := server.Shutdown(ctx); err != nil {
		a.log.Warn().Err(err).Msg("local api shutdown")
	}
}

func (a *App) closeConnection(c *Connection) {
	if err := c.Close(); err != nil {
		a.log.Debug().Err(err).Msg("close relay connection")
	} else {
		a.log.Info().Msg("relay connection closed")
	}
}

func (a *App) shutdownTimeout() time.Duration {
	if a.cfg.ShutdownTimeout > 0 {
		return a.cfg.ShutdownTimeout
	}
	return 5 * time.Second
}
