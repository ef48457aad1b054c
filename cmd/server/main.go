package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	accountstore "github.com/jrsteele09/inbox-assist/accounts/postgres"
	"github.com/jrsteele09/inbox-assist/drafting"
	"github.com/jrsteele09/inbox-assist/internal/config"
	"github.com/jrsteele09/inbox-assist/internal/database"
	"github.com/jrsteele09/inbox-assist/internal/sealer"
	"github.com/jrsteele09/inbox-assist/mail"
	replystore "github.com/jrsteele09/inbox-assist/replies/postgres"
	"github.com/jrsteele09/inbox-assist/server"
	"github.com/jrsteele09/inbox-assist/server/authflowrepo"
	"github.com/jrsteele09/inbox-assist/sessions"
	sessionstore "github.com/jrsteele09/inbox-assist/sessions/postgres"
	"github.com/jrsteele09/inbox-assist/token/refresh"
	userstore "github.com/jrsteele09/inbox-assist/users/postgres"
)

const (
	sessionSweepInterval = 10 * time.Minute
	draftTimeout         = 30 * time.Second
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	for {
		if err := run(); err != nil {
			log.Error().Err(err).Msg("Error running server, restarting")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	setupLogging(c)
	displayAppname(c.GetAppName())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Open(ctx, c.GetDatabaseURL())
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		return err
	}

	handler, sessionRepo, err := newServer(ctx, c, db)
	if err != nil {
		return err
	}
	go sessions.Sweep(ctx, sessionRepo, sessionSweepInterval)

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(httpServer) }()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	cancel()
	return shutdown(httpServer)
}

// newServer wires the stores, the token lifecycle manager, Gmail and Gemini into the
// HTTP server.
func newServer(ctx context.Context, c config.Config, db *sql.DB) (*server.Server, sessions.Repo, error) {
	tokenSealer, err := newSealer(c)
	if err != nil {
		return nil, nil, err
	}

	generator, err := drafting.NewGeminiGenerator(ctx, c.GetGeminiAPIKey(), c.GetGeminiModel())
	if err != nil {
		return nil, nil, err
	}

	oauth2Config := server.NewGoogleOAuth2Config(c)
	endpoint := refresh.NewOAuth2Endpoint(oauth2Config, c.GetTokenEndpointTimeout(), c.GetDefaultAccessTokenExpiry())
	sessionRepo := sessionstore.New(db, tokenSealer)

	s, err := server.New(c, server.Deps{
		Users:     userstore.New(db),
		Accounts:  accountstore.New(db, tokenSealer),
		Sessions:  sessionRepo,
		AuthFlows: authflowrepo.NewInMemoryRepo(),
		Cookies:   sessions.NewCookieCodec(c.GetSessionSecret()),
		Tokens:    refresh.NewManager(endpoint, c),
		Mail:      mail.NewGmailOpener(),
		Drafter:   drafting.NewDrafter(generator, draftTimeout),
		Replies:   replystore.New(db),
		Identity:  server.NewGoogleIdentity(c),
	})
	if err != nil {
		return nil, nil, err
	}
	return s, sessionRepo, nil
}

// newSealer builds the token sealer. Development runs without a configured key get
// an ephemeral one, so stored tokens do not survive a restart.
func newSealer(c config.Config) (*sealer.Sealer, error) {
	key := c.GetTokenEncryptionKey()
	if key == "" {
		if c.GetEnv() != "DEV" {
			return nil, errors.New("TOKEN_ENCRYPTION_KEY is required outside DEV")
		}
		generated, err := sealer.NewRandomKey()
		if err != nil {
			return nil, err
		}
		log.Warn().Msg("TOKEN_ENCRYPTION_KEY not set, using an ephemeral key")
		key = generated
	}
	return sealer.New(key)
}

func setupLogging(c config.Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(c.GetLogLevel()))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
