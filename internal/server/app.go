// Package server wires the auth service together: configuration, logging,
// the credential store, the users service client, the orphan journal and
// the gRPC endpoint, plus graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/profiles"
	"github.com/dmitrijs2005/gophauth/internal/server/reconcile"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	store       *repomanager.Store
	usersConn   *grpc.ClientConn
	authService *services.AuthService
}

// NewApp builds the application from c. Logs go to stdout.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	return newApp(ctx, c, os.Stdout)
}

func newApp(ctx context.Context, c *config.Config, logOut io.Writer) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	logger := logging.NewJSON(logOut, c.LogLevel)

	store, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	logger.Info(ctx, "Database connected", "store", storeKind(c.DatabaseDSN))

	conn, err := grpc.NewClient(c.UsersServiceAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("users service client error: %w", err)
	}

	journal, err := newJournal(ctx, c, logger)
	if err != nil {
		_ = conn.Close()
		_ = store.Close()
		return nil, err
	}

	pc := profiles.NewClient(conn, profiles.Options{
		CallTimeout: c.ProfileCallTimeout,
		FindRetries: uint64(c.ProfileFindRetries),
	}, logger)

	svc := services.NewAuthService(
		store.Credentials,
		pc,
		auth.NewIssuer([]byte(c.SecretKey), c.TokenValidityDuration),
		auth.NewHasher(c.PasswordHashCost),
		journal,
		logger,
		services.AuthOptions{
			CompensationAttempts: uint64(c.CompensationAttempts),
			CompensationTimeout:  c.CompensationTimeout,
		},
	)

	return &App{config: c, logger: logger, store: store, usersConn: conn, authService: svc}, nil
}

func newJournal(ctx context.Context, c *config.Config, logger logging.Logger) (reconcile.Journal, error) {
	if c.S3Bucket == "" {
		logger.Info(ctx, "Orphan journal: logs only")
		return reconcile.NewLogJournal(logger), nil
	}

	j, err := reconcile.NewS3Journal(ctx, reconcile.S3Settings{
		Region:       c.S3Region,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		BaseEndpoint: c.S3BaseEndpoint,
		Bucket:       c.S3Bucket,
		Prefix:       c.S3OrphanPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("orphan journal error: %w", err)
	}
	logger.Info(ctx, "Orphan journal: s3", "bucket", c.S3Bucket)
	return j, nil
}

func storeKind(dsn string) string {
	if dsn == "" || strings.HasPrefix(dsn, repomanager.MemoryDSN) {
		return "memory"
	}
	return "postgres"
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) error {

	s, err := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.authService)
	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return err
	}

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return err
	}
	return nil
}

// Run serves until ctx is done or a termination signal arrives, then
// releases the store and the users service connection.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup
	var serveErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		serveErr = app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.logger.Info(context.WithoutCancel(ctx), "Stopping app...")
	return errors.Join(serveErr, app.close())
}

func (app *App) close() error {
	var errs []error
	if err := app.usersConn.Close(); err != nil {
		errs = append(errs, fmt.Errorf("users conn close: %w", err))
	}
	if err := app.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("db close: %w", err))
	}
	return errors.Join(errs...)
}
