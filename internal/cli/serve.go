package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/config"
	"github.com/mmynk/settleup/internal/events"
	"github.com/mmynk/settleup/internal/httpapi"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/rpc"
	"github.com/mmynk/settleup/internal/service"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the REST and Connect API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func newPublisher(cfg *config.Config, logger *slog.Logger) (events.Publisher, error) {
	if cfg.AMQPURL == "" {
		logger.Info("No AMQP broker configured, ledger events are discarded")
		return events.Nop{}, nil
	}
	p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		return nil, err
	}
	logger.Info("Publishing ledger events", "exchange", cfg.AMQPExchange)
	return p, nil
}

func (a *app) serve(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger
	if err := cfg.Validate(true); err != nil {
		return err
	}
	tokenDuration, err := cfg.TokenDuration()
	if err != nil {
		return err
	}
	planner, err := cfg.Planner()
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer store.Close()
	logger.Info("Storage initialized", "driver", cfg.DBDriver)

	publisher, err := newPublisher(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize event publisher: %w", err)
	}
	defer publisher.Close()

	m := metrics.New()
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, tokenDuration)
	groups := service.NewGroupService(store, planner, publisher, m, logger)
	authService := service.NewAuthService(auth.NewPasswordAuthenticator(store), store, jwtManager, logger)

	router := httpapi.NewRouter(httpapi.Deps{
		Groups:     groups,
		Auth:       authService,
		JWTManager: jwtManager,
		Logger:     logger,
		Metrics:    m,
	})
	rpc.Mount(router, rpc.Deps{
		Groups:     groups,
		Auth:       authService,
		JWTManager: jwtManager,
		Logger:     logger,
		Metrics:    m,
	})

	// Wrap with h2c for HTTP/2 without TLS (Connect clients use it)
	handler := h2c.NewHandler(middleware.CORS(cfg.CORSOrigin)(router), &http2.Server{})
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server starting", "address", srv.Addr, "url", fmt.Sprintf("http://localhost%s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
