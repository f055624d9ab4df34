package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/api"
	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/auth"
	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/events"
	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/guardian"
	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/ledger"
	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/logging"
	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/metrics"
	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/models"
	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/ratelimit"
	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/revoke"
	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/shutdown"
	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/tlsutil"
	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/tracing"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the emergency response API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	logger, err := logging.NewFileLogger("sentinel",
		logging.ParseLevel(viper.GetString("log.level")),
		viper.GetBool("log.json"))
	if err != nil {
		logger = logging.NewLogger(logging.ParseLevel(viper.GetString("log.level")), viper.GetBool("log.json"))
		logger.Warn("File logging unavailable, using stdout", map[string]interface{}{"error": err.Error()})
	}

	owner, err := models.ParseAddress(viper.GetString("owner"))
	if err != nil {
		return fmt.Errorf("owner address is required: %w", err)
	}

	led, err := ledger.New(ledger.Config{
		Driver: viper.GetString("ledger.driver"),
		Path:   viper.GetString("ledger.path"),
		DSN:    viper.GetString("ledger.dsn"),
	})
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}

	logger.Info("Ledger opened", map[string]interface{}{
		"driver": viper.GetString("ledger.driver"),
	})

	wallet := guardian.NewWallet(led)

	// Seed the signer on first boot if configured.
	if bootstrap := viper.GetString("bootstrap_signer"); bootstrap != "" {
		current, err := wallet.CurrentSigner(context.Background())
		if err != nil {
			return fmt.Errorf("failed to read signer: %w", err)
		}
		if current.IsZero() {
			signer, err := models.ParseAddress(bootstrap)
			if err != nil {
				return fmt.Errorf("invalid bootstrap signer: %w", err)
			}
			if err := wallet.SetSigner(context.Background(), signer); err != nil {
				return fmt.Errorf("failed to bootstrap signer: %w", err)
			}
			logger.Info("Signer bootstrapped", map[string]interface{}{"signer": string(signer)})
		}
	}

	bus := events.NewBus()
	bus.Subscribe(func(e models.SignerRotated) {
		logger.Info("Signer rotated", map[string]interface{}{
			"event_id":   e.ID,
			"new_signer": string(e.NewSigner),
			"caller":     string(e.Caller),
		})
	})

	controller, err := guardian.NewController(owner, led, wallet, bus)
	if err != nil {
		return err
	}
	revoker := revoke.NewRevoker(led)

	keyring, err := auth.LoadKeyring(viper.GetString("keyring"))
	if err != nil {
		return err
	}
	if keyring.Len() == 0 {
		logger.Warn("Keyring is empty, every request will be rejected. Mint keys with 'sentinel genkey'.")
	}

	tracer, err := tracing.InitTracer(tracing.Config{
		ServiceName:    "sentinel",
		ServiceVersion: "1.0.0",
		Environment:    viper.GetString("tracing.environment"),
		OTLPEndpoint:   viper.GetString("tracing.endpoint"),
		Enabled:        viper.GetBool("tracing.enabled"),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	monitor := metrics.NewMonitor()
	limiter := ratelimit.NewLimiter(viper.GetFloat64("ratelimit.rps"), viper.GetInt("ratelimit.burst"))

	handler := api.NewHandler(controller, revoker, wallet)
	handler.SetMetricsRecorder(monitor)
	handler.SetStepupSecret(viper.GetString("stepup_secret"))

	router := mux.NewRouter()
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitor.Middleware)
	router.Use(limiter.Middleware(ratelimit.CallerKeyFunc))
	router.Use(api.AuthMiddleware(keyring))
	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         viper.GetString("listen"),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	mgr := shutdown.New(30 * time.Second)
	mgr.Register(shutdown.CloseResource(logger, "logger"))
	mgr.Register(shutdown.CloseResource(led, "ledger"))
	mgr.Register(func(ctx context.Context) error { return tracer.Shutdown(ctx) })
	mgr.Register(shutdown.StopHTTPServer(server, "api"))

	if viper.GetBool("metrics.enabled") {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", metrics.NewExporter(led))
		metricsServer := &http.Server{
			Addr:    viper.GetString("metrics.listen"),
			Handler: metricsMux,
		}
		mgr.Register(shutdown.StopHTTPServer(metricsServer, "metrics"))

		go func() {
			logger.Info("Metrics listening", map[string]interface{}{"addr": metricsServer.Addr})
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server failed", map[string]interface{}{"error": err.Error()})
			}
		}()
	}

	go func() {
		certFile := viper.GetString("tls.cert")
		keyFile := viper.GetString("tls.key")

		if viper.GetBool("tls.enabled") {
			tlsConfig, err := tlsutil.LoadTLSConfig(certFile, keyFile)
			if err != nil {
				logger.Fatal("Failed to load TLS config", map[string]interface{}{"error": err.Error()})
			}
			server.TLSConfig = tlsConfig
			logger.Info("API listening (TLS)", map[string]interface{}{"addr": server.Addr})
			if err := server.ListenAndServeTLS("", ""); err != nil && err != http.ErrServerClosed {
				logger.Fatal("API server failed", map[string]interface{}{"error": err.Error()})
			}
			return
		}

		logger.Info("API listening", map[string]interface{}{"addr": server.Addr})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("API server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	mgr.Wait()
	return nil
}
