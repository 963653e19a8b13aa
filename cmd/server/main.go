// Package main provides the entry point for the CypherGate server.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cyphergate/cyphergate/cmd/server/config"
	"github.com/cyphergate/cyphergate/cmd/server/server"
	"github.com/cyphergate/cyphergate/pkg/complexity"
	"github.com/cyphergate/cyphergate/pkg/infrastructure/metrics"
	"github.com/cyphergate/cyphergate/pkg/repositories/memory"
	"github.com/cyphergate/cyphergate/pkg/sanitizer"
)

var (
	// Version information (set by build flags)
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "cyphergate",
	Short: "CypherGate query validation gateway",
	Long: `A defense-in-depth validation gateway for graph database queries.

CypherGate sanitizes, scores, rate-limits, and audits every query before it
reaches the engine, and analyzes execution plans for performance hazards.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the CypherGate gateway",
	Long: `Start the CypherGate gateway with the specified configuration.

Example:
  cyphergate serve --config ./config.yaml
  cyphergate serve --log-level debug --metrics-address :9090`,
	RunE: runServer,
}

var checkCmd = &cobra.Command{
	Use:   "check [query]",
	Short: "Validate a query offline",
	Long: `Run a query through the sanitizer and complexity analyzer without
executing it, and print the verdict as JSON.

Example:
  cyphergate check 'MATCH (p:Person) RETURN p LIMIT 10'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)

	// Command flags
	serveCmd.Flags().StringP("config", "c", "", "config file path")
	serveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	serveCmd.Flags().String("environment", "development", "deployment environment (development, production)")
	serveCmd.Flags().Bool("debug", false, "return full error detail to callers")
	serveCmd.Flags().Duration("query-timeout", 30*time.Second, "default query timeout")
	serveCmd.Flags().Int("max-rows", 1000, "row bound injected into unbounded queries")
	serveCmd.Flags().Bool("metrics", true, "enable Prometheus metrics")
	serveCmd.Flags().String("metrics-address", ":9090", "metrics server address")
	serveCmd.Flags().Bool("audit", true, "enable audit logging")
	serveCmd.Flags().String("audit-dir", "audit", "audit log directory")
	serveCmd.Flags().Bool("strict", false, "strict sanitizer mode (warnings become rejections)")
	serveCmd.Flags().Duration("shutdown-timeout", 30*time.Second, "graceful shutdown timeout")

	checkCmd.Flags().Bool("strict", false, "strict sanitizer mode")
	checkCmd.Flags().Bool("allow-writes", false, "permit write operations")

	// Bind flags to viper
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		panic(fmt.Errorf("failed to bind flags: %w", err))
	}
	viper.SetEnvPrefix("CYPHERGATE")
	viper.AutomaticEnv()

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("CypherGate\n")
			fmt.Printf("Version:    %s\n", version)
			fmt.Printf("Commit:     %s\n", commit)
			fmt.Printf("Build Date: %s\n", buildDate)
		},
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogging(cfg.LogLevel)
	logger.Info().
		Str("version", version).
		Str("commit", commit).
		Str("build_date", buildDate).
		Str("environment", cfg.Environment).
		Msg("Starting CypherGate")

	// Create metrics collector
	var collector metrics.Collector
	var metricsServer *metrics.MetricsServer
	if cfg.Metrics.Enabled {
		promCollector := metrics.NewPrometheusCollector(nil)
		collector = promCollector
		metricsServer = metrics.NewMetricsServer(cfg.Metrics.Address, promCollector.Registry())
		go func() {
			logger.Info().Str("address", cfg.Metrics.Address).Msg("Starting metrics server")
			if err := metricsServer.Start(); err != nil {
				logger.Error().Err(err).Msg("Metrics server stopped")
			}
		}()
	} else {
		collector = metrics.NewNoOpCollector()
	}

	// The in-memory backend stands in until a driver is wired; the gateway
	// itself is driver-agnostic.
	repo := memory.New()

	srv, err := server.New(cfg, repo, nil, logger, collector)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info().
		Bool("audit", cfg.Audit.Enabled).
		Msg("Gateway ready")

	// Wait for shutdown signal
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)
	<-shutdownCh
	logger.Info().Msg("Received shutdown signal")

	// Graceful shutdown
	if err := srv.Close(); err != nil {
		logger.Error().Err(err).Msg("Error during shutdown")
	}
	if metricsServer != nil {
		if err := metricsServer.Stop(); err != nil {
			logger.Error().Err(err).Msg("Error stopping metrics server")
		}
	}

	logger.Info().Msg("Shutdown complete")
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	strict, _ := cmd.Flags().GetBool("strict")
	allowWrites, _ := cmd.Flags().GetBool("allow-writes")

	sanCfg := sanitizer.DefaultConfig()
	sanCfg.StrictMode = strict
	sanCfg.AllowWriteOperations = allowWrites

	result := sanitizer.New(sanCfg).Sanitize(query, nil)
	verdict := map[string]interface{}{
		"safe":     result.IsSafe,
		"warnings": result.Warnings,
	}
	if result.Error != "" {
		verdict["error"] = result.Error
	}
	if result.IsSafe {
		score := complexity.New(complexity.DefaultConfig()).Score(query)
		verdict["complexity"] = score
	}

	out, err := json.MarshalIndent(verdict, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	if !result.IsSafe {
		os.Exit(1)
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	// Load config file if specified
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Build configuration on top of defaults
	cfg := config.DefaultConfig()
	cfg.LogLevel = viper.GetString("log-level")
	cfg.Environment = viper.GetString("environment")
	cfg.Debug = viper.GetBool("debug")
	cfg.QueryTimeout = viper.GetDuration("query-timeout")
	cfg.MaxRows = viper.GetInt("max-rows")
	cfg.ShutdownTimeout = viper.GetDuration("shutdown-timeout")
	cfg.Sanitizer.StrictMode = viper.GetBool("strict")
	cfg.Audit.Enabled = viper.GetBool("audit")
	cfg.Audit.Directory = viper.GetString("audit-dir")
	cfg.Metrics.Enabled = viper.GetBool("metrics")
	cfg.Metrics.Address = viper.GetString("metrics-address")

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setupLogging(level string) zerolog.Logger {
	// Configure zerolog
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.DurationFieldUnit = time.Millisecond

	var logLevel zerolog.Level
	switch level {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "info":
		logLevel = zerolog.InfoLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	return zerolog.New(os.Stderr).
		Level(logLevel).
		With().
		Timestamp().
		Logger()
}
