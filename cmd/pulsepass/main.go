// Command pulsepass lists artists, concerts and statistics from the
// PulsePass API and can serve the aggregated lists over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/pulsepass/pulsepass-client/internal/config"
	"github.com/pulsepass/pulsepass-client/pkg/catalog"
	"github.com/pulsepass/pulsepass-client/pkg/client"
	"github.com/pulsepass/pulsepass-client/pkg/logging"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// rootOptions holds the persistent flags.
type rootOptions struct {
	envFile  string
	logLevel string
	pretty   bool
	timeout  time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "pulsepass",
		Short:         "Browse the PulsePass concert catalog",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.envFile, "env-file", "", "load configuration from this .env file (default: ./.env when present)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides PULSEPASS_LOG_LEVEL)")
	flags.BoolVar(&opts.pretty, "pretty", false, "human-readable logs instead of JSON")
	flags.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "overall timeout for one command")

	root.AddCommand(
		newArtistsCmd(opts),
		newConcertsCmd(opts),
		newStatsCmd(opts),
		newServeCmd(opts),
	)

	return root
}

// app is the wired client stack shared by every command.
type app struct {
	cfg     *config.Config
	redis   *redis.Client
	client  *client.Client
	catalog *catalog.Service
	logger  zerolog.Logger
}

// setup loads configuration, configures logging and builds the app.
func setup(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return nil, err
	}

	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.pretty {
		cfg.LogPretty = true
	}

	logCfg := cfg.Logging()
	logCfg.Output = cmd.ErrOrStderr()
	if err := logCfg.Validate(); err != nil {
		return nil, err
	}
	logging.Setup(logCfg)

	return newApp(cmd.Context(), cfg)
}

// newApp connects Redis when configured and builds the client and catalog.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger := logging.NewLogger("cli")

	var redisClient *redis.Client
	if opts := cfg.RedisOptions(); opts != nil {
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			redisClient.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
		}
		logger.Info().Str("addr", opts.Addr).Msg("Connected to Redis")
	}

	apiClient, err := client.New(cfg.Client(redisClient))
	if err != nil {
		if redisClient != nil {
			redisClient.Close()
		}
		return nil, fmt.Errorf("create api client: %w", err)
	}

	return &app{
		cfg:     cfg,
		redis:   redisClient,
		client:  apiClient,
		catalog: catalog.NewService(apiClient, cfg.Collector()),
		logger:  logger,
	}, nil
}

// Close releases the HTTP and Redis connections.
func (a *app) Close() {
	a.client.Close()
	if a.redis != nil {
		a.redis.Close()
	}
}
