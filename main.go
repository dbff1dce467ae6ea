package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mapcheck/config"
	"mapcheck/difficulty"
	"mapcheck/osuapi"
)

func main() {
	cobra.OnInitialize(initConfig)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// initConfig loads .env before the environment is read, so values there
// behave like exported MAPCHECK_ variables.
func initConfig() {
	_ = godotenv.Load()
	viper.SetEnvPrefix("MAPCHECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mapcheck",
		Short: "Check osu! beatmaps",
		Long: `mapcheck decodes .osu files and reports what a modder checks by hand:
star rating, stacking, unsnapped objects, drain time and breaks.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "config file (default ./"+config.FileName+")")
	root.PersistentFlags().Bool("json", false, "output JSON")
	root.PersistentFlags().String("songs-dir", "", "directory of downloaded beatmaps")
	root.PersistentFlags().Int("workers", 0, "files analysed at once")
	root.PersistentFlags().String("combiner", "", "star rating formula: classic or powavg")
	_ = viper.BindPFlag("config", root.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("json", root.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("songs_dir", root.PersistentFlags().Lookup("songs-dir"))
	_ = viper.BindPFlag("workers", root.PersistentFlags().Lookup("workers"))
	_ = viper.BindPFlag("rating.combiner", root.PersistentFlags().Lookup("combiner"))

	root.AddCommand(analyzeCmd())
	root.AddCommand(snapCmd())
	root.AddCommand(stacksCmd())
	root.AddCommand(fetchCmd())
	root.AddCommand(compareCmd())
	root.AddCommand(ratingsCmd())
	root.AddCommand(serveCmd())
	return root
}

// loadConfig reads the config file and applies flag and MAPCHECK_
// environment overrides on top.
func loadConfig() (*config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadOptional(wd, viper.GetString("config"))
	if err != nil {
		return nil, err
	}
	overrideString(&cfg.SongsDir, "songs_dir")
	overrideString(&cfg.CachePath, "cache_path")
	overrideString(&cfg.Rating.Combiner, "rating.combiner")
	overrideString(&cfg.API.BaseURL, "api.base_url")
	overrideString(&cfg.API.Key, "api.key")
	overrideString(&cfg.API.Session, "api.session")
	overrideString(&cfg.API.ClientSecret, "api.client_secret")
	overrideString(&cfg.Server.Addr, "server.addr")
	overrideInt(&cfg.Workers, "workers")
	overrideInt(&cfg.API.RateLimit, "api.rate_limit")
	overrideInt(&cfg.API.ClientID, "api.client_id")
	if viper.IsSet("rating.power") {
		cfg.Rating.Power = viper.GetFloat64("rating.power")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func overrideString(dst *string, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetString(key)
	}
}

func overrideInt(dst *int, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetInt(key)
	}
}

func combinerFor(cfg *config.Config) (difficulty.Combiner, error) {
	c, err := difficulty.CombinerByName(cfg.Rating.Combiner, cfg.Rating.Power)
	return c, errors.Wrap(err, "rating.combiner")
}

// maxConcurrentRequests bounds requests in flight to the osu! website.
const maxConcurrentRequests = 2

func newClient(cfg *config.Config) (*osuapi.Client, func(), error) {
	limiter := osuapi.NewLimiter(cfg.API.RateLimit, time.Minute, maxConcurrentRequests)
	c, err := osuapi.New(osuapi.Config{
		BaseURL: cfg.API.BaseURL,
		Key:     cfg.API.Key,
		Session: cfg.API.Session,
		Limiter: limiter,
		Retries: 5,
		Backoff: time.Second,

		ClientID:     cfg.API.ClientID,
		ClientSecret: cfg.API.ClientSecret,
	})
	if err != nil {
		limiter.Stop()
		return nil, nil, err
	}
	return c, limiter.Stop, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
