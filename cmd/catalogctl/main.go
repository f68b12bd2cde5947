package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/signalsfoundry/sdr-catalog/catalog"
	"github.com/signalsfoundry/sdr-catalog/confdb"
	"github.com/signalsfoundry/sdr-catalog/internal/logging"
	"github.com/signalsfoundry/sdr-catalog/internal/observability"
)

// catalogctl opens the configuration catalog, prints a summary of every
// collection, and optionally reconciles it back to disk.
func main() {
	configPath := flag.String("config", "", "path to a catalogctl config file (YAML)")
	userDir := flag.String("user-dir", "", "writable config directory (overrides config file)")
	systemDir := flag.String("system-dir", "", "read-only system config directory (overrides config file)")
	tleDir := flag.String("tle-dir", "", "local TLE directory (overrides config file)")
	doSync := flag.Bool("sync", false, "reconcile and persist all collections before exiting")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	settings, err := loadSettings(*configPath)
	if err != nil {
		log.Error(ctx, "configuration load failed", logging.Any("error", err))
		os.Exit(1)
	}
	if *userDir != "" {
		settings.UserDir = *userDir
	}
	if *systemDir != "" {
		settings.SystemDirs = []string{*systemDir}
	}
	if *tleDir != "" {
		settings.TLEDir = *tleDir
	}

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "tracing init failed", logging.Any("error", err))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdown, log)

	collector, err := observability.NewCatalogCollector(nil)
	if err != nil {
		log.Error(ctx, "metrics init failed", logging.Any("error", err))
		os.Exit(1)
	}

	store, err := confdb.Open(confdb.Config{
		UserDir:    settings.UserDir,
		SystemDirs: settings.SystemDirs,
		Logger:     log,
	})
	if err != nil {
		log.Error(ctx, "store open failed", logging.Any("error", err))
		os.Exit(1)
	}

	cat, err := catalog.Open(catalog.Config{
		Store:   store,
		TLEDir:  settings.TLEDir,
		Logger:  log,
		Metrics: collector,
	})
	if err != nil {
		log.Error(ctx, "catalog open failed", logging.Any("error", err))
		os.Exit(1)
	}
	defer cat.Close()

	printSummary(cat)

	if *doSync {
		if err := cat.Sync(ctx); err != nil {
			log.Error(ctx, "sync failed", logging.Any("error", err))
			os.Exit(1)
		}
		log.Info(ctx, "catalog synced", logging.String("user_dir", settings.UserDir))
	}
}

type settings struct {
	UserDir    string
	SystemDirs []string
	TLEDir     string
}

// loadSettings merges the config file (when present), environment
// variables, and defaults.
func loadSettings(configPath string) (settings, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("catalogctl")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "sdr-catalog"))
		}
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("SDR_CATALOG")
	v.AutomaticEnv()

	defaultDir := "."
	if dir, err := os.UserConfigDir(); err == nil {
		defaultDir = filepath.Join(dir, "sdr-catalog")
	}
	v.SetDefault("user_dir", defaultDir)
	v.SetDefault("system_dirs", []string{})
	v.SetDefault("tle_dir", filepath.Join(defaultDir, "tle"))

	if err := v.ReadInConfig(); err != nil {
		if configPath != "" {
			return settings{}, err
		}
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return settings{}, err
		}
		// no config file anywhere on the search path; defaults apply
	}

	return settings{
		UserDir:    v.GetString("user_dir"),
		SystemDirs: v.GetStringSlice("system_dirs"),
		TLEDir:     v.GetString("tle_dir"),
	}, nil
}

func printSummary(cat *catalog.Catalog) {
	fmt.Printf("profiles:        %d\n", len(cat.Profiles()))
	fmt.Printf("devices:         %d\n", len(cat.Devices()))
	fmt.Printf("bookmarks:       %d\n", len(cat.Bookmarks()))
	fmt.Printf("locations:       %d\n", len(cat.Locations()))
	fmt.Printf("tle sources:     %d\n", len(cat.TLESources()))
	fmt.Printf("satellites:      %d\n", len(cat.Satellites()))
	fmt.Printf("spectrum units:  %d\n", len(cat.SpectrumUnits()))
	fmt.Printf("palettes:        %d\n", len(cat.Palettes()))
	fmt.Printf("recent profiles: %d\n", len(cat.Recent()))

	if qth, ok := cat.QTH(); ok {
		fmt.Printf("qth:             %s (%.4f, %.4f)\n", qth.Name, qth.Site.Lat, qth.Site.Lon)
	}

	for _, bm := range cat.Bookmarks() {
		fmt.Printf("  bookmark %12d Hz  %s\n", bm.Info.Frequency, bm.Info.Name)
	}
}
