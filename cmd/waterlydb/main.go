// Command waterlydb inspects and maintains a waterly controller database:
// it applies schema migrations, shows ledger history, and reads or edits
// zones, telemetry, and settings.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/waterlyhq/waterly/internal/log"
	"github.com/waterlyhq/waterly/pkg/config"
	"github.com/waterlyhq/waterly/pkg/migrate"
	"github.com/waterlyhq/waterly/pkg/store"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	var (
		dbPath      = flag.String("db", "", "Path to the waterly SQLite database (required)")
		command     = flag.String("command", "status", "Command: migrate, status, history, zones, latest, weather, config-get, config-set, seed, help")
		zoneName    = flag.String("zone", "", "Zone name for the latest command")
		metricName  = flag.String("metric", "", "Metric name for the latest command")
		configKey   = flag.String("key", "", "Setting key for config-get/config-set")
		configValue = flag.String("value", "", "JSON document for config-set")
		seedFile    = flag.String("file", "", "YAML settings file for the seed command")
		nowFlag     = flag.String("now", "", "Window reference instant as RFC3339 (default: current time)")
		before      = flag.Duration("before", store.DefaultWindowBefore, "Window reach into the past")
		after       = flag.Duration("after", store.DefaultWindowAfter, "Window reach into the future")
		debug       = flag.Bool("debug", false, "Turn on debugging output")
		showVersion = flag.Bool("version", false, "Show version and exit")
		helpFlag    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("waterlydb %s\n", version)
		os.Exit(0)
	}

	if *helpFlag || *command == "help" {
		showHelp()
		return
	}

	if *dbPath == "" {
		fmt.Fprintf(os.Stderr, "Error: -db flag is required\n")
		showHelp()
		os.Exit(1)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	var err error
	switch *command {
	case "migrate":
		err = runMigrate(*dbPath)
	case "status":
		err = runStatus(*dbPath)
	case "history":
		err = runHistory(*dbPath)
	case "zones":
		err = runZones(ctx, *dbPath)
	case "latest":
		err = runLatest(ctx, *dbPath, *zoneName, *metricName)
	case "weather":
		err = runWeather(ctx, *dbPath, *nowFlag, *before, *after)
	case "config-get":
		err = runConfigGet(ctx, *dbPath, *configKey)
	case "config-set":
		err = runConfigSet(ctx, *dbPath, *configKey, *configValue)
	case "seed":
		err = runSeed(ctx, *dbPath, *seedFile)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", *command)
		showHelp()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openLedger opens the database without the store's migration barrier so
// that status and history work against any schema state.
func openLedger(dbPath string) (*sql.DB, *migrate.Migrator, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, migrate.NewMigrator(db), nil
}

func runMigrate(dbPath string) error {
	db, migrator, err := openLedger(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	known, err := store.Migrations().GetMigrations()
	if err != nil {
		return err
	}
	applied, err := migrator.ApplyAll(known)
	if err != nil {
		return err
	}
	if applied == 0 {
		fmt.Println("Database is up to date")
		return nil
	}
	fmt.Printf("Applied %d migrations\n", applied)
	return nil
}

func runStatus(dbPath string) error {
	db, migrator, err := openLedger(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	known, err := store.Migrations().GetMigrations()
	if err != nil {
		return err
	}
	pending, err := migrator.Pending(known)
	if err != nil {
		return err
	}
	history, err := migrator.History()
	if err != nil {
		return err
	}

	fmt.Printf("Applied migrations: %d\n", len(history))
	fmt.Printf("Pending migrations: %d\n", len(pending))
	if len(pending) > 0 {
		fmt.Println("\nPending:")
		for _, m := range pending {
			fmt.Printf("  %s  %s\n", versionLabel(m.Version), m.Description)
		}
	}
	return nil
}

func runHistory(dbPath string) error {
	db, migrator, err := openLedger(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	history, err := migrator.History()
	if err != nil {
		return err
	}
	if len(history) == 0 {
		fmt.Println("No migrations applied")
		return nil
	}
	fmt.Printf("%-5s %-6s %-36s %-13s %s\n", "rank", "ver", "description", "checksum", "installed at")
	for _, rec := range history {
		fmt.Printf("%-5d %-6s %-36s %-13s %s\n",
			rec.InstalledRank, versionLabel(rec.Version), rec.Description,
			rec.Checksum[:12], rec.InstalledAt.Format(time.RFC3339))
	}
	return nil
}

func versionLabel(version string) string {
	if version == "" {
		return "R"
	}
	return version
}

func runZones(ctx context.Context, dbPath string) error {
	s, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	zones, err := s.ListZones(ctx)
	if err != nil {
		return err
	}
	for _, z := range zones {
		fmt.Printf("%-6s %s\n", z.Name, z.Description)
	}
	return nil
}

func runLatest(ctx context.Context, dbPath, zone, metric string) error {
	s, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	if zone != "" && metric != "" {
		m, err := s.LatestMeasurement(ctx, zone, metric)
		if err != nil {
			return err
		}
		printMeasurement(m)
		return nil
	}

	latest, err := s.LatestByZone(ctx)
	if err != nil {
		return err
	}
	for _, zl := range latest {
		if zone != "" && zl.Zone.Name != zone {
			continue
		}
		fmt.Printf("%s:\n", zl.Zone.Name)
		if len(zl.Metrics) == 0 {
			fmt.Println("  (no measurements)")
			continue
		}
		for _, m := range zl.Metrics {
			fmt.Print("  ")
			printMeasurement(m)
		}
	}
	return nil
}

func printMeasurement(m store.Measurement) {
	fmt.Printf("%-28s %10.2f %-8s %s\n", m.Metric, m.Reading, m.Unit, m.Time().Format(time.RFC3339))
}

func runWeather(ctx context.Context, dbPath, nowFlag string, before, after time.Duration) error {
	now := time.Now()
	if nowFlag != "" {
		parsed, err := time.Parse(time.RFC3339, nowFlag)
		if err != nil {
			return fmt.Errorf("parsing -now: %w", err)
		}
		now = parsed
	}

	s, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	rows, err := s.WeatherWindow(ctx, now, before, after)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("No forecast hours in window")
		return nil
	}
	for _, w := range rows {
		fmt.Printf("%s  temp %s  precip %s (prob %s)  soil %s  pressure %s  [%s, fetched %s]\n",
			w.ForecastTime().Format(time.RFC3339),
			formatReading(w.Temperature, w.TemperatureUnit),
			formatReading(w.Precipitation, w.PrecipitationUnit),
			formatReading(w.PrecipitationProbability, "%"),
			formatReading(w.SoilMoisture, w.MoistureUnit),
			formatReading(w.SurfacePressure, w.PressureUnit),
			w.Tag, w.CollectedTime().Format(time.RFC3339))
	}
	return nil
}

func formatReading(v *float64, unit string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%s", *v, unit)
}

func runConfigGet(ctx context.Context, dbPath, key string) error {
	s, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	facade := config.New(s)
	if key == "" {
		records, err := s.ListConfig(ctx)
		if err != nil {
			return err
		}
		for _, rec := range records {
			fmt.Printf("%-36s %s\n", rec.Key, rec.Value)
		}
		return nil
	}

	raw, err := facade.Raw(ctx, config.Setting(key))
	if err != nil {
		return err
	}
	fmt.Println(string(raw))
	return nil
}

func runConfigSet(ctx context.Context, dbPath, key, value string) error {
	if key == "" || value == "" {
		return fmt.Errorf("-key and -value flags are required for config-set")
	}

	s, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	facade := config.New(s)
	if err := facade.SetRaw(ctx, config.Setting(key), json.RawMessage(value)); err != nil {
		return err
	}
	fmt.Printf("Set %s\n", key)
	return nil
}

func runSeed(ctx context.Context, dbPath, seedFile string) error {
	s, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	facade := config.New(s)
	seeded, err := facade.Seed(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Seeded %d default settings\n", seeded)

	if seedFile != "" {
		applied, err := facade.ApplySeedFile(ctx, seedFile)
		if err != nil {
			return err
		}
		fmt.Printf("Applied %d settings from %s\n", applied, seedFile)
	}
	return nil
}

func showHelp() {
	fmt.Println("waterly database tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  waterlydb -db <path> -command <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  migrate            Apply all pending migrations")
	fmt.Println("  status             Show applied and pending migration counts")
	fmt.Println("  history            Show the migration ledger")
	fmt.Println("  zones              List zones")
	fmt.Println("  latest             Show latest measurements (-zone and -metric narrow it)")
	fmt.Println("  weather            Show forecast hours around -now (-before/-after bound the window)")
	fmt.Println("  config-get         Show a setting (-key), or all settings")
	fmt.Println("  config-set         Store a setting (-key and -value)")
	fmt.Println("  seed               Insert missing setting defaults (-file applies a YAML overlay)")
	fmt.Println("  help               Show this help message")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  waterlydb -db waterly.db -command migrate")
	fmt.Println("  waterlydb -db waterly.db -command latest -zone Z1 -metric humidity")
	fmt.Println("  waterlydb -db waterly.db -command weather -now 2024-06-01T12:00:00Z")
	fmt.Println("  waterlydb -db waterly.db -command config-set -key units -value '{\"value\":\"metric\"}'")
	fmt.Println("  waterlydb -db waterly.db -command seed -file settings.yaml")
}
