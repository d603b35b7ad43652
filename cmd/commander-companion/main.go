package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/mtgtools/commander-companion/internal/cards/scryfall"
	"github.com/mtgtools/commander-companion/internal/charts"
	"github.com/mtgtools/commander-companion/internal/config"
	"github.com/mtgtools/commander-companion/internal/enrich"
	"github.com/mtgtools/commander-companion/internal/importer"
	"github.com/mtgtools/commander-companion/internal/logging"
	"github.com/mtgtools/commander-companion/internal/storage"
	"github.com/mtgtools/commander-companion/internal/translate"
	"github.com/mtgtools/commander-companion/internal/view"
	"github.com/mtgtools/commander-companion/internal/watcher"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		return
	}

	switch os.Args[1] {
	case "import":
		runImportCommand()
	case "list":
		runListCommand()
	case "commanders":
		runCommandersCommand()
	case "report":
		runReportCommand()
	case "watch":
		runWatchCommand()
	case "migrate":
		runMigrationCommand()
	case "backup":
		runBackupCommand()
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Commander Companion")
	fmt.Println("===================")
	fmt.Println()
	fmt.Println("Usage: commander-companion <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  import      - Import a collection CSV export")
	fmt.Println("  list        - Show the collection, filtered and scored against a commander")
	fmt.Println("  commanders  - List the legendary cards eligible as commander")
	fmt.Println("  report      - Render an HTML collection report")
	fmt.Println("  watch       - Watch a directory and import CSV exports as they appear")
	fmt.Println("  migrate     - Run database migrations")
	fmt.Println("  backup      - Create or restore database backups")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  commander-companion import collection.csv")
	fmt.Println("  commander-companion list --commander \"Atraxa, Praetors' Voice\"")
	fmt.Println("  commander-companion report --out report.html")
	fmt.Println("  commander-companion migrate up")
	fmt.Println("  commander-companion backup create")
	fmt.Println()
}

// getDBPath resolves the database path: environment variable first, then
// the configuration file, then the default location.
func getDBPath(cfg *config.Config) string {
	if dbPath := os.Getenv("CMDR_DB_PATH"); dbPath != "" {
		return dbPath
	}
	if cfg != nil && cfg.Database.Path != "" {
		return cfg.Database.Path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Error getting home directory: %v", err)
	}
	return filepath.Join(home, ".commander-companion", "collection.db")
}

// loadConfig loads and validates the configuration file.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

// openRepository opens the collection database with migrations applied
// and returns the repository plus a close function.
func openRepository(dbPath string) (storage.CardRepository, func()) {
	storageConfig := storage.DefaultConfig(dbPath)
	storageConfig.AutoMigrate = true
	db, err := storage.Open(storageConfig)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	closeFn := func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}
	return storage.NewCardRepository(db), closeFn
}

// buildImporter wires the catalog client, the optional translation
// fallback and the store into an import orchestrator.
func buildImporter(cfg *config.Config, repo storage.CardRepository) *importer.Importer {
	logger := logging.NewLogger(cfg.App.DebugMode)

	timeout, err := cfg.GetCatalogTimeout()
	if err != nil {
		log.Fatalf("Invalid catalog timeout: %v", err)
	}
	catalog := scryfall.NewClient(
		scryfall.WithBaseURL(cfg.Catalog.BaseURL),
		scryfall.WithTimeout(timeout),
	)

	opts := []enrich.Option{enrich.WithTargetLanguage(cfg.Translation.TargetLanguage)}
	if len(cfg.Translation.Endpoints) > 0 {
		opts = append(opts, enrich.WithTranslator(translate.NewClient(cfg.Translation.Endpoints)))
	}
	enricher := enrich.New(catalog, logger, opts...)

	return importer.New(enricher, repo, logger)
}

// runImportCommand imports one CSV export, printing phase progress.
func runImportCommand() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	dbPath := fs.String("db-path", "", "Database path (default: ~/.commander-companion/collection.db)")

	if err := fs.Parse(os.Args[2:]); err != nil {
		log.Fatalf("Error parsing flags: %v", err)
	}
	if fs.NArg() < 1 {
		fmt.Println("Error: import command requires a CSV file path")
		fmt.Println("Usage: commander-companion import [flags] <csv-file>")
		os.Exit(1)
	}
	csvPath := fs.Arg(0)

	if _, err := os.Stat(csvPath); os.IsNotExist(err) {
		log.Fatalf("CSV file does not exist: %s", csvPath)
	}

	cfg := loadConfig()
	finalDBPath := *dbPath
	if finalDBPath == "" {
		finalDBPath = getDBPath(cfg)
	}

	repo, closeRepo := openRepository(finalDBPath)
	defer closeRepo()

	imp := buildImporter(cfg, repo)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Importing %s...\n", csvPath)
	if err := imp.Start(ctx, csvPath); err != nil {
		log.Fatalf("Failed to start import: %v", err)
	}

	result := waitForImport(imp)
	if result.Err != nil {
		log.Fatalf("Import failed: %v", result.Err)
	}

	fmt.Println()
	if result.NothingNew() {
		fmt.Printf("✓ No new cards; %d quantity update(s) applied.\n", result.QuantityUpdates)
		return
	}
	fmt.Printf("✓ Imported %d new card(s), %d quantity update(s).\n",
		len(result.NewRecords), result.QuantityUpdates)
}

// waitForImport consumes progress events until the terminal result
// arrives, echoing phase transitions and percentages to the console.
func waitForImport(imp *importer.Importer) importer.Result {
	var lastState importer.State
	for {
		select {
		case p := <-imp.Progress():
			if p.State != lastState {
				if lastState != "" {
					fmt.Println()
				}
				lastState = p.State
			}
			fmt.Printf("\r%s: %d%%", p.State, p.Percent)
		case result := <-imp.Results():
			return result
		}
	}
}

// runListCommand prints the collection as a table, optionally filtered
// and scored against a commander.
func runListCommand() {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	dbPath := fs.String("db-path", "", "Database path (default: ~/.commander-companion/collection.db)")
	commander := fs.String("commander", "", "Commander name to filter and score against")
	sortBy := fs.String("sort", "", "Sort column: name, color, type, cost, synergy, details")
	descending := fs.Bool("desc", false, "Sort descending")

	if err := fs.Parse(os.Args[2:]); err != nil {
		log.Fatalf("Error parsing flags: %v", err)
	}

	cfg := loadConfig()
	finalDBPath := *dbPath
	if finalDBPath == "" {
		finalDBPath = getDBPath(cfg)
	}
	repo, closeRepo := openRepository(finalDBPath)
	defer closeRepo()

	ctx := context.Background()
	records, err := repo.LoadAll(ctx)
	if err != nil {
		log.Fatalf("Failed to load collection: %v", err)
	}

	v := view.New(repo)
	v.SetCollection(records)

	if *commander != "" {
		if err := v.SetCommander(*commander); err != nil {
			log.Fatalf("Cannot select commander: %v", err)
		}
	}
	if *sortBy != "" {
		col := view.Column(*sortBy)
		v.ToggleSort(col)
		if *descending {
			v.ToggleSort(col)
		}
	}

	rows := v.FilteredScored()
	if len(rows) == 0 {
		fmt.Println("Collection is empty.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "QTY\tNAME\tCOLOR\tTYPE\tCOST\tSYNERGY")
	for _, row := range rows {
		fmt.Fprintf(w, "%.0f\t%s\t%s\t%s\t%s\t%s\n",
			row.Record.Quantity, row.Record.Name, row.ColorDisplay,
			row.Record.TypeLine, row.Record.ManaCost, row.SynergyDisplay)
	}
	if err := w.Flush(); err != nil {
		log.Fatalf("Error writing table: %v", err)
	}
	fmt.Printf("\n%d card(s) shown.\n", len(rows))
}

// runCommandersCommand lists every legendary card in the collection.
func runCommandersCommand() {
	fs := flag.NewFlagSet("commanders", flag.ExitOnError)
	dbPath := fs.String("db-path", "", "Database path (default: ~/.commander-companion/collection.db)")

	if err := fs.Parse(os.Args[2:]); err != nil {
		log.Fatalf("Error parsing flags: %v", err)
	}

	cfg := loadConfig()
	finalDBPath := *dbPath
	if finalDBPath == "" {
		finalDBPath = getDBPath(cfg)
	}
	repo, closeRepo := openRepository(finalDBPath)
	defer closeRepo()

	records, err := repo.LoadAll(context.Background())
	if err != nil {
		log.Fatalf("Failed to load collection: %v", err)
	}

	v := view.New(repo)
	v.SetCollection(records)

	commanders := v.Commanders()
	if len(commanders) == 0 {
		fmt.Println("No legendary cards in the collection.")
		return
	}

	fmt.Printf("Found %d eligible commander(s):\n\n", len(commanders))
	for _, rec := range commanders {
		fmt.Printf("  %s  %s\n", rec.Name, rec.TypeLine)
	}
}

// runReportCommand renders the HTML collection report.
func runReportCommand() {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	dbPath := fs.String("db-path", "", "Database path (default: ~/.commander-companion/collection.db)")
	out := fs.String("out", "", "Output HTML path (default from configuration)")
	commander := fs.String("commander", "", "Commander for the synergy breakdown chart")

	if err := fs.Parse(os.Args[2:]); err != nil {
		log.Fatalf("Error parsing flags: %v", err)
	}

	cfg := loadConfig()
	finalDBPath := *dbPath
	if finalDBPath == "" {
		finalDBPath = getDBPath(cfg)
	}
	outPath := *out
	if outPath == "" {
		outPath = cfg.App.ReportPath
	}

	repo, closeRepo := openRepository(finalDBPath)
	defer closeRepo()

	records, err := repo.LoadAll(context.Background())
	if err != nil {
		log.Fatalf("Failed to load collection: %v", err)
	}

	v := view.New(repo)
	v.SetCollection(records)
	if *commander != "" {
		if err := v.SetCommander(*commander); err != nil {
			log.Fatalf("Cannot select commander: %v", err)
		}
	}

	if err := charts.RenderCollectionReport(records, v.Commander(), outPath); err != nil {
		log.Fatalf("Failed to render report: %v", err)
	}
	fmt.Printf("✓ Report written to %s\n", outPath)
}

// runWatchCommand watches a directory and imports CSV exports as they
// appear, until interrupted.
func runWatchCommand() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	dbPath := fs.String("db-path", "", "Database path (default: ~/.commander-companion/collection.db)")
	dir := fs.String("dir", "", "Directory to watch (default from configuration)")
	pollInterval := fs.Duration("poll-interval", 0, "Backup polling interval (default from configuration)")

	if err := fs.Parse(os.Args[2:]); err != nil {
		log.Fatalf("Error parsing flags: %v", err)
	}

	cfg := loadConfig()

	watchDir := *dir
	if watchDir == "" {
		watchDir = cfg.Watch.Directory
	}
	if watchDir == "" {
		log.Fatal("No watch directory configured. Use --dir or set watch.directory in the configuration file.")
	}

	interval := *pollInterval
	if interval == 0 {
		var err error
		interval, err = cfg.GetWatchPollInterval()
		if err != nil {
			log.Fatalf("Invalid watch poll interval: %v", err)
		}
	}

	finalDBPath := *dbPath
	if finalDBPath == "" {
		finalDBPath = getDBPath(cfg)
	}
	repo, closeRepo := openRepository(finalDBPath)
	defer closeRepo()

	imp := buildImporter(cfg, repo)
	logger := logging.NewLogger(cfg.App.DebugMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler := func(path string) {
		fmt.Printf("Importing %s...\n", path)
		if err := imp.Start(ctx, path); err != nil {
			log.Printf("Skipping %s: %v", path, err)
			return
		}
		result := waitForImport(imp)
		fmt.Println()
		if result.Err != nil {
			log.Printf("Import of %s failed: %v", path, result.Err)
			return
		}
		fmt.Printf("✓ %s: %d new card(s), %d quantity update(s).\n",
			path, len(result.NewRecords), result.QuantityUpdates)
	}

	w, err := watcher.New(watchDir, interval, handler, logger)
	if err != nil {
		log.Fatalf("Failed to create watcher: %v", err)
	}

	fmt.Printf("Watching %s for CSV exports. Press Ctrl+C to stop.\n", watchDir)
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Watcher stopped: %v", err)
	}
	fmt.Println("\nStopped.")
}

// runMigrationCommand applies, rolls back or reports schema migrations.
func runMigrationCommand() {
	if len(os.Args) < 3 {
		printMigrationUsage()
		os.Exit(1)
	}

	cfg := loadConfig()
	dbPath := getDBPath(cfg)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		log.Fatalf("Error creating database directory: %v", err)
	}

	mgr, err := storage.NewMigrationManager(dbPath)
	if err != nil {
		log.Fatalf("Error creating migration manager: %v", err)
	}
	defer func() {
		if err := mgr.Close(); err != nil {
			log.Printf("Error closing migration manager: %v", err)
		}
	}()

	switch os.Args[2] {
	case "up":
		fmt.Println("Applying all pending migrations...")
		if err := mgr.Up(); err != nil {
			log.Fatalf("Error applying migrations: %v", err)
		}
		printMigrationVersion(mgr)
		fmt.Println("All migrations applied successfully!")

	case "down":
		fmt.Println("Rolling back last migration...")
		if err := mgr.Down(); err != nil {
			log.Fatalf("Error rolling back migration: %v", err)
		}
		printMigrationVersion(mgr)
		fmt.Println("Migration rolled back successfully!")

	case "status", "version":
		printMigrationVersion(mgr)

	default:
		fmt.Printf("Unknown migration command: %s\n\n", os.Args[2])
		printMigrationUsage()
		os.Exit(1)
	}
}

func printMigrationVersion(mgr *storage.MigrationManager) {
	version, dirty, err := mgr.Version()
	if err != nil {
		log.Fatalf("Error getting version: %v", err)
	}
	if dirty {
		fmt.Printf("Current version: %d (dirty - migration failed or interrupted)\n", version)
	} else {
		fmt.Printf("Current version: %d\n", version)
	}
}

func printMigrationUsage() {
	fmt.Println("Commander Companion - Database Migration Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  commander-companion migrate <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  up       Apply all pending migrations")
	fmt.Println("  down     Rollback the last migration")
	fmt.Println("  status   Show current migration version")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  CMDR_DB_PATH   Override default database path")
	fmt.Println("                 (default: ~/.commander-companion/collection.db)")
}

// runBackupCommand creates, restores, lists or verifies backups.
func runBackupCommand() {
	if len(os.Args) < 3 {
		printBackupUsage()
		os.Exit(1)
	}

	cfg := loadConfig()
	dbPath := getDBPath(cfg)
	backupMgr := storage.NewBackupManager(dbPath)

	switch os.Args[2] {
	case "create":
		createFlags := flag.NewFlagSet("create", flag.ExitOnError)
		backupDir := createFlags.String("dir", os.Getenv("CMDR_BACKUP_DIR"), "Backup directory")
		backupName := createFlags.String("name", "", "Backup name (default: auto-generated timestamp)")
		encrypt := createFlags.Bool("encrypt", false, "Encrypt backup")
		passwordEnv := createFlags.String("password-env", "", "Environment variable containing encryption password")
		verify := createFlags.Bool("verify", true, "Verify backup after creation")

		if err := createFlags.Parse(os.Args[3:]); err != nil {
			log.Fatalf("Error parsing flags: %v", err)
		}

		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			log.Fatalf("Database file does not exist: %s", dbPath)
		}

		backupConfig := storage.DefaultBackupConfig()
		backupConfig.BackupDir = *backupDir
		backupConfig.BackupName = *backupName
		backupConfig.VerifyBackup = *verify
		if *encrypt {
			backupConfig.Encryption = storage.DefaultEncryptionConfig(passwordFromEnv(*passwordEnv))
		}

		fmt.Println("Creating backup...")
		backupPath, err := backupMgr.Backup(backupConfig)
		if err != nil {
			log.Fatalf("Error creating backup: %v", err)
		}

		fmt.Printf("✓ Backup created successfully: %s\n", backupPath)
		if info, err := os.Stat(backupPath); err == nil {
			fmt.Printf("  Size: %.2f MB\n", float64(info.Size())/(1024*1024))
		}

	case "restore":
		restoreFlags := flag.NewFlagSet("restore", flag.ExitOnError)
		passwordEnv := restoreFlags.String("password-env", "", "Environment variable containing decryption password")
		noConfirm := restoreFlags.Bool("yes", false, "Skip confirmation prompt")

		if err := restoreFlags.Parse(os.Args[3:]); err != nil {
			log.Fatalf("Error parsing flags: %v", err)
		}
		if restoreFlags.NArg() < 1 {
			fmt.Println("Error: restore command requires a backup file path")
			fmt.Println("Usage: commander-companion backup restore <backup-file> [flags]")
			os.Exit(1)
		}
		backupPath := restoreFlags.Arg(0)

		if !*noConfirm {
			fmt.Println("WARNING: This will overwrite the current database!")
			fmt.Printf("Database: %s\n", dbPath)
			fmt.Printf("Backup:   %s\n", backupPath)
			fmt.Print("\nAre you sure you want to continue? (yes/no): ")

			reader := bufio.NewReader(os.Stdin)
			response, err := reader.ReadString('\n')
			if err != nil {
				log.Fatalf("Error reading input: %v", err)
			}
			response = strings.TrimSpace(strings.ToLower(response))
			if response != "yes" && response != "y" {
				fmt.Println("Restore cancelled.")
				return
			}
		}

		var encryption *storage.EncryptionConfig
		if *passwordEnv != "" {
			encryption = storage.DefaultEncryptionConfig(passwordFromEnv(*passwordEnv))
		}

		fmt.Println("\nRestoring database from backup...")
		if err := backupMgr.Restore(backupPath, encryption); err != nil {
			log.Fatalf("Error restoring backup: %v", err)
		}
		fmt.Println("✓ Database restored successfully!")

	case "list", "ls":
		listFlags := flag.NewFlagSet("list", flag.ExitOnError)
		backupDir := listFlags.String("dir", os.Getenv("CMDR_BACKUP_DIR"), "Backup directory")

		if err := listFlags.Parse(os.Args[3:]); err != nil {
			log.Fatalf("Error parsing flags: %v", err)
		}

		dir := *backupDir
		if dir == "" {
			dir = backupMgr.GetBackupDir()
		}

		backups, err := backupMgr.ListBackups(dir)
		if err != nil {
			log.Fatalf("Error listing backups: %v", err)
		}
		if len(backups) == 0 {
			fmt.Println("No backups found.")
			return
		}

		fmt.Printf("\nFound %d backup(s) in %s:\n\n", len(backups), dir)
		for i, backup := range backups {
			fmt.Printf("%d. %s\n", i+1, backup.Name)
			fmt.Printf("   Size:     %.2f MB\n", float64(backup.Size)/(1024*1024))
			fmt.Printf("   Modified: %s\n", backup.ModTime.Format("2006-01-02 15:04:05"))
			fmt.Printf("   Checksum: %s\n", backup.Checksum)
			fmt.Println()
		}

	case "verify":
		if len(os.Args) < 4 {
			fmt.Println("Error: verify command requires a backup file path")
			fmt.Println("Usage: commander-companion backup verify <backup-file>")
			os.Exit(1)
		}
		backupPath := os.Args[3]

		fmt.Printf("Verifying backup: %s\n", backupPath)
		if err := backupMgr.VerifyBackup(backupPath); err != nil {
			log.Fatalf("Backup verification failed: %v", err)
		}
		fmt.Println("✓ Backup verification successful!")

	default:
		fmt.Printf("Unknown backup command: %s\n\n", os.Args[2])
		printBackupUsage()
		os.Exit(1)
	}
}

// passwordFromEnv reads an encryption password from the named
// environment variable.
func passwordFromEnv(envVar string) string {
	if envVar == "" {
		log.Fatal("Error: --password-env is required for encrypted backups")
	}
	password := os.Getenv(envVar)
	if password == "" {
		log.Fatalf("Error: environment variable %s is not set or empty", envVar)
	}
	return password
}

func printBackupUsage() {
	fmt.Println("Commander Companion - Database Backup Management")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  commander-companion backup <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  create     Create a new database backup")
	fmt.Println("  restore    Restore database from backup")
	fmt.Println("  list, ls   List all available backups")
	fmt.Println("  verify     Verify backup integrity")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  commander-companion backup create")
	fmt.Println("  CMDR_BACKUP_PWD=secret commander-companion backup create --encrypt --password-env CMDR_BACKUP_PWD")
	fmt.Println("  commander-companion backup restore backups/backup_20260101_120000.db")
	fmt.Println("  commander-companion backup list")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  CMDR_DB_PATH      Path to database file (default: ~/.commander-companion/collection.db)")
	fmt.Println("  CMDR_BACKUP_DIR   Backup directory (default: backups/ next to the database)")
}
