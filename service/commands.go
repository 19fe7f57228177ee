package service

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"sakibee/app/config"

	"github.com/dgraph-io/badger/v4"
	"golang.org/x/crypto/bcrypt"
)

// Version is reported by the version command.
const Version = "1.0.0"

var osExit = os.Exit

// HandleCommand handles the sakibee subcommands and returns an exit code.
// A leading "--config <file>" selects the configuration file.
func HandleCommand(args []string) int {
	if len(args) >= 2 && args[0] == "--config" {
		configFile = args[1]
		args = args[2:]
	}
	if len(args) < 1 {
		printHelp()
		osExit(1)
		return 1
	}

	cmd := args[0]
	switch cmd {
	case "serve":
		return exit(RunAppServer(args[1:]))
	case "clean":
		return exit(withConfig(clean))
	case "init":
		return exit(withConfig(initDb))
	case "backup":
		return exit(withConfig(backup))
	case "restore":
		if len(args) < 2 {
			fmt.Println("Error: backup file path required for restore")
			osExit(1)
			return 1
		}
		return exit(withConfig(func(cfg *config.Config) int {
			return restore(cfg, args[1])
		}))
	case "hash-password":
		if len(args) < 2 {
			fmt.Println("Error: password required for hash-password")
			osExit(1)
			return 1
		}
		return exit(hashPassword(args[1]))
	case "version":
		fmt.Printf("sakibee version %s\n", Version)
		return 0
	case "help":
		printHelp()
		return 0
	default:
		fmt.Printf("Unknown command: %s\n\n", cmd)
		printHelp()
		osExit(1)
		return 1
	}
}

func exit(code int) int {
	if code != 0 {
		osExit(code)
	}
	return code
}

func withConfig(run func(cfg *config.Config) int) int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		return 1
	}
	return run(cfg)
}

// printHelp prints help for the subcommands.
func printHelp() {
	helpText := `Usage: sakibee [--config <file>] <command>

Commands:
  serve [addr]                    Run the blog service (default address from server.addr)
  init                            Create the schema and the sample data
  clean                           Remove the sqlite or badger database
  backup                          Create a backup of the badger database
  restore [file]                  Restore the badger database from a backup
  hash-password [password]        Print a bcrypt hash for auth.password_hash
  version                         Show version information
  help                            Display this help message
`
	fmt.Println(helpText)
}

// initDb creates and seeds the configured database.
func initDb(cfg *config.Config) int {
	if path, err := databasePath(cfg); err == nil {
		if _, err := os.Stat(path); err == nil {
			fmt.Println("Database already exists. Use 'clean' first if you want to reinitialize.")
			return 0
		}
	}

	repo, err := openRepository(cfg)
	if err != nil {
		fmt.Printf("Failed to initialize database: %v\n", err)
		return 1
	}
	defer repo.Close()

	fmt.Println("Database initialized successfully")
	return 0
}

// clean removes the database.
func clean(cfg *config.Config) int {
	path, err := databasePath(cfg)
	if err != nil {
		fmt.Printf("Cannot clean database: %v\n", err)
		return 1
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Println("Database is already clean (does not exist)")
		return 0
	}

	fmt.Print("Are you sure you want to clean the database? This cannot be undone. [y/N] ")
	var response string
	fmt.Scanln(&response)
	if response != "y" && response != "Y" {
		fmt.Println("Operation cancelled")
		return 0
	}

	if err := os.RemoveAll(path); err != nil {
		fmt.Printf("Failed to clean database: %v\n", err)
		return 1
	}
	fmt.Println("Database cleaned successfully")
	return 0
}

func badgerPath(cfg *config.Config) (string, bool) {
	if cfg.Database.Driver != "badger" {
		fmt.Printf("Backup and restore need the badger driver, configured driver is %s\n", cfg.Database.Driver)
		return "", false
	}
	path, err := databasePath(cfg)
	if err != nil {
		fmt.Printf("Cannot use database: %v\n", err)
		return "", false
	}
	return path, true
}

// backup creates a backup of the badger database.
func backup(cfg *config.Config) int {
	path, ok := badgerPath(cfg)
	if !ok {
		return 1
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Println("No database exists to backup")
		return 1
	}

	if err := os.MkdirAll(backupDir, 0755); err != nil {
		fmt.Printf("Failed to create backup directory: %v\n", err)
		return 1
	}

	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		return 1
	}
	defer db.Close()

	backupFile := filepath.Join(backupDir, fmt.Sprintf("backup_%d.db", time.Now().Unix()))
	f, err := os.Create(backupFile)
	if err != nil {
		fmt.Printf("Failed to create backup file: %v\n", err)
		return 1
	}
	defer f.Close()

	if _, err := db.Backup(f, 0); err != nil {
		fmt.Printf("Failed to backup database: %v\n", err)
		return 1
	}

	fmt.Printf("Database backed up successfully to %s\n", backupFile)
	return 0
}

// restore restores the badger database from a backup.
func restore(cfg *config.Config, backupFile string) int {
	path, ok := badgerPath(cfg)
	if !ok {
		return 1
	}

	fi, err := os.Stat(backupFile)
	if os.IsNotExist(err) {
		fmt.Printf("Backup file does not exist: %s\n", backupFile)
		return 1
	}
	if err != nil {
		fmt.Printf("Failed to stat backup file: %v\n", err)
		return 1
	}
	if fi.Size() == 0 {
		fmt.Printf("Backup file is empty: %s\n", backupFile)
		return 1
	}

	if _, err := os.Stat(path); err == nil {
		fmt.Print("Existing database found. Do you want to replace it? [y/N] ")
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Operation cancelled")
			return 1
		}
		if err := os.RemoveAll(path); err != nil {
			fmt.Printf("Failed to remove existing database: %v\n", err)
			return 1
		}
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		fmt.Printf("Failed to create database directory: %v\n", err)
		return 1
	}

	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		return 1
	}
	defer db.Close()

	f, err := os.Open(backupFile)
	if err != nil {
		fmt.Printf("Failed to open backup file: %v\n", err)
		return 1
	}
	defer f.Close()

	err = func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic occurred during restore: %v", r)
			}
		}()
		return db.Load(f, 4)
	}()
	if err != nil {
		fmt.Printf("Failed to restore database: %v\n", err)
		return 1
	}

	fmt.Println("Database restored successfully")
	return 0
}

// hashPassword prints the bcrypt hash to put into auth.password_hash.
func hashPassword(password string) int {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Printf("Failed to hash password: %v\n", err)
		return 1
	}
	fmt.Println(string(hash))
	return 0
}
