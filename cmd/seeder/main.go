package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/safeguardai/console/internal/config"
	"github.com/safeguardai/console/internal/database"
	"github.com/safeguardai/console/internal/directory"
	"github.com/safeguardai/console/internal/rbac"
	"gopkg.in/yaml.v3"
)

type SeedData struct {
	Users   []User   `yaml:"users"`
	Invites []Invite `yaml:"invites"`
}

type User struct {
	UID    string `yaml:"uid"`
	Name   string `yaml:"name"`
	Email  string `yaml:"email"`
	Role   string `yaml:"role"`
	Status string `yaml:"status"`
}

type Invite struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	Role  string `yaml:"role"`
}

func main() {
	_ = godotenv.Load()

	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if len(os.Args) < 2 {
		printUsage()
		return errors.New("command required")
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "seed":
		return seedCommand(args)
	case "nuke":
		return nukeCommand(args)
	case "help", "--help", "-h":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func seedCommand(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	file := fs.String("file", "", "YAML file to seed from")
	dir := fs.String("dir", "", "Directory of YAML files to seed from")
	dryRun := fs.Bool("dry-run", false, "Validate files without making database changes")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	files, err := resolveFiles(*file, *dir)
	if err != nil {
		return err
	}

	seedData, err := loadSeedData(files)
	if err != nil {
		return fmt.Errorf("failed to load seed data: %w", err)
	}

	if err := validateSeedData(seedData); err != nil {
		return err
	}
	if *dryRun {
		fmt.Println("dry run: data structure is valid")
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	seedDB, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer seedDB.Close()

	if err := seedDB.Migrate(); err != nil {
		return err
	}

	fmt.Printf("seeding directory from %d file(s)\n", len(files))
	return applySeedData(context.Background(), seedDB.Users(), seedData)
}

func nukeCommand(args []string) error {
	fs := flag.NewFlagSet("nuke", flag.ExitOnError)
	force := fs.Bool("force", false, "Skip confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	if !*force && !confirmNuke() {
		fmt.Println("operation cancelled")
		return nil
	}

	return nukeDatabase()
}

func resolveFiles(file, dir string) ([]string, error) {
	if file == "" && dir == "" {
		return nil, errors.New("must specify either --file or --dir")
	}

	if file != "" && dir != "" {
		return nil, errors.New("cannot specify both --file and --dir")
	}

	if file != "" {
		return []string{file}, nil
	}

	return findYAMLFiles(dir)
}

func findYAMLFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() && isYAMLFile(path) {
			files = append(files, path)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to scan directory %s: %w", dir, err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no YAML files found in directory: %s", dir)
	}

	return files, nil
}

func isYAMLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func loadSeedData(files []string) (*SeedData, error) {
	combined := &SeedData{}

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", file, err)
		}

		var fileData SeedData
		if err := yaml.Unmarshal(data, &fileData); err != nil {
			return nil, fmt.Errorf("failed to parse YAML in %s: %w", file, err)
		}

		combined.Users = append(combined.Users, fileData.Users...)
		combined.Invites = append(combined.Invites, fileData.Invites...)
	}

	return combined, nil
}

func validateSeedData(data *SeedData) error {
	fmt.Printf("  Users: %d\n", len(data.Users))
	fmt.Printf("  Invites: %d\n", len(data.Invites))

	for _, user := range data.Users {
		if user.Email == "" {
			return errors.New("every user needs an email")
		}
		if !rbac.ValidRole(rbac.Role(roleOrDefault(user.Role))) {
			return fmt.Errorf("user %s has unknown role %q", user.Email, user.Role)
		}
	}
	for _, invite := range data.Invites {
		if invite.Email == "" {
			return errors.New("every invite needs an email")
		}
		if !rbac.ValidRole(rbac.Role(roleOrDefault(invite.Role))) {
			return fmt.Errorf("invite %s has unknown role %q", invite.Email, invite.Role)
		}
	}
	return nil
}

func roleOrDefault(role string) string {
	if role == "" {
		return string(rbac.RoleViewer)
	}
	return role
}

func applySeedData(ctx context.Context, users directory.Store, data *SeedData) error {
	now := time.Now().UTC()

	for _, user := range data.Users {
		uid := user.UID
		if uid == "" {
			uid = uuid.New().String()
		}
		status := user.Status
		if status == "" {
			status = directory.StatusActive
		}

		rec := &directory.UserRecord{
			UID:       uid,
			Name:      user.Name,
			Email:     user.Email,
			Role:      rbac.Role(roleOrDefault(user.Role)),
			Status:    status,
			CreatedAt: now,
		}
		if err := users.Create(ctx, rec); err != nil {
			return fmt.Errorf("failed to create user %s: %w", user.Email, err)
		}
		fmt.Printf("created user: %s (%s)\n", user.Email, rec.Role)
	}

	for _, invite := range data.Invites {
		rec := &directory.UserRecord{
			UID:       directory.InviteUID(invite.Email),
			Name:      invite.Name,
			Email:     invite.Email,
			Role:      rbac.Role(roleOrDefault(invite.Role)),
			Status:    directory.StatusActive,
			CreatedAt: now,
			IsInvite:  true,
		}
		if err := users.Create(ctx, rec); err != nil {
			return fmt.Errorf("failed to create invite %s: %w", invite.Email, err)
		}
		fmt.Printf("created invite: %s (%s)\n", invite.Email, rec.Role)
	}

	fmt.Println("seeding completed")
	return nil
}

func nukeDatabase() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	sqlDB, err := goose.OpenDBWithDriver("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			fmt.Printf("warning: failed to close database: %v\n", err)
		}
	}()

	fmt.Println("resetting database with goose...")

	fmt.Println("rolling back all migrations...")
	if err := goose.Reset(sqlDB, "internal/database/migrations"); err != nil {
		return fmt.Errorf("failed to reset migrations: %w", err)
	}

	fmt.Println("applying all migrations...")
	if err := goose.Up(sqlDB, "internal/database/migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	fmt.Println("database reset complete - ready for seeding")
	return nil
}

func confirmNuke() bool {
	fmt.Print("warning: this will delete all data from the database. are you sure? (yes/no): ")

	var response string
	if _, err := fmt.Scanln(&response); err != nil {
		return false
	}

	return strings.ToLower(strings.TrimSpace(response)) == "yes"
}

func printUsage() {
	fmt.Println("Seeder Tool - Directory seeding utility for SafeGuard Console")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  seeder <command> [flags]")
	fmt.Println()
	fmt.Println("COMMANDS:")
	fmt.Println("  seed        Seed the user directory from YAML files")
	fmt.Println("  nuke        Delete all data from the database")
	fmt.Println("  help        Show this help message")
	fmt.Println()
	fmt.Println("SEED FLAGS:")
	fmt.Println("  --file      Path to a single YAML file")
	fmt.Println("  --dir       Path to directory containing YAML files")
	fmt.Println("  --dry-run   Validate files without making database changes")
	fmt.Println()
	fmt.Println("NUKE FLAGS:")
	fmt.Println("  --force     Skip confirmation prompt")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  seeder seed --file dev-users.yaml")
	fmt.Println("  seeder seed --dir ./seed-data/")
	fmt.Println("  seeder seed --dir ./seed-data/ --dry-run")
	fmt.Println("  seeder nuke")
	fmt.Println("  seeder nuke --force")
}
