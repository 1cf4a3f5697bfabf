// cmd/tools/catalog-importer/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"immunization-engine/internal/common/config"
	"immunization-engine/internal/common/database"
	"immunization-engine/internal/engine/catalog"
	"immunization-engine/internal/storage"
	"immunization-engine/pkg/catalogformat"
)

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	validateFile := validateCmd.String("file", "", "Path to catalog JSON file")

	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importFile := importCmd.String("file", "", "Path to catalog JSON file")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		if *validateFile == "" {
			fmt.Println("Error: -file is required for validate.")
			validateCmd.Usage()
			os.Exit(1)
		}
		cat, counts, err := loadCatalog(*validateFile)
		if err != nil {
			fmt.Printf("Catalog invalid: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Catalog OK: %d vaccines, %d entries, %d active schedule rows\n",
			counts[0], counts[1], cat.Len())

	case "import":
		importCmd.Parse(os.Args[2:])
		if *importFile == "" {
			fmt.Println("Error: -file is required for import.")
			importCmd.Usage()
			os.Exit(1)
		}
		if err := runImport(*importFile); err != nil {
			fmt.Printf("Import failed: %v\n", err)
			os.Exit(1)
		}

	default:
		help()
		os.Exit(1)
	}
}

// loadCatalog reads the file, schema-validates it, and runs the semantic
// catalog checks. Returns the built catalog plus vaccine/entry counts.
func loadCatalog(path string) (*catalog.Catalog, [2]int, error) {
	f, err := catalogformat.Load(path)
	if err != nil {
		return nil, [2]int{}, err
	}
	vaccines, entries := f.Models()
	cat, err := catalog.New(vaccines, entries)
	if err != nil {
		return nil, [2]int{}, err
	}
	return cat, [2]int{len(vaccines), len(entries)}, nil
}

func runImport(path string) error {
	f, err := catalogformat.Load(path)
	if err != nil {
		return err
	}
	vaccines, entries := f.Models()
	if _, err := catalog.New(vaccines, entries); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load: %w", err)
	}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return err
	}
	defer pg.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := pg.Ping(ctx); err != nil {
		return err
	}

	seeded, err := storage.NewPostgresSchedule(pg.DB).Seed(ctx, vaccines, entries)
	if err != nil {
		return err
	}
	if !seeded {
		fmt.Println("Schedule already present, nothing imported.")
		return nil
	}
	fmt.Printf("Imported %d vaccines and %d schedule entries (version %s)\n",
		len(vaccines), len(entries), f.Version)
	return nil
}

func help() {
	fmt.Println("Usage: catalog-importer <command> [flags]")
	fmt.Println("Commands:")
	fmt.Println("  validate -file <path>   Validate a catalog JSON file")
	fmt.Println("  import   -file <path>   Validate and load the catalog into the database")
}
