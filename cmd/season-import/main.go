package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/utakatalp/league-viewer/internal/config"
	"github.com/utakatalp/league-viewer/internal/store"
)

func main() {
	var (
		configPath string
		file       string
		name       string
		list       bool
		drop       bool
	)
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "Path to config file")
	flag.StringVar(&file, "file", "", "Season CSV to import (default: season.file from config)")
	flag.StringVar(&name, "season", "", "Season name (default: season.name from config)")
	flag.BoolVar(&list, "list", false, "List imported seasons and exit")
	flag.BoolVar(&drop, "drop", false, "Delete the season instead of importing it")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Postgres.DSN == "" {
		log.Fatalf("postgres.dsn (or POSTGRES_DSN) is required")
	}
	if file == "" {
		file = cfg.Season.File
	}
	if name == "" {
		name = cfg.Season.Name
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	st, err := store.NewStore(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	switch {
	case list:
		seasons, err := st.ListSeasons(ctx)
		if err != nil {
			log.Fatalf("Failed to list seasons: %v", err)
		}
		for _, s := range seasons {
			fmt.Println(s)
		}
	case drop:
		if err := st.DeleteSeason(ctx, name); err != nil {
			log.Fatalf("Failed to delete season: %v", err)
		}
		fmt.Printf("Deleted season %s\n", name)
	default:
		season, err := store.LoadFile(name, file)
		if err != nil {
			log.Fatalf("Failed to load season file: %v", err)
		}
		if err := st.ImportSeason(ctx, season); err != nil {
			log.Fatalf("Failed to import season: %v", err)
		}
		fmt.Printf("Imported %d matches into season %s\n", season.Len(), season.Name)
	}
}
