package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/ikkim/videokb-backend/config"
	"github.com/ikkim/videokb-backend/internal/app/model"
	"github.com/ikkim/videokb-backend/internal/app/repository"
	"github.com/ikkim/videokb-backend/internal/app/service"
	"github.com/ikkim/videokb-backend/internal/db"
	"gorm.io/gorm"
)

func main() {
	// 命令列參數
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path>")
	}

	filePath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	rows, err := readVideosFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Total videos to import: %d\n", len(rows))

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	tagRepo := repository.NewTagRepository(db.GetDB())
	videoRepo := repository.NewVideoRepository(db.GetDB())
	tagService := service.NewTagService(tagRepo, videoRepo, service.DefaultPageLimits)
	// The server rebuilds the search index on startup
	videoService := service.NewVideoService(videoRepo, tagService, nil)

	imp := &importer{
		videos: videoService,
		tags:   tagService,
		findTag: func(name string) (*model.Tag, error) {
			tag, err := tagRepo.FindByName(name)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return tag, err
		},
	}

	summary := imp.run(rows)

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Videos imported: %d\n", summary.videos)
	fmt.Printf("  Tag relations: %d\n", summary.relations)
	fmt.Printf("  Failed rows: %d\n", summary.failed)
}
