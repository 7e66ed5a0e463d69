package main

import (
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"spheroseg/internal/database"
	"spheroseg/internal/domain/asset"
	"spheroseg/internal/domain/project"
)

// Seeds a local sqlite database with a demo owner, projects and a quota
// row so the API can be exercised without a running frontend.
func main() {
	db, err := database.Connect("spheroseg.db")
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	ownerID := "00000000-0000-0000-0000-000000000001"

	quota := asset.OwnerQuota{
		OwnerID:    ownerID,
		UsedBytes:  0,
		LimitBytes: 1 << 30, // 1 GiB for local experiments
		UpdatedAt:  time.Now(),
	}
	if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&quota).Error; err != nil {
		log.Fatal("seed quota failed:", err)
	}

	names := []string{"HeLa spheroids", "MCF-7 batch 12", "Calibration slides"}
	for _, name := range names {
		p := project.Project{
			ID:        uuid.New().String(),
			OwnerID:   ownerID,
			Name:      name,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&p).Error; err != nil {
			log.Fatal("seed project failed:", err)
		}
		log.Printf("project %q -> %s", name, p.ID)
	}

	log.Printf("seed completed: owner=%s projects=%d", ownerID, len(names))
}
