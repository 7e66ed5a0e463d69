package project

import "time"

// Project is the owning collection for a set of microscopy images.
type Project struct {
	ID          string    `gorm:"column:id;primaryKey" json:"id"`
	OwnerID     string    `gorm:"column:owner_id;index" json:"owner_id"`
	Name        string    `gorm:"column:name" json:"name"`
	Description string    `gorm:"column:description" json:"description"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Project) TableName() string { return "projects" }
