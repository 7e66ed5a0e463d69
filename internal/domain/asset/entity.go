package asset

import "time"

// Status is the analysis lifecycle of an asset. It is set to
// StatusUnprocessed at creation and owned by the segmentation pipeline
// afterwards; the storage core never advances it.
type Status string

const (
	StatusUnprocessed Status = "unprocessed"
	StatusQueued      Status = "queued"
	StatusProcessing  Status = "processing"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusUnprocessed, StatusQueued, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Asset is one stored microscopy image and its derived preview. Storage
// and thumbnail paths are store-relative strings; translating them to
// filesystem locations is the Translator's job, and a row must never
// reference a location outside the blob root.
type Asset struct {
	ID            string    `gorm:"column:id;primaryKey" json:"id"`
	ProjectID     string    `gorm:"column:project_id;index" json:"project_id"`
	OwnerID       string    `gorm:"column:owner_id;index" json:"owner_id"`
	Name          string    `gorm:"column:name" json:"name"`
	StoragePath   string    `gorm:"column:storage_path" json:"storage_path"`
	ThumbnailPath string    `gorm:"column:thumbnail_path" json:"thumbnail_path,omitempty"`
	Width         int       `gorm:"column:width" json:"width"`
	Height        int       `gorm:"column:height" json:"height"`
	OriginalSize  int64     `gorm:"column:original_size" json:"original_size"`
	OriginalMime  string    `gorm:"column:original_mime" json:"original_mime"`
	StoredSize    int64     `gorm:"column:stored_size" json:"stored_size"`
	Status        Status    `gorm:"column:status;default:unprocessed" json:"status"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Asset) TableName() string { return "assets" }

// Segmentation is the per-asset analysis record. The storage core only
// creates the stub at ingestion and deletes it, child before parent, at
// retirement; everything else belongs to the analysis worker.
type Segmentation struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	AssetID   string    `gorm:"column:asset_id;index" json:"asset_id"`
	MaskPath  string    `gorm:"column:mask_path" json:"mask_path,omitempty"`
	TaskID    string    `gorm:"column:task_id" json:"task_id,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Segmentation) TableName() string { return "segmentations" }

// OwnerQuota pairs a consumed-bytes counter with a per-owner ceiling.
// The counter is best-effort: it moves only on committed batches and
// completed retirements and may drift from the true stored total until an
// explicit recomputation.
type OwnerQuota struct {
	OwnerID    string    `gorm:"column:owner_id;primaryKey" json:"owner_id"`
	UsedBytes  int64     `gorm:"column:used_bytes" json:"used_bytes"`
	LimitBytes int64     `gorm:"column:limit_bytes" json:"limit_bytes"`
	UpdatedAt  time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (OwnerQuota) TableName() string { return "owner_quotas" }
