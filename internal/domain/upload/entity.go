package upload

import "time"

// Upload is the catalog record for one stored archive. The content hash is
// the dedup key: the unique index on it is what makes concurrent uploads of
// identical bytes safe, not any application-level check. Records are created
// once, together with their blob, and never updated; there is no delete path.
type Upload struct {
	ID           int64     `gorm:"column:id;primaryKey" json:"id"`
	OriginalName string    `gorm:"column:original_name" json:"original_name"`
	StorageKey   string    `gorm:"column:storage_key;uniqueIndex" json:"-"`
	MimeType     string    `gorm:"column:mime_type" json:"mime_type"`
	SizeBytes    int64     `gorm:"column:size" json:"size"`
	ContentHash  string    `gorm:"column:content_hash;uniqueIndex" json:"content_hash"`
	OwnerID      *int64    `gorm:"column:owner_id" json:"owner_id,omitempty"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Upload) TableName() string { return "uploads" }
