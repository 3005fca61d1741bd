package upload

import "time"

type CheckHashRequest struct {
	Hash string `json:"hash" binding:"required"`
}

type CheckHashResponse struct {
	Exists bool `json:"exists"`
}

type UploadResponse struct {
	ID           int64     `json:"id"`
	OriginalName string    `json:"original_name"`
	SizeBytes    int64     `json:"size"`
	ContentHash  string    `json:"content_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

type ListItem struct {
	ID           int64     `json:"id"`
	OriginalName string    `json:"original_name"`
	SizeBytes    int64     `json:"size"`
	MimeType     string    `json:"mime_type"`
	OwnerID      *int64    `json:"owner_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type ListResponse struct {
	Items    []ListItem `json:"items"`
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}
