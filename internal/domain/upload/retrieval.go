package upload

import (
	"context"
	"errors"
	"fmt"
	"io"

	"packetdrop/internal/domain"
	"packetdrop/internal/storage"

	"go.uber.org/zap"
)

const (
	DefaultPageSize = 25
	maxPageSize     = 100
)

type ListResult struct {
	Items    []Upload
	Total    int64
	Page     int
	PageSize int
}

// DownloadResult carries the blob stream plus the metadata the transport
// layer needs to serve it. The caller owns closing Content.
type DownloadResult struct {
	OriginalName string
	MimeType     string
	SizeBytes    int64
	Content      io.ReadCloser
}

// List returns the caller's page of the catalog, owner-filtered through the
// policy. page and pageSize are clamped rather than rejected. A caller whose
// identity no longer resolves gets an empty page, not an error: upstream
// auth vouched for the token, but the user row may have gone away since.
func (s *Service) List(ctx context.Context, caller domain.Caller, page, pageSize int) (*ListResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	empty := &ListResult{Items: []Upload{}, Total: 0, Page: page, PageSize: pageSize}

	ownerID, ok := s.policy.ListFilter(caller)
	if !ok {
		return empty, nil
	}

	exists, err := s.users.ExistsByID(ctx, caller.UserID())
	if err != nil {
		return nil, fmt.Errorf("resolve caller: %w", err)
	}
	if !exists {
		return empty, nil
	}

	items, total, err := s.repo.Page(ctx, ownerID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, fmt.Errorf("page uploads: %w", err)
	}
	if items == nil {
		items = []Upload{}
	}

	return &ListResult{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// Download resolves a record for the caller. A missing record and a record
// the caller may not read both come back as ErrNotFound with nothing to
// tell them apart. A record whose blob has vanished is ErrFileMissing — a
// corruption signal, logged loudly, distinct from any policy decision.
func (s *Service) Download(ctx context.Context, caller domain.Caller, id int64) (*DownloadResult, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find upload: %w", err)
	}

	if !s.policy.CanRead(caller, record) {
		return nil, ErrNotFound
	}

	rc, err := s.blobs.Open(ctx, record.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.log.Error("catalog record has no blob",
				zap.Int64("id", record.ID),
				zap.String("storage_key", record.StorageKey),
				zap.String("content_hash", record.ContentHash))
			return nil, ErrFileMissing
		}
		return nil, fmt.Errorf("open blob: %w", err)
	}

	return &DownloadResult{
		OriginalName: record.OriginalName,
		MimeType:     record.MimeType,
		SizeBytes:    record.SizeBytes,
		Content:      rc,
	}, nil
}
