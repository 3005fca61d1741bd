package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"packetdrop/internal/pkg/hashutil"
	"packetdrop/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultMimeType = "application/octet-stream"

// IdentityResolver checks caller-supplied owner ids against the user store.
// An id that does not resolve is stored as no owner at all — a dangling
// reference must never be treated as authorized later.
type IdentityResolver interface {
	ExistsByID(ctx context.Context, id int64) (bool, error)
}

// Service runs the ingestion pipeline and the access-controlled retrieval
// paths over the catalog and the blob store.
type Service struct {
	repo   Repository
	blobs  storage.Store
	users  IdentityResolver
	policy *Policy
	log    *zap.Logger
}

func NewService(repo Repository, blobs storage.Store, users IdentityResolver, policy *Policy, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, blobs: blobs, users: users, policy: policy, log: log}
}

// IngestInput is one upload attempt. ClientHash is optional; when present
// it is only an integrity cross-check, never the stored identity. OwnerID
// is the pre-resolved caller id, nil for anonymous submissions.
type IngestInput struct {
	Content      []byte
	OriginalName string
	MimeType     string
	ClientHash   string
	OwnerID      *int64
}

// Ingest validates, hashes, deduplicates and stores one upload. On success
// exactly one blob and one catalog row exist; on any failure neither does
// (a blob written before a failed insert is deleted best-effort).
func (s *Service) Ingest(ctx context.Context, in IngestInput) (*Upload, error) {
	ext, err := classifyName(in.OriginalName, int64(len(in.Content)))
	if err != nil {
		return nil, err
	}

	clientHash := hashutil.Normalize(in.ClientHash)
	if clientHash != "" && !hashutil.IsDigest(clientHash) {
		return nil, ErrMalformedHash
	}

	// The server-side digest is authoritative. The client digest only
	// catches truncation or corruption in transit, before anything durable
	// happens.
	serverHash := hashutil.Sum(in.Content)
	if clientHash != "" && clientHash != serverHash {
		return nil, ErrHashMismatch
	}

	// Courtesy pre-check. The real dedup guarantee is the unique index hit
	// in Insert below; this just avoids a pointless blob write.
	if _, err := s.repo.FindByHash(ctx, serverHash); err == nil {
		return nil, ErrDuplicateUpload
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("dedup pre-check: %w", err)
	}

	owner := s.resolveOwner(ctx, in.OwnerID)

	mimeType := in.MimeType
	if mimeType == "" {
		mimeType = defaultMimeType
	}

	key := uuid.NewString() + ext
	if err := s.blobs.Put(ctx, key, bytes.NewReader(in.Content), int64(len(in.Content))); err != nil {
		return nil, fmt.Errorf("store blob: %w", err)
	}

	record := &Upload{
		OriginalName: in.OriginalName,
		StorageKey:   key,
		MimeType:     mimeType,
		SizeBytes:    int64(len(in.Content)),
		ContentHash:  serverHash,
		OwnerID:      owner,
	}

	if err := s.repo.Insert(ctx, record); err != nil {
		// The blob is already on disk; without its row it is an orphan.
		// Cleanup failure is logged, never allowed to mask the insert error.
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			s.log.Warn("orphaned blob cleanup failed",
				zap.String("storage_key", key),
				zap.Error(delErr))
		}
		if errors.Is(err, ErrDuplicateHash) {
			return nil, ErrDuplicateUpload
		}
		return nil, fmt.Errorf("insert upload record: %w", err)
	}

	s.log.Info("upload ingested",
		zap.Int64("id", record.ID),
		zap.String("content_hash", serverHash),
		zap.Int64("size", record.SizeBytes))

	return record, nil
}

// CheckHashExists is the advisory pre-flight dedup probe. Malformed input
// answers false rather than erroring: the caller is about to upload anyway,
// and ingestion will do the strict validation.
func (s *Service) CheckHashExists(ctx context.Context, hash string) (bool, error) {
	normalized := hashutil.Normalize(hash)
	if !hashutil.IsDigest(normalized) {
		return false, nil
	}
	if _, err := s.repo.FindByHash(ctx, normalized); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Service) resolveOwner(ctx context.Context, id *int64) *int64 {
	if id == nil || *id <= 0 {
		return nil
	}
	exists, err := s.users.ExistsByID(ctx, *id)
	if err != nil {
		s.log.Warn("owner resolution failed, storing upload as anonymous",
			zap.Int64("owner_id", *id),
			zap.Error(err))
		return nil
	}
	if !exists {
		return nil
	}
	return id
}
