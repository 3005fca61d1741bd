package upload

import (
	"context"
	"io"
	"strings"
	"testing"

	"packetdrop/internal/config"
	"packetdrop/internal/pkg/hashutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock collaborators

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Insert(ctx context.Context, u *Upload) error {
	args := m.Called(ctx, u)
	if args.Error(0) == nil {
		u.ID = 999 // simulate DB insert
	}
	return args.Error(0)
}

func (m *MockRepository) FindByHash(ctx context.Context, hash string) (*Upload, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Upload), args.Error(1)
}

func (m *MockRepository) FindByID(ctx context.Context, id int64) (*Upload, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Upload), args.Error(1)
}

func (m *MockRepository) Page(ctx context.Context, ownerID *int64, offset, limit int) ([]Upload, int64, error) {
	args := m.Called(ctx, ownerID, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]Upload), args.Get(1).(int64), args.Error(2)
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	args := m.Called(ctx, key, r, size)
	return args.Error(0)
}

func (m *MockStore) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) ExistsByID(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func newMockedService() (*Service, *MockRepository, *MockStore, *MockResolver) {
	repo := new(MockRepository)
	blobs := new(MockStore)
	users := new(MockResolver)
	svc := NewService(repo, blobs, users, NewPolicy(config.NewAdminRoster(nil)), nil)
	return svc, repo, blobs, users
}

func TestIngestSuccess(t *testing.T) {
	svc, repo, blobs, users := newMockedService()
	content := []byte("fresh archive bytes")
	wantHash := hashutil.Sum(content)
	seven := int64(7)

	repo.On("FindByHash", mock.Anything, wantHash).Return(nil, ErrNotFound)
	users.On("ExistsByID", mock.Anything, seven).Return(true, nil)
	blobs.On("Put", mock.Anything, mock.Anything, mock.Anything, int64(len(content))).Return(nil)
	repo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	record, err := svc.Ingest(context.Background(), IngestInput{
		Content:      content,
		OriginalName: "topology.pkt",
		MimeType:     "application/x-pkt",
		OwnerID:      &seven,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(999), record.ID)
	assert.Equal(t, "topology.pkt", record.OriginalName)
	assert.Equal(t, wantHash, record.ContentHash)
	assert.Equal(t, int64(len(content)), record.SizeBytes)
	assert.Equal(t, "application/x-pkt", record.MimeType)
	require.NotNil(t, record.OwnerID)
	assert.Equal(t, seven, *record.OwnerID)
	assert.True(t, strings.HasSuffix(record.StorageKey, ".pkt"))

	repo.AssertExpectations(t)
	blobs.AssertExpectations(t)
	blobs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestIngestDefaultsMimeType(t *testing.T) {
	svc, repo, blobs, _ := newMockedService()
	content := []byte("no declared mime")

	repo.On("FindByHash", mock.Anything, mock.Anything).Return(nil, ErrNotFound)
	blobs.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	repo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	record, err := svc.Ingest(context.Background(), IngestInput{
		Content:      content,
		OriginalName: "mystery.zip",
	})
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", record.MimeType)
	assert.Nil(t, record.OwnerID)
}

func TestIngestRejectsDisallowedExtension(t *testing.T) {
	svc, repo, blobs, _ := newMockedService()

	_, err := svc.Ingest(context.Background(), IngestInput{
		Content:      []byte("text"),
		OriginalName: "notes.txt",
	})
	assert.ErrorIs(t, err, ErrInvalidFileType)

	repo.AssertNotCalled(t, "FindByHash", mock.Anything, mock.Anything)
	blobs.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestRejectsMalformedClientHash(t *testing.T) {
	svc, repo, blobs, _ := newMockedService()

	for _, bad := range []string{
		strings.Repeat("a", 63),
		strings.Repeat("a", 65),
		strings.Repeat("g", 64),
	} {
		_, err := svc.Ingest(context.Background(), IngestInput{
			Content:      []byte("payload"),
			OriginalName: "a.zip",
			ClientHash:   bad,
		})
		assert.ErrorIs(t, err, ErrMalformedHash, "clientHash %q", bad)
	}

	// Malformed input is rejected before the catalog or store is touched.
	repo.AssertNotCalled(t, "FindByHash", mock.Anything, mock.Anything)
	blobs.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestAcceptsUppercaseClientHash(t *testing.T) {
	svc, repo, blobs, _ := newMockedService()
	content := []byte("case-folded hash")

	repo.On("FindByHash", mock.Anything, mock.Anything).Return(nil, ErrNotFound)
	blobs.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	repo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.Ingest(context.Background(), IngestInput{
		Content:      content,
		OriginalName: "a.zip",
		ClientHash:   "  " + strings.ToUpper(hashutil.Sum(content)) + "\n",
	})
	assert.NoError(t, err)
}

func TestIngestHashMismatchHasNoSideEffects(t *testing.T) {
	svc, repo, blobs, _ := newMockedService()
	content := []byte("actual bytes")

	_, err := svc.Ingest(context.Background(), IngestInput{
		Content:      content,
		OriginalName: "a.zip",
		ClientHash:   hashutil.Sum([]byte("different bytes")),
	})
	assert.ErrorIs(t, err, ErrHashMismatch)

	repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	blobs.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestDuplicatePreCheck(t *testing.T) {
	svc, repo, blobs, _ := newMockedService()
	content := []byte("already stored")

	repo.On("FindByHash", mock.Anything, hashutil.Sum(content)).
		Return(&Upload{ID: 1, ContentHash: hashutil.Sum(content)}, nil)

	_, err := svc.Ingest(context.Background(), IngestInput{
		Content:      content,
		OriginalName: "dupe.zip",
	})
	assert.ErrorIs(t, err, ErrDuplicateUpload)

	blobs.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestInsertRaceCleansUpBlob(t *testing.T) {
	// Two concurrent identical uploads both pass the pre-check; the unique
	// index lets only one row in. The loser must delete its orphaned blob
	// and surface the duplicate.
	svc, repo, blobs, _ := newMockedService()
	content := []byte("raced payload")

	repo.On("FindByHash", mock.Anything, mock.Anything).Return(nil, ErrNotFound)
	blobs.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	repo.On("Insert", mock.Anything, mock.Anything).Return(ErrDuplicateHash)
	blobs.On("Delete", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.Ingest(context.Background(), IngestInput{
		Content:      content,
		OriginalName: "raced.zip",
	})
	assert.ErrorIs(t, err, ErrDuplicateUpload)

	blobs.AssertCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestIngestCleanupFailureDoesNotMaskInsertError(t *testing.T) {
	svc, repo, blobs, _ := newMockedService()

	repo.On("FindByHash", mock.Anything, mock.Anything).Return(nil, ErrNotFound)
	blobs.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	repo.On("Insert", mock.Anything, mock.Anything).Return(ErrDuplicateHash)
	blobs.On("Delete", mock.Anything, mock.Anything).Return(assert.AnError)

	_, err := svc.Ingest(context.Background(), IngestInput{
		Content:      []byte("cleanup fails"),
		OriginalName: "a.zip",
	})
	assert.ErrorIs(t, err, ErrDuplicateUpload)
}

func TestIngestCatalogFailurePropagatesAfterCleanup(t *testing.T) {
	svc, repo, blobs, _ := newMockedService()

	repo.On("FindByHash", mock.Anything, mock.Anything).Return(nil, ErrNotFound)
	blobs.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	repo.On("Insert", mock.Anything, mock.Anything).Return(assert.AnError)
	blobs.On("Delete", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.Ingest(context.Background(), IngestInput{
		Content:      []byte("catalog down"),
		OriginalName: "a.zip",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NotErrorIs(t, err, ErrDuplicateUpload)

	blobs.AssertCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestIngestBlobWriteFailureInsertsNothing(t *testing.T) {
	svc, repo, blobs, _ := newMockedService()

	repo.On("FindByHash", mock.Anything, mock.Anything).Return(nil, ErrNotFound)
	blobs.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

	_, err := svc.Ingest(context.Background(), IngestInput{
		Content:      []byte("disk full"),
		OriginalName: "a.zip",
	})
	require.Error(t, err)

	repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestIngestDanglingOwnerStoredAsAnonymous(t *testing.T) {
	svc, repo, blobs, users := newMockedService()
	ghost := int64(404)

	repo.On("FindByHash", mock.Anything, mock.Anything).Return(nil, ErrNotFound)
	users.On("ExistsByID", mock.Anything, ghost).Return(false, nil)
	blobs.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	repo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	record, err := svc.Ingest(context.Background(), IngestInput{
		Content:      []byte("ghost owner"),
		OriginalName: "a.zip",
		OwnerID:      &ghost,
	})
	require.NoError(t, err)
	assert.Nil(t, record.OwnerID)
}

func TestIngestOwnerResolutionErrorDegradesToAnonymous(t *testing.T) {
	svc, repo, blobs, users := newMockedService()
	seven := int64(7)

	repo.On("FindByHash", mock.Anything, mock.Anything).Return(nil, ErrNotFound)
	users.On("ExistsByID", mock.Anything, seven).Return(false, assert.AnError)
	blobs.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	repo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	record, err := svc.Ingest(context.Background(), IngestInput{
		Content:      []byte("resolver down"),
		OriginalName: "a.zip",
		OwnerID:      &seven,
	})
	require.NoError(t, err)
	assert.Nil(t, record.OwnerID)
}

func TestCheckHashExists(t *testing.T) {
	svc, repo, _, _ := newMockedService()
	known := hashutil.Sum([]byte("known"))
	unknown := hashutil.Sum([]byte("unknown"))

	repo.On("FindByHash", mock.Anything, known).Return(&Upload{ID: 1}, nil)
	repo.On("FindByHash", mock.Anything, unknown).Return(nil, ErrNotFound)

	exists, err := svc.CheckHashExists(context.Background(), known)
	require.NoError(t, err)
	assert.True(t, exists)

	// Same answer on a repeat call with no intervening ingestion.
	exists, err = svc.CheckHashExists(context.Background(), strings.ToUpper(known))
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = svc.CheckHashExists(context.Background(), unknown)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCheckHashExistsMalformedIsFalseNotError(t *testing.T) {
	svc, repo, _, _ := newMockedService()

	for _, bad := range []string{"", "zz", strings.Repeat("a", 63)} {
		exists, err := svc.CheckHashExists(context.Background(), bad)
		require.NoError(t, err)
		assert.False(t, exists)
	}

	repo.AssertNotCalled(t, "FindByHash", mock.Anything, mock.Anything)
}
