package upload

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Repository interface {
	// Insert assigns ID and CreatedAt. Returns ErrDuplicateHash when another
	// record already holds the same content hash; the unique index makes
	// this atomic even when two inserts race.
	Insert(ctx context.Context, u *Upload) error
	// FindByHash returns ErrNotFound when no record holds the hash.
	FindByHash(ctx context.Context, hash string) (*Upload, error)
	FindByID(ctx context.Context, id int64) (*Upload, error)
	// Page returns records newest-first plus the total count for the same
	// owner filter, both read inside one transaction so the count stays
	// consistent with the items at boundary pages. A nil ownerID means no
	// filter (admin view).
	Page(ctx context.Context, ownerID *int64, offset, limit int) ([]Upload, int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, u *Upload) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateHash
		}
		return err
	}
	return nil
}

func (r *repository) FindByHash(ctx context.Context, hash string) (*Upload, error) {
	var u Upload
	err := r.db.WithContext(ctx).Where("content_hash = ?", hash).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) FindByID(ctx context.Context, id int64) (*Upload, error) {
	var u Upload
	err := r.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) Page(ctx context.Context, ownerID *int64, offset, limit int) ([]Upload, int64, error) {
	var items []Upload
	var total int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scoped := func() *gorm.DB {
			q := tx.Model(&Upload{})
			if ownerID != nil {
				q = q.Where("owner_id = ?", *ownerID)
			}
			return q
		}

		if err := scoped().Count(&total).Error; err != nil {
			return err
		}
		return scoped().
			Order("created_at DESC, id DESC").
			Offset(offset).
			Limit(limit).
			Find(&items).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
