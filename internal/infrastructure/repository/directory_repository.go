package repository

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/classops/enrolsync/internal/domain/roster"
	"github.com/classops/enrolsync/internal/infrastructure/db/models"
	"gorm.io/gorm"
)

// DirectoryRepository resolves identity keys against the users table.
type DirectoryRepository struct {
	db *gorm.DB
}

func NewDirectoryRepository(db *gorm.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

func (r *DirectoryRepository) ResolveIdentity(ctx context.Context, variant domain.KeyVariant, value string) (domain.UserID, error) {
	column := "username"
	if variant == domain.KeyIDNumber {
		column = "idnumber"
	}

	var row models.User
	err := r.db.WithContext(ctx).
		Select("id").
		First(&row, column+" = ?", value).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, domain.ErrUnknownIdentity
		}
		return 0, fmt.Errorf("resolve %s %q: %w", column, value, err)
	}

	return domain.UserID(row.ID), nil
}
