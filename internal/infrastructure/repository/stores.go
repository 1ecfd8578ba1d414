package repository

import (
	domain "github.com/classops/enrolsync/internal/domain/roster"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/gorm"
)

// StoreProvider hands out course-scoped stores for refresh runs.
type StoreProvider struct {
	db   *gorm.DB
	pool *pgxpool.Pool
}

func NewStoreProvider(db *gorm.DB, pool *pgxpool.Pool) *StoreProvider {
	return &StoreProvider{db: db, pool: pool}
}

func (p *StoreProvider) EnrollmentStore(courseID int64) domain.EnrollmentStore {
	return NewEnrollmentRepository(p.db, courseID)
}

func (p *StoreProvider) GroupStore(courseID int64) domain.GroupStore {
	return NewGroupRepository(p.pool, courseID)
}
