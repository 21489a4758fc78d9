package journal

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Skirmish/modules/kit/errx"
)

var ErrStoreUnavailable = errx.NewSys(errx.CodeUnavailable, "审计日志存储不可用")

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Migrate() error {
	if err := r.db.AutoMigrate(&Record{}); err != nil {
		return ErrStoreUnavailable.WithData("table", Record{}.TableName()).WithCause(err)
	}
	return nil
}

// SaveBatch 主键冲突时忽略，重试安全。
func (r *GormRepository) SaveBatch(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(records, len(records)).Error
	if err != nil {
		return ErrStoreUnavailable.WithData("batch", len(records)).WithCause(err)
	}
	return nil
}
