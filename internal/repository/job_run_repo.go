package repository

import (
	"context"

	"stonks-manager/internal/model"
	"stonks-manager/pkg/utils"

	"gorm.io/gorm"
)

type JobRunRepository interface {
	Started(ctx context.Context, run *model.JobRun) error
	Finished(ctx context.Context, run *model.JobRun) error
	FindByJobID(ctx context.Context, jobID string, opts ...utils.DBOption) ([]model.JobRun, error)
}

type jobRunRepository struct {
	db *gorm.DB
}

func NewJobRunRepository(db *gorm.DB) JobRunRepository {
	return &jobRunRepository{db: db}
}

func (r *jobRunRepository) Started(ctx context.Context, run *model.JobRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *jobRunRepository) Finished(ctx context.Context, run *model.JobRun) error {
	return r.db.WithContext(ctx).Updates(run).Error
}

func (r *jobRunRepository) FindByJobID(ctx context.Context, jobID string, opts ...utils.DBOption) ([]model.JobRun, error) {
	var runs []model.JobRun
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("job_id = ?", jobID).
		Order("created_at DESC").
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}
