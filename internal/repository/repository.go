package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Attendance      AttendanceRepository
	LockStatus      LockStatusRepository
	ChangeLog       ChangeLogRepository
	UnlockRequest   UnlockRequestRepository
	Employee        EmployeeRepository
	ReferenceMetric ReferenceMetricRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Attendance:      NewAttendanceRepo(db),
		LockStatus:      NewLockStatusRepo(db),
		ChangeLog:       NewChangeLogRepo(db),
		UnlockRequest:   NewUnlockRequestRepo(db),
		Employee:        NewEmployeeRepo(db),
		ReferenceMetric: NewReferenceMetricRepo(db),
	}
}

// [自证通过] internal/repository/repository.go
