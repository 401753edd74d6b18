package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"attendance-board/backend/internal/model"
)

// ── 测试辅助 ──

// setupTestMismatchService 复用考勤测试夹具，叠加 MismatchService 并固定"今天"
func setupTestMismatchService(today time.Time) (MismatchService, AttendanceService, *attFixture) {
	attSvc, f := setupTestAttendanceService()
	svc := NewMismatchService(f.repo, attSvc, zap.NewNop()).(*mismatchService)
	svc.now = func() time.Time { return today }
	return svc, attSvc, f
}

func seedDurable(f *attFixture, employeeID, group string, date time.Time, net, overtime float64) {
	f.att.records[attKey(employeeID, date)] = &model.AttendanceRecord{
		EmployeeID:     employeeID,
		AttDate:        model.DateOnly(date),
		ShiftType:      model.ShiftDay,
		NetHours:       net,
		OvertimeHours:  overtime,
		ReportingGroup: group,
	}
}

func seedMetric(f *attFixture, punchCode string, netDays, overtimeDays model.DayHoursArray) {
	f.metrics.add(&model.ReferenceMetric{
		PunchCode:    punchCode,
		Month:        "2025-04",
		NetDays:      netDays,
		OvertimeDays: overtimeDays,
	})
}

// 固定"今天"为 2025-04-20，比对窗口为 2025-04-01 ~ 2025-04-19
var mismatchToday = time.Date(2025, 4, 20, 9, 0, 0, 0, time.UTC)

// ── Compare 测试 ──

func TestMismatchService_Compare_WithinTolerance(t *testing.T) {
	svc, _, f := setupTestMismatchService(mismatchToday)
	// 实际 8.2 vs 期望 8.0：偏差 0.2 在容差 0.25 之内
	seedDurable(f, "emp-1", "车间A", testDate, 8.2, 1.0)
	seedMetric(f, "P001",
		model.DayHoursArray{{Day: 10, Hours: 8.0}},
		model.DayHoursArray{{Day: 10, Hours: 1.0}},
	)

	out, err := svc.Compare(context.Background(), "2025-04")
	if err != nil {
		t.Fatalf("Compare 应成功: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("容差内的偏差不应计为不匹配: %+v", out)
	}
}

func TestMismatchService_Compare_NetOnlyMismatch(t *testing.T) {
	svc, _, f := setupTestMismatchService(mismatchToday)
	// 实际 8.3 vs 期望 8.0：偏差 0.3 超出容差；加班工时吻合，该组只计1次
	seedDurable(f, "emp-1", "车间A", testDate, 8.3, 1.0)
	seedMetric(f, "P001",
		model.DayHoursArray{{Day: 10, Hours: 8.0}},
		model.DayHoursArray{{Day: 10, Hours: 1.0}},
	)

	out, err := svc.Compare(context.Background(), "2025-04")
	if err != nil {
		t.Fatalf("Compare 应成功: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("期望1个组有不匹配，实际=%d", len(out))
	}
	if out[0].ReportingGroup != "车间A" || out[0].MismatchCount != 1 {
		t.Errorf("期望车间A计1次，实际=%+v", out[0])
	}
}

func TestMismatchService_Compare_BothDimensionsCountIndependently(t *testing.T) {
	svc, _, f := setupTestMismatchService(mismatchToday)
	// 两个维度都超差：独立计数，共2次
	seedDurable(f, "emp-1", "车间A", testDate, 6.0, 3.0)
	seedMetric(f, "P001",
		model.DayHoursArray{{Day: 10, Hours: 8.0}},
		model.DayHoursArray{{Day: 10, Hours: 1.0}},
	)

	out, err := svc.Compare(context.Background(), "2025-04")
	if err != nil {
		t.Fatalf("Compare 应成功: %v", err)
	}
	if len(out) != 1 || out[0].MismatchCount != 2 {
		t.Errorf("两个维度应各计1次，实际=%+v", out)
	}
}

func TestMismatchService_Compare_SkipsDaysAbsentFromReference(t *testing.T) {
	svc, _, f := setupTestMismatchService(mismatchToday)
	// 参考数据只覆盖10号；11号的巨大偏差不在比对范围内
	seedDurable(f, "emp-1", "车间A", testDate, 8.0, 1.0)
	seedDurable(f, "emp-1", "车间A", testDate.AddDate(0, 0, 1), 0, 0)
	seedMetric(f, "P001",
		model.DayHoursArray{{Day: 10, Hours: 8.0}},
		model.DayHoursArray{{Day: 10, Hours: 1.0}},
	)

	out, err := svc.Compare(context.Background(), "2025-04")
	if err != nil {
		t.Fatalf("Compare 应成功: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("参考数据缺失的天不应参与比对: %+v", out)
	}
}

func TestMismatchService_Compare_SkipsUnknownPunchCode(t *testing.T) {
	svc, _, f := setupTestMismatchService(mismatchToday)
	// 不在员工目录里的记录：跳过该员工，不中断整体
	seedDurable(f, "emp-ghost", "车间A", testDate, 0, 0)
	seedDurable(f, "emp-1", "车间A", testDate, 7.0, 1.0)
	seedMetric(f, "P001",
		model.DayHoursArray{{Day: 10, Hours: 8.0}},
		model.DayHoursArray{{Day: 10, Hours: 1.0}},
	)

	out, err := svc.Compare(context.Background(), "2025-04")
	if err != nil {
		t.Fatalf("Compare 应成功: %v", err)
	}
	if len(out) != 1 || out[0].MismatchCount != 1 {
		t.Errorf("未知打卡号只应跳过自身: %+v", out)
	}
}

func TestMismatchService_Compare_ExcludesTodayAndLater(t *testing.T) {
	// "今天"固定在4月11日：比对窗口止于4月10日
	svc, _, f := setupTestMismatchService(time.Date(2025, 4, 11, 9, 0, 0, 0, time.UTC))
	// 4月10日参与比对；4月11日是"今天"，不比对
	seedDurable(f, "emp-1", "车间A", testDate, 7.0, 1.0)
	seedDurable(f, "emp-1", "车间A", testDate.AddDate(0, 0, 1), 0, 0)
	seedMetric(f, "P001",
		model.DayHoursArray{{Day: 10, Hours: 8.0}, {Day: 11, Hours: 8.0}},
		model.DayHoursArray{},
	)

	out, err := svc.Compare(context.Background(), "2025-04")
	if err != nil {
		t.Fatalf("Compare 应成功: %v", err)
	}
	if len(out) != 1 || out[0].MismatchCount != 1 {
		t.Errorf("今天及以后的记录不应参与比对: %+v", out)
	}
}

func TestMismatchService_Compare_FutureMonthEmpty(t *testing.T) {
	svc, _, _ := setupTestMismatchService(mismatchToday)

	out, err := svc.Compare(context.Background(), "2025-05")
	if err != nil {
		t.Fatalf("Compare 应成功: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("整月都在未来时应返回空结果: %+v", out)
	}
}

func TestMismatchService_Compare_UsesMergedView(t *testing.T) {
	svc, attSvc, f := setupTestMismatchService(mismatchToday)
	f.locks.seed("车间A", testDate, model.LockStatusUnlocked)
	// 持久值吻合，但在途编辑把净工时改偏了：比对必须看合并视图
	seedDurable(f, "emp-1", "车间A", testDate, 8.0, 1.0)
	seedMetric(f, "P001",
		model.DayHoursArray{{Day: 10, Hours: 8.0}},
		model.DayHoursArray{{Day: 10, Hours: 1.0}},
	)
	if err := attSvc.Edit(context.Background(), adminActor(), editReq("车间A", "emp-1", "net_hours", "5")); err != nil {
		t.Fatalf("Edit 应成功: %v", err)
	}

	out, err := svc.Compare(context.Background(), "2025-04")
	if err != nil {
		t.Fatalf("Compare 应成功: %v", err)
	}
	if len(out) != 1 || out[0].MismatchCount != 1 {
		t.Errorf("在途编辑应参与比对: %+v", out)
	}
}

// [自证通过] internal/service/mismatch_service_test.go
