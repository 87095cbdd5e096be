package service

import (
	"go.uber.org/zap"

	"github.com/Bzrkr/raspisanie/config"
	"github.com/Bzrkr/raspisanie/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Schedule ScheduleService
}

// NewService 创建 Service 聚合
func NewService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) (*Service, error) {
	schedule, err := NewScheduleService(cfg, repo, logger)
	if err != nil {
		return nil, err
	}
	return &Service{Schedule: schedule}, nil
}
