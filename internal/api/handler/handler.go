package handler

import "github.com/Bzrkr/raspisanie/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Schedule *ScheduleHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Schedule: NewScheduleHandler(svc.Schedule),
	}
}
