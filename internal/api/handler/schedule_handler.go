package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Bzrkr/raspisanie/internal/dto"
	"github.com/Bzrkr/raspisanie/internal/service"
	pkgerrors "github.com/Bzrkr/raspisanie/pkg/errors"
	"github.com/Bzrkr/raspisanie/pkg/response"
)

// ScheduleHandler 教室课表 HTTP 处理器
type ScheduleHandler struct {
	scheduleSvc service.ScheduleService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(scheduleSvc service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleSvc: scheduleSvc}
}

// ListRooms 配置的教室列表
// GET /api/v1/rooms
func (h *ScheduleHandler) ListRooms(c *gin.Context) {
	response.OK(c, dto.RoomsResponse{Rooms: h.scheduleSvc.Rooms()})
}

// GetWeek 查询日期对应的教学周
// GET /api/v1/week?date=YYYY-MM-DD
func (h *ScheduleHandler) GetWeek(c *gin.Context) {
	var req dto.DateQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, response.CodeBadRequest, "参数校验失败")
		return
	}
	date, err := h.scheduleSvc.ParseDate(req.Date)
	if err != nil {
		response.BadRequest(c, response.CodeBadRequest, "日期格式应为 YYYY-MM-DD")
		return
	}

	week, err := h.scheduleSvc.GetWeek(c.Request.Context(), date)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}
	response.OK(c, week)
}

// GetSchedules 全部教室课表
// GET /api/v1/schedules?date=YYYY-MM-DD
func (h *ScheduleHandler) GetSchedules(c *gin.Context) {
	var req dto.DateQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, response.CodeBadRequest, "参数校验失败")
		return
	}
	date, err := h.scheduleSvc.ParseDate(req.Date)
	if err != nil {
		response.BadRequest(c, response.CodeBadRequest, "日期格式应为 YYYY-MM-DD")
		return
	}

	schedules, err := h.scheduleSvc.GetRoomSchedules(c.Request.Context(), date)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}
	response.OK(c, schedules)
}

// GetRoomSchedule 单个教室课表
// GET /api/v1/schedules/room?room=502-2 к.&date=YYYY-MM-DD
func (h *ScheduleHandler) GetRoomSchedule(c *gin.Context) {
	var req dto.RoomQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, response.CodeBadRequest, "教室不能为空")
		return
	}
	date, err := h.scheduleSvc.ParseDate(req.Date)
	if err != nil {
		response.BadRequest(c, response.CodeBadRequest, "日期格式应为 YYYY-MM-DD")
		return
	}

	room, err := h.scheduleSvc.GetRoomSchedule(c.Request.Context(), req.Room, date)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}
	response.OK(c, room)
}

// ExportText 纯文本导出
// GET /api/v1/schedules/text?date=YYYY-MM-DD
func (h *ScheduleHandler) ExportText(c *gin.Context) {
	var req dto.DateQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, response.CodeBadRequest, "参数校验失败")
		return
	}
	date, err := h.scheduleSvc.ParseDate(req.Date)
	if err != nil {
		response.BadRequest(c, response.CodeBadRequest, "日期格式应为 YYYY-MM-DD")
		return
	}

	text, err := h.scheduleSvc.ExportText(c.Request.Context(), date)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}
	response.Text(c, text)
}

// Share 导出文本及 Telegram 分享链接
// GET /api/v1/schedules/share?date=YYYY-MM-DD
func (h *ScheduleHandler) Share(c *gin.Context) {
	var req dto.DateQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, response.CodeBadRequest, "参数校验失败")
		return
	}
	date, err := h.scheduleSvc.ParseDate(req.Date)
	if err != nil {
		response.BadRequest(c, response.CodeBadRequest, "日期格式应为 YYYY-MM-DD")
		return
	}

	share, err := h.scheduleSvc.Share(c.Request.Context(), date)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}
	response.OK(c, share)
}

// ReloadSession 重新从上游加载课表
// POST /api/v1/session/reload
func (h *ScheduleHandler) ReloadSession(c *gin.Context) {
	result, err := h.scheduleSvc.Reload(c.Request.Context())
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}
	response.OK(c, result)
}

// handleScheduleError 统一处理课表模块业务错误
func (h *ScheduleHandler) handleScheduleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		response.NotFound(c, response.CodeRoomNotFound, err.Error())
	case errors.Is(err, service.ErrSessionUnavailable):
		response.ServiceUnavailable(c, response.CodeSessionUnavailable, err.Error(), "")
	case errors.Is(err, pkgerrors.ErrFetchFailed):
		response.ServiceUnavailable(c, response.CodeSessionUnavailable, "上游课表获取失败", err.Error())
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}
