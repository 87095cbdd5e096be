package dto

// ── 教室课表模块 DTO ──

// DateQuery 按日期查询的参数，日期格式 YYYY-MM-DD，缺省为当天
type DateQuery struct {
	Date string `form:"date"`
}

// RoomQuery 单个教室查询参数
type RoomQuery struct {
	Room string `form:"room" binding:"required"`
	DateQuery
}

// ── 响应 ──

// WeekResponse 教学周查询响应
type WeekResponse struct {
	Date       string `json:"date"`
	Weekday    string `json:"weekday"`
	WeekNumber int    `json:"week_number"` // 未知时为 0
	WeekKnown  bool   `json:"week_known"`
	Label      string `json:"label"`
}

// GroupLink 学生组及其课表页面
type GroupLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// SlotResponse 单个时间段
type SlotResponse struct {
	Time        string      `json:"time"`
	Subject     string      `json:"subject"`
	Kind        string      `json:"kind"`
	Teacher     string      `json:"teacher"`
	Groups      []GroupLink `json:"groups"`
	Variant     string      `json:"variant"`
	Description string      `json:"description"`
}

// RoomScheduleResponse 单个教室当天的课表，slots 按时间标签升序
type RoomScheduleResponse struct {
	Room  string         `json:"room"`
	Slots []SlotResponse `json:"slots"`
}

// SchedulesResponse 全部教室课表，rooms 顺序与配置一致；教学周未知时为空
type SchedulesResponse struct {
	Week  WeekResponse           `json:"week"`
	Rooms []RoomScheduleResponse `json:"rooms"`
}

// ShareResponse 分享文本与 Telegram 链接
type ShareResponse struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// ReloadResponse 重新加载结果
type ReloadResponse struct {
	AnchorWeek     int    `json:"anchor_week"`
	AnchorDate     string `json:"anchor_date"`
	Teachers       int    `json:"teachers"`
	FailedTeachers int    `json:"failed_teachers"`
	LoadedAt       string `json:"loaded_at"`
}

// RoomsResponse 配置的教室列表
type RoomsResponse struct {
	Rooms []string `json:"rooms"`
}
