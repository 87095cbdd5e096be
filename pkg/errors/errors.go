package errors

import "errors"

// 跨层共享的错误分类，使用 errors.Is 判断

var (
	// ErrFetchFailed 上游接口请求失败（网络错误或非 2xx 状态码）
	ErrFetchFailed = errors.New("上游数据获取失败")
	// ErrWeekUnknown 当前教学周未知，无法推算目标日期的周次
	ErrWeekUnknown = errors.New("教学周未知")
	// ErrMalformedRecord 课程记录缺少必要字段，仅记录日志，永不匹配
	ErrMalformedRecord = errors.New("课程记录格式不完整")
)
