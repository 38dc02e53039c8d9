package model

import "errors"

// 仓储层与服务层共用的错误类型，路由层据此决定状态码
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
)

// ClampAdd 计数器加上 delta，结果不小于 0
func ClampAdd(v, delta int64) int64 {
	v += delta
	if v < 0 {
		return 0
	}
	return v
}
