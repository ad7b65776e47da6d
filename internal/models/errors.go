package models

// ValidationError 摄入载荷校验错误
// 在边界同步返回给调用方，载荷不会进入缓存
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
