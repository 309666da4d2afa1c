package errors

import "errors"

// ErrPersistInFlight 同一数据集已有保存操作进行中：
// 两次并发保存会竞争覆盖 lastUpdated，后到者直接拒绝，不排队、不交错
var ErrPersistInFlight = errors.New("该数据集已有保存操作进行中，请稍后重试")
