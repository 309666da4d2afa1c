package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ── PostgreSQL JSONB 自定义类型辅助 ──
//
// 四个数据集的负载均以 JSONB 单列存储，各负载类型通过下面两个辅助函数
// 实现 GORM 的 Scanner/Valuer 接口。

// jsonbValue 将负载序列化为 JSONB 写入值
func jsonbValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("序列化 JSONB 失败: %w", err)
	}
	return string(b), nil
}

// jsonbScan 将数据库返回的 JSONB 文本解析到 dst
// 结构不符的内容在此处直接报错，调用方将其视为读取失败而非运行时崩溃
func jsonbScan(src interface{}, dst interface{}) error {
	if src == nil {
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("jsonbScan: unsupported type %T", src)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("解析 JSONB 失败: %w", err)
	}
	return nil
}
