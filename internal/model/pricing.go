package model

import (
	"database/sql/driver"
	"time"
)

// HourlyRate 按课时数计费的一档费率
type HourlyRate struct {
	Hours string  `json:"hours"`
	Rate  float64 `json:"rate"`
}

// SpecialRate 单次 / 网课 / 试课特殊费率
type SpecialRate struct {
	DropIn float64 `json:"dropIn"`
	Online float64 `json:"online"`
	Trial  float64 `json:"trial"`
}

// RegistrationInfo 新生报名说明
type RegistrationInfo struct {
	Title string `json:"title"`
	Fee   string `json:"fee"`
	Note  string `json:"note"`
}

// PaymentCycle 付款周期说明
type PaymentCycle struct {
	Title   string `json:"title"`
	Offline string `json:"offline"`
	Online  string `json:"online"`
}

// PaymentMethods 支持的支付方式
type PaymentMethods struct {
	Title   string   `json:"title"`
	Methods []string `json:"methods"`
}

// PaymentInfo 付款说明合集
type PaymentInfo struct {
	Registration   RegistrationInfo `json:"registration"`
	PaymentCycle   PaymentCycle     `json:"paymentCycle"`
	PaymentMethods PaymentMethods   `json:"paymentMethods"`
}

// PricingInfo 收费信息负载
type PricingInfo struct {
	HourlyRates  []HourlyRate `json:"hourlyRates"`
	SpecialRates SpecialRate  `json:"specialRates"`
	PaymentInfo  PaymentInfo  `json:"paymentInfo"`
}

// Scan 实现 sql.Scanner
func (p *PricingInfo) Scan(src interface{}) error {
	return jsonbScan(src, p)
}

// Value 实现 driver.Valuer
func (p PricingInfo) Value() (driver.Value, error) {
	return jsonbValue(p)
}

// Clone 深拷贝收费信息（含内部切片）
func (p PricingInfo) Clone() PricingInfo {
	out := p
	out.HourlyRates = make([]HourlyRate, len(p.HourlyRates))
	copy(out.HourlyRates, p.HourlyRates)
	out.PaymentInfo.PaymentMethods.Methods = make([]string, len(p.PaymentInfo.PaymentMethods.Methods))
	copy(out.PaymentInfo.PaymentMethods.Methods, p.PaymentInfo.PaymentMethods.Methods)
	return out
}

// PricingRecord 收费信息记录 — 对应 pricing 表
type PricingRecord struct {
	ID          int64       `gorm:"primaryKey"                         json:"id"`
	Pricing     PricingInfo `gorm:"type:jsonb;not null;default:'{}'"   json:"pricing"`
	LastUpdated time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"lastUpdated"`
}

// TableName 指定表名
func (PricingRecord) TableName() string { return "pricing" }
