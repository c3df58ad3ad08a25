package models

import "time"

// Preference 用户通知偏好，缺失时按默认开启处理
type Preference struct {
	ID                  uint      `gorm:"primarykey" json:"id"`                   // 主键
	UserID              uint      `gorm:"uniqueIndex;not null" json:"user_id"`    // 用户ID
	LowStockEmailAlerts bool      `gorm:"not null" json:"low_stock_email_alerts"` // 低库存提醒
	RestockEmailAlerts  bool      `gorm:"not null" json:"restock_email_alerts"`   // 到货提醒
	LowStockThreshold   int       `gorm:"not null" json:"low_stock_threshold"`    // 全局低库存阈值
	CreatedAt           time.Time `json:"created_at"`                             // 创建时间
	UpdatedAt           time.Time `json:"updated_at"`                             // 更新时间
}

// TableName 指定表名
func (Preference) TableName() string {
	return "user_preferences"
}

// DefaultPreference 返回默认偏好（全部开启）
func DefaultPreference(userID uint, threshold int) Preference {
	return Preference{
		UserID:              userID,
		LowStockEmailAlerts: true,
		RestockEmailAlerts:  true,
		LowStockThreshold:   threshold,
	}
}
