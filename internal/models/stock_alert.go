package models

import "time"

// StockAlert 一次性到货提醒，同一用户商品仅允许一条未通知记录
type StockAlert struct {
	ID          uint       `gorm:"primarykey" json:"id"`                                                                        // 主键
	UserID      uint       `gorm:"not null;index;uniqueIndex:idx_stock_alert_pending,where:notified = false" json:"user_id"`    // 用户ID
	ProductID   uint       `gorm:"not null;index;uniqueIndex:idx_stock_alert_pending,where:notified = false" json:"product_id"` // 商品ID
	Notified    bool       `gorm:"not null;default:false;index" json:"notified"`                                                // 是否已通知
	EmailSentAt *time.Time `json:"email_sent_at"`                                                                               // 通知时间
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`                                                                     // 创建时间

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联商品
}

// TableName 指定表名
func (StockAlert) TableName() string {
	return "stock_alerts"
}
