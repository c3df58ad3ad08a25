package models

import "time"

// NotificationLog 通知发送记录
type NotificationLog struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                                           // 主键
	UserID    *uint     `gorm:"index:idx_notification_user_product_kind" json:"user_id"`                        // 接收用户
	ProductID *uint     `gorm:"index:idx_notification_user_product_kind" json:"product_id"`                     // 关联商品
	OrderID   *uint     `gorm:"index" json:"order_id"`                                                          // 关联订单
	Kind      string    `gorm:"type:varchar(32);not null;index:idx_notification_user_product_kind" json:"kind"` // 通知类型
	Origin    string    `gorm:"type:varchar(32);not null" json:"origin"`                                        // 触发来源
	Recipient string    `gorm:"type:varchar(255)" json:"recipient"`                                             // 收件地址
	Subject   string    `gorm:"type:varchar(255)" json:"subject"`                                               // 邮件主题
	Status    string    `gorm:"type:varchar(16);not null;index" json:"status"`                                  // 发送结果
	Error     string    `gorm:"type:text" json:"error,omitempty"`                                               // 失败原因
	CreatedAt time.Time `gorm:"index" json:"created_at"`                                                        // 创建时间
}

// TableName 指定表名
func (NotificationLog) TableName() string {
	return "notification_logs"
}
