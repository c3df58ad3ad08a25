package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                     // 主键
	OrderNo     string         `gorm:"uniqueIndex;not null" json:"order_no"`                     // 订单编号
	UserID      *uint          `gorm:"index" json:"user_id,omitempty"`                           // 下单用户（可为空）
	Status      string         `gorm:"type:varchar(20);index;not null" json:"status"`            // 订单状态
	TotalPrice  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"` // 订单总额
	FullName    string         `gorm:"type:varchar(200);not null" json:"full_name"`              // 收件人
	Address     string         `gorm:"type:varchar(500);not null" json:"address"`                // 地址
	City        string         `gorm:"type:varchar(100);not null" json:"city"`                   // 城市
	ZipCode     string         `gorm:"type:varchar(20);not null" json:"zip_code"`                // 邮编
	Email       string         `gorm:"type:varchar(255)" json:"email"`                           // 通知邮箱快照
	ShippedAt   *time.Time     `json:"shipped_at"`                                               // 发货时间
	DeliveredAt *time.Time     `json:"delivered_at"`                                             // 送达时间
	CancelledAt *time.Time     `json:"cancelled_at"`                                             // 取消时间
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                  // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                                  // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                           // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
