package models

import "time"

// WatchlistEntry 用户关注的商品
type WatchlistEntry struct {
	ID              uint       `gorm:"primarykey" json:"id"`                                                    // 主键
	UserID          uint       `gorm:"not null;uniqueIndex:idx_watchlist_user_product" json:"user_id"`          // 用户ID
	ProductID       uint       `gorm:"not null;uniqueIndex:idx_watchlist_user_product;index" json:"product_id"` // 商品ID
	CustomThreshold *int       `json:"custom_threshold"`                                                        // 自定义阈值
	LastNotified    *time.Time `json:"last_notified"`                                                           // 最近一次低库存通知
	AutoAdded       bool       `gorm:"not null;default:false" json:"auto_added"`                                // 下单时自动加入
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`                                                 // 创建时间
	UpdatedAt       time.Time  `json:"updated_at"`                                                              // 更新时间

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联商品
}

// TableName 指定表名
func (WatchlistEntry) TableName() string {
	return "watchlist_entries"
}
