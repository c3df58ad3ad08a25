package models

import "time"

// Favorite 收藏
type Favorite struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_favorite_user_product" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_favorite_user_product" json:"product_id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// TableName 指定表名
func (Favorite) TableName() string {
	return "favorites"
}
