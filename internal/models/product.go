package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 糖果商品表
type Product struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                        // 主键
	Name        string         `gorm:"type:varchar(200);not null;index" json:"name"`                // 名称
	Description string         `gorm:"type:text" json:"description"`                                // 描述
	Price       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"`          // 单价
	Stock       int            `gorm:"not null;default:0" json:"stock"`                             // 库存（不做非负约束）
	Category    string         `gorm:"type:varchar(100);not null;default:'';index" json:"category"` // 分类
	ImageURL    string         `gorm:"type:varchar(500)" json:"image_url"`                          // 图片地址
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                     // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                                                  // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                              // 软删除时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// InStock 是否有货
func (p Product) InStock() bool {
	return p.Stock > 0
}
