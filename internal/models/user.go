package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户表
type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                                         // 主键
	Username     string         `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`                       // 用户名
	Email        string         `gorm:"type:varchar(255);uniqueIndex:idx_users_email,where:email <> ''" json:"email"` // 邮箱（可为空）
	PasswordHash string         `gorm:"not null" json:"-"`                                                            // 密码哈希（不返回给前端）
	Status       string         `gorm:"default:'active'" json:"status"`                                               // 账号状态
	TokenVersion uint64         `gorm:"not null;default:0" json:"-"`                                                  // Token 版本（用于全量失效）
	LastLoginAt  *time.Time     `json:"last_login_at"`                                                                // 最后登录时间
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                                                      // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                                                      // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                                               // 软删除时间

	Preference *Preference `gorm:"foreignKey:UserID" json:"preference,omitempty"` // 通知偏好
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
