package models

import (
	"strings"

	"github.com/candy-store/internal/logger"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	bootstrapAdminUsername = "admin"
	bootstrapAdminPassword = "admin123"
)

// EnsureBootstrapAdmin 空库时创建首个超级管理员；已有管理员时只保证 admin 账号为超级管理员
func EnsureBootstrapAdmin(db *gorm.DB, username, password string) (bool, error) {
	var count int64
	if err := db.Model(&Admin{}).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		err := db.Model(&Admin{}).
			Where("username = ? AND is_super = ?", bootstrapAdminUsername, false).
			Update("is_super", true).Error
		return false, err
	}

	if username = strings.TrimSpace(username); username == "" {
		username = bootstrapAdminUsername
	}
	usingDefault := password == ""
	if usingDefault {
		password = bootstrapAdminPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	admin := Admin{Username: username, PasswordHash: string(hash), IsSuper: true}
	if err := db.Create(&admin).Error; err != nil {
		return false, err
	}

	if usingDefault {
		logger.Warnw("bootstrap_admin_default_password", "username", username)
	} else {
		logger.Infow("bootstrap_admin_created", "username", username)
	}
	return true, nil
}
