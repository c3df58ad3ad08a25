package repository

import (
	"strings"
	"time"

	"github.com/candy-store/internal/models"

	"gorm.io/gorm"
)

// AdminRepository 后台账号数据访问接口
type AdminRepository interface {
	GetByUsername(username string) (*models.Admin, error)
	GetByID(id uint) (*models.Admin, error)
	List() ([]models.Admin, error)
	RecordLogin(id uint, at time.Time) error
	RotatePassword(id uint, passwordHash string) (*models.Admin, error)
}

// GormAdminRepository GORM 实现
type GormAdminRepository struct {
	store
}

// NewAdminRepository 创建后台账号仓库
func NewAdminRepository(db *gorm.DB) *GormAdminRepository {
	return &GormAdminRepository{store{db}}
}

// GetByUsername 用户名忽略首尾空白
func (r *GormAdminRepository) GetByUsername(username string) (*models.Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, nil
	}
	return findOne[models.Admin](r.db, "username = ?", username)
}

func (r *GormAdminRepository) GetByID(id uint) (*models.Admin, error) {
	if id == 0 {
		return nil, nil
	}
	return findOne[models.Admin](r.db, "id = ?", id)
}

// List 角色分配页使用，不读取密码哈希
func (r *GormAdminRepository) List() ([]models.Admin, error) {
	admins := make([]models.Admin, 0)
	err := r.db.
		Select("id", "username", "is_super", "last_login_at", "created_at").
		Order("id ASC").
		Find(&admins).Error
	return admins, err
}

// RecordLogin 只更新最后登录时间
func (r *GormAdminRepository) RecordLogin(id uint, at time.Time) error {
	return r.db.Model(&models.Admin{}).Where("id = ?", id).UpdateColumn("last_login_at", at).Error
}

// RotatePassword 写入新哈希并递增 token 版本，返回更新后的账号
func (r *GormAdminRepository) RotatePassword(id uint, passwordHash string) (*models.Admin, error) {
	affected, err := rowsAffected(r.db.Model(&models.Admin{}).Where("id = ?", id).Updates(map[string]interface{}{
		"password_hash": passwordHash,
		"token_version": gorm.Expr("token_version + 1"),
	}))
	if err != nil || affected == 0 {
		return nil, err
	}
	return r.GetByID(id)
}
