package repository

import (

	"github.com/candy-store/internal/models"

	"gorm.io/gorm"
)

// PreferenceRepository 通知偏好数据访问接口
type PreferenceRepository interface {
	GetByUserID(userID uint) (*models.Preference, error)
	ListByUserIDs(userIDs []uint) ([]models.Preference, error)
	Create(pref *models.Preference) error
	Update(pref *models.Preference) error
	DeleteByUser(userID uint) error
	WithTx(tx *gorm.DB) PreferenceRepository
}

// GormPreferenceRepository GORM 实现
type GormPreferenceRepository struct {
	store
}

// NewPreferenceRepository 创建偏好仓库
func NewPreferenceRepository(db *gorm.DB) *GormPreferenceRepository {
	return &GormPreferenceRepository{store{db}}
}

// WithTx 绑定事务
func (r *GormPreferenceRepository) WithTx(tx *gorm.DB) PreferenceRepository {
	if tx == nil {
		return r
	}
	return &GormPreferenceRepository{store{tx}}
}

// GetByUserID 获取用户偏好，不存在时返回 nil
func (r *GormPreferenceRepository) GetByUserID(userID uint) (*models.Preference, error) {
	return findOne[models.Preference](r.db, "user_id = ?", userID)
}

// ListByUserIDs 批量获取偏好
func (r *GormPreferenceRepository) ListByUserIDs(userIDs []uint) ([]models.Preference, error) {
	if len(userIDs) == 0 {
		return []models.Preference{}, nil
	}
	var prefs []models.Preference
	if err := r.db.Where("user_id IN ?", userIDs).Find(&prefs).Error; err != nil {
		return nil, err
	}
	return prefs, nil
}

// Create 创建偏好
func (r *GormPreferenceRepository) Create(pref *models.Preference) error {
	return r.db.Create(pref).Error
}

// Update 更新偏好
func (r *GormPreferenceRepository) Update(pref *models.Preference) error {
	return r.db.Save(pref).Error
}

// DeleteByUser 删除用户偏好
func (r *GormPreferenceRepository) DeleteByUser(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.Preference{}).Error
}
