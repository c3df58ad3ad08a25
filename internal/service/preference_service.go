package service

import (
	"github.com/candy-store/internal/config"
	"github.com/candy-store/internal/constants"
	"github.com/candy-store/internal/models"
	"github.com/candy-store/internal/repository"
)

// PreferenceInput 偏好更新输入，nil 字段保持不变
type PreferenceInput struct {
	LowStockEmailAlerts *bool
	RestockEmailAlerts  *bool
	LowStockThreshold   *int
}

// PreferenceService 通知偏好服务
type PreferenceService struct {
	prefRepo         repository.PreferenceRepository
	defaultThreshold int
}

// NewPreferenceService 创建通知偏好服务
func NewPreferenceService(cfg *config.Config, prefRepo repository.PreferenceRepository) *PreferenceService {
	threshold := constants.DefaultLowStockThreshold
	if cfg != nil && cfg.Notify.DefaultLowStockThreshold > 0 {
		threshold = cfg.Notify.DefaultLowStockThreshold
	}
	return &PreferenceService{prefRepo: prefRepo, defaultThreshold: threshold}
}

// Get 获取偏好，缺失时返回默认值（不落库）
func (s *PreferenceService) Get(userID uint) (*models.Preference, error) {
	pref, err := s.prefRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if pref == nil {
		defaults := models.DefaultPreference(userID, s.defaultThreshold)
		return &defaults, nil
	}
	return pref, nil
}

// Ensure 确保偏好记录存在
func (s *PreferenceService) Ensure(userID uint) (*models.Preference, error) {
	return ensurePreference(s.prefRepo, userID, s.defaultThreshold)
}

// Update 更新偏好
func (s *PreferenceService) Update(userID uint, input PreferenceInput) (*models.Preference, error) {
	if input.LowStockThreshold != nil {
		if *input.LowStockThreshold < 0 || *input.LowStockThreshold > constants.MaxLowStockThreshold {
			return nil, ErrInvalidThreshold
		}
	}
	pref, err := s.Ensure(userID)
	if err != nil {
		return nil, err
	}
	if input.LowStockEmailAlerts != nil {
		pref.LowStockEmailAlerts = *input.LowStockEmailAlerts
	}
	if input.RestockEmailAlerts != nil {
		pref.RestockEmailAlerts = *input.RestockEmailAlerts
	}
	if input.LowStockThreshold != nil {
		pref.LowStockThreshold = *input.LowStockThreshold
	}
	if err := s.prefRepo.Update(pref); err != nil {
		return nil, err
	}
	return pref, nil
}

func ensurePreference(prefRepo repository.PreferenceRepository, userID uint, threshold int) (*models.Preference, error) {
	pref, err := prefRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if pref != nil {
		return pref, nil
	}
	defaults := models.DefaultPreference(userID, threshold)
	if err := prefRepo.Create(&defaults); err != nil {
		return nil, err
	}
	return &defaults, nil
}
