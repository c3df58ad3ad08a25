package service

import (
	"github.com/candy-store/internal/models"
	"github.com/candy-store/internal/repository"
)

// NotificationLogService 通知记录查询
type NotificationLogService struct {
	repo repository.NotificationLogRepository
}

// NewNotificationLogService 创建通知记录服务
func NewNotificationLogService(repo repository.NotificationLogRepository) *NotificationLogService {
	return &NotificationLogService{repo: repo}
}

// List 管理端通知记录列表
func (s *NotificationLogService) List(filter repository.NotificationLogListFilter) ([]models.NotificationLog, int64, error) {
	if s == nil || s.repo == nil {
		return []models.NotificationLog{}, 0, nil
	}
	return s.repo.List(filter)
}
