package service

import (
	"github.com/candy-store/internal/models"
	"github.com/candy-store/internal/repository"
)

// StockAlertService 到货提醒服务
type StockAlertService struct {
	alertRepo   repository.StockAlertRepository
	productRepo repository.ProductRepository
}

// NewStockAlertService 创建到货提醒服务
func NewStockAlertService(alertRepo repository.StockAlertRepository, productRepo repository.ProductRepository) *StockAlertService {
	return &StockAlertService{alertRepo: alertRepo, productRepo: productRepo}
}

// Request 登记到货提醒；已有待通知记录时直接返回该记录，created 为 false
func (s *StockAlertService) Request(userID, productID uint) (*models.StockAlert, bool, error) {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, false, err
	}
	if product == nil {
		return nil, false, ErrProductNotFound
	}
	pending, err := s.alertRepo.GetPending(userID, productID)
	if err != nil {
		return nil, false, err
	}
	if pending != nil {
		pending.Product = product
		return pending, false, nil
	}
	alert := &models.StockAlert{UserID: userID, ProductID: productID}
	if err := s.alertRepo.Create(alert); err != nil {
		return nil, false, err
	}
	alert.Product = product
	return alert, true, nil
}

// Cancel 取消待通知的提醒
func (s *StockAlertService) Cancel(userID, alertID uint) error {
	alert, err := s.alertRepo.GetByIDAndUser(alertID, userID)
	if err != nil {
		return err
	}
	if alert == nil || alert.Notified {
		return ErrStockAlertNotFound
	}
	return s.alertRepo.Delete(alert.ID)
}

// List 用户的提醒列表
func (s *StockAlertService) List(userID uint) ([]models.StockAlert, error) {
	return s.alertRepo.ListByUser(userID)
}
