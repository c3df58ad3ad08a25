package service

import (
	"github.com/candy-store/internal/constants"
	"github.com/candy-store/internal/logger"
	"github.com/candy-store/internal/models"
	"github.com/candy-store/internal/repository"
)

// WatchlistItem 关注列表项（含生效阈值）
type WatchlistItem struct {
	models.WatchlistEntry
	EffectiveThreshold int  `json:"effective_threshold"`
	IsLowStock         bool `json:"is_low_stock"`
}

// WatchlistService 关注列表服务
type WatchlistService struct {
	watchlistRepo repository.WatchlistRepository
	productRepo   repository.ProductRepository
	alertRepo     repository.StockAlertRepository
	prefRepo      repository.PreferenceRepository
	engine        *NotificationEngine
}

// NewWatchlistService 创建关注列表服务
func NewWatchlistService(watchlistRepo repository.WatchlistRepository, productRepo repository.ProductRepository, alertRepo repository.StockAlertRepository, prefRepo repository.PreferenceRepository, engine *NotificationEngine) *WatchlistService {
	return &WatchlistService{
		watchlistRepo: watchlistRepo,
		productRepo:   productRepo,
		alertRepo:     alertRepo,
		prefRepo:      prefRepo,
		engine:        engine,
	}
}

func validateThreshold(threshold *int) error {
	if threshold == nil {
		return nil
	}
	if *threshold < 0 || *threshold > constants.MaxLowStockThreshold {
		return ErrInvalidThreshold
	}
	return nil
}

// Add 显式关注商品；自动加入的记录转为显式关注，缺货时同时登记到货提醒
func (s *WatchlistService) Add(userID, productID uint, customThreshold *int) (*models.WatchlistEntry, error) {
	if err := validateThreshold(customThreshold); err != nil {
		return nil, err
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	entry, err := s.watchlistRepo.GetByUserAndProduct(userID, productID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		entry = &models.WatchlistEntry{
			UserID:          userID,
			ProductID:       productID,
			CustomThreshold: customThreshold,
		}
		if err := s.watchlistRepo.Create(entry); err != nil {
			return nil, err
		}
	} else if entry.AutoAdded || customThreshold != nil {
		entry.AutoAdded = false
		if customThreshold != nil {
			entry.CustomThreshold = customThreshold
		}
		if err := s.watchlistRepo.Update(entry); err != nil {
			return nil, err
		}
	}

	if product.Stock <= 0 && s.alertRepo != nil {
		pending, err := s.alertRepo.GetPending(userID, productID)
		if err != nil {
			return nil, err
		}
		if pending == nil {
			if err := s.alertRepo.Create(&models.StockAlert{UserID: userID, ProductID: productID}); err != nil {
				logger.Warnw("watchlist_stock_alert_create_failed", "user_id", userID, "product_id", productID, "error", err)
			}
		}
	}
	entry.Product = product
	return entry, nil
}

// Remove 取消关注
func (s *WatchlistService) Remove(userID, entryID uint) error {
	entry, err := s.watchlistRepo.GetByIDAndUser(entryID, userID)
	if err != nil {
		return err
	}
	if entry == nil {
		return ErrWatchlistEntryNotFound
	}
	return s.watchlistRepo.Delete(entry.ID)
}

// UpdateThreshold 更新自定义阈值，nil 表示清除
func (s *WatchlistService) UpdateThreshold(userID, entryID uint, threshold *int) (*models.WatchlistEntry, error) {
	if err := validateThreshold(threshold); err != nil {
		return nil, err
	}
	entry, err := s.watchlistRepo.GetByIDAndUser(entryID, userID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrWatchlistEntryNotFound
	}
	entry.CustomThreshold = threshold
	if err := s.watchlistRepo.Update(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// List 关注列表
func (s *WatchlistService) List(userID uint) ([]WatchlistItem, error) {
	entries, err := s.watchlistRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	pref, err := s.prefRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	items := make([]WatchlistItem, 0, len(entries))
	for i := range entries {
		entry := entries[i]
		threshold := s.effectiveThreshold(&entry, pref)
		item := WatchlistItem{WatchlistEntry: entry, EffectiveThreshold: threshold}
		if entry.Product != nil {
			item.IsLowStock = entry.Product.Stock <= threshold
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *WatchlistService) effectiveThreshold(entry *models.WatchlistEntry, pref *models.Preference) int {
	if s.engine != nil {
		return s.engine.EffectiveThreshold(entry, pref)
	}
	if entry.CustomThreshold != nil {
		return *entry.CustomThreshold
	}
	if pref != nil {
		return pref.LowStockThreshold
	}
	return constants.DefaultLowStockThreshold
}
