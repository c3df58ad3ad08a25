package service

import (
	"github.com/candy-store/internal/models"
	"github.com/candy-store/internal/repository"
)

const accountRecentOrderLimit = 5

// AccountSummary 账户页汇总
type AccountSummary struct {
	User         *models.User        `json:"user"`
	Preference   *models.Preference  `json:"preference"`
	Favorites    []models.Favorite   `json:"favorites"`
	Reviews      []models.Review     `json:"reviews"`
	Watchlist    []WatchlistItem     `json:"watchlist"`
	StockAlerts  []models.StockAlert `json:"stock_alerts"`
	RecentOrders []models.Order      `json:"recent_orders"`
}

// AccountService 账户汇总服务
type AccountService struct {
	userAuth  *UserAuthService
	prefs     *PreferenceService
	favorites *FavoriteService
	reviews   *ReviewService
	watchlist *WatchlistService
	alerts    *StockAlertService
	orders    *OrderService
}

// NewAccountService 创建账户汇总服务
func NewAccountService(userAuth *UserAuthService, prefs *PreferenceService, favorites *FavoriteService, reviews *ReviewService, watchlist *WatchlistService, alerts *StockAlertService, orders *OrderService) *AccountService {
	return &AccountService{
		userAuth:  userAuth,
		prefs:     prefs,
		favorites: favorites,
		reviews:   reviews,
		watchlist: watchlist,
		alerts:    alerts,
		orders:    orders,
	}
}

// Summary 账户汇总（偏好、收藏、评价、关注、提醒、最近订单）
func (s *AccountService) Summary(userID uint) (*AccountSummary, error) {
	user, err := s.userAuth.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	summary := &AccountSummary{User: user}
	if summary.Preference, err = s.prefs.Get(userID); err != nil {
		return nil, err
	}
	if summary.Favorites, err = s.favorites.List(userID); err != nil {
		return nil, err
	}
	if summary.Reviews, err = s.reviews.ListByUser(userID); err != nil {
		return nil, err
	}
	if summary.Watchlist, err = s.watchlist.List(userID); err != nil {
		return nil, err
	}
	if summary.StockAlerts, err = s.alerts.List(userID); err != nil {
		return nil, err
	}
	orders, _, err := s.orders.ListOrders(repository.OrderListFilter{
		UserID:   userID,
		Page:     1,
		PageSize: accountRecentOrderLimit,
	})
	if err != nil {
		return nil, err
	}
	summary.RecentOrders = orders
	return summary, nil
}
