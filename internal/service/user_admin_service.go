package service

import (
	"context"
	"strings"

	"github.com/candy-store/internal/cache"
	"github.com/candy-store/internal/constants"
	"github.com/candy-store/internal/logger"
	"github.com/candy-store/internal/models"
	"github.com/candy-store/internal/repository"

	"gorm.io/gorm"
)

// UserAdminService 管理端用户管理
type UserAdminService struct {
	userRepo      repository.UserRepository
	prefRepo      repository.PreferenceRepository
	watchlistRepo repository.WatchlistRepository
	alertRepo     repository.StockAlertRepository
	cartRepo      repository.CartRepository
	favoriteRepo  repository.FavoriteRepository
}

// NewUserAdminService 创建用户管理服务
func NewUserAdminService(userRepo repository.UserRepository, prefRepo repository.PreferenceRepository, watchlistRepo repository.WatchlistRepository, alertRepo repository.StockAlertRepository, cartRepo repository.CartRepository, favoriteRepo repository.FavoriteRepository) *UserAdminService {
	return &UserAdminService{
		userRepo:      userRepo,
		prefRepo:      prefRepo,
		watchlistRepo: watchlistRepo,
		alertRepo:     alertRepo,
		cartRepo:      cartRepo,
		favoriteRepo:  favoriteRepo,
	}
}

// List 用户列表
func (s *UserAdminService) List(filter repository.UserListFilter) ([]models.User, int64, error) {
	return s.userRepo.List(filter)
}

// UpdateStatus 启用/禁用用户，禁用时旧 token 失效
func (s *UserAdminService) UpdateStatus(userID uint, status string) (*models.User, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != constants.UserStatusActive && status != constants.UserStatusDisabled {
		return nil, ErrInvalidUserStatus
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.Status == status {
		return user, nil
	}
	user.Status = status
	if status == constants.UserStatusDisabled {
		user.TokenVersion++
	}
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	_ = cache.StoreAuthState(context.Background(), cache.UserState(user))
	return user, nil
}

// Delete 删除用户（软删除），并清理关注、提醒、购物车、收藏与偏好
func (s *UserAdminService) Delete(userID uint) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	err = s.userRepo.Transaction(func(tx *gorm.DB) error {
		if err := s.watchlistRepo.WithTx(tx).DeleteByUser(userID); err != nil {
			return err
		}
		if err := s.alertRepo.WithTx(tx).DeleteByUser(userID); err != nil {
			return err
		}
		if err := s.cartRepo.WithTx(tx).ClearByUser(userID); err != nil {
			return err
		}
		if err := s.favoriteRepo.WithTx(tx).DeleteByUser(userID); err != nil {
			return err
		}
		if err := s.prefRepo.WithTx(tx).DeleteByUser(userID); err != nil {
			return err
		}
		return s.userRepo.WithTx(tx).Delete(userID)
	})
	if err != nil {
		logger.Errorw("admin_user_delete_failed", "user_id", userID, "error", err)
		return err
	}
	_ = cache.ForgetAuthState(context.Background(), cache.PrincipalUser, userID)
	return nil
}
