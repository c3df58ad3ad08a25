package service

import (
	"github.com/candy-store/internal/models"
	"github.com/candy-store/internal/repository"
)

// FavoriteService 收藏服务
type FavoriteService struct {
	favoriteRepo repository.FavoriteRepository
	productRepo  repository.ProductRepository
}

// NewFavoriteService 创建收藏服务
func NewFavoriteService(favoriteRepo repository.FavoriteRepository, productRepo repository.ProductRepository) *FavoriteService {
	return &FavoriteService{favoriteRepo: favoriteRepo, productRepo: productRepo}
}

// Add 收藏商品（幂等）
func (s *FavoriteService) Add(userID, productID uint) (*models.Favorite, error) {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return s.favoriteRepo.Add(userID, productID)
}

// Remove 取消收藏
func (s *FavoriteService) Remove(userID, productID uint) error {
	affected, err := s.favoriteRepo.Remove(userID, productID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// IsFavorite 是否已收藏
func (s *FavoriteService) IsFavorite(userID, productID uint) (bool, error) {
	return s.favoriteRepo.Exists(userID, productID)
}

// List 收藏列表
func (s *FavoriteService) List(userID uint) ([]models.Favorite, error) {
	return s.favoriteRepo.ListByUser(userID)
}
