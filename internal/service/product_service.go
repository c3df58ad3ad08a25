package service

import (
	"github.com/candy-store/internal/models"
	"github.com/candy-store/internal/repository"
)

// ProductDetail 商品详情（含评分汇总）
type ProductDetail struct {
	models.Product
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int64   `json:"review_count"`
}

// ProductService 商品目录服务
type ProductService struct {
	productRepo repository.ProductRepository
	reviewRepo  repository.ReviewRepository
}

// NewProductService 创建商品目录服务
func NewProductService(productRepo repository.ProductRepository, reviewRepo repository.ReviewRepository) *ProductService {
	return &ProductService{productRepo: productRepo, reviewRepo: reviewRepo}
}

// List 商品列表
func (s *ProductService) List(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	return s.productRepo.List(filter)
}

// Get 商品详情
func (s *ProductService) Get(id uint) (*ProductDetail, error) {
	if id == 0 {
		return nil, ErrProductNotFound
	}
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	detail := &ProductDetail{Product: *product}
	if s.reviewRepo != nil {
		summary, err := s.reviewRepo.Summary(id)
		if err != nil {
			return nil, err
		}
		detail.AverageRating = summary.Average
		detail.ReviewCount = summary.Count
	}
	return detail, nil
}

// ListCategories 分类列表
func (s *ProductService) ListCategories() ([]string, error) {
	return s.productRepo.ListCategories()
}
