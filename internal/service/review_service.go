package service

import (
	"strings"

	"github.com/candy-store/internal/models"
	"github.com/candy-store/internal/repository"
)

const maxReviewCommentLength = 2000

// ReviewInput 评价输入
type ReviewInput struct {
	Rating  int
	Comment string
}

// ReviewService 评价服务
type ReviewService struct {
	reviewRepo  repository.ReviewRepository
	productRepo repository.ProductRepository
}

// NewReviewService 创建评价服务
func NewReviewService(reviewRepo repository.ReviewRepository, productRepo repository.ProductRepository) *ReviewService {
	return &ReviewService{reviewRepo: reviewRepo, productRepo: productRepo}
}

func normalizeReviewInput(input ReviewInput) (ReviewInput, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return input, ErrInvalidRating
	}
	input.Comment = strings.TrimSpace(input.Comment)
	if len(input.Comment) > maxReviewCommentLength {
		input.Comment = input.Comment[:maxReviewCommentLength]
	}
	return input, nil
}

// Create 发表评价，每个用户每个商品一条
func (s *ReviewService) Create(userID, productID uint, input ReviewInput) (*models.Review, error) {
	input, err := normalizeReviewInput(input)
	if err != nil {
		return nil, err
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	existing, err := s.reviewRepo.GetByUserAndProduct(userID, productID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrReviewExists
	}
	review := &models.Review{
		UserID:    userID,
		ProductID: productID,
		Rating:    input.Rating,
		Comment:   input.Comment,
	}
	if err := s.reviewRepo.Create(review); err != nil {
		return nil, err
	}
	return review, nil
}

// Update 修改自己的评价
func (s *ReviewService) Update(userID, reviewID uint, input ReviewInput) (*models.Review, error) {
	input, err := normalizeReviewInput(input)
	if err != nil {
		return nil, err
	}
	review, err := s.reviewRepo.GetByIDAndUser(reviewID, userID)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, ErrReviewNotFound
	}
	review.Rating = input.Rating
	review.Comment = input.Comment
	if err := s.reviewRepo.Update(review); err != nil {
		return nil, err
	}
	return review, nil
}

// Delete 删除自己的评价
func (s *ReviewService) Delete(userID, reviewID uint) error {
	review, err := s.reviewRepo.GetByIDAndUser(reviewID, userID)
	if err != nil {
		return err
	}
	if review == nil {
		return ErrReviewNotFound
	}
	return s.reviewRepo.Delete(review.ID)
}

// ListByProduct 商品评价列表
func (s *ReviewService) ListByProduct(productID uint, page, pageSize int) ([]models.Review, int64, error) {
	return s.reviewRepo.ListByProduct(productID, page, pageSize)
}

// ListByUser 用户的评价
func (s *ReviewService) ListByUser(userID uint) ([]models.Review, error) {
	return s.reviewRepo.ListByUser(userID)
}
