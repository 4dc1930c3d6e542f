package services

import (
	"context"
	"strings"

	"StorefrontAPI/internal/cache"
	"StorefrontAPI/internal/model"
)

const (
	MaxReviewTitleLen = 200
	MaxReviewBodyLen  = 5000
)

type ReviewService struct {
	Reviews   ReviewStore
	Products  ProductReader
	Purchases PurchaseChecker
	Views     cache.Views
}

func NewReviewService(r ReviewStore, p ProductReader, pc PurchaseChecker, v cache.Views) *ReviewService {
	return &ReviewService{Reviews: r, Products: p, Purchases: pc, Views: v}
}

type ReviewInput struct {
	Rating int    `json:"rating"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// Upsert creates the caller's review of the product or replaces it. The
// product's rating and review count are recomputed with the write.
func (s *ReviewService) Upsert(ctx context.Context, actor *model.Identity, productID int64, in ReviewInput) (*model.Review, model.RatingSummary, error) {
	if err := requireUser(actor); err != nil {
		return nil, model.RatingSummary{}, err
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, model.RatingSummary{}, Validation("rating must be between 1 and 5")
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Body = strings.TrimSpace(in.Body)
	if len(in.Title) > MaxReviewTitleLen || len(in.Body) > MaxReviewBodyLen {
		return nil, model.RatingSummary{}, Validation("review is too long")
	}

	if _, err := s.Products.GetByID(ctx, productID); err != nil {
		return nil, model.RatingSummary{}, notFoundAs(err, "Product not found")
	}
	verified, err := s.Purchases.HasDeliveredPurchase(ctx, actor.UserID, productID)
	if err != nil {
		return nil, model.RatingSummary{}, err
	}

	rv := &model.Review{
		UserID:    actor.UserID,
		ProductID: productID,
		Rating:    in.Rating,
		Title:     in.Title,
		Body:      in.Body,
		Verified:  verified,
	}
	id, summary, err := s.Reviews.Upsert(ctx, rv)
	if err != nil {
		return nil, model.RatingSummary{}, err
	}
	rv.ID = id

	s.Views.Invalidate(ctx, cache.ProductsPath(), cache.ProductPath(productID))
	return rv, summary, nil
}

// Delete removes a review; only its author or an admin may.
func (s *ReviewService) Delete(ctx context.Context, actor *model.Identity, reviewID int64) (model.RatingSummary, error) {
	if err := requireUser(actor); err != nil {
		return model.RatingSummary{}, err
	}
	rv, err := s.Reviews.GetByID(ctx, reviewID)
	if err != nil {
		return model.RatingSummary{}, notFoundAs(err, "Review not found")
	}
	if err := requireOwner(actor, rv.UserID, "not your review"); err != nil {
		return model.RatingSummary{}, err
	}
	summary, err := s.Reviews.Delete(ctx, reviewID)
	if err != nil {
		return model.RatingSummary{}, notFoundAs(err, "Review not found")
	}
	s.Views.Invalidate(ctx, cache.ProductsPath(), cache.ProductPath(rv.ProductID))
	return summary, nil
}

func (s *ReviewService) List(ctx context.Context, productID int64) ([]model.Review, error) {
	out, err := s.Reviews.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Review{}
	}
	return out, nil
}
