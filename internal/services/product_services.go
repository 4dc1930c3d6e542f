package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"StorefrontAPI/internal/cache"
	"StorefrontAPI/internal/model"
	"StorefrontAPI/internal/repository"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type ProductService struct {
	Products   ProductStore
	Categories CategoryStore
	Views      cache.Views
}

func NewProductService(p ProductStore, c CategoryStore, v cache.Views) *ProductService {
	return &ProductService{Products: p, Categories: c, Views: v}
}

func normalizeFilter(f model.ProductFilter) (model.ProductFilter, error) {
	f.Query = strings.TrimSpace(f.Query)
	switch f.Sort {
	case "":
		f.Sort = model.SortNewest
	case model.SortNewest, model.SortPriceAsc, model.SortPriceDesc, model.SortRating:
	default:
		return f, Validationf("unknown sort %q", f.Sort)
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return f, Validation("min_price must not exceed max_price")
	}
	return f, nil
}

func filterVariant(f model.ProductFilter) string {
	var b strings.Builder
	fmt.Fprintf(&b, "q=%s|sort=%s|limit=%d|offset=%d|stock=%t", f.Query, f.Sort, f.Limit, f.Offset, f.InStock)
	if f.CategoryID != nil {
		fmt.Fprintf(&b, "|cat=%d", *f.CategoryID)
	}
	if f.MinPrice != nil {
		fmt.Fprintf(&b, "|min=%g", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		fmt.Fprintf(&b, "|max=%g", *f.MaxPrice)
	}
	return b.String()
}

// List is the public catalog listing.
func (s *ProductService) List(ctx context.Context, f model.ProductFilter) (*model.ProductPage, error) {
	f, err := normalizeFilter(f)
	if err != nil {
		return nil, err
	}
	page, err := cache.Load(ctx, s.Views, cache.ProductsPath(), filterVariant(f), func(ctx context.Context) (model.ProductPage, error) {
		items, total, err := s.Products.List(ctx, f)
		if err != nil {
			return model.ProductPage{}, err
		}
		return model.ProductPage{Items: items, Total: total}, nil
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *ProductService) Get(ctx context.Context, id int64) (*model.Product, error) {
	p, err := cache.Load(ctx, s.Views, cache.ProductPath(id), "", func(ctx context.Context) (model.Product, error) {
		p, err := s.Products.GetByID(ctx, id)
		if err != nil {
			return model.Product{}, err
		}
		return *p, nil
	})
	if err != nil {
		return nil, notFoundAs(err, "Product not found")
	}
	return &p, nil
}

func validateProduct(p *model.Product) error {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return Validation("title is required")
	}
	if p.Price < 0 {
		return Validation("price must be >= 0")
	}
	if p.Stock < 0 {
		return Validation("stock must be >= 0")
	}
	for name, values := range p.Options {
		if strings.TrimSpace(name) == "" || len(values) == 0 {
			return Validation("each option needs a name and at least one value")
		}
	}
	return nil
}

func (s *ProductService) checkCategory(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	if _, err := s.Categories.GetByID(ctx, *id); err != nil {
		return notFoundAs(err, "Category not found")
	}
	return nil
}

func (s *ProductService) invalidate(ctx context.Context, id int64) {
	s.Views.Invalidate(ctx, cache.ProductsPath(), cache.ProductPath(id), cache.DashboardPath())
}

func (s *ProductService) Create(ctx context.Context, actor *model.Identity, p *model.Product) (int64, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	if err := validateProduct(p); err != nil {
		return 0, err
	}
	if err := s.checkCategory(ctx, p.CategoryID); err != nil {
		return 0, err
	}
	id, err := s.Products.Create(ctx, p)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, id)
	return id, nil
}

func (s *ProductService) Update(ctx context.Context, actor *model.Identity, p *model.Product) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := validateProduct(p); err != nil {
		return err
	}
	if err := s.checkCategory(ctx, p.CategoryID); err != nil {
		return err
	}
	if err := s.Products.Update(ctx, p); err != nil {
		return notFoundAs(err, "Product not found")
	}
	s.invalidate(ctx, p.ID)
	return nil
}

func (s *ProductService) UpdateStock(ctx context.Context, actor *model.Identity, id int64, stock int) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if stock < 0 {
		return Validation("stock must be >= 0")
	}
	if err := s.Products.SetStock(ctx, id, stock); err != nil {
		return notFoundAs(err, "Product not found")
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *ProductService) Delete(ctx context.Context, actor *model.Identity, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.Products.Delete(ctx, id); err != nil {
		return notFoundAs(err, "Product not found")
	}
	s.invalidate(ctx, id)
	return nil
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

func Slugify(name string) string {
	return strings.Trim(slugStrip.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

func (s *ProductService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.Categories.List(ctx)
}

func (s *ProductService) CreateCategory(ctx context.Context, actor *model.Identity, name string) (int64, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, Validation("category name is required")
	}
	exists, err := s.Categories.ExistsByName(ctx, name)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, Conflict("category already exists")
	}
	id, err := s.Categories.Create(ctx, name, Slugify(name))
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return 0, Conflict("category already exists")
		}
		return 0, err
	}
	return id, nil
}

func (s *ProductService) UpdateCategory(ctx context.Context, actor *model.Identity, id int64, name string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Validation("category name is required")
	}
	if err := s.Categories.Update(ctx, id, name, Slugify(name)); err != nil {
		if repository.IsUniqueViolation(err) {
			return Conflict("category already exists")
		}
		return notFoundAs(err, "Category not found")
	}
	s.Views.Invalidate(ctx, cache.ProductsPath())
	return nil
}

// DeleteCategory detaches its products; they stay listed uncategorized.
func (s *ProductService) DeleteCategory(ctx context.Context, actor *model.Identity, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.Categories.Delete(ctx, id); err != nil {
		return notFoundAs(err, "Category not found")
	}
	s.Views.Invalidate(ctx, cache.ProductsPath())
	return nil
}
