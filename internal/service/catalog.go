package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/pcshop/internal/domain"
	"github.com/Skotchmaster/pcshop/internal/models"
	"github.com/Skotchmaster/pcshop/internal/repo"
	"github.com/Skotchmaster/pcshop/internal/util"
	"github.com/Skotchmaster/pcshop/pkg/logging"
)

const PageSize = 12

// ProductIndex is the full-text index kept in sync with the products table.
type ProductIndex interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
	DeleteAll(ctx context.Context) error
	Search(ctx context.Context, query string, limit int) ([]uint, error)
}

// CatalogCache holds rendered catalog reads until the next catalog write.
type CatalogCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any) error
	Invalidate(ctx context.Context) error
}

type CatalogService struct {
	Repo  *repo.GormRepo
	Index ProductIndex
	Cache CatalogCache
}

type ProductInput struct {
	Title    string           `json:"title"`
	Category string           `json:"category"`
	Price    *decimal.Decimal `json:"price"`
	ImgName  string           `json:"img_name"`
}

func (in ProductInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, notBlank),
		validation.Field(&in.Category, notBlank),
		validation.Field(&in.Price, validation.Required.Error("cannot be null"), validation.By(nonNegativePrice)),
	)
}

// ProductPatch changes the non-empty fields of a product.
type ProductPatch struct {
	Title    string           `json:"title"`
	Category string           `json:"category"`
	Price    *decimal.Decimal `json:"price"`
	ImgName  string           `json:"img_name"`
}

type ProductQuery struct {
	Category string
	Page     *int
	Sort     string
	Order    string
}

func (q ProductQuery) paged() bool {
	return q.Page != nil || q.Sort != ""
}

type ProductPage struct {
	Content       []models.Product `json:"content"`
	TotalElements int64            `json:"total_elements"`
	TotalPages    int              `json:"total_pages"`
	Page          int              `json:"page"`
	Size          int              `json:"size"`
}

func nonNegativePrice(value interface{}) error {
	var d decimal.Decimal
	switch v := value.(type) {
	case decimal.Decimal:
		d = v
	case *decimal.Decimal:
		if v == nil {
			return nil
		}
		d = *v
	default:
		return nil
	}
	if d.IsNegative() {
		return errors.New("must be no less than 0")
	}
	return nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	var c *models.Category
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		var err error
		c, err = createCategory(ctx, tx, name)
		return err
	})
	if err != nil {
		logging.FromContext(ctx).Warn("create_category_failed", "svc", "catalog.create_category", "name", name, "error", err)
		return nil, err
	}
	s.invalidate(ctx)
	return c, nil
}

// CreateCategories stores all names or none of them.
func (s *CatalogService) CreateCategories(ctx context.Context, names []string) ([]models.Category, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.create_categories", "count", len(names))

	out := make([]models.Category, 0, len(names))
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		for _, name := range names {
			c, err := createCategory(ctx, tx, name)
			if err != nil {
				return err
			}
			out = append(out, *c)
		}
		return nil
	})
	if err != nil {
		l.Warn("create_categories_failed", "error", err)
		return nil, err
	}
	s.invalidate(ctx)
	l.Info("categories_created")
	return out, nil
}

func createCategory(ctx context.Context, tx *repo.GormRepo, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name cannot be blank", domain.ErrInvalidInput)
	}
	c := &models.Category{Name: name}
	if err := tx.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	const key = "categories"

	var cats []models.Category
	if s.cached(ctx, key, &cats) {
		return cats, nil
	}
	cats, err := s.Repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, cats)
	return cats, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, name string) (*models.Category, error) {
	return s.Repo.FindCategoryByName(ctx, name)
}

func (s *CatalogService) RenameCategory(ctx context.Context, name, newName string) (*models.Category, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, fmt.Errorf("%w: category name cannot be blank", domain.ErrInvalidInput)
	}
	c, err := s.Repo.FindCategoryByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.RenameCategory(ctx, c, newName); err != nil {
		return nil, err
	}
	c.Name = newName
	s.invalidate(ctx)
	return c, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, name string) error {
	c, err := s.Repo.FindCategoryByName(ctx, name)
	if err != nil {
		return err
	}
	if err := s.Repo.DeleteCategory(ctx, c.ID); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) DeleteAllCategories(ctx context.Context) error {
	if err := s.Repo.DeleteAllCategories(ctx); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	var p *models.Product
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		var err error
		p, err = createProduct(ctx, tx, in)
		return err
	})
	if err != nil {
		logging.FromContext(ctx).Warn("create_product_failed", "svc", "catalog.create_product", "title", in.Title, "error", err)
		return nil, err
	}
	s.indexed(ctx, p)
	s.invalidate(ctx)
	return p, nil
}

// CreateProducts stores all inputs or none of them.
func (s *CatalogService) CreateProducts(ctx context.Context, ins []ProductInput) ([]models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.create_products", "count", len(ins))

	out := make([]models.Product, 0, len(ins))
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		for _, in := range ins {
			p, err := createProduct(ctx, tx, in)
			if err != nil {
				return err
			}
			out = append(out, *p)
		}
		return nil
	})
	if err != nil {
		l.Warn("create_products_failed", "error", err)
		return nil, err
	}
	for i := range out {
		s.indexed(ctx, &out[i])
	}
	s.invalidate(ctx)
	l.Info("products_created")
	return out, nil
}

func createProduct(ctx context.Context, tx *repo.GormRepo, in ProductInput) (*models.Product, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}

	cat, err := tx.FindCategoryByName(ctx, in.Category)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: Category with given name not found", domain.ErrInvalidInput)
		}
		return nil, err
	}

	p := &models.Product{
		Title:      in.Title,
		Price:      in.Price.Round(2),
		CategoryID: cat.ID,
		Category:   cat,
		ImgName:    strings.TrimSpace(in.ImgName),
	}
	if err := tx.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	return s.Repo.FindProduct(ctx, id)
}

// ListProducts returns every matching product when neither page nor sort is
// given. Otherwise it returns one page of PageSize products; an unknown
// category then widens the listing to all products.
func (s *CatalogService) ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	key := productsKey(q)
	var cached ProductPage
	if s.cached(ctx, key, &cached) {
		return &cached, nil
	}

	f := repo.ProductFilter{}
	if q.paged() {
		page := 0
		if q.Page != nil {
			page = *q.Page
		}
		if page < 0 {
			return nil, fmt.Errorf("%w: page must not be negative", domain.ErrInvalidInput)
		}
		sort := strings.ToLower(strings.TrimSpace(q.Sort))
		if sort != "" && !sortable(sort) {
			return nil, fmt.Errorf("%w: cannot sort by %q", domain.ErrInvalidInput, q.Sort)
		}
		f.Sort = sort
		f.Desc = strings.EqualFold(q.Order, "desc")
		offset, limit, err := util.Calculate(page, PageSize)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", domain.ErrInvalidInput, page, err)
		}
		f.Offset, f.Limit = offset, limit
	}

	if name := strings.TrimSpace(q.Category); name != "" {
		cat, err := s.Repo.FindCategoryByName(ctx, name)
		switch {
		case err == nil:
			f.CategoryID = &cat.ID
		case errors.Is(err, domain.ErrNotFound) && q.paged():
		default:
			return nil, err
		}
	}

	total, items, err := s.Repo.ListProducts(ctx, f)
	if err != nil {
		return nil, err
	}

	out := &ProductPage{Content: items, TotalElements: total, Size: len(items), TotalPages: 1}
	if f.Limit > 0 {
		out.Page = f.Offset / PageSize
		out.Size = PageSize
		out.TotalPages = util.TotalPages(total, PageSize)
	}
	s.store(ctx, key, out)
	return out, nil
}

func sortable(field string) bool {
	switch field {
	case "id", "title", "price":
		return true
	}
	return false
}

func productsKey(q ProductQuery) string {
	page := "-"
	if q.Page != nil {
		page = fmt.Sprint(*q.Page)
	}
	return fmt.Sprintf("products:%s:%s:%s:%s",
		strings.TrimSpace(q.Category), page, strings.ToLower(q.Sort), strings.ToLower(q.Order))
}

// SearchProducts ranks products through the search index when one is
// configured and falls back to a title match otherwise.
func (s *CatalogService) SearchProducts(ctx context.Context, query string) ([]models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.search")

	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Product{}, nil
	}

	if s.Index != nil {
		ids, err := s.Index.Search(ctx, query, PageSize)
		if err == nil {
			return s.Repo.FindProductsByIDs(ctx, ids)
		}
		l.Warn("search_index_failed", "reason", "falling back to title match", "error", err)
	}

	_, items, err := s.Repo.ListProducts(ctx, repo.ProductFilter{Title: query, Sort: "title", Limit: PageSize})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, patch ProductPatch) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.update_product", "product_id", id)

	p, err := s.Repo.FindProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	setIfPresent(&p.Title, patch.Title)
	setIfPresent(&p.ImgName, patch.ImgName)
	if patch.Price != nil {
		if err := nonNegativePrice(*patch.Price); err != nil {
			return nil, fmt.Errorf("%w: price: %v", domain.ErrInvalidInput, err)
		}
		p.Price = patch.Price.Round(2)
	}
	if name := strings.TrimSpace(patch.Category); name != "" {
		cat, err := s.Repo.FindCategoryByName(ctx, name)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: Category with given name not found", domain.ErrInvalidInput)
			}
			return nil, err
		}
		p.CategoryID = cat.ID
		p.Category = cat
	}

	if err := s.Repo.SaveProduct(ctx, p); err != nil {
		l.Warn("update_product_failed", "error", err)
		return nil, err
	}
	s.indexed(ctx, p)
	s.invalidate(ctx)
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("unindex_product_failed", "product_id", id, "error", err)
		}
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) DeleteAllProducts(ctx context.Context) error {
	if err := s.Repo.DeleteAllProducts(ctx); err != nil {
		return err
	}
	if s.Index != nil {
		if err := s.Index.DeleteAll(ctx); err != nil {
			logging.FromContext(ctx).Warn("unindex_products_failed", "error", err)
		}
	}
	s.invalidate(ctx)
	return nil
}

// Reindex pushes every stored product into the search index.
func (s *CatalogService) Reindex(ctx context.Context) (int, error) {
	if s.Index == nil {
		return 0, nil
	}
	_, items, err := s.Repo.ListProducts(ctx, repo.ProductFilter{})
	if err != nil {
		return 0, err
	}
	for i := range items {
		if err := s.Index.IndexProduct(ctx, &items[i]); err != nil {
			return i, fmt.Errorf("index product %d: %w", items[i].ID, err)
		}
	}
	return len(items), nil
}

func (s *CatalogService) indexed(ctx context.Context, p *models.Product) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexProduct(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("index_product_failed", "product_id", p.ID, "error", err)
	}
}

func (s *CatalogService) cached(ctx context.Context, key string, dst any) bool {
	if s.Cache == nil {
		return false
	}
	ok, err := s.Cache.Get(ctx, key, dst)
	if err != nil {
		logging.FromContext(ctx).Warn("catalog_cache_read_failed", "key", key, "error", err)
		return false
	}
	return ok
}

func (s *CatalogService) store(ctx context.Context, key string, v any) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Set(ctx, key, v); err != nil {
		logging.FromContext(ctx).Warn("catalog_cache_write_failed", "key", key, "error", err)
	}
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx); err != nil {
		logging.FromContext(ctx).Warn("catalog_cache_invalidate_failed", "error", err)
	}
}
