package repo

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/pcshop/internal/domain"
	"github.com/Skotchmaster/pcshop/internal/models"
)

var productSortColumns = map[string]string{
	"id":    "products.id",
	"title": "products.title",
	"price": "products.price",
}

type ProductFilter struct {
	CategoryID *uint
	Title      string // case-insensitive substring
	Offset     int
	Limit      int // 0 means no limit
	Sort       string
	Desc       bool
}

func (r *GormRepo) CreateCategory(ctx context.Context, c *models.Category) error {
	taken, err := r.exists(ctx, &models.Category{}, "name = ?", c.Name)
	if err != nil {
		return classify(err, "check category")
	}
	if taken {
		return fmt.Errorf("category %q already exists: %w", c.Name, domain.ErrConflict)
	}
	if err := r.DB.WithContext(ctx).Create(c).Error; err != nil {
		return classify(err, "create category")
	}
	return nil
}

func (r *GormRepo) FindCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var c models.Category
	if err := r.DB.WithContext(ctx).Where("name = ?", name).First(&c).Error; err != nil {
		return nil, classify(err, fmt.Sprintf("category %q", name))
	}
	return &c, nil
}

func (r *GormRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if err := r.DB.WithContext(ctx).Order("id").Find(&cats).Error; err != nil {
		return nil, classify(err, "list categories")
	}
	return cats, nil
}

func (r *GormRepo) RenameCategory(ctx context.Context, c *models.Category, name string) error {
	taken, err := r.exists(ctx, &models.Category{}, "name = ? AND id <> ?", name, c.ID)
	if err != nil {
		return classify(err, "check category")
	}
	if taken {
		return fmt.Errorf("category %q already exists: %w", name, domain.ErrConflict)
	}
	if err := r.DB.WithContext(ctx).Model(c).Update("name", name).Error; err != nil {
		return classify(err, "rename category")
	}
	return nil
}

func (r *GormRepo) DeleteCategory(ctx context.Context, id uint) error {
	inUse, err := r.exists(ctx, &models.Product{}, "category_id = ?", id)
	if err != nil {
		return classify(err, "check category")
	}
	if inUse {
		return fmt.Errorf("category has products: %w", domain.ErrConflict)
	}
	return classify(r.DB.WithContext(ctx).Delete(&models.Category{}, id).Error, "delete category")
}

func (r *GormRepo) DeleteAllCategories(ctx context.Context) error {
	inUse, err := r.exists(ctx, &models.Product{}, "1 = 1")
	if err != nil {
		return classify(err, "check categories")
	}
	if inUse {
		return fmt.Errorf("categories have products: %w", domain.ErrConflict)
	}
	err = r.DB.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Category{}).Error
	return classify(err, "delete categories")
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	taken, err := r.exists(ctx, &models.Product{}, "title = ?", p.Title)
	if err != nil {
		return classify(err, "check product")
	}
	if taken {
		return fmt.Errorf("product %q already exists: %w", p.Title, domain.ErrConflict)
	}
	if err := r.DB.WithContext(ctx).Omit("Category").Create(p).Error; err != nil {
		return classify(err, "create product")
	}
	return nil
}

func (r *GormRepo) FindProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).Preload("Category").First(&p, id).Error; err != nil {
		return nil, classify(err, fmt.Sprintf("product %d", id))
	}
	return &p, nil
}

func (r *GormRepo) ListProducts(ctx context.Context, f ProductFilter) (int64, []models.Product, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{})
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if t := strings.TrimSpace(f.Title); t != "" {
		q = q.Where("LOWER(products.title) LIKE ?", "%"+strings.ToLower(t)+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, classify(err, "count products")
	}

	order := "products.id"
	if col, ok := productSortColumns[f.Sort]; ok {
		order = col
	}
	if f.Desc {
		order += " DESC"
	}

	q = q.Preload("Category").Order(order).Offset(f.Offset)
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var items []models.Product
	if err := q.Find(&items).Error; err != nil {
		return 0, nil, classify(err, "list products")
	}
	return total, items, nil
}

// FindProductsByIDs loads the given products keeping the order of ids.
// Unknown ids are skipped.
func (r *GormRepo) FindProductsByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var found []models.Product
	if err := r.DB.WithContext(ctx).Preload("Category").Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, classify(err, "find products")
	}

	byID := make(map[uint]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]models.Product, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *GormRepo) SaveProduct(ctx context.Context, p *models.Product) error {
	taken, err := r.exists(ctx, &models.Product{}, "title = ? AND id <> ?", p.Title, p.ID)
	if err != nil {
		return classify(err, "check product")
	}
	if taken {
		return fmt.Errorf("product %q already exists: %w", p.Title, domain.ErrConflict)
	}
	if err := r.DB.WithContext(ctx).Omit("Category").Save(p).Error; err != nil {
		return classify(err, "save product")
	}
	return nil
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) error {
	if err := r.ensureNotOrdered(ctx, "product_id = ?", id); err != nil {
		return err
	}
	res := r.DB.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return classify(res.Error, "delete product")
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *GormRepo) DeleteAllProducts(ctx context.Context) error {
	if err := r.ensureNotOrdered(ctx, "1 = 1"); err != nil {
		return err
	}
	err := r.DB.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Product{}).Error
	return classify(err, "delete products")
}

func (r *GormRepo) ensureNotOrdered(ctx context.Context, query string, args ...any) error {
	used, err := r.exists(ctx, &models.OrderItem{}, query, args...)
	if err != nil {
		return classify(err, "check order items")
	}
	if used {
		return fmt.Errorf("product is referenced by orders: %w", domain.ErrConflict)
	}
	return nil
}
