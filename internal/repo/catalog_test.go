package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/pcshop/internal/domain"
	"github.com/Skotchmaster/pcshop/internal/models"
)

func titles(ps []models.Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Title)
	}
	return out
}

func TestListProducts(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	seedProduct(t, r, "B drive", "30.00")
	seedProduct(t, r, "A drive", "20.00")
	seedProduct(t, r, "C drive", "10.00")

	gpu := &models.Category{Name: "gpu"}
	require.NoError(t, r.CreateCategory(ctx, gpu))
	require.NoError(t, r.CreateProduct(ctx, &models.Product{Title: "Card", CategoryID: gpu.ID}))

	tests := []struct {
		name      string
		filter    ProductFilter
		wantTotal int64
		want      []string
	}{
		{
			name:      "all by id",
			filter:    ProductFilter{},
			wantTotal: 4,
			want:      []string{"B drive", "A drive", "C drive", "Card"},
		},
		{
			name:      "by category",
			filter:    ProductFilter{CategoryID: &gpu.ID},
			wantTotal: 1,
			want:      []string{"Card"},
		},
		{
			name:      "price descending",
			filter:    ProductFilter{Sort: "price", Desc: true, Limit: 2},
			wantTotal: 4,
			want:      []string{"B drive", "A drive"},
		},
		{
			name:      "title with offset",
			filter:    ProductFilter{Sort: "title", Offset: 1, Limit: 2},
			wantTotal: 4,
			want:      []string{"B drive", "C drive"},
		},
		{
			name:      "title substring",
			filter:    ProductFilter{Title: "DRIVE", Sort: "title"},
			wantTotal: 3,
			want:      []string{"A drive", "B drive", "C drive"},
		},
		{
			name:      "unknown sort falls back to id",
			filter:    ProductFilter{Sort: "price; DROP TABLE products"},
			wantTotal: 4,
			want:      []string{"B drive", "A drive", "C drive", "Card"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			total, items, err := r.ListProducts(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)
			assert.Equal(t, tt.want, titles(items))
		})
	}
}

func TestFindProductsByIDs_KeepsOrder(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	a := seedProduct(t, r, "A", "1.00")
	b := seedProduct(t, r, "B", "2.00")

	got, err := r.FindProductsByIDs(context.Background(), []uint{b.ID, 999, a.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, titles(got))
}

func TestCatalog_Conflicts(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	alice := seedUser(t, r, "alice")
	cart := seedCart(t, r, alice)
	ssd := seedProduct(t, r, "SSD", "10.00")
	unused := seedProduct(t, r, "HDD", "5.00")

	err := r.CreateCategory(ctx, &models.Category{Name: "storage"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	err = r.CreateProduct(ctx, &models.Product{Title: "SSD", CategoryID: ssd.CategoryID})
	assert.ErrorIs(t, err, domain.ErrConflict)

	renamed := *unused
	renamed.Title = "SSD"
	assert.ErrorIs(t, r.SaveProduct(ctx, &renamed), domain.ErrConflict)

	assert.ErrorIs(t, r.DeleteCategory(ctx, ssd.CategoryID), domain.ErrConflict)

	require.NoError(t, r.IncrementItem(ctx, cart.ID, ssd.ID))
	assert.ErrorIs(t, r.DeleteProduct(ctx, ssd.ID), domain.ErrConflict)
	assert.ErrorIs(t, r.DeleteAllProducts(ctx), domain.ErrConflict)

	require.NoError(t, r.DeleteProduct(ctx, unused.ID))
	assert.ErrorIs(t, r.DeleteProduct(ctx, unused.ID), domain.ErrNotFound)
}

func TestCategory_RenameAndDelete(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	cpu := &models.Category{Name: "cpu"}
	require.NoError(t, r.CreateCategory(ctx, cpu))
	require.NoError(t, r.CreateCategory(ctx, &models.Category{Name: "ram"}))

	assert.ErrorIs(t, r.RenameCategory(ctx, cpu, "ram"), domain.ErrConflict)
	require.NoError(t, r.RenameCategory(ctx, cpu, "processors"))

	got, err := r.FindCategoryByName(ctx, "processors")
	require.NoError(t, err)
	assert.Equal(t, cpu.ID, got.ID)
	_, err = r.FindCategoryByName(ctx, "cpu")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, r.DeleteCategory(ctx, cpu.ID))
	require.NoError(t, r.DeleteAllCategories(ctx))
	cats, err := r.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, cats)
}

func TestImages(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	img := &models.Image{Name: "a.webp", Type: "image/webp", Data: []byte{1, 2, 3}}
	require.NoError(t, r.CreateImage(ctx, img))
	assert.ErrorIs(t, r.CreateImage(ctx, &models.Image{Name: "a.webp", Type: "image/webp", Data: []byte{1}}), domain.ErrConflict)

	list, err := r.ListImages(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].Data)

	got, err := r.FindImage(ctx, "a.webp")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got.Data)

	require.NoError(t, r.DeleteImage(ctx, "a.webp"))
	assert.ErrorIs(t, r.DeleteImage(ctx, "a.webp"), domain.ErrNotFound)
}
