package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain/model"
	infra "storefront/internal/infra/repository"
	"storefront/internal/usecase"
)

// メモリ上のImageStore
type memImages struct {
	mu      sync.Mutex
	files   map[string][]byte
	types   map[string]string
	deleted []string
	putErr  error
}

func newMemImages() *memImages {
	return &memImages{files: map[string][]byte{}, types: map[string]string{}}
}

func (m *memImages) Put(ctx context.Context, path string, r io.Reader, contentType string) error {
	if m.putErr != nil {
		return m.putErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = b
	m.types[path] = contentType
	return nil
}

func (m *memImages) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
	m.deleted = append(m.deleted, path)
	return nil
}

func (m *memImages) URL(path string) string { return "/uploads/" + path }

// 最小のPNG（シグネチャだけで判定される）
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)

func int64p(v int64) *int64 { return &v }

func newProductUC(f fixture, cache usecase.ProductCache, images usecase.ImageStore, max int64) *usecase.ProductUsecase {
	return usecase.NewProductUsecase(f.txm, infra.NewProductGormRepository(f.db), cache, images, max, nil)
}

func TestProductCreate_ValidatesAndAudits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.seedUser(t, "admin@example.com", model.RoleAdmin)
	uc := newProductUC(f, nil, nil, 1<<20)

	out, err := uc.Create(ctx, principal(admin), usecase.ProductInput{
		Name:     "  Notebook ",
		Category: "stationery",
		Price:    dec("3.25"),
		Stock:    int64p(7),
	})
	require.NoError(t, err)
	assert.Equal(t, "Notebook", out.Name)
	assert.Equal(t, int64(7), out.Stock)
	assert.True(t, out.Price.Equal(dec("3.25")))

	var logs []model.AuditLog
	require.NoError(t, f.db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, model.AuditActionCreateProduct, logs[0].Action)
	assert.Equal(t, out.ID, logs[0].ResourceID)
	assert.Equal(t, admin.ID, logs[0].ActorUserID)
}

func TestProductCreate_Violations(t *testing.T) {
	f := newFixture(t)
	admin := f.seedUser(t, "admin@example.com", model.RoleAdmin)
	uc := newProductUC(f, nil, nil, 1<<20)

	tests := []struct {
		name  string
		in    usecase.ProductInput
		field string
	}{
		{"blank name", usecase.ProductInput{Name: " ", Price: dec("1"), Stock: int64p(1)}, "name"},
		{"long name", usecase.ProductInput{Name: strings.Repeat("a", 256), Price: dec("1"), Stock: int64p(1)}, "name"},
		{"zero price", usecase.ProductInput{Name: "x", Price: dec("0"), Stock: int64p(1)}, "price"},
		{"three decimals", usecase.ProductInput{Name: "x", Price: dec("1.005"), Stock: int64p(1)}, "price"},
		{"negative stock", usecase.ProductInput{Name: "x", Price: dec("1"), Stock: int64p(-1)}, "stock"},
		{"missing stock", usecase.ProductInput{Name: "x", Price: dec("1")}, "stock"},
		{"long category", usecase.ProductInput{Name: "x", Category: strings.Repeat("c", 101), Price: dec("1"), Stock: int64p(1)}, "category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Create(context.Background(), principal(admin), tt.in)
			ae := requireCode(t, err, usecase.CodeValidation)
			assert.Contains(t, ae.Details, tt.field)
		})
	}
	assert.Zero(t, f.count(t, &model.Product{}))
}

func TestProductCreate_CollectsAllViolations(t *testing.T) {
	f := newFixture(t)
	admin := f.seedUser(t, "admin@example.com", model.RoleAdmin)
	uc := newProductUC(f, nil, nil, 1<<20)

	_, err := uc.Create(context.Background(), principal(admin), usecase.ProductInput{Stock: int64p(-1)})
	ae := requireCode(t, err, usecase.CodeValidation)
	details, ok := ae.Details.(map[string]string)
	require.True(t, ok)
	assert.Len(t, details, 3)
}

func TestProductGet_ReadThroughCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.seedProduct(t, "pen", "1.00", 3)

	cache := new(CacheMock)
	cache.On("Get", mock.Anything, p.ID).Return(nil, false).Once()
	cache.On("Set", mock.Anything, mock.MatchedBy(func(m model.Product) bool { return m.ID == p.ID })).Return().Once()
	uc := newProductUC(f, cache, nil, 1<<20)

	out, err := uc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "pen", out.Name)

	// 2回目はキャッシュから（DBの値とは違うものを返させる）
	cached := p
	cached.Name = "from cache"
	cache.On("Get", mock.Anything, p.ID).Return(cached, true).Once()
	out, err = uc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "from cache", out.Name)

	cache.AssertExpectations(t)
}

func TestProductGet_NotFound(t *testing.T) {
	f := newFixture(t)
	uc := newProductUC(f, nil, nil, 1<<20)

	_, err := uc.Get(context.Background(), 404)
	ae := requireCode(t, err, usecase.CodeNotFound)
	assert.Equal(t, usecase.KindNotFound, ae.Kind)
}

func TestProductUpdate_StockChangeRecordsAdjustment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.seedUser(t, "admin@example.com", model.RoleAdmin)
	p := f.seedProduct(t, "pen", "1.00", 3)

	cache := new(CacheMock)
	cache.On("Invalidate", mock.Anything, []int64{p.ID}).Return()
	uc := newProductUC(f, cache, nil, 1<<20)

	out, err := uc.Update(ctx, principal(admin), p.ID, usecase.ProductInput{Name: "pen", Price: dec("2.00"), Stock: int64p(10)})
	require.NoError(t, err)
	assert.Equal(t, int64(10), out.Stock)
	assert.True(t, out.Price.Equal(dec("2.00")))

	var adj []model.InventoryAdjustment
	require.NoError(t, f.db.Find(&adj).Error)
	require.Len(t, adj, 1)
	assert.Equal(t, int64(7), adj[0].Delta)
	assert.Equal(t, admin.ID, adj[0].AdminUserID)

	cache.AssertExpectations(t)
}

func TestProductUpdate_NotFound(t *testing.T) {
	f := newFixture(t)
	admin := f.seedUser(t, "admin@example.com", model.RoleAdmin)
	uc := newProductUC(f, nil, nil, 1<<20)

	_, err := uc.Update(context.Background(), principal(admin), 77, usecase.ProductInput{Name: "x", Price: dec("1")})
	requireCode(t, err, usecase.CodeNotFound)
}

func TestProductDelete_SoftDeletes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.seedUser(t, "admin@example.com", model.RoleAdmin)
	p := f.seedProduct(t, "pen", "1.00", 3)
	uc := newProductUC(f, nil, nil, 1<<20)

	require.NoError(t, uc.Delete(ctx, principal(admin), p.ID))

	_, err := uc.Get(ctx, p.ID)
	requireCode(t, err, usecase.CodeNotFound)

	// 行自体は残っている
	var n int64
	require.NoError(t, f.db.Unscoped().Model(&model.Product{}).Where("id = ?", p.ID).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	requireCode(t, uc.Delete(ctx, principal(admin), p.ID), usecase.CodeNotFound)
}

func TestProductList_CategoryAndPaging(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		f.seedProduct(t, "p", "1.00", 1)
	}
	_, err := infra.NewProductGormRepository(f.db).Create(context.Background(), model.Product{
		Name: "book", Category: "books", Price: dec("5"), Stock: 1,
	})
	require.NoError(t, err)

	uc := newProductUC(f, nil, nil, 1<<20)

	all, err := uc.List(context.Background(), "", 2, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(6), all.TotalElements)
	assert.Equal(t, 2, all.TotalPages)
	assert.Equal(t, 2, all.Page)
	assert.Len(t, all.Content, 2)

	books, err := uc.List(context.Background(), "books", 1, 10)
	require.NoError(t, err)
	require.Len(t, books.Content, 1)
	assert.Equal(t, "book", books.Content[0].Name)

	empty, err := uc.List(context.Background(), "", 9, 10)
	require.NoError(t, err)
	assert.NotNil(t, empty.Content)
	assert.Empty(t, empty.Content)

	// offsetが溢れるpageは1ページ目を返さずに弾く
	_, err = uc.List(context.Background(), "", math.MaxInt, usecase.MaxPageSize)
	requireCode(t, err, usecase.CodeValidation)
}

func TestProductRestock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.seedUser(t, "admin@example.com", model.RoleAdmin)
	p := f.seedProduct(t, "pen", "1.00", 8)
	uc := newProductUC(f, nil, nil, 1<<20)

	out, err := uc.Restock(ctx, principal(admin), p.ID, usecase.RestockInput{Stock: 3, Reason: "stocktake"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), out.Stock)

	var adj model.InventoryAdjustment
	require.NoError(t, f.db.First(&adj).Error)
	assert.Equal(t, int64(-5), adj.Delta)
	assert.Equal(t, "stocktake", adj.Reason)

	var audit model.AuditLog
	require.NoError(t, f.db.Where("action = ?", model.AuditActionUpdateStock).First(&audit).Error)
	assert.JSONEq(t, `{"stock":8}`, string(audit.Before))

	_, err = uc.Restock(ctx, principal(admin), p.ID, usecase.RestockInput{Stock: -1, Reason: ""})
	ae := requireCode(t, err, usecase.CodeValidation)
	assert.Contains(t, ae.Details, "stock")
	assert.Contains(t, ae.Details, "reason")
}

func TestProductUploadImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.seedProduct(t, "pen", "1.00", 1)
	images := newMemImages()
	uc := newProductUC(f, nil, images, 1024)

	out, err := uc.UploadImage(ctx, p.ID, usecase.ImageUpload{Filename: "a.PNG", Size: int64(len(pngBytes)), Content: bytes.NewReader(pngBytes)})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out.Image, "/uploads/products/"))
	assert.True(t, strings.HasSuffix(out.Image, ".png"))

	first := strings.TrimPrefix(out.Image, "/uploads/")
	assert.Equal(t, "image/png", images.types[first])

	// 差し替えると古い画像は消える
	out2, err := uc.UploadImage(ctx, p.ID, usecase.ImageUpload{Filename: "b.png", Size: int64(len(pngBytes)), Content: bytes.NewReader(pngBytes)})
	require.NoError(t, err)
	assert.NotEqual(t, out.Image, out2.Image)
	assert.Contains(t, images.deleted, first)

	got, err := uc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, out2.Image, got.Image)
}

func TestProductUploadImage_Rejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.seedProduct(t, "pen", "1.00", 1)
	images := newMemImages()
	uc := newProductUC(f, nil, images, 16)

	_, err := uc.UploadImage(ctx, p.ID, usecase.ImageUpload{Filename: "a.png", Size: 17, Content: bytes.NewReader(pngBytes)})
	requireCode(t, err, usecase.CodeFileTooLarge)

	// Sizeが嘘でも読んだ量で弾く
	_, err = uc.UploadImage(ctx, p.ID, usecase.ImageUpload{Filename: "a.png", Size: 1, Content: bytes.NewReader(pngBytes)})
	requireCode(t, err, usecase.CodeFileTooLarge)

	_, err = uc.UploadImage(ctx, p.ID, usecase.ImageUpload{Filename: "a.png", Size: 5, Content: strings.NewReader("hello")})
	requireCode(t, err, usecase.CodeInvalidFile)

	_, err = uc.UploadImage(ctx, 999, usecase.ImageUpload{Filename: "a.png", Size: 1, Content: strings.NewReader("x")})
	requireCode(t, err, usecase.CodeNotFound)

	assert.Empty(t, images.files)
}

func TestProductUploadImage_StoreFailure(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "pen", "1.00", 1)
	images := newMemImages()
	images.putErr = errors.New("disk full")
	uc := newProductUC(f, nil, images, 1024)

	_, err := uc.UploadImage(context.Background(), p.ID, usecase.ImageUpload{Filename: "a.png", Size: int64(len(pngBytes)), Content: bytes.NewReader(pngBytes)})
	ae := requireCode(t, err, usecase.CodeInternal)
	assert.Equal(t, usecase.KindInternal, ae.Kind)
}
