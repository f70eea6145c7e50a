package usecase_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"storefront/internal/domain/model"
	"storefront/internal/infra/db/dbtest"
	infra "storefront/internal/infra/repository"
	"storefront/internal/usecase"
)

// =====================
// helper
// =====================

type fixture struct {
	db  *gorm.DB
	txm *infra.TxManagerGorm
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	gdb := dbtest.New(t)
	return fixture{db: gdb, txm: infra.NewTxManagerGorm(gdb)}
}

func (f fixture) seedUser(t *testing.T, email string, role model.Role) *model.User {
	t.Helper()
	u := &model.User{Name: "user " + email, Email: email, PasswordHash: "x", Role: role}
	require.NoError(t, infra.NewUserGormRepository(f.db).Create(context.Background(), u))
	return u
}

func (f fixture) seedProduct(t *testing.T, name, price string, stock int64) model.Product {
	t.Helper()
	p, err := infra.NewProductGormRepository(f.db).Create(context.Background(), model.Product{
		Name:     name,
		Category: "general",
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
	})
	require.NoError(t, err)
	return p
}

func (f fixture) stockOf(t *testing.T, id int64) int64 {
	t.Helper()
	var p model.Product
	require.NoError(t, f.db.Unscoped().First(&p, id).Error)
	return p.Stock
}

func (f fixture) count(t *testing.T, m any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(m).Count(&n).Error)
	return n
}

func principal(u *model.User) usecase.Principal {
	return usecase.Principal{UserID: u.ID, Role: u.Role}
}

func requireCode(t *testing.T, err error, code string) *usecase.AppError {
	t.Helper()
	require.Error(t, err)
	ae, ok := usecase.AsAppError(err)
	require.True(t, ok, "not an AppError: %v", err)
	require.Equal(t, code, ae.Code, ae.Message)
	return ae
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// =====================
// Mocks
// =====================

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(ctx context.Context, topic string, key string, event any) error {
	args := m.Called(ctx, topic, key, event)
	return args.Error(0)
}

type RecorderMock struct {
	mu       sync.Mutex
	placed   int
	rejected []string
	statuses []string
}

func (r *RecorderMock) OrderPlaced() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.placed++
}

func (r *RecorderMock) OrderRejected(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected = append(r.rejected, reason)
}

func (r *RecorderMock) OrderStatusUpdated(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(ctx context.Context, id int64) (model.Product, bool) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Bool(1)
}

func (m *CacheMock) Set(ctx context.Context, p model.Product) {
	m.Called(ctx, p)
}

func (m *CacheMock) Invalidate(ctx context.Context, ids ...int64) {
	m.Called(ctx, ids)
}
