package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain/model"
	"storefront/internal/repository"
	"storefront/internal/usecase"
)

// =====================
// Mocks
// =====================

type MockUserRepo struct{ mock.Mock }

func (m *MockUserRepo) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil {
		user.ID = 1
	}
	return args.Error(0)
}

func (m *MockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepo) List(ctx context.Context, f repository.UserListFilter) ([]model.User, int64, error) {
	panic("not used in auth tests")
}

func (m *MockUserRepo) Update(ctx context.Context, user *model.User) error {
	panic("not used in auth tests")
}

func (m *MockUserRepo) Delete(ctx context.Context, id int64) error {
	panic("not used in auth tests")
}

func (m *MockUserRepo) IncrementTokenVersion(ctx context.Context, id int64) error {
	panic("not used in auth tests")
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func appCode(t *testing.T, err error) string {
	t.Helper()
	ae, ok := usecase.AsAppError(err)
	require.True(t, ok, "not an AppError: %v", err)
	return ae.Code
}

// =====================
// Register
// =====================

func TestRegister_CreatesCustomerAndIssuesToken(t *testing.T) {
	repo := new(MockUserRepo)
	repo.On("FindByEmail", mock.Anything, "alice@example.com").Return(nil, repository.ErrNotFound)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Role == model.RoleCustomer && u.PasswordHash != "" && u.PasswordHash != "s3cure-pass"
	})).Return(nil)

	issuer := NewJWTIssuer("secret", time.Hour)
	uc := NewRegisterUserUsecase(repo, NewBcryptPasswordHasher(4), issuer, fixedClock{time.Now()})

	out, err := uc.Execute(context.Background(), RegisterUserInput{Name: "Alice", Email: " Alice@Example.com ", Password: "s3cure-pass"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", out.Username)
	assert.Equal(t, "CUSTOMER", out.Role)

	claims, err := issuer.Parse(out.Token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, 0, claims.TV)

	repo.AssertExpectations(t)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := new(MockUserRepo)
	repo.On("FindByEmail", mock.Anything, "alice@example.com").Return(&model.User{ID: 9}, nil)
	uc := NewRegisterUserUsecase(repo, NewBcryptPasswordHasher(4), NewJWTIssuer("s", time.Hour), SystemClock{})

	_, err := uc.Execute(context.Background(), RegisterUserInput{Name: "A", Email: "alice@example.com", Password: "s3cure-pass"})
	assert.Equal(t, usecase.CodeEmailAlreadyExists, appCode(t, err))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_RaceOnUniqueIndex(t *testing.T) {
	repo := new(MockUserRepo)
	repo.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, repository.ErrNotFound)
	repo.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicate)
	uc := NewRegisterUserUsecase(repo, NewBcryptPasswordHasher(4), NewJWTIssuer("s", time.Hour), SystemClock{})

	_, err := uc.Execute(context.Background(), RegisterUserInput{Name: "A", Email: "alice@example.com", Password: "s3cure-pass"})
	assert.Equal(t, usecase.CodeEmailAlreadyExists, appCode(t, err))
}

func TestRegister_Validation(t *testing.T) {
	repo := new(MockUserRepo)
	uc := NewRegisterUserUsecase(repo, NewBcryptPasswordHasher(4), NewJWTIssuer("s", time.Hour), SystemClock{})

	_, err := uc.Execute(context.Background(), RegisterUserInput{Name: "", Email: "bad", Password: "password"})
	ae, ok := usecase.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, usecase.CodeValidation, ae.Code)
	assert.Contains(t, ae.Details, "name")
	assert.Contains(t, ae.Details, "email")
	assert.Contains(t, ae.Details, "password")
	repo.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
}

// =====================
// Login
// =====================

func TestLogin(t *testing.T) {
	hasher := NewBcryptPasswordHasher(4)
	hash, err := hasher.Hash("s3cure-pass")
	require.NoError(t, err)

	user := &model.User{ID: 5, Name: "Bob", Email: "bob@example.com", PasswordHash: hash, Role: model.RoleAdmin, TokenVersion: 3}
	repo := new(MockUserRepo)
	repo.On("FindByEmail", mock.Anything, "bob@example.com").Return(user, nil)
	repo.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, repository.ErrNotFound)
	repo.On("FindByEmail", mock.Anything, "broken@example.com").Return(nil, errors.New("db down"))

	issuer := NewJWTIssuer("secret", time.Hour)
	uc := NewLoginUsecase(repo, NewBcryptPasswordVerifier(), issuer, SystemClock{})
	ctx := context.Background()

	out, err := uc.Execute(ctx, LoginInput{Email: "bob@example.com", Password: "s3cure-pass"})
	require.NoError(t, err)
	assert.Equal(t, "Bob", out.Username)
	assert.Equal(t, "ADMIN", out.Role)
	claims, err := issuer.Parse(out.Token)
	require.NoError(t, err)
	assert.Equal(t, 3, claims.TV)
	assert.Equal(t, "ADMIN", claims.Role)

	_, err = uc.Execute(ctx, LoginInput{Email: "bob@example.com", Password: "wrong-pass"})
	assert.Equal(t, usecase.CodeInvalidCredentials, appCode(t, err))

	_, err = uc.Execute(ctx, LoginInput{Email: "ghost@example.com", Password: "whatever1"})
	assert.Equal(t, usecase.CodeInvalidCredentials, appCode(t, err))

	_, err = uc.Execute(ctx, LoginInput{Email: "broken@example.com", Password: "whatever1"})
	assert.Equal(t, usecase.CodeInternal, appCode(t, err))
}

// =====================
// JWT
// =====================

func TestJWTIssuer_EmptySecret(t *testing.T) {
	now := time.Now()
	empty := NewJWTIssuer("", time.Hour)

	_, _, err := empty.Issue(1, model.RoleAdmin, 0, now)
	assert.ErrorIs(t, err, ErrEmptySecret)

	// 空鍵のままでは何も検証しない
	tok, _, err := NewJWTIssuer("secret", time.Hour).Issue(1, model.RoleAdmin, 0, now)
	require.NoError(t, err)
	_, err = empty.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorContains(t, err, ErrEmptySecret.Error())
}

func TestJWTIssuer_Parse(t *testing.T) {
	now := time.Now()
	issuer := NewJWTIssuer("secret", time.Minute)

	tok, exp, err := issuer.Issue(10, model.RoleCustomer, 2, now)
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(time.Minute), exp, time.Second)

	claims, err := issuer.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "CUSTOMER", claims.Role)

	// 別の鍵
	_, err = NewJWTIssuer("other", time.Minute).Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// 期限切れ
	old, _, err := issuer.Issue(10, model.RoleCustomer, 2, now.Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = issuer.Parse(old)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// HS256以外
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: "ADMIN"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.Parse(none)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// expなし
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             "ADMIN",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "storefront", Subject: "1"},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = issuer.Parse(noExp)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestClaimsUserID(t *testing.T) {
	_, err := (&Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "abc"}}).UserID()
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = (&Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "0"}}).UserID()
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBcryptCostFallback(t *testing.T) {
	h := NewBcryptPasswordHasher(1000)
	hash, err := h.Hash("s3cure-pass")
	require.NoError(t, err)
	assert.True(t, NewBcryptPasswordVerifier().Verify("s3cure-pass", hash))
	assert.False(t, NewBcryptPasswordVerifier().Verify("nope", hash))
}
