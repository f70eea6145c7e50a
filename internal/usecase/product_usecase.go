package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/validator"
)

// decimal(10,2)の上限
var maxPrice = decimal.RequireFromString("99999999.99")

type ProductUsecase struct {
	tx             repo.TransactionManager
	productRepo    repo.ProductRepository
	cache          ProductCache
	images         ImageStore
	maxUploadBytes int64
	log            logrus.FieldLogger
}

// DI
func NewProductUsecase(
	tx repo.TransactionManager,
	productRepo repo.ProductRepository,
	cache ProductCache,
	images ImageStore,
	maxUploadBytes int64,
	log logrus.FieldLogger,
) *ProductUsecase {
	if cache == nil {
		cache = nopCache{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ProductUsecase{
		tx:             tx,
		productRepo:    productRepo,
		cache:          cache,
		images:         images,
		maxUploadBytes: maxUploadBytes,
		log:            log,
	}
}

type ProductInput struct {
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	// 更新時はnilなら在庫を変えない
	Stock *int64
}

type ProductOutput struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int64           `json:"stock"`
	Image       string          `json:"image"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type ImageUpload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

type RestockInput struct {
	Stock  int64
	Reason string
}

func (u *ProductUsecase) List(ctx context.Context, category string, page, limit int) (Page[ProductOutput], error) {
	q, err := checkPage(page, limit)
	if err != nil {
		return Page[ProductOutput]{}, err
	}
	if len(category) > 100 {
		return Page[ProductOutput]{}, NewInvalid(CodeBadRequest, "invalid category")
	}

	items, total, err := u.productRepo.List(ctx, repo.ProductListQuery{PageQuery: q, Category: category})
	if err != nil {
		return Page[ProductOutput]{}, internal(err)
	}
	return NewPage(mapSlice(items, u.toOutput), total, q), nil
}

// Getはキャッシュを先に見る
func (u *ProductUsecase) Get(ctx context.Context, id int64) (ProductOutput, error) {
	if id <= 0 {
		return ProductOutput{}, NewInvalid(CodeBadRequest, "invalid id")
	}
	if p, ok := u.cache.Get(ctx, id); ok {
		return u.toOutput(p), nil
	}

	p, err := u.productRepo.FindByID(ctx, id)
	if err != nil {
		return ProductOutput{}, fromRepo(err, "Product", id)
	}
	u.cache.Set(ctx, p)
	return u.toOutput(p), nil
}

func (u *ProductUsecase) Create(ctx context.Context, actor Principal, in ProductInput) (ProductOutput, error) {
	in = normalizeProductInput(in)
	if v := validateProduct(in, true); !v.Empty() {
		return ProductOutput{}, NewValidation(v)
	}

	var created model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().Create(ctx, model.Product{
			Name:        in.Name,
			Description: in.Description,
			Category:    in.Category,
			Price:       in.Price,
			Stock:       *in.Stock,
		})
		if err != nil {
			return internal(err)
		}
		created = p
		return writeAudit(ctx, r, actor, model.AuditActionCreateProduct, model.AuditResourceProduct, p.ID, nil, productAuditView(p))
	})
	if err != nil {
		return ProductOutput{}, internal(err)
	}
	return u.toOutput(created), nil
}

// Updateは在庫が指定されたら調整履歴も残す
func (u *ProductUsecase) Update(ctx context.Context, actor Principal, id int64, in ProductInput) (ProductOutput, error) {
	if id <= 0 {
		return ProductOutput{}, NewInvalid(CodeBadRequest, "invalid id")
	}
	in = normalizeProductInput(in)
	if v := validateProduct(in, false); !v.Empty() {
		return ProductOutput{}, NewValidation(v)
	}

	var updated model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, id)
		if err != nil {
			return fromRepo(err, "Product", id)
		}

		after := before
		after.Name = in.Name
		after.Description = in.Description
		after.Category = in.Category
		after.Price = in.Price
		if err := r.Products().Update(ctx, after); err != nil {
			return fromRepo(err, "Product", id)
		}

		if in.Stock != nil && *in.Stock != before.Stock {
			if err := setStock(ctx, r, actor, before, *in.Stock, "product update"); err != nil {
				return err
			}
		}

		updated, err = r.Products().FindByID(ctx, id)
		if err != nil {
			return fromRepo(err, "Product", id)
		}
		return writeAudit(ctx, r, actor, model.AuditActionUpdateProduct, model.AuditResourceProduct, id,
			productAuditView(before), productAuditView(updated))
	})
	if err != nil {
		return ProductOutput{}, internal(err)
	}

	u.cache.Invalidate(ctx, id)
	return u.toOutput(updated), nil
}

func (u *ProductUsecase) Delete(ctx context.Context, actor Principal, id int64) error {
	if id <= 0 {
		return NewInvalid(CodeBadRequest, "invalid id")
	}
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, id)
		if err != nil {
			return fromRepo(err, "Product", id)
		}
		if err := r.Products().SoftDelete(ctx, id); err != nil {
			return fromRepo(err, "Product", id)
		}
		return writeAudit(ctx, r, actor, model.AuditActionDeleteProduct, model.AuditResourceProduct, id, productAuditView(before), nil)
	})
	if err != nil {
		return internal(err)
	}
	u.cache.Invalidate(ctx, id)
	return nil
}

// Restockは在庫を指定値にして、差分を調整履歴に残す
func (u *ProductUsecase) Restock(ctx context.Context, actor Principal, id int64, in RestockInput) (ProductOutput, error) {
	if id <= 0 {
		return ProductOutput{}, NewInvalid(CodeBadRequest, "invalid id")
	}
	in.Reason = strings.TrimSpace(in.Reason)
	v := validator.New()
	v.Check(in.Stock >= 0, "stock", "must be greater than or equal to 0")
	v.Required("reason", in.Reason)
	v.MaxLen("reason", in.Reason, 255)
	if !v.Empty() {
		return ProductOutput{}, NewValidation(v)
	}

	var updated model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, id)
		if err != nil {
			return fromRepo(err, "Product", id)
		}
		if err := setStock(ctx, r, actor, before, in.Stock, in.Reason); err != nil {
			return err
		}
		updated, err = r.Products().FindByID(ctx, id)
		return fromRepo(err, "Product", id)
	})
	if err != nil {
		return ProductOutput{}, internal(err)
	}

	u.cache.Invalidate(ctx, id)
	return u.toOutput(updated), nil
}

// UploadImageはサイズと中身（画像か）を確認してから保存する
func (u *ProductUsecase) UploadImage(ctx context.Context, id int64, in ImageUpload) (ProductOutput, error) {
	if id <= 0 {
		return ProductOutput{}, NewInvalid(CodeBadRequest, "invalid id")
	}
	if u.images == nil {
		return ProductOutput{}, NewInternal(fmt.Errorf("image store is not configured"))
	}
	if in.Size > u.maxUploadBytes {
		return ProductOutput{}, u.fileTooLarge()
	}

	before, err := u.productRepo.FindByID(ctx, id)
	if err != nil {
		return ProductOutput{}, fromRepo(err, "Product", id)
	}

	// Sizeを信用せず上限+1まで読む
	data, err := io.ReadAll(io.LimitReader(in.Content, u.maxUploadBytes+1))
	if err != nil {
		return ProductOutput{}, NewInternal(err)
	}
	if int64(len(data)) > u.maxUploadBytes {
		return ProductOutput{}, u.fileTooLarge()
	}
	if len(data) == 0 {
		return ProductOutput{}, NewInvalid(CodeInvalidFile, "File is empty")
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return ProductOutput{}, NewInvalid(CodeInvalidFile, "Only image files are allowed")
	}

	path := "products/" + uuid.NewString() + imageExt(in.Filename, contentType)
	if err := u.images.Put(ctx, path, bytes.NewReader(data), contentType); err != nil {
		return ProductOutput{}, NewInternal(err)
	}

	if err := u.productRepo.UpdateImage(ctx, id, path); err != nil {
		// DBに書けなかったファイルは残さない
		if derr := u.images.Delete(ctx, path); derr != nil {
			u.log.WithError(derr).WithField("path", path).Warn("cleanup uploaded image failed")
		}
		return ProductOutput{}, fromRepo(err, "Product", id)
	}

	if before.Image != "" {
		if err := u.images.Delete(ctx, before.Image); err != nil {
			u.log.WithError(err).WithField("path", before.Image).Warn("delete old image failed")
		}
	}
	u.cache.Invalidate(ctx, id)

	before.Image = path
	before.UpdatedAt = time.Now()
	return u.toOutput(before), nil
}

func (u *ProductUsecase) fileTooLarge() error {
	return NewInvalid(CodeFileTooLarge, fmt.Sprintf("File size exceeds maximum allowed size (%dMB)", u.maxUploadBytes/(1024*1024)))
}

func (u *ProductUsecase) toOutput(p model.Product) ProductOutput {
	image := p.Image
	if image != "" && u.images != nil {
		image = u.images.URL(image)
	}
	return ProductOutput{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		Stock:       p.Stock,
		Image:       image,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// setStockは在庫更新＋調整履歴＋監査ログ
func setStock(ctx context.Context, r repo.TxRepos, actor Principal, before model.Product, newStock int64, reason string) error {
	if err := r.Inventory().SetStock(ctx, before.ID, newStock); err != nil {
		return fromRepo(err, "Product", before.ID)
	}
	if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
		ProductID:   before.ID,
		AdminUserID: actor.UserID,
		Delta:       newStock - before.Stock,
		Reason:      reason,
	}); err != nil {
		return internal(err)
	}
	return writeAudit(ctx, r, actor, model.AuditActionUpdateStock, model.AuditResourceProduct, before.ID,
		map[string]int64{"stock": before.Stock},
		map[string]any{"stock": newStock, "reason": reason},
	)
}

func normalizeProductInput(in ProductInput) ProductInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)
	return in
}

func validateProduct(in ProductInput, create bool) validator.Violations {
	v := validator.New()
	v.Required("name", in.Name)
	v.MaxLen("name", in.Name, 255)
	v.MaxLen("description", in.Description, 2000)
	v.MaxLen("category", in.Category, 100)

	v.Check(in.Price.IsPositive(), "price", "must be greater than 0")
	v.Check(in.Price.LessThanOrEqual(maxPrice), "price", "must be at most 99999999.99")
	v.Check(in.Price.Exponent() >= -2 || in.Price.Equal(in.Price.Round(2)), "price", "must have at most 2 decimal places")

	if create {
		v.Check(in.Stock != nil, "stock", "must not be null")
	}
	if in.Stock != nil {
		v.Check(*in.Stock >= 0, "stock", "must be greater than or equal to 0")
	}
	return v
}

func productAuditView(p model.Product) map[string]any {
	return map[string]any{
		"name":     p.Name,
		"category": p.Category,
		"price":    p.Price,
		"stock":    p.Stock,
	}
}

func imageExt(filename, contentType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return ext
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
