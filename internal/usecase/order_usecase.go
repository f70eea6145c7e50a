package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain/model"
	"storefront/internal/infra/events"
	repo "storefront/internal/repository"
	"storefront/internal/validator"
)

var maxOrderTotal = decimal.RequireFromString("99999999.99")

type OrderUsecase struct {
	tx        repo.TransactionManager
	cache     ProductCache
	publisher EventPublisher
	recorder  OrderRecorder
	log       logrus.FieldLogger
}

// DI（cache/publisher/recorderはnilなら何もしない実装を使う）
func NewOrderUsecase(
	tx repo.TransactionManager,
	cache ProductCache,
	publisher EventPublisher,
	recorder OrderRecorder,
	log logrus.FieldLogger,
) *OrderUsecase {
	if cache == nil {
		cache = nopCache{}
	}
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &OrderUsecase{tx: tx, cache: cache, publisher: publisher, recorder: recorder, log: log}
}

type PlaceOrderItemInput struct {
	ProductID int64
	Quantity  int64
}

type PlaceOrderInput struct {
	Items []PlaceOrderItemInput
}

type UserSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ProductSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type OrderItemOutput struct {
	ID        int64           `json:"id"`
	Product   ProductSummary  `json:"product"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"price"`
}

type OrderOutput struct {
	ID        int64             `json:"id"`
	User      UserSummary       `json:"user"`
	Items     []OrderItemOutput `json:"items"`
	Total     decimal.Decimal   `json:"total"`
	Status    string            `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// PlaceOrderは在庫を確保して注文を作る。
// 在庫減算・注文・明細は1トランザクションで、どれか失敗したら全部戻す。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, p Principal, in PlaceOrderInput) (OrderOutput, error) {
	if p.UserID <= 0 {
		return OrderOutput{}, NewUnauthorized(CodeUnauthorized, "Authentication required")
	}
	if v := validatePlaceOrder(in); !v.Empty() {
		u.recorder.OrderRejected(CodeValidation)
		return OrderOutput{}, NewValidation(v)
	}

	var (
		out   OrderOutput
		event events.OrderPlaced
	)

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		user, err := r.Users().FindByID(ctx, p.UserID)
		if err != nil {
			return fromRepo(err, "User", p.UserID)
		}

		orderItems := make([]model.OrderItem, 0, len(in.Items))
		total := decimal.Zero

		// 指定された順に処理する
		for _, line := range in.Items {
			prod, err := r.Products().FindByID(ctx, line.ProductID)
			if err != nil {
				return fromRepo(err, "Product", line.ProductID)
			}
			if prod.Stock < line.Quantity {
				return insufficientStock(prod, line.Quantity)
			}

			// 同時注文で先に減らされていたらここでfalseになる
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, prod.ID, line.Quantity)
			if err != nil {
				return internal(err)
			}
			if !ok {
				// availableは今の在庫で返す
				if cur, err := r.Products().FindByID(ctx, prod.ID); err == nil {
					prod = cur
				}
				return insufficientStock(prod, line.Quantity)
			}

			//スナップショット
			item := model.OrderItem{
				ProductID:           prod.ID,
				ProductNameSnapshot: prod.Name,
				UnitPriceSnapshot:   prod.Price,
				Quantity:            line.Quantity,
			}
			orderItems = append(orderItems, item)
			total = total.Add(item.LineTotal())
		}

		// orders.totalはdecimal(10,2)
		if total.GreaterThan(maxOrderTotal) {
			v := validator.New()
			v.Add("total", "must be at most "+maxOrderTotal.StringFixed(2))
			return NewValidation(v)
		}

		order, err := r.Orders().Create(ctx, model.Order{
			UserID: user.ID,
			Status: model.OrderStatusPending,
			Total:  total,
		})
		if err != nil {
			return internal(err)
		}

		//注文明細一括作成
		if err := r.OrderItems().CreateBulk(ctx, order.ID, orderItems); err != nil {
			return internal(err)
		}

		out = toOrderOutput(order, toUserSummary(user), orderItems)
		event = toOrderPlacedEvent(order, orderItems)
		return nil
	})
	if err != nil {
		u.recordRejection(err)
		return OrderOutput{}, internal(err)
	}

	// ここからはコミット後
	u.cache.Invalidate(ctx, productIDs(in.Items)...)
	if err := u.publisher.Publish(ctx, events.TopicOrderPlaced, strconv.FormatInt(out.ID, 10), event); err != nil {
		u.log.WithError(err).WithField("order_id", out.ID).Warn("publish order.placed failed")
	}
	u.recorder.OrderPlaced()
	return out, nil
}

// ListMyOrdersは自分の注文だけを返す
func (u *OrderUsecase) ListMyOrders(ctx context.Context, p Principal, page, limit int) (Page[OrderOutput], error) {
	if p.UserID <= 0 {
		return Page[OrderOutput]{}, NewUnauthorized(CodeUnauthorized, "Authentication required")
	}
	q, err := checkPage(page, limit)
	if err != nil {
		return Page[OrderOutput]{}, err
	}

	userID := p.UserID
	return listOrders(ctx, u.tx, repo.OrderListFilter{PageQuery: q, UserID: &userID})
}

// GetOrderは管理者か注文者本人だけが見られる
func (u *OrderUsecase) GetOrder(ctx context.Context, p Principal, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewInvalid(CodeBadRequest, "invalid id")
	}

	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return fromRepo(err, "Order", orderID)
		}
		if !p.CanAccess(o.UserID) {
			return NewForbidden()
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return internal(err)
		}
		user, err := r.Users().FindByID(ctx, o.UserID)
		if err != nil {
			return fromRepo(err, "User", o.UserID)
		}

		out = toOrderOutput(o, toUserSummary(user), items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, internal(err)
	}
	return out, nil
}

func (u *OrderUsecase) recordRejection(err error) {
	if ae, ok := AsAppError(err); ok {
		u.recorder.OrderRejected(ae.Code)
		return
	}
	u.recorder.OrderRejected(CodeInternal)
}

func validatePlaceOrder(in PlaceOrderInput) validator.Violations {
	v := validator.New()
	v.Check(len(in.Items) > 0, "items", "must not be empty")
	for i, line := range in.Items {
		v.Check(line.ProductID > 0, fmt.Sprintf("items[%d].productId", i), "must not be null")
		v.Check(line.Quantity > 0, fmt.Sprintf("items[%d].quantity", i), "must be greater than 0")
	}
	return v
}

func insufficientStock(p model.Product, requested int64) error {
	e := NewInvalid(CodeInsufficientStock, fmt.Sprintf("Insufficient stock for product: %s", p.Name))
	e.Details = map[string]any{
		"productId": p.ID,
		"requested": requested,
		"available": p.Stock,
	}
	return e
}

// listOrdersは一覧＋明細＋ユーザーをまとめて組み立てる
func listOrders(ctx context.Context, tx repo.TransactionManager, f repo.OrderListFilter) (Page[OrderOutput], error) {
	var out Page[OrderOutput]

	err := tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().List(ctx, f)
		if err != nil {
			return internal(err)
		}

		ids := make([]int64, 0, len(orders))
		for _, o := range orders {
			ids = append(ids, o.ID)
		}
		itemsByOrder, err := r.OrderItems().ListByOrderIDs(ctx, ids)
		if err != nil {
			return internal(err)
		}

		users := map[int64]UserSummary{}
		outs := make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			us, ok := users[o.UserID]
			if !ok {
				user, err := r.Users().FindByID(ctx, o.UserID)
				if err != nil {
					return fromRepo(err, "User", o.UserID)
				}
				us = toUserSummary(user)
				users[o.UserID] = us
			}
			outs = append(outs, toOrderOutput(o, us, itemsByOrder[o.ID]))
		}

		out = NewPage(outs, total, f.PageQuery)
		return nil
	})
	if err != nil {
		return Page[OrderOutput]{}, internal(err)
	}
	return out, nil
}

func toUserSummary(u *model.User) UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

func toOrderOutput(o model.Order, user UserSummary, items []model.OrderItem) OrderOutput {
	return OrderOutput{
		ID:   o.ID,
		User: user,
		Items: mapSlice(items, func(it model.OrderItem) OrderItemOutput {
			return OrderItemOutput{
				ID:        it.ID,
				Product:   ProductSummary{ID: it.ProductID, Name: it.ProductNameSnapshot},
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPriceSnapshot,
			}
		}),
		Total:     o.Total,
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func toOrderPlacedEvent(o model.Order, items []model.OrderItem) events.OrderPlaced {
	return events.OrderPlaced{
		OrderID: o.ID,
		UserID:  o.UserID,
		Total:   o.Total,
		Items: mapSlice(items, func(it model.OrderItem) events.OrderPlacedItem {
			return events.OrderPlacedItem{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPriceSnapshot}
		}),
		CreatedAt: o.CreatedAt,
	}
}

func productIDs(items []PlaceOrderItemInput) []int64 {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	return ids
}
