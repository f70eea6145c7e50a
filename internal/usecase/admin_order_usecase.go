package usecase

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"storefront/internal/domain/model"
	"storefront/internal/infra/events"
	repo "storefront/internal/repository"
)

type AdminOrderUsecase struct {
	tx        repo.TransactionManager
	publisher EventPublisher
	recorder  OrderRecorder
	log       logrus.FieldLogger
}

func NewAdminOrderUsecase(tx repo.TransactionManager, publisher EventPublisher, recorder OrderRecorder, log logrus.FieldLogger) *AdminOrderUsecase {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AdminOrderUsecase{tx: tx, publisher: publisher, recorder: recorder, log: log}
}

// 注文一覧（statusは任意）
func (u *AdminOrderUsecase) List(ctx context.Context, status string, page, limit int) (Page[OrderOutput], error) {
	q, err := checkPage(page, limit)
	if err != nil {
		return Page[OrderOutput]{}, err
	}

	f := repo.OrderListFilter{PageQuery: q}
	if s := strings.TrimSpace(status); s != "" {
		st, ok := model.ParseOrderStatus(strings.ToUpper(s))
		if !ok {
			return Page[OrderOutput]{}, invalidStatus(s)
		}
		f.Status = &st
	}
	return listOrders(ctx, u.tx, f)
}

// ステータス更新。列挙値かどうかだけ見て、現在値からの遷移は検証しない
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actor Principal, orderID int64, status string) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewInvalid(CodeBadRequest, "invalid id")
	}
	newStatus, ok := model.ParseOrderStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !ok {
		return OrderOutput{}, invalidStatus(status)
	}

	var (
		out    OrderOutput
		before model.OrderStatus
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return fromRepo(err, "Order", orderID)
		}
		before = o.Status

		if err := r.Orders().UpdateStatus(ctx, orderID, newStatus); err != nil {
			return fromRepo(err, "Order", orderID)
		}

		if err := writeAudit(ctx, r, actor, model.AuditActionUpdateOrderStatus, model.AuditResourceOrder, orderID,
			map[string]string{"status": string(before)},
			map[string]string{"status": string(newStatus)},
		); err != nil {
			return err
		}

		// 更新後を読み直す（updated_atも新しくなる）
		o, err = r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return fromRepo(err, "Order", orderID)
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

	u.recorder.OrderStatusUpdated(string(newStatus))
	event := events.OrderStatusChanged{
		OrderID:   orderID,
		From:      string(before),
		To:        string(newStatus),
		ChangedBy: actor.UserID,
		ChangedAt: time.Now(),
	}
	if err := u.publisher.Publish(ctx, events.TopicOrderStatusChanged, strconv.FormatInt(orderID, 10), event); err != nil {
		u.log.WithError(err).WithField("order_id", orderID).Warn("publish order.status_changed failed")
	}
	return out, nil
}

// 注文削除。明細を先に消してから注文を消す（同じtx）
func (u *AdminOrderUsecase) Delete(ctx context.Context, actor Principal, orderID int64) error {
	if orderID <= 0 {
		return NewInvalid(CodeBadRequest, "invalid id")
	}
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return fromRepo(err, "Order", orderID)
		}
		if err := r.OrderItems().DeleteByOrderID(ctx, orderID); err != nil {
			return internal(err)
		}
		if err := r.Orders().Delete(ctx, orderID); err != nil {
			return fromRepo(err, "Order", orderID)
		}
		return writeAudit(ctx, r, actor, model.AuditActionDeleteOrder, model.AuditResourceOrder, orderID,
			map[string]any{"status": o.Status, "total": o.Total, "user_id": o.UserID}, nil)
	})
	return internal(err)
}

func invalidStatus(s string) error {
	e := NewInvalid(CodeInvalidStatus, "Invalid order status: "+s)
	e.Details = map[string]any{
		"allowed": []model.OrderStatus{
			model.OrderStatusPending, model.OrderStatusPaid, model.OrderStatusProcessing,
			model.OrderStatusShipped, model.OrderStatusDelivered, model.OrderStatusCancelled,
		},
	}
	return e
}
