package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/session"
)

var allowedTransitions = map[models.OrderStatus]map[models.OrderStatus]bool{
	models.StatusPending: {
		models.StatusProcessing: true,
		models.StatusCancelled:  true,
	},
	models.StatusProcessing: {
		models.StatusShipped:   true,
		models.StatusCancelled: true,
	},
	models.StatusShipped: {
		models.StatusDelivered: true,
		models.StatusCancelled: true,
	},
	models.StatusDelivered: {},
	models.StatusCancelled: {},
}

func CanTransition(from, to models.OrderStatus) bool {
	return allowedTransitions[from][to]
}

type OrderStore interface {
	CartStore
	Orders(ctx context.Context) ([]models.Order, error)
	OrdersByUser(ctx context.Context, userID string) ([]models.Order, error)
	AddOrder(ctx context.Context, o models.Order) error
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error)
}

type OrderService struct {
	Store   OrderStore
	Cart    *CartService
	Session session.Accessor
	Events  mykafka.Publisher
	Now     func() time.Time
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// CreateOrder checks out the signed-in user's cart at current catalog prices.
// Without a user or with an empty cart it returns nil and writes nothing.
// The order write and the cart clear are separate operations.
func (s *OrderService) CreateOrder(ctx context.Context, shippingAddress string, method models.PaymentMethod) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.create")

	u, err := s.Session.CurrentUser(ctx)
	if err != nil || u == nil {
		return nil, err
	}
	lines, err := s.Cart.lines(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, nil
	}

	items := make([]models.OrderLine, 0, len(lines))
	for _, ln := range lines {
		items = append(items, models.OrderLine{
			ProductID:   ln.Product.ID,
			ProductName: ln.Product.Name,
			Quantity:    ln.Quantity,
			Price:       ln.Product.Price,
		})
	}
	subtotal := Subtotal(lines)
	discount := roundCents(subtotal * method.DiscountRate())

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("order id: %w", err)
	}
	order := models.Order{
		ID:                id.String(),
		UserID:            u.ID,
		Items:             items,
		Subtotal:          subtotal,
		Discount:          discount,
		Total:             roundCents(subtotal - discount),
		PaymentMethod:     method,
		PaymentMethodName: method.DisplayName(),
		Status:            models.StatusPending,
		ShippingAddress:   strings.TrimSpace(shippingAddress),
		CreatedAt:         s.now(),
	}
	if err := s.Store.AddOrder(ctx, order); err != nil {
		return nil, err
	}
	if err := s.Store.ReplaceCart(ctx, u.ID, nil); err != nil {
		l.Error("clear_cart_failed", "order_id", order.ID, "user_id", u.ID, "error", err)
	}

	mykafka.Publish(ctx, s.Events, mykafka.TopicOrders, order.ID, map[string]any{
		"type": "order_created", "orderID": order.ID, "userID": u.ID, "total": order.Total,
	})
	return &order, nil
}

// Orders lists the signed-in user's orders, newest first.
func (s *OrderService) Orders(ctx context.Context) ([]models.Order, error) {
	u, err := s.Session.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUnauthenticated
	}
	orders, err := s.Store.OrdersByUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	newestFirst(orders)
	return orders, nil
}

// All lists every order, newest first. Admin only.
func (s *OrderService) All(ctx context.Context) ([]models.Order, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	orders, err := s.Store.Orders(ctx)
	if err != nil {
		return nil, err
	}
	newestFirst(orders)
	return orders, nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}
	orders, err := s.Store.Orders(ctx)
	if err != nil {
		return nil, err
	}
	var cur *models.Order
	for i := range orders {
		if orders[i].ID == id {
			cur = &orders[i]
			break
		}
	}
	if cur == nil {
		return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	if !CanTransition(cur.Status, status) {
		logging.FromContext(ctx).Warn("order_status_rejected", "order_id", id, "from", cur.Status, "to", status)
		return nil, fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, cur.Status, status)
	}

	updated, err := s.Store.UpdateOrderStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	mykafka.Publish(ctx, s.Events, mykafka.TopicOrders, id, map[string]any{
		"type": "order_status_changed", "orderID": id, "from": cur.Status, "to": status,
	})
	return updated, nil
}

func (s *OrderService) requireAdmin(ctx context.Context) error {
	u, err := s.Session.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if u == nil {
		return domain.ErrUnauthenticated
	}
	if !u.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}

func newestFirst(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
}
