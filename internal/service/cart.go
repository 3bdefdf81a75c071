package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/pcshop/internal/domain"
	"github.com/Skotchmaster/pcshop/internal/models"
	"github.com/Skotchmaster/pcshop/internal/repo"
	"github.com/Skotchmaster/pcshop/pkg/logging"
	"github.com/Skotchmaster/pcshop/pkg/metrics"
)

// NotifyTimeout bounds the notification of one completed order.
const NotifyTimeout = time.Minute

// OrderNotifier is told about every completed order. It runs after the
// checkout transaction has committed and must not block the caller.
type OrderNotifier interface {
	OrderCompleted(ctx context.Context, user *models.User, order *models.Order)
}

type CartService struct {
	Repo     *repo.GormRepo
	Notifier OrderNotifier
	Metrics  *metrics.Metrics

	wg sync.WaitGroup
}

func (s *CartService) GetCart(ctx context.Context, user *models.User) (*models.Order, error) {
	cart, err := s.Repo.FindCart(ctx, user.ID)
	if err != nil {
		return nil, cartError(ctx, user, err)
	}
	return cart, nil
}

// AddItem puts one more unit of productID into the user's cart.
func (s *CartService) AddItem(ctx context.Context, user *models.User, productID uint) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "cart.add_item", "user_id", user.ID, "product_id", productID)

	cart, err := s.mutate(ctx, user, func(tx *repo.GormRepo, cart *models.Order) error {
		if _, err := tx.FindProduct(ctx, productID); err != nil {
			return err
		}
		return tx.IncrementItem(ctx, cart.ID, productID)
	})
	if err != nil {
		l.Warn("add_item_failed", "error", err)
		return nil, err
	}
	l.Info("item_added", "total", cart.Total.StringFixed(2))
	return cart, nil
}

func (s *CartService) UpdateItemQuantity(ctx context.Context, user *models.User, itemID uint, quantity int) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "cart.update_item", "user_id", user.ID, "item_id", itemID)

	if quantity < 1 {
		l.Warn("update_item_failed", "status", 400, "reason", "quantity below one", "quantity", quantity)
		return nil, fmt.Errorf("%w: quantity must be at least 1", domain.ErrInvalidInput)
	}

	cart, err := s.mutate(ctx, user, func(tx *repo.GormRepo, cart *models.Order) error {
		it, err := tx.FindItem(ctx, cart.ID, itemID)
		if err != nil {
			return err
		}
		return tx.SetItemQuantity(ctx, it.ID, quantity)
	})
	if err != nil {
		l.Warn("update_item_failed", "error", err)
		return nil, err
	}
	return cart, nil
}

func (s *CartService) DeleteItem(ctx context.Context, user *models.User, itemID uint) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "cart.delete_item", "user_id", user.ID, "item_id", itemID)

	cart, err := s.mutate(ctx, user, func(tx *repo.GormRepo, cart *models.Order) error {
		it, err := tx.FindItem(ctx, cart.ID, itemID)
		if err != nil {
			return err
		}
		return tx.DeleteItem(ctx, it.ID)
	})
	if err != nil {
		l.Warn("delete_item_failed", "error", err)
		return nil, err
	}
	return cart, nil
}

func (s *CartService) ClearCart(ctx context.Context, user *models.User) (*models.Order, error) {
	cart, err := s.mutate(ctx, user, func(tx *repo.GormRepo, cart *models.Order) error {
		return tx.DeleteItems(ctx, cart.ID)
	})
	if err != nil {
		logging.FromContext(ctx).Warn("clear_cart_failed", "svc", "cart.clear", "user_id", user.ID, "error", err)
		return nil, err
	}
	return cart, nil
}

// Checkout completes the user's cart and opens a new empty one. The
// notifier is invoked asynchronously once the change is committed.
func (s *CartService) Checkout(ctx context.Context, user *models.User) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "cart.checkout", "user_id", user.ID)

	var completed *models.Order
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		cart, err := tx.FindCart(ctx, user.ID)
		if err != nil {
			return cartError(ctx, user, err)
		}
		if len(cart.Items) == 0 {
			return fmt.Errorf("%w: Checking out with an empty cart is not allowed", domain.ErrIllegalState)
		}

		cart.RecalculateTotal()
		if err := tx.UpdateOrderTotal(ctx, cart); err != nil {
			return err
		}
		if err := tx.UpdateOrderStatus(ctx, cart.ID, models.OrderStatusCompleted); err != nil {
			return err
		}
		cart.Status = models.OrderStatusCompleted

		if err := tx.CreateOrder(ctx, &models.Order{
			Status: models.OrderStatusCart,
			Total:  decimal.Zero,
			UserID: user.ID,
		}); err != nil {
			return err
		}
		completed = cart
		return nil
	})
	if err != nil {
		l.Warn("checkout_failed", "error", err)
		return nil, err
	}

	if s.Metrics != nil {
		s.Metrics.Checkouts.Inc()
	}
	l.Info("checkout_completed", "order_id", completed.ID, "total", completed.Total.StringFixed(2))

	if s.Notifier != nil {
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), NotifyTimeout)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer cancel()
			s.Notifier.OrderCompleted(nctx, user, completed)
		}()
	}
	return completed, nil
}

// Wait blocks until every notification started by Checkout has returned.
func (s *CartService) Wait() {
	s.wg.Wait()
}

// mutate runs fn against the locked cart and stores the recalculated total
// in the same transaction.
func (s *CartService) mutate(ctx context.Context, user *models.User, fn func(tx *repo.GormRepo, cart *models.Order) error) (*models.Order, error) {
	var out *models.Order
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		cart, err := tx.FindCart(ctx, user.ID)
		if err != nil {
			return cartError(ctx, user, err)
		}
		if err := fn(tx, cart); err != nil {
			return err
		}

		cart, err = tx.FindOrder(ctx, cart.ID)
		if err != nil {
			return err
		}
		cart.RecalculateTotal()
		if err := tx.UpdateOrderTotal(ctx, cart); err != nil {
			return err
		}
		out = cart
		return nil
	})
	return out, err
}

// cartError maps a missing cart to ErrIllegalState.
func cartError(ctx context.Context, user *models.User, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		logging.FromContext(ctx).Error("cart_missing", "user_id", user.ID)
		return fmt.Errorf("%w: user %d has no cart", domain.ErrIllegalState, user.ID)
	}
	return err
}
