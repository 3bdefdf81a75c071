package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/pcshop/internal/domain"
	"github.com/Skotchmaster/pcshop/internal/models"
	"github.com/Skotchmaster/pcshop/internal/repo"
	"github.com/Skotchmaster/pcshop/pkg/logging"
)

type OrderService struct {
	Repo *repo.GormRepo
}

func (s *OrderService) List(ctx context.Context) ([]models.Order, error) {
	return s.Repo.ListOrders(ctx)
}

// ListByUser returns the orders of userID, CART included.
func (s *OrderService) ListByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	if _, err := s.Repo.FindUserByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.Repo.ListOrdersByUser(ctx, userID)
}

func (s *OrderService) Get(ctx context.Context, id uint) (*models.Order, error) {
	return s.Repo.FindOrder(ctx, id)
}

func (s *OrderService) Delete(ctx context.Context, id uint) error {
	l := logging.FromContext(ctx).With("svc", "order.delete", "order_id", id)

	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		o, err := tx.FindOrder(ctx, id)
		if err != nil {
			return err
		}
		if o.Status == models.OrderStatusCart {
			return fmt.Errorf("%w: Cart can't be deleted", domain.ErrIllegalState)
		}
		return tx.DeleteOrder(ctx, id)
	})
	if err != nil {
		l.Warn("delete_order_failed", "error", err)
		return err
	}
	l.Info("order_deleted")
	return nil
}
