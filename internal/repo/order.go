package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/pcshop/internal/domain"
	"github.com/Skotchmaster/pcshop/internal/models"
)

func withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id") }).
		Preload("Items.Product").
		Preload("Items.Product.Category")
}

func (r *GormRepo) CreateOrder(ctx context.Context, o *models.Order) error {
	if err := r.DB.WithContext(ctx).Omit(clause.Associations).Create(o).Error; err != nil {
		return classify(err, "create order")
	}
	return nil
}

// FindCart returns the user's CART order with items and products. The order
// row is locked for update when the repository runs inside a transaction.
func (r *GormRepo) FindCart(ctx context.Context, userID uint) (*models.Order, error) {
	var o models.Order
	err := withItems(r.DB.WithContext(ctx)).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND status = ?", userID, models.OrderStatusCart).
		First(&o).Error
	if err != nil {
		return nil, classify(err, "find cart")
	}
	return &o, nil
}

func (r *GormRepo) FindOrder(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := withItems(r.DB.WithContext(ctx)).First(&o, id).Error; err != nil {
		return nil, classify(err, "find order")
	}
	return &o, nil
}

func (r *GormRepo) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := withItems(r.DB.WithContext(ctx)).Order("id").Find(&orders).Error; err != nil {
		return nil, classify(err, "list orders")
	}
	return orders, nil
}

func (r *GormRepo) ListOrdersByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := withItems(r.DB.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("id").
		Find(&orders).Error
	if err != nil {
		return nil, classify(err, "list orders")
	}
	return orders, nil
}

func (r *GormRepo) CountCarts(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("user_id = ? AND status = ?", userID, models.OrderStatusCart).
		Count(&n).Error
	if err != nil {
		return 0, classify(err, "count carts")
	}
	return n, nil
}

func (r *GormRepo) DeleteOrder(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Order{}, id)
	if res.Error != nil {
		return classify(res.Error, "delete order")
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *GormRepo) UpdateOrderStatus(ctx context.Context, id uint, status models.OrderStatus) error {
	err := r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("status", status).Error
	return classify(err, "update order status")
}

func (r *GormRepo) UpdateOrderTotal(ctx context.Context, o *models.Order) error {
	err := r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", o.ID).Update("total", o.Total).Error
	return classify(err, "update order total")
}

// IncrementItem adds one unit of productID to the order with a single
// UPDATE, inserting the line when it does not exist yet.
func (r *GormRepo) IncrementItem(ctx context.Context, orderID, productID uint) error {
	db := r.DB.WithContext(ctx)
	for attempt := 0; attempt < 2; attempt++ {
		res := db.Model(&models.OrderItem{}).
			Where("order_id = ? AND product_id = ?", orderID, productID).
			Update("quantity", gorm.Expr("quantity + ?", 1))
		if res.Error != nil {
			return classify(res.Error, "increment item")
		}
		if res.RowsAffected > 0 {
			return nil
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			return tx.Create(&models.OrderItem{OrderID: orderID, ProductID: productID, Quantity: 1}).Error
		})
		if err == nil {
			return nil
		}
		if err = classify(err, "insert item"); !errors.Is(err, domain.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("increment item: %w", domain.ErrConflict)
}

func (r *GormRepo) FindItem(ctx context.Context, orderID, itemID uint) (*models.OrderItem, error) {
	var it models.OrderItem
	err := r.DB.WithContext(ctx).
		Where("id = ? AND order_id = ?", itemID, orderID).
		First(&it).Error
	if err != nil {
		return nil, classify(err, "find item")
	}
	return &it, nil
}

func (r *GormRepo) SetItemQuantity(ctx context.Context, itemID uint, quantity int) error {
	err := r.DB.WithContext(ctx).Model(&models.OrderItem{}).Where("id = ?", itemID).Update("quantity", quantity).Error
	return classify(err, "set item quantity")
}

func (r *GormRepo) DeleteItem(ctx context.Context, itemID uint) error {
	err := r.DB.WithContext(ctx).Delete(&models.OrderItem{}, itemID).Error
	return classify(err, "delete item")
}

func (r *GormRepo) DeleteItems(ctx context.Context, orderID uint) error {
	err := r.DB.WithContext(ctx).Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error
	return classify(err, "clear items")
}
