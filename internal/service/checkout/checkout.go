package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/nexusshop/backend/internal/models"
	"github.com/nexusshop/backend/internal/repo"
)

var ErrEmptyCart = errors.New("cart is empty, cannot create an order")

type InsufficientStockError struct {
	ProductID uint
	Name      string
	Available uint
	Requested uint
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %s: available %d, requested %d",
		e.Name, e.Available, e.Requested)
}

type Service struct {
	Store repo.Store
}

// CreateOrder converts the user's cart into a pending order. The whole
// conversion runs in one transaction with the touched product rows locked:
// either the order, its items, the stock decrements and the cart clear all
// commit, or none of them do.
func (s *Service) CreateOrder(ctx context.Context, userID uint) (*models.Order, error) {
	var order *models.Order

	err := s.Store.Transaction(ctx, func(tx repo.Store) error {
		cart, err := tx.CartWithItems(ctx, userID)
		if err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return ErrEmptyCart
		}

		ids := make([]uint, 0, len(cart.Items))
		for _, item := range cart.Items {
			ids = append(ids, item.ProductID)
		}

		products, err := tx.LockProducts(ctx, ids)
		if err != nil {
			return err
		}
		byID := make(map[uint]*models.Product, len(products))
		for i := range products {
			byID[products[i].ID] = &products[i]
		}

		total := decimal.Zero
		for _, item := range cart.Items {
			p, ok := byID[item.ProductID]
			if !ok {
				return fmt.Errorf("product %d no longer exists", item.ProductID)
			}
			total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}

		order = &models.Order{
			UserID:     userID,
			TotalPrice: total,
			Status:     models.StatusPending,
		}
		for _, item := range cart.Items {
			p := byID[item.ProductID]
			if item.Quantity > p.Stock {
				return &InsufficientStockError{
					ProductID: p.ID,
					Name:      p.Name,
					Available: p.Stock,
					Requested: item.Quantity,
				}
			}
			productID := p.ID
			order.Items = append(order.Items, models.OrderItem{
				ProductID: &productID,
				Quantity:  item.Quantity,
				Price:     p.Price,
			})
		}

		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}

		for _, item := range cart.Items {
			p := byID[item.ProductID]
			if err := tx.SetProductStock(ctx, p.ID, p.Stock-item.Quantity); err != nil {
				return err
			}
		}

		return tx.ClearCart(ctx, cart.ID)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}
