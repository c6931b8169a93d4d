package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nexusshop/backend/internal/models"
)

// Store is the storage surface used by the checkout engine and the payment
// reconciler. Methods that mutate more than one row are only meaningful
// inside Transaction.
type Store interface {
	Transaction(ctx context.Context, fn func(Store) error) error

	CartWithItems(ctx context.Context, userID uint) (*models.Cart, error)
	LockProducts(ctx context.Context, ids []uint) ([]models.Product, error)
	SetProductStock(ctx context.Context, productID uint, stock uint) error
	CreateOrder(ctx context.Context, order *models.Order) error
	ClearCart(ctx context.Context, cartID uint) error

	UserByID(ctx context.Context, userID uint) (*models.User, error)
	OrderOfUser(ctx context.Context, orderID, userID uint) (*models.Order, error)
	CreatePayment(ctx context.Context, payment *models.Payment) error
	PaymentByRef(ctx context.Context, txRef string) (*models.Payment, error)
	SavePayment(ctx context.Context, payment *models.Payment) error
	SetOrderStatus(ctx context.Context, orderID uint, status string) error
}

type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) Transaction(ctx context.Context, fn func(Store) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{DB: tx})
	})
}

func (s *GormStore) CartWithItems(ctx context.Context, userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := s.DB.WithContext(ctx).
		Preload("Items").
		Where(models.Cart{UserID: userID}).
		FirstOrCreate(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// LockProducts loads the products with SELECT ... FOR UPDATE so that two
// concurrent checkouts touching the same product are serialized by the
// database. sqlite serializes writers on its own and rejects the clause, so
// it is skipped there.
func (s *GormStore) LockProducts(ctx context.Context, ids []uint) ([]models.Product, error) {
	q := s.DB.WithContext(ctx)
	if s.DB.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var products []models.Product
	if err := q.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (s *GormStore) SetProductStock(ctx context.Context, productID uint, stock uint) error {
	return s.DB.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock", stock).Error
}

func (s *GormStore) CreateOrder(ctx context.Context, order *models.Order) error {
	return s.DB.WithContext(ctx).Create(order).Error
}

func (s *GormStore) ClearCart(ctx context.Context, cartID uint) error {
	return s.DB.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}

func (s *GormStore) UserByID(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) OrderOfUser(ctx context.Context, orderID, userID uint) (*models.Order, error) {
	var order models.Order
	err := s.DB.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *GormStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return s.DB.WithContext(ctx).Create(payment).Error
}

func (s *GormStore) PaymentByRef(ctx context.Context, txRef string) (*models.Payment, error) {
	var payment models.Payment
	err := s.DB.WithContext(ctx).
		Where("transaction_ref = ?", txRef).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (s *GormStore) SavePayment(ctx context.Context, payment *models.Payment) error {
	return s.DB.WithContext(ctx).Save(payment).Error
}

func (s *GormStore) SetOrderStatus(ctx context.Context, orderID uint, status string) error {
	return s.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status", status).Error
}
