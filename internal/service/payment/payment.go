package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nexusshop/backend/internal/chapa"
	"github.com/nexusshop/backend/internal/models"
	"github.com/nexusshop/backend/internal/repo"
)

const txRefNamespace = "nexus"

var (
	ErrOrderNotFound = errors.New("order not found or you do not have permission to access it")
	ErrOrderEmpty    = errors.New("cannot initiate payment for an empty order")
)

// WrongStatusError rejects initialization for orders that already left the
// pending state.
type WrongStatusError struct {
	Status string
}

func (e *WrongStatusError) Error() string {
	return fmt.Sprintf("this order cannot be paid for as its status is '%s'", e.Status)
}

// InitFailedError carries the provider's message when the initialize call
// came back 2xx but with a non-success body status.
type InitFailedError struct {
	Message string
}

func (e *InitFailedError) Error() string {
	if e.Message == "" {
		return "failed to initialize payment"
	}
	return "failed to initialize payment: " + e.Message
}

type Service struct {
	Store       repo.Store
	Chapa       *chapa.Client
	CallbackURL string
	ReturnURL   string
}

// Initialize validates the order, starts a Chapa transaction and records a
// pending Payment. No Payment row is written on any failure. The provider
// call happens outside any database transaction.
func (s *Service) Initialize(ctx context.Context, userID, orderID uint) (*chapa.InitializeResponse, error) {
	order, err := s.Store.OrderOfUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if len(order.Items) == 0 {
		return nil, ErrOrderEmpty
	}
	if order.Status != models.StatusPending {
		return nil, &WrongStatusError{Status: order.Status}
	}

	user, err := s.Store.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	firstName := user.FirstName
	if firstName == "" {
		firstName = "Customer"
	}
	lastName := user.LastName
	if lastName == "" {
		lastName = "Name"
	}

	txRef := fmt.Sprintf("%s-%d-%s", txRefNamespace, order.ID,
		strings.ReplaceAll(uuid.NewString(), "-", ""))

	resp, err := s.Chapa.Initialize(ctx, chapa.InitializeRequest{
		Amount:      order.TotalPrice.StringFixed(2),
		Currency:    "ETB",
		Email:       user.Email,
		FirstName:   firstName,
		LastName:    lastName,
		TxRef:       txRef,
		CallbackURL: s.CallbackURL,
		ReturnURL:   s.ReturnURL,
		Customization: chapa.Customization{
			Title:       fmt.Sprintf("Shop Order %d", order.ID),
			Description: fmt.Sprintf("Payment for order %d", order.ID),
		},
	})
	if err != nil {
		return nil, err
	}
	if resp.Status != "success" {
		return nil, &InitFailedError{Message: resp.Message}
	}

	payment := &models.Payment{
		OrderID:        order.ID,
		TransactionRef: txRef,
		Amount:         order.TotalPrice,
		Status:         models.StatusPending,
	}
	if err := s.Store.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}

	return resp, nil
}

// Reconcile re-checks txRef against the provider and applies the success
// transition when both the outer and the nested status report success. The
// webhook payload itself is never trusted for the decision.
func (s *Service) Reconcile(ctx context.Context, txRef string) error {
	resp, err := s.Chapa.Verify(ctx, txRef)
	if err != nil {
		return err
	}
	if resp.Status != "success" || resp.Data.Status != "success" {
		return nil
	}
	return s.ConfirmSuccess(ctx, txRef)
}

// ConfirmSuccess moves the payment matched by txRef and its order to success
// in one short transaction. Unknown references and replays are no-ops.
func (s *Service) ConfirmSuccess(ctx context.Context, txRef string) error {
	return s.Store.Transaction(ctx, func(tx repo.Store) error {
		payment, err := tx.PaymentByRef(ctx, txRef)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if payment.Status == models.StatusSuccess {
			return nil
		}

		payment.Status = models.StatusSuccess
		if err := tx.SavePayment(ctx, payment); err != nil {
			return err
		}
		return tx.SetOrderStatus(ctx, payment.OrderID, models.StatusSuccess)
	})
}
