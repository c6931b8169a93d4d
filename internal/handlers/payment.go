package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nexusshop/backend/internal/chapa"
	"github.com/nexusshop/backend/internal/logging"
	"github.com/nexusshop/backend/internal/mykafka"
	"github.com/nexusshop/backend/internal/service/payment"
	"github.com/nexusshop/backend/internal/service/token"
)

type PaymentHandler struct {
	Svc           *payment.Service
	WebhookSecret []byte
	Producer      *mykafka.Producer
}

func (h *PaymentHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "payment_events", fmt.Sprint(event["tx_ref"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

// InitializePayment starts a hosted-checkout transaction for a pending order
// of the authenticated user and returns the provider's checkout URL.
func (h *PaymentHandler) InitializePayment(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		OrderID uint `json:"order_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.OrderID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "order_id is required")
	}

	resp, err := h.Svc.Initialize(c.Request().Context(), userID, req.OrderID)
	if err != nil {
		var (
			statusErr   *payment.WrongStatusError
			initErr     *payment.InitFailedError
			rejectedErr *chapa.RejectedError
		)
		switch {
		case errors.Is(err, payment.ErrOrderNotFound),
			errors.Is(err, payment.ErrOrderEmpty):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.As(err, &statusErr):
			return echo.NewHTTPError(http.StatusBadRequest, statusErr.Error())
		case errors.As(err, &initErr):
			return echo.NewHTTPError(http.StatusBadRequest, initErr.Error())
		case errors.As(err, &rejectedErr):
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":   "the payment provider rejected the request",
				"details": rejectedErr.Body,
			})
		case errors.Is(err, chapa.ErrTimeout):
			return echo.NewHTTPError(http.StatusGatewayTimeout, "payment service timed out, please try again later")
		case errors.Is(err, chapa.ErrUnreachable):
			return echo.NewHTTPError(http.StatusServiceUnavailable, "failed to connect to the payment provider")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	h.publish(c, map[string]any{
		"type":    "payment_initialized",
		"userID":  userID,
		"orderID": req.OrderID,
	})

	return c.JSON(http.StatusOK, resp.Data)
}

// Webhook handles Chapa's payment notification. Once the signature checks
// out the response is always 200: the provider retries on anything else, and
// verification happens against its API anyway.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	log := logging.FromContext(c.Request().Context()).With("handler", "payment.webhook")

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read body")
	}

	signature := c.Request().Header.Get("Chapa-Signature")
	xSignature := c.Request().Header.Get("X-Chapa-Signature")
	if signature == "" && xSignature == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing signature header")
	}

	// Both accepted headers verify against the HMAC of the raw body.
	mac := hmac.New(sha256.New, h.WebhookSecret)
	mac.Write(body)
	computed := hex.EncodeToString(mac.Sum(nil))

	valid := (signature != "" && hmac.Equal([]byte(computed), []byte(signature))) ||
		(xSignature != "" && hmac.Equal([]byte(computed), []byte(xSignature)))
	if !valid {
		return echo.NewHTTPError(http.StatusForbidden, "invalid signature")
	}

	var event struct {
		TxRef string `json:"tx_ref"`
	}
	if err := json.Unmarshal(body, &event); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if event.TxRef == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "transaction reference (tx_ref) not found in webhook payload")
	}

	// From here on the webhook is acknowledged no matter what: failing it
	// would only trigger provider retry storms. Verification or database
	// errors are logged for manual follow-up.
	if err := h.Svc.Reconcile(c.Request().Context(), event.TxRef); err != nil {
		log.Error("webhook reconciliation failed", "tx_ref", event.TxRef, "error", err)
		return c.NoContent(http.StatusOK)
	}

	h.publish(c, map[string]any{
		"type":   "payment_webhook_processed",
		"tx_ref": event.TxRef,
	})

	return c.NoContent(http.StatusOK)
}
