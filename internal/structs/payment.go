package structs

import "github.com/shopspring/decimal"

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentGateway        PaymentMethod = "gateway"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCashOnDelivery || m == PaymentGateway
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

type PaymentLinkRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	Name    string          `json:"name"`
	Email   string          `json:"email"`
	Contact string          `json:"contact"`
}

type PaymentLinkResponse struct {
	PaymentLink string `json:"paymentLink"`
	Message     string `json:"message,omitempty"`
}

type PaymentOutcome string

const (
	PaymentOutcomePending PaymentOutcome = "pending"
	PaymentOutcomeSuccess PaymentOutcome = "success"
	PaymentOutcomeFailed  PaymentOutcome = "failed"
)
