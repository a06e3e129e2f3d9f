package structs

import "github.com/shopspring/decimal"

type CheckoutStep string

const (
	StepAddress         CheckoutStep = "address"
	StepPayment         CheckoutStep = "payment"
	StepSubmitting      CheckoutStep = "submitting"
	StepAwaitingGateway CheckoutStep = "awaiting_gateway"
	StepPlaced          CheckoutStep = "placed"
	StepFailed          CheckoutStep = "failed"
)

type Customer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

type OpenCheckout struct {
	Cart     *Cart    `json:"cart,omitempty"`
	Customer Customer `json:"customer"`
}

type Totals struct {
	ItemCount   int64           `json:"itemCount"`
	ItemsTotal  decimal.Decimal `json:"itemsTotal"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	MinimumDue  decimal.Decimal `json:"minimumOrderAmount"`
}

type CheckoutView struct {
	ID              string              `json:"id"`
	Brand           string              `json:"brand,omitempty"`
	Step            CheckoutStep        `json:"step"`
	SelectedAddress *DeliveryAddress    `json:"selectedAddress,omitempty"`
	PaymentMethod   PaymentMethod       `json:"paymentMethod"`
	Cart            Cart                `json:"cart"`
	CartSource      CartSource          `json:"cartSource"`
	Totals          Totals              `json:"totals"`
	Availability    AvailabilityVerdict `json:"availability"`
	Location        LocationView        `json:"location"`
	CanProceed      bool                `json:"canProceed"`
	BlockReason     BlockReason         `json:"blockReason,omitempty"`
	BlockMessage    string              `json:"blockMessage,omitempty"`
	PaymentLink     string              `json:"paymentLink,omitempty"`
	Order           *PlacedOrder        `json:"order,omitempty"`
	Message         string              `json:"message,omitempty"`
}

type SelectAddress struct {
	AddressID string `json:"addressId"`
}

type SelectPaymentMethod struct {
	Method PaymentMethod `json:"method"`
}

type GatewayNavigation struct {
	URL string `json:"url"`
}

type StoreToken struct {
	Token string `json:"token"`
}
