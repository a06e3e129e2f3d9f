package structs

import "github.com/shopspring/decimal"

type CartLine struct {
	ProductID     string           `json:"productId"`
	Name          string           `json:"name"`
	Quantity      int64            `json:"quantity"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discountPrice,omitempty"`
}

// UnitPrice is the discount price when one is set, the base price otherwise.
func (l CartLine) UnitPrice() decimal.Decimal {
	if l.DiscountPrice != nil && l.DiscountPrice.IsPositive() {
		return *l.DiscountPrice
	}
	return l.Price
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(l.Quantity))
}

type Cart struct {
	Lines []CartLine `json:"lines"`
}

func (c Cart) Empty() bool { return len(c.Lines) == 0 }

type CartSource string

const (
	CartSourcePersistent CartSource = "persistent"
	CartSourceNavigation CartSource = "navigation"
)

type AddCartLine struct {
	ProductID     string           `json:"productId"`
	Name          string           `json:"name"`
	Quantity      int64            `json:"quantity"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discountPrice,omitempty"`
}

type RemoveCartLine struct {
	ProductID string `json:"productId"`
}
