package profile

import (
	_ "embed"
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// OrderCurrency is the currency order totals are quoted in.
const OrderCurrency = "INR"

// Order is a read-only entry of the sample order history shown on every
// account page. Orders are never placed through this service.
type Order struct {
	ID            string          `json:"id" yaml:"id"`
	Date          string          `json:"date" yaml:"date"`
	Status        string          `json:"status" yaml:"status"`
	Total         decimal.Decimal `json:"total" yaml:"total"`
	Currency      string          `json:"currency" yaml:"-"`
	Items         int             `json:"items" yaml:"items"`
	Books         []string        `json:"books" yaml:"books"`
	PaymentMethod string          `json:"payment_method" yaml:"payment_method"`
}

//go:embed data/orders.yaml
var ordersYAML []byte

// LoadOrders decodes the bundled order history, newest first.
func LoadOrders() ([]Order, error) {
	return decodeOrders(ordersYAML)
}

func decodeOrders(data []byte) ([]Order, error) {
	var doc struct {
		Orders []Order `yaml:"orders"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	for i := range doc.Orders {
		o := &doc.Orders[i]
		if o.ID == "" {
			return nil, fmt.Errorf("order %d: missing id", i)
		}
		if o.Items != len(o.Books) {
			return nil, fmt.Errorf("order %s: %d items but %d books", o.ID, o.Items, len(o.Books))
		}
		o.Currency = OrderCurrency
	}
	return doc.Orders, nil
}
