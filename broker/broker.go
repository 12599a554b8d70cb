package broker

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradegate/portfolio"
)

// OrderRequest describes an order to send to the broker. The admission engine
// never sees this type; callers gate with the engine first, place the order,
// then apply the fill.
type OrderRequest struct {
	Symbol    string
	Quantity  int64
	Price     decimal.Decimal
	Side      portfolio.Side
	OrderType string // "MARKET" or "LIMIT"
}

// Order is the broker's view of a placed order.
type Order struct {
	ID       string
	Symbol   string
	Quantity int64
	Price    decimal.Decimal
	Side     portfolio.Side
	Status   string
	PlacedAt time.Time
}

// Broker is the external order-routing collaborator.
type Broker interface {
	PlaceOrder(ctx context.Context, req OrderRequest) (string, error)
	OrderStatus(ctx context.Context, orderID string) (Order, error)
	Holdings(ctx context.Context) ([]portfolio.Holding, error)
}
