package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/tradegate/pkg/id"
	"github.com/rustyeddy/tradegate/portfolio"
)

// Mock fills every order immediately and keeps them in memory for status
// queries. Used for paper trading and tests.
type Mock struct {
	mu       sync.Mutex
	orders   map[string]Order
	holdings []portfolio.Holding
	log      *zap.Logger
}

func NewMock(holdings []portfolio.Holding, log *zap.Logger) *Mock {
	if log == nil {
		log = zap.NewNop()
	}
	return &Mock{
		orders:   make(map[string]Order),
		holdings: holdings,
		log:      log,
	}
}

func (m *Mock) PlaceOrder(ctx context.Context, req OrderRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	orderID := id.New()
	m.orders[orderID] = Order{
		ID:       orderID,
		Symbol:   req.Symbol,
		Quantity: req.Quantity,
		Price:    req.Price,
		Side:     req.Side,
		Status:   "COMPLETE",
		PlacedAt: time.Now().UTC(),
	}
	m.log.Info("mock order filled",
		zap.String("order_id", orderID),
		zap.String("symbol", req.Symbol),
		zap.String("side", string(req.Side)),
		zap.Int64("quantity", req.Quantity))
	return orderID, nil
}

func (m *Mock) OrderStatus(ctx context.Context, orderID string) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[orderID]
	if !ok {
		return Order{}, fmt.Errorf("mock broker: order %q not found", orderID)
	}
	return o, nil
}

func (m *Mock) Holdings(ctx context.Context) ([]portfolio.Holding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]portfolio.Holding, len(m.holdings))
	copy(out, m.holdings)
	return out, nil
}
