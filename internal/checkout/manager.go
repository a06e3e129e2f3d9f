package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront/internal/address"
	"storefront/internal/cart"
	"storefront/internal/delivery"
	"storefront/internal/geocode"
	"storefront/internal/location"
	"storefront/internal/notify"
	"storefront/internal/order"
	"storefront/internal/payment"
	"storefront/internal/structs"
	"storefront/internal/ws"
	"storefront/pkg/config"
	"storefront/pkg/logger"
	"storefront/pkg/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	Module = fx.Provide(New)
)

type (
	Params struct {
		fx.In
		fx.Lifecycle

		Config    config.IConfig
		Logger    logger.Logger
		Store     storage.Store
		Evaluator delivery.Evaluator
		Geocoder  geocode.Client
		Addresses address.Service
		Carts     cart.Service
		Orders    order.Client
		History   order.History
		Payments  payment.Client
		Detector  payment.OutcomeDetector
		Notifier  notify.Notifier
		Hub       *ws.Hub `optional:"true"`
	}

	// OpenParams identify who opens a session and with what.
	OpenParams struct {
		UserID string
		// BearerToken is used for the order API when the user never stored
		// one under the token key.
		BearerToken string
		Request     structs.OpenCheckout
	}

	Manager interface {
		Open(ctx context.Context, p OpenParams) (*Session, error)
		Get(userID, id string) (*Session, error)
		Close(userID, id string) error
	}

	manager struct {
		deps      Deps
		store     storage.Store
		logger    logger.Logger
		geocoder  geocode.Client
		locOpts   location.Options
		minOrder  decimal.Decimal
		brandName string
		hub       *ws.Hub
		idleTTL   time.Duration
		now       func() time.Time
		stopSweep context.CancelFunc

		mu       sync.Mutex
		sessions map[string]*entry
	}

	entry struct {
		session *Session
		seen    time.Time
	}
)

func New(p Params) Manager {
	m := &manager{
		deps: Deps{
			Evaluator: p.Evaluator,
			Addresses: p.Addresses,
			Orders:    p.Orders,
			History:   p.History,
			Carts:     p.Carts,
			Payments:  p.Payments,
			Detector:  p.Detector,
			Notifier:  p.Notifier,
			Logger:    p.Logger.Named("checkout"),
		},
		store:    p.Store,
		logger:   p.Logger,
		geocoder: p.Geocoder,
		locOpts: location.Options{
			Timeout:    p.Config.GetDuration("location.timeout"),
			MaximumAge: p.Config.GetDuration("location.maximum_age"),
		},
		minOrder:  decimal.NewFromFloat(p.Config.GetFloat64("checkout.min_order_amount")),
		brandName: p.Config.GetString("checkout.brand_name"),
		hub:       p.Hub,
		idleTTL:   p.Config.GetDuration("checkout.idle_ttl"),
		now:       time.Now,
		sessions:  map[string]*entry{},
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: m.start,
		OnStop:  m.stop,
	})
	return m
}

// Open starts a session. Without a cart in the request the user's persisted
// cart is used, and only that one is cleared after a successful order.
func (m *manager) Open(ctx context.Context, p OpenParams) (*Session, error) {
	if p.UserID == "" {
		return nil, structs.ErrUnauthorized
	}

	var (
		c      structs.Cart
		source structs.CartSource
		err    error
	)
	if p.Request.Cart != nil {
		c, source = *p.Request.Cart, structs.CartSourceNavigation
		for _, l := range c.Lines {
			if l.ProductID == "" || l.Quantity <= 0 || l.Price.IsNegative() {
				return nil, fmt.Errorf("cart line %q: %w", l.ProductID, structs.ErrBadRequest)
			}
		}
	} else {
		c, err = m.deps.Carts.Get(ctx, p.UserID)
		if err != nil {
			return nil, err
		}
		source = structs.CartSourcePersistent
	}

	token := p.BearerToken
	var stored string
	ok, err := storage.ReadJSON(ctx, m.store, storage.UserKey(p.UserID, storage.KeyToken), &stored)
	if err != nil {
		m.logger.Error(ctx, "->storage.ReadJSON token", zap.Error(err))
		return nil, err
	}
	if ok && stored != "" {
		token = stored
	}

	provider := location.NewReportedProvider()
	deps := m.deps
	deps.Location = location.NewService(provider, m.geocoder, m.locOpts, deps.Logger)

	id := uuid.NewString()
	s := NewSession(id, c, source, Options{
		UserID:         p.UserID,
		Token:          token,
		Customer:       p.Request.Customer,
		BrandName:      m.brandName,
		MinOrderAmount: m.minOrder,
	}, deps)
	s.reporter = provider
	s.onPlaced = m.placed

	m.mu.Lock()
	m.sessions[id] = &entry{session: s, seen: m.now()}
	m.mu.Unlock()

	m.logger.Info(ctx, "checkout opened",
		zap.String("session_id", id),
		zap.String("user_id", p.UserID),
		zap.String("cart_source", string(source)),
		zap.Int("lines", len(c.Lines)),
	)
	return s, nil
}

// Get returns the session only to the user that opened it.
func (m *manager) Get(userID, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok || e.session.UserID() != userID {
		return nil, fmt.Errorf("checkout %s: %w", id, structs.ErrNotFound)
	}
	e.seen = m.now()
	return e.session, nil
}

func (m *manager) Close(userID, id string) error {
	m.mu.Lock()
	e, ok := m.sessions[id]
	if !ok || e.session.UserID() != userID {
		m.mu.Unlock()
		return fmt.Errorf("checkout %s: %w", id, structs.ErrNotFound)
	}
	delete(m.sessions, id)
	m.mu.Unlock()

	m.discard(e.session)
	return nil
}

// placed drops a session once its order exists. Watchers get the final view
// before the closed event.
func (m *manager) placed(view structs.CheckoutView) {
	m.mu.Lock()
	e, ok := m.sessions[view.ID]
	delete(m.sessions, view.ID)
	m.mu.Unlock()

	if m.hub != nil {
		m.hub.Publish(structs.Event{Type: structs.EventCheckoutUpdated, SessionID: view.ID, Payload: view})
	}
	if ok {
		m.discard(e.session)
	}
}

func (m *manager) discard(s *Session) {
	s.Close()
	if m.hub != nil {
		m.hub.CloseSession(s.ID())
	}
}

// sweep closes sessions untouched for longer than the idle TTL. Sessions
// with an order in flight are kept.
func (m *manager) sweep(ctx context.Context, now time.Time) int {
	var idle []*Session

	m.mu.Lock()
	for id, e := range m.sessions {
		if now.Sub(e.seen) < m.idleTTL {
			continue
		}
		step := e.session.Snapshot().Step
		if step == structs.StepSubmitting || step == structs.StepAwaitingGateway {
			continue
		}
		delete(m.sessions, id)
		idle = append(idle, e.session)
	}
	m.mu.Unlock()

	for _, s := range idle {
		m.discard(s)
	}
	if len(idle) > 0 {
		m.logger.Info(ctx, "idle checkout sessions closed", zap.Int("count", len(idle)))
	}
	return len(idle)
}

func (m *manager) start(context.Context) error {
	if m.idleTTL <= 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.stopSweep = cancel

	go func() {
		ticker := time.NewTicker(m.idleTTL / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				m.sweep(ctx, t)
			}
		}
	}()
	return nil
}

func (m *manager) stop(ctx context.Context) error {
	if m.stopSweep != nil {
		m.stopSweep()
	}

	m.mu.Lock()
	sessions := m.sessions
	m.sessions = map[string]*entry{}
	m.mu.Unlock()

	for _, e := range sessions {
		m.discard(e.session)
	}
	m.logger.Info(ctx, "checkout sessions closed", zap.Int("count", len(sessions)))
	return nil
}
