package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront/internal/address"
	"storefront/internal/cart"
	"storefront/internal/delivery"
	"storefront/internal/location"
	"storefront/internal/notify"
	"storefront/internal/order"
	"storefront/internal/payment"
	"storefront/internal/structs"
	"storefront/internal/texts"
	"storefront/pkg/logger"
	"storefront/pkg/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Options are fixed for the lifetime of a session.
type Options struct {
	UserID         string
	Token          string
	Customer       structs.Customer
	BrandName      string
	MinOrderAmount decimal.Decimal
}

// Deps are the collaborators a session drives.
type Deps struct {
	Evaluator delivery.Evaluator
	Location  *location.Service
	Addresses address.Service
	Orders    order.Client
	History   order.History
	Carts     cart.Service
	Payments  payment.Client
	Detector  payment.OutcomeDetector
	Notifier  notify.Notifier
	Logger    logger.Logger
}

type reporter interface {
	Report(r structs.LocationReport) error
}

// Session is one pass through address selection, payment and placement.
// Transitions are serialized by mu; network calls run outside the lock and
// are guarded by the submitting step.
type Session struct {
	id       string
	opts     Options
	deps     Deps
	reporter reporter
	now      func() time.Time
	// onPlaced runs once the order is placed, outside the session lock
	onPlaced func(view structs.CheckoutView)

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	closed      bool
	step        structs.CheckoutStep
	address     *structs.DeliveryAddress
	method      structs.PaymentMethod
	cart        structs.Cart
	source      structs.CartSource
	verdict     structs.AvailabilityVerdict
	paymentLink string
	placed      *structs.PlacedOrder
	message     string
}

func NewSession(id string, c structs.Cart, source structs.CartSource, opts Options, deps Deps) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	if c.Lines == nil {
		c.Lines = []structs.CartLine{}
	}

	s := &Session{
		id:      id,
		opts:    opts,
		deps:    deps,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
		step:    structs.StepAddress,
		method:  structs.PaymentCashOnDelivery,
		cart:    c,
		source:  source,
		verdict: delivery.NoLocation(),
	}
	if res, ok := deps.Location.Last(); ok {
		coord := res.Fix.Coordinate
		s.verdict = deps.Evaluator.Evaluate(&coord)
	}
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) UserID() string { return s.opts.UserID }

func (s *Session) Done() <-chan struct{} { return s.ctx.Done() }

// Close cancels in-flight work. Results that arrive afterwards are dropped.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
}

func (s *Session) Snapshot() structs.CheckoutView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// ReportLocation feeds a client report to the device boundary and runs an
// acquisition with it.
func (s *Session) ReportLocation(ctx context.Context, r structs.LocationReport) (structs.CheckoutView, error) {
	if s.reporter == nil {
		return s.Snapshot(), fmt.Errorf("session has no location reporter: %w", structs.ErrBadRequest)
	}
	if err := s.reporter.Report(r); err != nil {
		return s.Snapshot(), err
	}
	return s.RefreshLocation(ctx)
}

// RefreshLocation acquires a location and re-evaluates availability. A
// failed acquisition keeps the previous verdict.
func (s *Session) RefreshLocation(ctx context.Context) (structs.CheckoutView, error) {
	if err := s.checkOpen(); err != nil {
		return structs.CheckoutView{}, err
	}

	ctx, cancel := s.bind(ctx)
	defer cancel()

	res, err := s.deps.Location.Acquire(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return structs.CheckoutView{}, structs.ErrSessionClosed
	}
	if err != nil {
		return s.viewLocked(), err
	}

	coord := res.Fix.Coordinate
	s.verdict = s.deps.Evaluator.Evaluate(&coord)
	return s.viewLocked(), nil
}

// RefreshAvailability re-runs the evaluator against the last known fix.
func (s *Session) RefreshAvailability() (structs.CheckoutView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return structs.CheckoutView{}, structs.ErrSessionClosed
	}

	if res, ok := s.deps.Location.Last(); ok {
		coord := res.Fix.Coordinate
		s.verdict = s.deps.Evaluator.Evaluate(&coord)
	} else {
		s.verdict = s.deps.Evaluator.Evaluate(nil)
	}
	return s.viewLocked(), nil
}

func (s *Session) SelectAddress(ctx context.Context, addressID string) (structs.CheckoutView, error) {
	if err := s.checkStep(structs.StepAddress); err != nil {
		return structs.CheckoutView{}, err
	}

	addr, err := s.deps.Addresses.Get(ctx, s.opts.UserID, addressID)
	if err != nil {
		return s.Snapshot(), err
	}
	return s.selectAddress(addr)
}

// AddAddress validates and saves a new address, then selects it.
func (s *Session) AddAddress(ctx context.Context, req structs.CreateAddress) (structs.CheckoutView, error) {
	if err := s.checkStep(structs.StepAddress); err != nil {
		return structs.CheckoutView{}, err
	}

	addr, err := s.deps.Addresses.Create(ctx, s.opts.UserID, req)
	if err != nil {
		return s.Snapshot(), err
	}
	return s.selectAddress(addr)
}

// Continue moves from address to payment when every guard passes.
func (s *Session) Continue() (structs.CheckoutView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return structs.CheckoutView{}, structs.ErrSessionClosed
	}
	if s.step != structs.StepAddress {
		return s.viewLocked(), fmt.Errorf("continue from %s: %w", s.step, structs.ErrIllegalTransition)
	}
	if blocked := s.guardLocked(); blocked != nil {
		return s.viewLocked(), blocked
	}

	s.moveLocked(structs.StepPayment)
	s.message = ""
	return s.viewLocked(), nil
}

// Back steps one screen back: payment to address, a failed or abandoned
// gateway attempt to payment.
func (s *Session) Back() (structs.CheckoutView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return structs.CheckoutView{}, structs.ErrSessionClosed
	}

	switch s.step {
	case structs.StepPayment:
		s.moveLocked(structs.StepAddress)
	case structs.StepFailed, structs.StepAwaitingGateway:
		s.moveLocked(structs.StepPayment)
		s.paymentLink = ""
	default:
		return s.viewLocked(), fmt.Errorf("back from %s: %w", s.step, structs.ErrIllegalTransition)
	}
	s.message = ""
	return s.viewLocked(), nil
}

func (s *Session) SelectPaymentMethod(m structs.PaymentMethod) (structs.CheckoutView, error) {
	if !m.Valid() {
		return s.Snapshot(), fmt.Errorf("payment method %q: %w", m, structs.ErrBadRequest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return structs.CheckoutView{}, structs.ErrSessionClosed
	}
	if s.step != structs.StepPayment {
		return s.viewLocked(), fmt.Errorf("select payment in %s: %w", s.step, structs.ErrIllegalTransition)
	}
	s.method = m
	return s.viewLocked(), nil
}

// Submit places a cash order or opens the payment gateway. While a submit
// is running, further calls fail with ErrSubmissionInFlight and send
// nothing.
func (s *Session) Submit(ctx context.Context) (structs.CheckoutView, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return structs.CheckoutView{}, structs.ErrSessionClosed
	}
	if s.step == structs.StepSubmitting || s.step == structs.StepAwaitingGateway {
		view := s.viewLocked()
		s.mu.Unlock()
		return view, structs.ErrSubmissionInFlight
	}
	if s.step != structs.StepPayment {
		view := s.viewLocked()
		s.mu.Unlock()
		return view, fmt.Errorf("submit from %s: %w", s.step, structs.ErrIllegalTransition)
	}
	if blocked := s.guardLocked(); blocked != nil {
		view := s.viewLocked()
		s.mu.Unlock()
		return view, blocked
	}

	method := s.method
	if method == structs.PaymentGateway {
		s.moveLocked(structs.StepAwaitingGateway)
		s.message = ""
		amount := s.totalsLocked().TotalAmount
		s.mu.Unlock()
		return s.openGateway(ctx, amount)
	}

	s.moveLocked(structs.StepSubmitting)
	s.message = ""
	req := s.orderRequestLocked(structs.PaymentCashOnDelivery, structs.PaymentStatusPending)
	s.mu.Unlock()

	return s.placeOrder(ctx, req)
}

// GatewayNavigated is fed every URL the hosted payment page loads.
func (s *Session) GatewayNavigated(ctx context.Context, url string) (structs.CheckoutView, structs.PaymentOutcome, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return structs.CheckoutView{}, structs.PaymentOutcomePending, structs.ErrSessionClosed
	}
	if s.step != structs.StepAwaitingGateway || s.paymentLink == "" {
		view := s.viewLocked()
		s.mu.Unlock()
		return view, structs.PaymentOutcomePending, fmt.Errorf("navigation in %s: %w", s.step, structs.ErrIllegalTransition)
	}

	outcome := s.deps.Detector.Detect(url)
	switch outcome {
	case structs.PaymentOutcomeFailed:
		s.moveLocked(structs.StepPayment)
		s.paymentLink = ""
		s.message = texts.Get(texts.PaymentFailed)
		view := s.viewLocked()
		s.mu.Unlock()
		s.deps.Logger.Warn(ctx, "gateway payment failed", zap.String("session_id", s.id))
		return view, outcome, nil
	case structs.PaymentOutcomeSuccess:
		s.moveLocked(structs.StepSubmitting)
		s.paymentLink = ""
		req := s.orderRequestLocked(structs.PaymentGateway, structs.PaymentStatusPaid)
		s.mu.Unlock()
		view, err := s.placeOrder(ctx, req)
		return view, outcome, err
	default:
		view := s.viewLocked()
		s.mu.Unlock()
		return view, outcome, nil
	}
}

func (s *Session) openGateway(ctx context.Context, amount decimal.Decimal) (structs.CheckoutView, error) {
	ctx, cancel := s.bind(ctx)
	defer cancel()

	link, err := s.deps.Payments.CreateLink(ctx, structs.PaymentLinkRequest{
		Amount:  amount,
		Name:    s.opts.Customer.Name,
		Email:   s.opts.Customer.Email,
		Contact: s.opts.Customer.Contact,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return structs.CheckoutView{}, structs.ErrSessionClosed
	}
	if s.step != structs.StepAwaitingGateway {
		// the user went back while the link was being created
		return s.viewLocked(), fmt.Errorf("payment link arrived in %s: %w", s.step, structs.ErrIllegalTransition)
	}
	if err != nil {
		s.deps.Logger.Error(ctx, "->payments.CreateLink", zap.Error(err), zap.String("session_id", s.id))
		s.moveLocked(structs.StepPayment)
		s.message = texts.Get(texts.PaymentLinkFailed)
		return s.viewLocked(), err
	}

	s.paymentLink = link
	s.message = texts.Get(texts.PaymentWaiting)
	return s.viewLocked(), nil
}

func (s *Session) placeOrder(ctx context.Context, req structs.CreateOrder) (view structs.CheckoutView, err error) {
	ctx, capture := s.deps.Logger.ContextWithCapture(ctx, "checkout.place_order")
	defer func() {
		capture(
			zap.String("step", string(view.Step)),
			zap.String("payment_method", string(req.PaymentMethod)),
			zap.Error(err),
		)
	}()

	ctx, cancel := s.bind(ctx)
	defer cancel()

	orders, err := s.deps.Orders.Create(ctx, s.opts.Token, req)
	if err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return structs.CheckoutView{}, structs.ErrSessionClosed
		}

		if errors.Is(err, structs.ErrUnavailableShops) {
			s.deps.Logger.Warn(ctx, "order refused for location", zap.Error(err), zap.String("session_id", s.id))
			s.moveLocked(structs.StepPayment)
			s.message = texts.Get(texts.OrderUnavailableShop)
			return s.viewLocked(), err
		}
		s.deps.Logger.Error(ctx, "->orders.Create", zap.Error(err), zap.String("session_id", s.id))
		s.moveLocked(structs.StepFailed)
		s.message = texts.Get(texts.OrderFailed)
		return s.viewLocked(), err
	}

	placed := structs.PlacedOrder{
		LocalID:         utils.GenKSUID(),
		Items:           req.OrderItems,
		ShippingAddress: req.ShippingAddress,
		UserLocation:    req.UserLocation,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   req.PaymentStatus,
		TotalPrice:      req.TotalPrice,
		CustomerEmail:   s.opts.Customer.Email,
		PlacedAt:        s.now(),
	}
	for _, o := range orders {
		placed.OrderIDs = append(placed.OrderIDs, o.ID)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.deps.Logger.Warn(ctx, "order placed after session closed", zap.Strings("order_ids", placed.OrderIDs))
		return structs.CheckoutView{}, structs.ErrSessionClosed
	}
	source := s.source
	s.mu.Unlock()

	// the order exists upstream now; local bookkeeping must not fail it
	bookkeeping := context.WithoutCancel(ctx)
	if source == structs.CartSourcePersistent {
		if err := s.deps.Carts.Clear(bookkeeping, s.opts.UserID); err != nil {
			s.deps.Logger.Error(ctx, "->carts.Clear", zap.Error(err))
		}
	}
	if err := s.deps.History.Append(bookkeeping, s.opts.UserID, placed); err != nil {
		s.deps.Logger.Error(ctx, "->history.Append", zap.Error(err))
	}
	go s.deps.Notifier.OrderPlaced(bookkeeping, placed)

	s.mu.Lock()
	s.moveLocked(structs.StepPlaced)
	s.placed = &placed
	if source == structs.CartSourcePersistent {
		s.cart = structs.Cart{Lines: []structs.CartLine{}}
	}
	s.message = texts.Get(texts.OrderPlaced)
	view = s.viewLocked()
	onPlaced := s.onPlaced
	s.mu.Unlock()

	s.deps.Logger.Info(ctx, "order placed",
		zap.String("session_id", s.id),
		zap.Strings("order_ids", placed.OrderIDs),
		zap.String("payment_method", string(placed.PaymentMethod)),
	)
	if onPlaced != nil {
		onPlaced(view)
	}
	return view, nil
}

func (s *Session) selectAddress(addr structs.DeliveryAddress) (structs.CheckoutView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return structs.CheckoutView{}, structs.ErrSessionClosed
	}
	if s.step != structs.StepAddress {
		return s.viewLocked(), fmt.Errorf("select address in %s: %w", s.step, structs.ErrIllegalTransition)
	}
	s.address = &addr
	return s.viewLocked(), nil
}

func (s *Session) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return structs.ErrSessionClosed
	}
	return nil
}

func (s *Session) checkStep(step structs.CheckoutStep) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return structs.ErrSessionClosed
	}
	if s.step != step {
		return fmt.Errorf("expected step %s, at %s: %w", step, s.step, structs.ErrIllegalTransition)
	}
	return nil
}

// bind derives a context that is also cancelled when the session closes.
func (s *Session) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// guardLocked checks, in order: address, minimum amount, availability.
func (s *Session) guardLocked() *structs.BlockedError {
	if s.address == nil {
		return &structs.BlockedError{Reason: structs.BlockNoAddress, Message: texts.Get(texts.BlockNoAddress)}
	}
	if s.totalsLocked().TotalAmount.LessThan(s.opts.MinOrderAmount) {
		return &structs.BlockedError{
			Reason:  structs.BlockMinOrder,
			Message: texts.Format(texts.BlockMinOrder, utils.FCurrency(s.opts.MinOrderAmount)),
		}
	}
	if !s.verdict.Available {
		return &structs.BlockedError{Reason: structs.BlockUnavailable, Message: texts.Get(texts.BlockUnavailable)}
	}
	return nil
}

func (s *Session) totalsLocked() structs.Totals {
	t := structs.Totals{
		ItemsTotal: decimal.Zero,
		MinimumDue: s.opts.MinOrderAmount,
	}
	for _, l := range s.cart.Lines {
		t.ItemCount += l.Quantity
		t.ItemsTotal = t.ItemsTotal.Add(l.Subtotal())
	}
	t.TotalAmount = t.ItemsTotal
	return t
}

func (s *Session) orderRequestLocked(method structs.PaymentMethod, status structs.PaymentStatus) structs.CreateOrder {
	totals := s.totalsLocked()
	req := structs.CreateOrder{
		OrderItems:    make([]structs.OrderItem, 0, len(s.cart.Lines)),
		PaymentMethod: method,
		PaymentStatus: status,
		ItemsPrice:    totals.ItemsTotal,
		TotalPrice:    totals.TotalAmount,
	}
	for _, l := range s.cart.Lines {
		req.OrderItems = append(req.OrderItems, structs.OrderItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			Price:     l.UnitPrice(),
		})
	}
	if s.address != nil {
		req.ShippingAddress = *s.address
	}
	if res, ok := s.deps.Location.Last(); ok {
		coord := res.Fix.Coordinate
		req.UserLocation = &coord
	}
	return req
}

func (s *Session) moveLocked(to structs.CheckoutStep) {
	next, err := transition(s.step, to)
	if err != nil {
		s.deps.Logger.Error(context.Background(), "checkout state", zap.Error(err), zap.String("session_id", s.id))
		return
	}
	s.step = next
}

func (s *Session) viewLocked() structs.CheckoutView {
	view := structs.CheckoutView{
		ID:            s.id,
		Brand:         s.opts.BrandName,
		Step:          s.step,
		PaymentMethod: s.method,
		Cart:          s.cart,
		CartSource:    s.source,
		Totals:        s.totalsLocked(),
		Availability:  s.verdict,
		Location:      s.deps.Location.View(),
		PaymentLink:   s.paymentLink,
		Order:         s.placed,
		Message:       s.message,
	}
	if s.address != nil {
		addr := *s.address
		view.SelectedAddress = &addr
	}
	if blocked := s.guardLocked(); blocked != nil {
		view.BlockReason = blocked.Reason
		view.BlockMessage = blocked.Message
	} else {
		view.CanProceed = true
	}
	return view
}
