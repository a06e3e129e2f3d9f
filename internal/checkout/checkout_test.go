package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"storefront/internal/address"
	"storefront/internal/cart"
	"storefront/internal/delivery"
	"storefront/internal/geo"
	"storefront/internal/location"
	"storefront/internal/order"
	"storefront/internal/payment"
	"storefront/internal/structs"
	"storefront/pkg/cache"
	"storefront/pkg/logger"
	"storefront/pkg/storage"

	"github.com/shopspring/decimal"
)

var (
	atOrigin    = structs.Coordinate{Latitude: 12.4962, Longitude: 78.5696}
	sixKmNorth  = structs.Coordinate{Latitude: 12.5562, Longitude: 78.5696}
	minOrderAmt = decimal.NewFromInt(100)
)

type stubGeocoder struct{}

func (stubGeocoder) ReverseGeocode(_ context.Context, p structs.Coordinate) (structs.ResolvedAddress, error) {
	return structs.ResolvedAddress{DisplayName: "Bus Stand", Coordinate: p, Raw: map[string]string{}}, nil
}

func (stubGeocoder) Search(context.Context, string, int) []structs.PlaceCandidate {
	return []structs.PlaceCandidate{}
}

type stubOrders struct {
	mu      sync.Mutex
	calls   int
	reqs    []structs.CreateOrder
	tokens  []string
	err     error
	started chan struct{}
	release chan struct{}
}

func (o *stubOrders) Create(ctx context.Context, token string, req structs.CreateOrder) ([]structs.Order, error) {
	o.mu.Lock()
	o.calls++
	o.reqs = append(o.reqs, req)
	o.tokens = append(o.tokens, token)
	started, release, err := o.started, o.release, o.err
	o.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return []structs.Order{{ID: "o1", Status: "pending"}}, nil
}

func (o *stubOrders) callCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}

type stubPayments struct {
	calls int
	last  structs.PaymentLinkRequest
	err   error
}

func (p *stubPayments) CreateLink(_ context.Context, req structs.PaymentLinkRequest) (string, error) {
	p.calls++
	p.last = req
	if p.err != nil {
		return "", p.err
	}
	return "https://pay.example/session/1", nil
}

type stubNotifier struct {
	placed chan structs.PlacedOrder
}

func (n *stubNotifier) OrderPlaced(_ context.Context, o structs.PlacedOrder) {
	n.placed <- o
}

type fixture struct {
	session  *Session
	store    storage.Store
	orders   *stubOrders
	payments *stubPayments
	notifier *stubNotifier
	history  order.History
	carts    cart.Service
}

func newFixture(t *testing.T, lines []structs.CartLine, source structs.CartSource) *fixture {
	t.Helper()
	log := logger.NewNop()
	store := storage.NewMemory(cache.New(cache.Params{Logger: log}))

	origin, err := geo.NewOrigin(atOrigin.Latitude, atOrigin.Longitude, 5)
	if err != nil {
		t.Fatal(err)
	}

	f := &fixture{
		store:    store,
		orders:   &stubOrders{},
		payments: &stubPayments{},
		notifier: &stubNotifier{placed: make(chan structs.PlacedOrder, 4)},
		history:  order.NewHistory(order.HistoryParams{Store: store, Logger: log}),
		carts:    cart.New(cart.Params{Store: store, Logger: log}),
	}

	if source == structs.CartSourcePersistent {
		for _, l := range lines {
			if _, err := f.carts.Add(context.Background(), "u1", structs.AddCartLine(l)); err != nil {
				t.Fatal(err)
			}
		}
	}

	provider := location.NewReportedProvider()
	deps := Deps{
		Evaluator: delivery.NewEvaluator(origin, log),
		Location:  location.NewService(provider, stubGeocoder{}, location.Options{}, log),
		Addresses: address.New(address.Params{Store: store, Logger: log}),
		Orders:    f.orders,
		History:   f.history,
		Carts:     f.carts,
		Payments:  f.payments,
		Detector:  payment.NewURLPatternDetector("", ""),
		Notifier:  f.notifier,
		Logger:    log,
	}

	f.session = NewSession("s1", structs.Cart{Lines: lines}, source, Options{
		UserID:         "u1",
		Token:          "api-token",
		Customer:       structs.Customer{Name: "Asha", Email: "asha@example.com", Contact: "9876543210"},
		MinOrderAmount: minOrderAmt,
	}, deps)
	f.session.reporter = provider
	t.Cleanup(f.session.Close)
	return f
}

func line(id string, price, qty int64) structs.CartLine {
	return structs.CartLine{ProductID: id, Name: id, Quantity: qty, Price: decimal.NewFromInt(price)}
}

func addressForm() structs.CreateAddress {
	return structs.CreateAddress{
		Name: "Asha", Phone: "9876543210", Pincode: "635001",
		Address: "12 Main Street", City: "Krishnagiri", State: "Tamil Nadu",
	}
}

func report(c structs.Coordinate) structs.LocationReport {
	lat, lon := c.Latitude, c.Longitude
	return structs.LocationReport{Permission: structs.PermissionGranted, Latitude: &lat, Longitude: &lon, Accuracy: 5}
}

// readyForPayment walks a session to the payment step.
func readyForPayment(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()
	if _, err := f.session.AddAddress(ctx, addressForm()); err != nil {
		t.Fatalf("add address: %v", err)
	}
	if _, err := f.session.ReportLocation(ctx, report(atOrigin)); err != nil {
		t.Fatalf("report location: %v", err)
	}
	if _, err := f.session.Continue(); err != nil {
		t.Fatalf("continue: %v", err)
	}
}

func expectBlocked(t *testing.T, err error, reason structs.BlockReason) {
	t.Helper()
	var blocked *structs.BlockedError
	if !errors.As(err, &blocked) || blocked.Reason != reason {
		t.Fatalf("expected block %s, got %v", reason, err)
	}
	if blocked.Message == "" {
		t.Fatal("blocked error must carry a message")
	}
	if !errors.Is(err, structs.ErrCheckoutBlocked) {
		t.Fatal("blocked error must match ErrCheckoutBlocked")
	}
}

func TestGuards_CheckedInOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, []structs.CartLine{line("p1", 50, 1)}, structs.CartSourceNavigation)
	s := f.session

	view := s.Snapshot()
	if view.CanProceed || view.BlockReason != structs.BlockNoAddress || view.BlockMessage == "" {
		t.Fatalf("expected no_address block, got %+v", view)
	}
	_, err := s.Continue()
	expectBlocked(t, err, structs.BlockNoAddress)

	if _, err := s.AddAddress(ctx, addressForm()); err != nil {
		t.Fatal(err)
	}
	_, err = s.Continue()
	expectBlocked(t, err, structs.BlockMinOrder)

	// raising the total is out of the session's hands, open a bigger cart
	f = newFixture(t, []structs.CartLine{line("p1", 50, 2)}, structs.CartSourceNavigation)
	s = f.session
	if _, err := s.AddAddress(ctx, addressForm()); err != nil {
		t.Fatal(err)
	}
	_, err = s.Continue()
	expectBlocked(t, err, structs.BlockUnavailable)

	view, err = s.ReportLocation(ctx, report(atOrigin))
	if err != nil {
		t.Fatal(err)
	}
	if !view.CanProceed || !view.Availability.Available {
		t.Fatalf("expected to proceed, got %+v", view)
	}
	view, err = s.Continue()
	if err != nil || view.Step != structs.StepPayment {
		t.Fatalf("continue = %s, %v", view.Step, err)
	}
}

func TestGuards_OutsideRadiusBlocks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, []structs.CartLine{line("p1", 150, 1)}, structs.CartSourceNavigation)
	s := f.session

	if _, err := s.AddAddress(ctx, addressForm()); err != nil {
		t.Fatal(err)
	}
	view, err := s.ReportLocation(ctx, report(sixKmNorth))
	if err != nil {
		t.Fatal(err)
	}
	if view.Availability.Reason != structs.ReasonOutsideRadius {
		t.Fatalf("expected outside_radius, got %+v", view.Availability)
	}
	_, err = s.Continue()
	expectBlocked(t, err, structs.BlockUnavailable)
}

func TestAddAddress_InvalidIsNotSelected(t *testing.T) {
	f := newFixture(t, []structs.CartLine{line("p1", 150, 1)}, structs.CartSourceNavigation)
	form := addressForm()
	form.Pincode = "12"

	view, err := f.session.AddAddress(context.Background(), form)
	if !errors.Is(err, structs.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if view.SelectedAddress != nil {
		t.Fatal("invalid address must not be selected")
	}
}

func TestLocationFailure_KeepsNoLocationVerdict(t *testing.T) {
	f := newFixture(t, []structs.CartLine{line("p1", 150, 1)}, structs.CartSourceNavigation)

	view, err := f.session.ReportLocation(context.Background(), structs.LocationReport{Permission: structs.PermissionDenied})
	if !errors.Is(err, structs.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
	if view.Availability.Reason != structs.ReasonNoLocation {
		t.Fatalf("expected no_location verdict, got %+v", view.Availability)
	}
	if view.Location.Failure == nil || view.Location.Message == "" {
		t.Fatalf("expected failure in location view, got %+v", view.Location)
	}
}

func TestSubmit_CashOnDeliveryClearsPersistentCart(t *testing.T) {
	ctx := context.Background()
	discount := decimal.NewFromInt(80)
	l := line("p1", 100, 2)
	l.DiscountPrice = &discount
	f := newFixture(t, []structs.CartLine{l}, structs.CartSourcePersistent)
	readyForPayment(t, f)

	view, err := f.session.Submit(ctx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if view.Step != structs.StepPlaced || view.Order == nil || view.Order.OrderIDs[0] != "o1" {
		t.Fatalf("unexpected view %+v", view)
	}

	req := f.orders.reqs[0]
	if f.orders.tokens[0] != "api-token" {
		t.Fatalf("token = %q", f.orders.tokens[0])
	}
	if !req.OrderItems[0].Price.Equal(discount) || !req.TotalPrice.Equal(decimal.NewFromInt(160)) {
		t.Fatalf("expected discounted prices, got %+v", req)
	}
	if req.UserLocation == nil || *req.UserLocation != atOrigin {
		t.Fatalf("expected user location, got %+v", req.UserLocation)
	}
	if req.PaymentMethod != structs.PaymentCashOnDelivery || req.PaymentStatus != structs.PaymentStatusPending {
		t.Fatalf("unexpected payment fields %+v", req)
	}

	if c, _ := f.carts.Get(ctx, "u1"); !c.Empty() {
		t.Fatalf("persistent cart must be cleared, got %+v", c)
	}
	history, _ := f.history.List(ctx, "u1")
	if len(history) != 1 || history[0].OrderIDs[0] != "o1" {
		t.Fatalf("unexpected history %+v", history)
	}

	select {
	case <-f.notifier.placed:
	case <-time.After(2 * time.Second):
		t.Fatal("admins were not notified")
	}
}

func TestSubmit_NavigationCartIsKept(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, []structs.CartLine{line("p1", 150, 1)}, structs.CartSourceNavigation)
	if _, err := f.carts.Add(ctx, "u1", structs.AddCartLine(line("kept", 10, 1))); err != nil {
		t.Fatal(err)
	}
	readyForPayment(t, f)

	if _, err := f.session.Submit(ctx); err != nil {
		t.Fatal(err)
	}
	if c, _ := f.carts.Get(ctx, "u1"); len(c.Lines) != 1 {
		t.Fatalf("navigation checkout must not touch the persisted cart, got %+v", c)
	}
}

func TestSubmit_SecondCallWhileInFlightSendsNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, []structs.CartLine{line("p1", 150, 1)}, structs.CartSourceNavigation)
	readyForPayment(t, f)

	f.orders.started = make(chan struct{}, 1)
	f.orders.release = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := f.session.Submit(ctx)
		done <- err
	}()
	<-f.orders.started

	view, err := f.session.Submit(ctx)
	if !errors.Is(err, structs.ErrSubmissionInFlight) {
		t.Fatalf("expected ErrSubmissionInFlight, got %v", err)
	}
	if view.Step != structs.StepSubmitting {
		t.Fatalf("step = %s", view.Step)
	}
	if f.orders.callCount() != 1 {
		t.Fatalf("expected one request, got %d", f.orders.callCount())
	}

	close(f.orders.release)
	if err := <-done; err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if f.orders.callCount() != 1 {
		t.Fatalf("expected one request in total, got %d", f.orders.callCount())
	}
}

func TestSubmit_UnavailableShopsReturnsToPayment(t *testing.T) {
	f := newFixture(t, []structs.CartLine{line("p1", 150, 1)}, structs.CartSourcePersistent)
	readyForPayment(t, f)
	f.orders.err = &structs.UnavailableShopsError{Message: "no", Shops: []structs.UnavailableShop{{ShopID: "s1"}}}

	view, err := f.session.Submit(context.Background())
	if !errors.Is(err, structs.ErrUnavailableShops) {
		t.Fatalf("expected unavailable shops, got %v", err)
	}
	if view.Step != structs.StepPayment || view.Message == "" {
		t.Fatalf("unexpected view %+v", view)
	}
	if c, _ := f.carts.Get(context.Background(), "u1"); c.Empty() {
		t.Fatal("cart must survive a failed order")
	}
}

func TestSubmit_GenericFailureThenRetry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, []structs.CartLine{line("p1", 150, 1)}, structs.CartSourceNavigation)
	readyForPayment(t, f)
	f.orders.err = &structs.OrderSubmissionError{Status: 500}

	view, err := f.session.Submit(ctx)
	if !errors.Is(err, structs.ErrOrderSubmission) || view.Step != structs.StepFailed {
		t.Fatalf("expected failed step, got %s, %v", view.Step, err)
	}
	if history, _ := f.history.List(ctx, "u1"); len(history) != 0 {
		t.Fatal("failed order must not be recorded")
	}

	if view, err = f.session.Back(); err != nil || view.Step != structs.StepPayment {
		t.Fatalf("back = %s, %v", view.Step, err)
	}
	f.orders.mu.Lock()
	f.orders.err = nil
	f.orders.mu.Unlock()
	if view, err = f.session.Submit(ctx); err != nil || view.Step != structs.StepPlaced {
		t.Fatalf("retry = %s, %v", view.Step, err)
	}
}

func TestSubmit_RejectedOutsidePaymentStep(t *testing.T) {
	f := newFixture(t, []structs.CartLine{line("p1", 150, 1)}, structs.CartSourceNavigation)
	if _, err := f.session.Submit(context.Background()); !errors.Is(err, structs.ErrIllegalTransition) {
		t.Fatalf("expected illegal transition, got %v", err)
	}
	if f.orders.callCount() != 0 {
		t.Fatal("no request expected")
	}
}

func TestGatewayFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, []structs.CartLine{line("p1", 125, 2)}, structs.CartSourcePersistent)
	readyForPayment(t, f)

	if _, err := f.session.SelectPaymentMethod("card"); !errors.Is(err, structs.ErrBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
	if _, err := f.session.SelectPaymentMethod(structs.PaymentGateway); err != nil {
		t.Fatal(err)
	}

	view, err := f.session.Submit(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if view.Step != structs.StepAwaitingGateway || view.PaymentLink == "" {
		t.Fatalf("unexpected view %+v", view)
	}
	if !f.payments.last.Amount.Equal(decimal.NewFromInt(250)) || f.payments.last.Contact != "9876543210" {
		t.Fatalf("unexpected link request %+v", f.payments.last)
	}
	if _, err := f.session.Submit(ctx); !errors.Is(err, structs.ErrSubmissionInFlight) {
		t.Fatalf("expected in flight, got %v", err)
	}

	view, outcome, err := f.session.GatewayNavigated(ctx, "https://pay.example/3ds")
	if err != nil || outcome != structs.PaymentOutcomePending || view.Step != structs.StepAwaitingGateway {
		t.Fatalf("pending navigation changed state: %s %s %v", view.Step, outcome, err)
	}

	view, outcome, err = f.session.GatewayNavigated(ctx, "https://shop.example/payment-failed")
	if err != nil || outcome != structs.PaymentOutcomeFailed || view.Step != structs.StepPayment {
		t.Fatalf("failed navigation: %s %s %v", view.Step, outcome, err)
	}
	if f.orders.callCount() != 0 {
		t.Fatal("no order expected after failed payment")
	}

	if _, err := f.session.Submit(ctx); err != nil {
		t.Fatal(err)
	}
	view, outcome, err = f.session.GatewayNavigated(ctx, "https://shop.example/payment-success?ref=1")
	if err != nil || outcome != structs.PaymentOutcomeSuccess {
		t.Fatalf("success navigation: %s %v", outcome, err)
	}
	if view.Step != structs.StepPlaced || view.Order == nil {
		t.Fatalf("expected placed order, got %+v", view)
	}
	req := f.orders.reqs[0]
	if req.PaymentMethod != structs.PaymentGateway || req.PaymentStatus != structs.PaymentStatusPaid {
		t.Fatalf("unexpected order payment fields %+v", req)
	}
	if c, _ := f.carts.Get(ctx, "u1"); !c.Empty() {
		t.Fatal("persistent cart must be cleared after gateway payment")
	}
}

func TestGatewayLinkFailureReturnsToPayment(t *testing.T) {
	f := newFixture(t, []structs.CartLine{line("p1", 150, 1)}, structs.CartSourceNavigation)
	readyForPayment(t, f)
	f.payments.err = structs.ErrPaymentLink
	if _, err := f.session.SelectPaymentMethod(structs.PaymentGateway); err != nil {
		t.Fatal(err)
	}

	view, err := f.session.Submit(context.Background())
	if !errors.Is(err, structs.ErrPaymentLink) || view.Step != structs.StepPayment || view.Message == "" {
		t.Fatalf("unexpected result %s %q %v", view.Step, view.Message, err)
	}
}

func TestClose_DiscardsLateResult(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, []structs.CartLine{line("p1", 150, 1)}, structs.CartSourceNavigation)
	readyForPayment(t, f)

	f.orders.started = make(chan struct{}, 1)
	f.orders.release = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := f.session.Submit(ctx)
		done <- err
	}()
	<-f.orders.started
	f.session.Close()

	select {
	case err := <-done:
		if !errors.Is(err, structs.ErrSessionClosed) {
			t.Fatalf("expected ErrSessionClosed, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("close did not cancel the submission")
	}
	if history, _ := f.history.List(ctx, "u1"); len(history) != 0 {
		t.Fatal("nothing may be recorded after close")
	}
	if _, err := f.session.Continue(); !errors.Is(err, structs.ErrSessionClosed) {
		t.Fatalf("expected closed session, got %v", err)
	}
}

func TestBack(t *testing.T) {
	f := newFixture(t, []structs.CartLine{line("p1", 150, 1)}, structs.CartSourceNavigation)
	if _, err := f.session.Back(); !errors.Is(err, structs.ErrIllegalTransition) {
		t.Fatalf("back from address must be illegal, got %v", err)
	}
	readyForPayment(t, f)
	view, err := f.session.Back()
	if err != nil || view.Step != structs.StepAddress {
		t.Fatalf("back = %s, %v", view.Step, err)
	}
}

func TestTransitions(t *testing.T) {
	legal := [][2]structs.CheckoutStep{
		{structs.StepAddress, structs.StepPayment},
		{structs.StepPayment, structs.StepSubmitting},
		{structs.StepSubmitting, structs.StepPlaced},
		{structs.StepAwaitingGateway, structs.StepPayment},
		{structs.StepFailed, structs.StepPayment},
	}
	for _, tr := range legal {
		if !canTransition(tr[0], tr[1]) {
			t.Errorf("%s -> %s must be legal", tr[0], tr[1])
		}
	}
	illegal := [][2]structs.CheckoutStep{
		{structs.StepAddress, structs.StepSubmitting},
		{structs.StepPlaced, structs.StepPayment},
		{structs.StepFailed, structs.StepPlaced},
	}
	for _, tr := range illegal {
		if _, err := transition(tr[0], tr[1]); !errors.Is(err, structs.ErrIllegalTransition) {
			t.Errorf("%s -> %s must be illegal", tr[0], tr[1])
		}
	}
}
