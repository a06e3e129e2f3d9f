package location

import (
	"context"
	"errors"
	"sync"
	"time"

	"storefront/internal/geocode"
	"storefront/internal/structs"
	"storefront/internal/texts"
	"storefront/pkg/logger"

	"go.uber.org/zap"
)

const (
	DefaultTimeout    = 15 * time.Second
	DefaultMaximumAge = 10 * time.Second
)

type Options struct {
	Timeout    time.Duration
	MaximumAge time.Duration
}

// Service runs one acquisition at a time against a Provider and keeps the
// last fix together with its resolved address. A Service belongs to a
// single checkout session.
type Service struct {
	provider Provider
	geocoder geocode.Client
	logger   logger.Logger
	opts     Options
	now      func() time.Time

	mu       sync.Mutex
	state    State
	inFlight bool
	last     *structs.LocationResult
	failure  structs.LocationFailure
}

func NewService(provider Provider, geocoder geocode.Client, opts Options, log logger.Logger) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaximumAge < 0 {
		opts.MaximumAge = 0
	}
	return &Service{
		provider: provider,
		geocoder: geocoder,
		logger:   log,
		opts:     opts,
		now:      time.Now,
		state:    StateIdle,
	}
}

// Acquire requests permission, then a fix, then resolves the fix to an
// address. A fix younger than MaximumAge is returned as is.
func (s *Service) Acquire(ctx context.Context) (structs.LocationResult, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return structs.LocationResult{}, structs.ErrAcquisitionInFlight
	}
	if s.last != nil && s.opts.MaximumAge > 0 && s.now().Sub(s.last.Fix.Timestamp) <= s.opts.MaximumAge {
		res := *s.last
		s.mu.Unlock()
		return res, nil
	}
	s.inFlight = true
	s.moveLocked(StatePermissionRequested)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	permCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	perm, err := s.provider.RequestPermission(permCtx)
	cancel()
	if err != nil {
		return structs.LocationResult{}, s.fail(ctx, classify(err))
	}
	if perm != structs.PermissionGranted {
		s.mu.Lock()
		s.moveLocked(StatePermissionDenied)
		s.failure = structs.LocationPermissionDenied
		s.mu.Unlock()
		return structs.LocationResult{}, structs.NewLocationError(structs.LocationPermissionDenied, nil)
	}

	s.mu.Lock()
	s.moveLocked(StatePermissionGranted)
	s.moveLocked(StateAcquiring)
	s.mu.Unlock()

	fixCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	fix, err := s.provider.CurrentPosition(fixCtx, PositionOptions{
		HighAccuracy: true,
		Timeout:      s.opts.Timeout,
		MaximumAge:   s.opts.MaximumAge,
	})
	cancel()
	if err != nil {
		return structs.LocationResult{}, s.fail(ctx, classify(err))
	}

	res := structs.LocationResult{Fix: fix}
	addr, err := s.geocoder.ReverseGeocode(ctx, fix.Coordinate)
	if err != nil {
		s.logger.Warn(ctx, "fix acquired without address", zap.Error(err))
	} else {
		res.Address = &addr
	}

	s.mu.Lock()
	s.moveLocked(StateAcquired)
	s.failure = ""
	s.last = &res
	s.mu.Unlock()

	return res, nil
}

func (s *Service) Last() (structs.LocationResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return structs.LocationResult{}, false
	}
	return *s.last, true
}

func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Service) View() structs.LocationView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := structs.LocationView{State: string(s.state)}
	if s.last != nil {
		res := *s.last
		view.Result = &res
	}
	switch {
	case s.state.InProgress():
		view.Message = texts.Get(texts.LocationInProgress)
	case s.failure != "":
		f := s.failure
		view.Failure = &f
		view.Message = FailureMessage(f)
	}
	return view
}

func FailureMessage(reason structs.LocationFailure) string {
	switch reason {
	case structs.LocationPermissionDenied:
		return texts.Get(texts.LocationPermissionDenied)
	case structs.LocationUnavailable:
		return texts.Get(texts.LocationUnavailable)
	case structs.LocationTimeout:
		return texts.Get(texts.LocationTimeout)
	default:
		return texts.Get(texts.LocationServiceError)
	}
}

func (s *Service) fail(ctx context.Context, lerr *structs.LocationError) error {
	s.mu.Lock()
	if lerr.Reason == structs.LocationPermissionDenied && s.state == StatePermissionRequested {
		s.moveLocked(StatePermissionDenied)
	} else {
		s.moveLocked(StateFailed)
	}
	s.failure = lerr.Reason
	s.mu.Unlock()

	s.logger.Warn(ctx, "location acquisition failed", zap.String("reason", string(lerr.Reason)), zap.Error(lerr.Err))
	return lerr
}

// moveLocked must be called with mu held. Illegal moves are a programming
// error and are logged, the state is left untouched.
func (s *Service) moveLocked(to State) {
	next, err := s.state.Transition(to)
	if err != nil {
		s.logger.Error(context.Background(), "location state", zap.Error(err))
		return
	}
	s.state = next
}

func classify(err error) *structs.LocationError {
	var lerr *structs.LocationError
	if errors.As(err, &lerr) {
		return lerr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return structs.NewLocationError(structs.LocationTimeout, err)
	}
	return structs.NewLocationError(structs.LocationServiceError, err)
}
