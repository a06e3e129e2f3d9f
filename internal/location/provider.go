package location

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront/internal/geo"
	"storefront/internal/structs"
)

type PositionOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaximumAge   time.Duration
}

// Provider is the device boundary: the platform permission prompt and the
// platform position API.
type Provider interface {
	RequestPermission(ctx context.Context) (structs.Permission, error)
	CurrentPosition(ctx context.Context, opts PositionOptions) (structs.LocationFix, error)
}

// ReportedProvider is fed by the mobile client over HTTP. Each report
// carries the permission answer and either a fix or a failure code; calls
// block until a report arrives or ctx is done.
type ReportedProvider struct {
	mu         sync.Mutex
	permission structs.Permission
	fix        *structs.LocationFix
	failure    structs.LocationFailure
	changed    chan struct{}
	now        func() time.Time
}

func NewReportedProvider() *ReportedProvider {
	return &ReportedProvider{
		permission: structs.PermissionUndetermined,
		changed:    make(chan struct{}),
		now:        time.Now,
	}
}

func (p *ReportedProvider) Report(r structs.LocationReport) error {
	switch r.Permission {
	case structs.PermissionGranted, structs.PermissionDenied, structs.PermissionUndetermined:
	case "":
		r.Permission = structs.PermissionGranted
	default:
		return fmt.Errorf("unknown permission %q: %w", r.Permission, structs.ErrBadRequest)
	}

	var fix *structs.LocationFix
	if r.Latitude != nil && r.Longitude != nil {
		c := structs.Coordinate{Latitude: *r.Latitude, Longitude: *r.Longitude}
		if err := geo.Validate(c); err != nil {
			return fmt.Errorf("%v: %w", err, structs.ErrBadRequest)
		}
		ts := p.now()
		if r.Timestamp > 0 {
			ts = time.UnixMilli(r.Timestamp)
		}
		fix = &structs.LocationFix{Coordinate: c, AccuracyM: r.Accuracy, Timestamp: ts}
	} else if r.Latitude != nil || r.Longitude != nil {
		return fmt.Errorf("latitude and longitude must be sent together: %w", structs.ErrBadRequest)
	}

	switch r.Failure {
	case "", structs.LocationPermissionDenied, structs.LocationUnavailable, structs.LocationTimeout, structs.LocationServiceError:
	default:
		return fmt.Errorf("unknown failure %q: %w", r.Failure, structs.ErrBadRequest)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.permission = r.Permission
	p.fix = fix
	p.failure = r.Failure
	if fix != nil {
		p.failure = ""
	}
	close(p.changed)
	p.changed = make(chan struct{})
	return nil
}

func (p *ReportedProvider) RequestPermission(ctx context.Context) (structs.Permission, error) {
	for {
		p.mu.Lock()
		perm, changed := p.permission, p.changed
		p.mu.Unlock()

		if perm != structs.PermissionUndetermined {
			return perm, nil
		}
		select {
		case <-ctx.Done():
			return structs.PermissionUndetermined, ctx.Err()
		case <-changed:
		}
	}
}

// CurrentPosition consumes the pending fix or failure of the latest report.
func (p *ReportedProvider) CurrentPosition(ctx context.Context, _ PositionOptions) (structs.LocationFix, error) {
	for {
		p.mu.Lock()
		fix, failure, changed := p.fix, p.failure, p.changed
		p.fix, p.failure = nil, ""
		p.mu.Unlock()

		if fix != nil {
			return *fix, nil
		}
		if failure != "" {
			return structs.LocationFix{}, structs.NewLocationError(failure, nil)
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return structs.LocationFix{}, structs.NewLocationError(structs.LocationTimeout, ctx.Err())
			}
			return structs.LocationFix{}, ctx.Err()
		case <-changed:
		}
	}
}
