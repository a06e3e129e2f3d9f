package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront/internal/structs"
	"storefront/pkg/config"
	"storefront/pkg/logger"

	"github.com/spf13/cast"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	defaultSearchLimit = 5
	maxSearchLimit     = 50
)

var (
	Module = fx.Provide(New)
)

type (
	Params struct {
		fx.In
		Config config.IConfig
		Logger logger.Logger
	}

	Client interface {
		ReverseGeocode(ctx context.Context, point structs.Coordinate) (structs.ResolvedAddress, error)
		Search(ctx context.Context, query string, limit int) []structs.PlaceCandidate
	}

	client struct {
		host      string
		userAgent string
		http      *http.Client
		logger    logger.Logger
	}

	// nominatim returns coordinates and ids as strings or numbers depending
	// on the endpoint, so they are decoded loosely and converted with cast.
	place struct {
		PlaceID     interface{}       `json:"place_id"`
		DisplayName string            `json:"display_name"`
		Lat         interface{}       `json:"lat"`
		Lon         interface{}       `json:"lon"`
		Address     map[string]string `json:"address"`
		Error       string            `json:"error"`
	}
)

func New(p Params) Client {
	timeout := p.Config.GetDuration("geocode.timeout")
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return NewClient(
		p.Config.GetString("geocode.host"),
		p.Config.GetString("geocode.user_agent"),
		&http.Client{Timeout: timeout},
		p.Logger,
	)
}

func NewClient(host, userAgent string, httpClient *http.Client, log logger.Logger) Client {
	return &client{
		host:      strings.TrimRight(host, "/"),
		userAgent: userAgent,
		http:      httpClient,
		logger:    log,
	}
}

func (c *client) ReverseGeocode(ctx context.Context, point structs.Coordinate) (structs.ResolvedAddress, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", cast.ToString(point.Latitude))
	q.Set("lon", cast.ToString(point.Longitude))
	q.Set("addressdetails", "1")

	var p place
	if err := c.get(ctx, "/reverse", q, &p); err != nil {
		c.logger.Error(ctx, "reverse geocode failed", zap.Error(err), zap.Any("point", point))
		return structs.ResolvedAddress{}, err
	}
	if p.Error != "" {
		c.logger.Error(ctx, "reverse geocode returned error", zap.String("error", p.Error))
		return structs.ResolvedAddress{}, &structs.GeocodeError{Err: fmt.Errorf("upstream: %s", p.Error)}
	}

	coord, err := p.coordinate()
	if err != nil {
		// the service echoes the point back, fall back to the one we asked for
		coord = point
	}

	return structs.ResolvedAddress{
		DisplayName: p.DisplayName,
		Raw:         nonNilMap(p.Address),
		Coordinate:  coord,
	}, nil
}

func (c *client) Search(ctx context.Context, query string, limit int) []structs.PlaceCandidate {
	out := []structs.PlaceCandidate{}

	query = strings.TrimSpace(query)
	if query == "" {
		return out
	}
	switch {
	case limit <= 0:
		limit = defaultSearchLimit
	case limit > maxSearchLimit:
		limit = maxSearchLimit
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("q", query)
	q.Set("limit", cast.ToString(limit))
	q.Set("addressdetails", "1")

	var places []place
	if err := c.get(ctx, "/search", q, &places); err != nil {
		c.logger.Warn(ctx, "place search failed", zap.Error(err), zap.String("query", query))
		return out
	}

	for _, p := range places {
		coord, err := p.coordinate()
		if err != nil {
			c.logger.Warn(ctx, "skipping place with bad coordinates", zap.Error(err), zap.String("name", p.DisplayName))
			continue
		}
		out = append(out, structs.PlaceCandidate{
			DisplayName: p.DisplayName,
			Coordinate:  coord,
			RawAddress:  nonNilMap(p.Address),
			PlaceID:     cast.ToInt64(p.PlaceID),
		})
	}
	return out
}

func (c *client) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+path+"?"+q.Encode(), nil)
	if err != nil {
		return &structs.GeocodeError{Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &structs.GeocodeError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &structs.GeocodeError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &structs.GeocodeError{Status: resp.StatusCode}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &structs.GeocodeError{Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

func (p place) coordinate() (structs.Coordinate, error) {
	if p.Lat == nil || p.Lon == nil {
		return structs.Coordinate{}, fmt.Errorf("missing coordinate")
	}
	lat, err := cast.ToFloat64E(p.Lat)
	if err != nil {
		return structs.Coordinate{}, err
	}
	lon, err := cast.ToFloat64E(p.Lon)
	if err != nil {
		return structs.Coordinate{}, err
	}
	return structs.Coordinate{Latitude: lat, Longitude: lon}, nil
}

func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
