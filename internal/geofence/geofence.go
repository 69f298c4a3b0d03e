// Package geofence checks that a reported position lies within a radius of a
// fixed site before a ledger write is attempted.
package geofence

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// EarthRadiusMeters is the mean spherical Earth radius used for distances.
const EarthRadiusMeters = 6371000.0

var (
	// ErrLocationDenied is returned for any failed location precondition.
	ErrLocationDenied = errors.New("geofence: location denied")
	// ErrUnavailable means the provider could not produce a position.
	ErrUnavailable = errors.New("geofence: location unavailable")
	// ErrOutsideRadius means the position is too far from the site.
	ErrOutsideRadius = errors.New("geofence: outside allowed radius")
)

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Valid reports whether p is a real coordinate.
func (p Point) Valid() bool {
	return !math.IsNaN(p.Latitude) && !math.IsNaN(p.Longitude) &&
		p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}

// Distance returns the haversine great-circle distance between a and b in meters.
func Distance(a, b Point) float64 {
	phi1 := a.Latitude * math.Pi / 180
	phi2 := b.Latitude * math.Pi / 180
	dPhi := (b.Latitude - a.Latitude) * math.Pi / 180
	dLambda := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusMeters * c
}

// WithinRadius reports whether b lies within radiusMeters of a, boundary included.
func WithinRadius(a, b Point, radiusMeters float64) bool {
	if !a.Valid() || !b.Valid() || radiusMeters < 0 {
		return false
	}
	return Distance(a, b) <= radiusMeters
}

// LocateRequest identifies who is being located and carries any position the client reported.
type LocateRequest struct {
	StaffID  string
	DeviceID string
	Reported *Point
}

// Provider resolves the current position for a request. Implementations must
// honor ctx and return within timeout.
type Provider interface {
	Locate(ctx context.Context, req LocateRequest, timeout time.Duration) (Point, error)
}

// Reported trusts the coordinates sent with the request, the way a browser
// geolocation prompt does. Missing coordinates are unavailable.
type Reported struct{}

// Locate returns the reported point.
func (Reported) Locate(ctx context.Context, req LocateRequest, _ time.Duration) (Point, error) {
	if err := ctx.Err(); err != nil {
		return Point{}, err
	}
	if req.Reported == nil {
		return Point{}, ErrUnavailable
	}
	return *req.Reported, nil
}

// Fence is a site and the radius around it.
type Fence struct {
	Center       Point
	RadiusMeters float64
}

// Guard gates ledger writes on the staff member being on site.
type Guard struct {
	provider Provider
	fence    Fence
	timeout  time.Duration
}

// NewGuard builds a guard. A nil provider uses Reported; a non-positive timeout uses 10s.
func NewGuard(provider Provider, fence Fence, timeout time.Duration) *Guard {
	if provider == nil {
		provider = Reported{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Guard{provider: provider, fence: fence, timeout: timeout}
}

// Verify locates the requester and checks the fence. Every failure, including
// provider errors and timeouts, is returned wrapped in ErrLocationDenied.
func (g *Guard) Verify(ctx context.Context, req LocateRequest) (Point, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	p, err := g.provider.Locate(ctx, req, g.timeout)
	if err != nil {
		return Point{}, fmt.Errorf("%w: %w", ErrLocationDenied, err)
	}
	if !p.Valid() {
		return Point{}, fmt.Errorf("%w: %w", ErrLocationDenied, ErrUnavailable)
	}
	if !WithinRadius(g.fence.Center, p, g.fence.RadiusMeters) {
		return p, fmt.Errorf("%w: %w (%.0fm)", ErrLocationDenied, ErrOutsideRadius, Distance(g.fence.Center, p))
	}
	return p, nil
}
