package geofence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var office = Point{Latitude: -6.200000, Longitude: 106.816666}

// north moves p by meters along the meridian.
func north(p Point, meters float64) Point {
	return Point{Latitude: p.Latitude + meters/111195.0, Longitude: p.Longitude}
}

func TestDistance(t *testing.T) {
	assert.Zero(t, Distance(office, office))
	assert.InDelta(t, 1000, Distance(office, north(office, 1000)), 1)
	// One degree of longitude on the equator.
	assert.InDelta(t, 111195, Distance(Point{0, 0}, Point{0, 1}), 1)
	assert.InDelta(t, Distance(office, north(office, 300)), Distance(north(office, 300), office), 1e-9)
}

func TestWithinRadius(t *testing.T) {
	assert.True(t, WithinRadius(office, office, 50))
	assert.True(t, WithinRadius(office, north(office, 30), 50))
	assert.False(t, WithinRadius(office, north(office, 1000), 50))
	assert.False(t, WithinRadius(office, Point{Latitude: 91, Longitude: 0}, 50))
}

type stubProvider struct {
	p     Point
	err   error
	delay time.Duration
}

func (s stubProvider) Locate(ctx context.Context, _ LocateRequest, _ time.Duration) (Point, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return Point{}, ctx.Err()
		}
	}
	return s.p, s.err
}

func TestGuard_Verify(t *testing.T) {
	fence := Fence{Center: office, RadiusMeters: 50}
	ctx := context.Background()

	cases := []struct {
		name     string
		provider Provider
		req      LocateRequest
		cause    error
	}{
		{"inside", stubProvider{p: north(office, 10)}, LocateRequest{}, nil},
		{"outside", stubProvider{p: north(office, 1000)}, LocateRequest{}, ErrOutsideRadius},
		{"provider error", stubProvider{err: errors.New("gps off")}, LocateRequest{}, nil},
		{"invalid point", stubProvider{p: Point{Latitude: 200}}, LocateRequest{}, ErrUnavailable},
		{"reported missing", Reported{}, LocateRequest{StaffID: "s1"}, ErrUnavailable},
		{"reported inside", Reported{}, LocateRequest{Reported: &office}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewGuard(tc.provider, fence, time.Second).Verify(ctx, tc.req)
			switch {
			case tc.name == "inside" || tc.name == "reported inside":
				require.NoError(t, err)
			default:
				require.ErrorIs(t, err, ErrLocationDenied)
				if tc.cause != nil {
					require.ErrorIs(t, err, tc.cause)
				}
			}
		})
	}
}

func TestGuard_TimeoutIsDenial(t *testing.T) {
	g := NewGuard(stubProvider{p: office, delay: time.Second}, Fence{Center: office, RadiusMeters: 50}, 20*time.Millisecond)

	start := time.Now()
	_, err := g.Verify(context.Background(), LocateRequest{StaffID: "s1"})
	require.ErrorIs(t, err, ErrLocationDenied)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
