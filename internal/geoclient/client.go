package geoclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"staffledger/internal/geofence"
)

// Client calls the device locator service.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
	// SkipPoint is returned in skip mode.
	SkipPoint geofence.Point
}

// New creates a client. The per-call timeout comes from Locate.
func New(baseURL string, skip bool, skipPoint geofence.Point) *Client {
	return &Client{
		BaseURL:   baseURL,
		Skip:      skip,
		SkipPoint: skipPoint,
		HTTP:      &http.Client{},
	}
}

type locateResponse struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  float64  `json:"accuracy"`
	Denied    bool     `json:"denied"`
	Reason    string   `json:"reason"`
}

// Locate asks the locator service for the device position. A reported position in
// the request is ignored; the service is the source of truth.
func (c *Client) Locate(ctx context.Context, req geofence.LocateRequest, timeout time.Duration) (geofence.Point, error) {
	if c.Skip {
		return c.SkipPoint, nil
	}
	if req.StaffID == "" && req.DeviceID == "" {
		return geofence.Point{}, fmt.Errorf("staff or device id required: %w", geofence.ErrUnavailable)
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	q := url.Values{}
	if req.StaffID != "" {
		q.Set("staff_id", req.StaffID)
	}
	if req.DeviceID != "" {
		q.Set("device_id", req.DeviceID)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/locate?"+q.Encode(), nil)
	if err != nil {
		return geofence.Point{}, err
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return geofence.Point{}, fmt.Errorf("locator timed out after %s: %w", timeout, geofence.ErrUnavailable)
		}
		return geofence.Point{}, fmt.Errorf("locator request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return geofence.Point{}, fmt.Errorf("locator error %s: %s", resp.Status, string(body))
	}

	var out locateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return geofence.Point{}, fmt.Errorf("failed to decode locator response: %w", err)
	}
	if out.Denied {
		return geofence.Point{}, fmt.Errorf("locator denied: %s", out.Reason)
	}
	if out.Latitude == nil || out.Longitude == nil {
		return geofence.Point{}, geofence.ErrUnavailable
	}
	return geofence.Point{Latitude: *out.Latitude, Longitude: *out.Longitude}, nil
}

// Health checks if the locator service is reachable.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("locator unavailable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("locator unhealthy: %s", resp.Status)
	}
	return nil
}
