// Package schoolapi talks to the campus network-location service that can
// judge whether a device with a given public IPv4 address is near a point
// on campus.
package schoolapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sfc-mobility/campus-rides-api/internal/domain"
	"github.com/sfc-mobility/campus-rides-api/internal/ports/out/locverify"
)

// accuracyMeters is the radius of the circular area the service checks
// the device against.
const accuracyMeters = 50

// coordinates maps every known location to its WGS84 position.
var coordinates = map[domain.Location]position{
	domain.StationShonandai: {35.39599362854462, 139.4646325861002},
	domain.StationTsujido:   {35.33664640860116, 139.44706143647136},
	domain.SpotGParking:     {35.38575112805662, 139.42843964550093},
	domain.SpotDeltaBack:    {35.38838964012322, 139.42515400844096},
	domain.SpotMainCross:    {35.38949073140438, 139.43159614200434},
}

type position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type verifyRequest struct {
	Device struct {
		IPv4Address struct {
			PublicAddress string `json:"publicAddress"`
		} `json:"ipv4Address"`
	} `json:"device"`
	Area struct {
		AreaType string   `json:"areaType"`
		Location position `json:"location"`
		Accuracy int      `json:"accuracy"`
	} `json:"area"`
}

type verifyResponse struct {
	VerificationResult string `json:"verificationResult"`
}

// Client implements locverify.Verifier against the school location API.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpc = hc }
}

// NewClient builds a client for the service at baseURL. The token is sent
// as a bearer credential on every request.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		token:   token,
		httpc:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ locverify.Verifier = (*Client)(nil)

// Verify asks the service whether the device behind ipv4 is within
// accuracyMeters of loc.
func (c *Client) Verify(ctx context.Context, ipv4 string, loc domain.Location) (locverify.Verdict, error) {
	pos, ok := coordinates[loc]
	if !ok {
		return locverify.Verdict{}, fmt.Errorf("schoolapi: no coordinates for location %q", loc)
	}

	var reqBody verifyRequest
	reqBody.Device.IPv4Address.PublicAddress = ipv4
	reqBody.Area.AreaType = "circle"
	reqBody.Area.Location = pos
	reqBody.Area.Accuracy = accuracyMeters

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return locverify.Verdict{}, fmt.Errorf("schoolapi: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/verify", bytes.NewReader(payload))
	if err != nil {
		return locverify.Verdict{}, fmt.Errorf("schoolapi: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return locverify.Verdict{}, fmt.Errorf("schoolapi: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return locverify.Verdict{}, fmt.Errorf("schoolapi: unexpected status %d: %s", resp.StatusCode, body)
	}

	var vr verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return locverify.Verdict{}, fmt.Errorf("schoolapi: decode response: %w", err)
	}

	switch vr.VerificationResult {
	case "TRUE":
		matched := true
		return locverify.Verdict{Matched: &matched}, nil
	case "FALSE":
		matched := false
		return locverify.Verdict{Matched: &matched}, nil
	default:
		// Anything else, including UNKNOWN, means the service could not tell.
		return locverify.Verdict{}, nil
	}
}
