// Package qrclient talks to the external chart endpoint that renders
// check-in QR images. The service never generates images in-process; the
// QR code string itself is the credential and the image is a convenience.
package qrclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client calls the QR image endpoint.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// New creates a client. With skip set, Render returns the image URL
// without contacting the endpoint — useful for dev and tests.
func New(baseURL string, skip bool) *Client {
	return &Client{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// ImageURL builds the chart URL encoding the given credential.
func (c *Client) ImageURL(value string) string {
	return fmt.Sprintf("%s/chart?cht=qr&chs=300x300&chl=%s", c.BaseURL, url.QueryEscape(value))
}

// Render verifies the endpoint can serve the image for value and returns
// its URL.
func (c *Client) Render(ctx context.Context, value string) (string, error) {
	imageURL := c.ImageURL(value)
	if c.Skip {
		return imageURL, nil
	}
	if value == "" {
		return "", fmt.Errorf("qr value required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("qr service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("qr service error %s", resp.Status)
	}
	return imageURL, nil
}

// Health checks if the chart endpoint is reachable.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}
	_, err := c.Render(ctx, "healthcheck")
	return err
}
