package devicegw

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultBridgeTimeout = 10 * time.Second

// GatewayError classifies bridge call failures as transient/permanent.
type GatewayError struct {
	StatusCode int
	Message    string
	Transient  bool
	Cause      error
}

func (e *GatewayError) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 4)
	parts = append(parts, "device bridge error")

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *GatewayError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// HTTPGateway talks to the device-side bridge over HTTP.
type HTTPGateway struct {
	client   *resty.Client
	endpoint string
}

func NewHTTPGateway(endpoint string) (*HTTPGateway, error) {
	client := resty.New()
	client.SetTimeout(defaultBridgeTimeout)
	client.SetRetryCount(0)

	return NewHTTPGatewayWithClient(endpoint, client)
}

func NewHTTPGatewayWithClient(endpoint string, client *resty.Client) (*HTTPGateway, error) {
	trimmedEndpoint := strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if trimmedEndpoint == "" {
		return nil, fmt.Errorf("device bridge endpoint is required")
	}
	if _, err := url.ParseRequestURI(trimmedEndpoint); err != nil {
		return nil, fmt.Errorf("invalid device bridge endpoint: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultBridgeTimeout)
	}
	client.SetRetryCount(0)

	return &HTTPGateway{
		client:   client,
		endpoint: trimmedEndpoint,
	}, nil
}

func (g *HTTPGateway) CancelNotification(ctx context.Context, nativeKey string) error {
	if strings.TrimSpace(nativeKey) == "" {
		return fmt.Errorf("native key is required")
	}

	response, err := g.client.R().
		SetContext(ctx).
		Post(fmt.Sprintf("%s/notifications/%s/cancel", g.endpoint, url.PathEscape(nativeKey)))
	if err != nil {
		return requestError(err)
	}

	// The OS copy may already be gone; that is a successful cancel.
	if response.StatusCode() == http.StatusNotFound {
		return nil
	}

	return statusError(response)
}

func (g *HTTPGateway) ShowSummary(ctx context.Context, render SummaryRender) error {
	response, err := g.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(render).
		Post(fmt.Sprintf("%s/summary", g.endpoint))
	if err != nil {
		return requestError(err)
	}

	return statusError(response)
}

func (g *HTTPGateway) CancelSummary(ctx context.Context) error {
	response, err := g.client.R().
		SetContext(ctx).
		Post(fmt.Sprintf("%s/summary/cancel", g.endpoint))
	if err != nil {
		return requestError(err)
	}

	if response.StatusCode() == http.StatusNotFound {
		return nil
	}

	return statusError(response)
}

func requestError(err error) error {
	return &GatewayError{
		Message:   "bridge request failed",
		Transient: !errors.Is(err, context.Canceled),
		Cause:     err,
	}
}

func statusError(response *resty.Response) error {
	statusCode := response.StatusCode()
	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return nil
	}

	return &GatewayError{
		StatusCode: statusCode,
		Message:    fmt.Sprintf("bridge returned status %d", statusCode),
		Transient:  statusCode == http.StatusTooManyRequests || statusCode >= http.StatusInternalServerError,
	}
}
