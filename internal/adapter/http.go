package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MKhiriev/go-sync-cache/internal/config"
	"github.com/MKhiriev/go-sync-cache/internal/logger"
	"github.com/MKhiriev/go-sync-cache/internal/utils"
	"github.com/MKhiriev/go-sync-cache/models"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

type httpAdapter struct {
	client *utils.HTTPClient
	token  string
	logger *logger.Logger
}

// NewHTTPAdapter constructs the resty implementation of [RESTClient]. It
// normalises the base address, applies the request timeout and validates the
// optional bearer token: a JWT whose "exp" claim has passed is rejected.
func NewHTTPAdapter(cfg config.ClientAdapter, log *logger.Logger) (RESTClient, error) {
	baseURL, err := normalizeBaseURL(cfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	token := strings.TrimSpace(cfg.Token)
	if token != "" {
		if err = utils.CheckTokenExpiry(token, time.Now()); err != nil {
			return nil, fmt.Errorf("invalid adapter token: %w", err)
		}
	}

	if log == nil {
		log = logger.Nop()
	}

	return &httpAdapter{
		client: utils.NewHTTPClient(baseURL, cfg.RequestTimeout),
		token:  token,
		logger: log,
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// Get implements [RESTClient].
func (h *httpAdapter) Get(ctx context.Context, uri string) (models.Envelope, error) {
	resp, err := h.request(ctx).Get(uri)
	if err != nil {
		return nil, fmt.Errorf("get %s request: %w", uri, err)
	}
	return decodeEnvelope(resp)
}

// Put implements [RESTClient].
func (h *httpAdapter) Put(ctx context.Context, uri string, body any) (models.Envelope, error) {
	resp, err := h.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Put(uri)
	if err != nil {
		return nil, fmt.Errorf("put %s request: %w", uri, err)
	}
	return decodeEnvelope(resp)
}

// Post implements [RESTClient].
func (h *httpAdapter) Post(ctx context.Context, uri string, body any) (models.Envelope, error) {
	resp, err := h.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(uri)
	if err != nil {
		return nil, fmt.Errorf("post %s request: %w", uri, err)
	}
	return decodeEnvelope(resp)
}

// Delete implements [RESTClient].
func (h *httpAdapter) Delete(ctx context.Context, uri string) error {
	resp, err := h.request(ctx).Delete(uri)
	if err != nil {
		return fmt.Errorf("delete %s request: %w", uri, err)
	}
	return mapHTTPError(resp)
}

// request prepares a request carrying the bearer token and a trace id, taken
// from ctx when the caller already has one.
func (h *httpAdapter) request(ctx context.Context) *resty.Request {
	traceID, ok := utils.GetTraceIDFromContext(ctx)
	if !ok {
		traceID = uuid.NewString()
	}

	h.logger.Debug().Str("trace_id", traceID).Msg("rest request")

	req := h.client.R().
		SetContext(ctx).
		SetHeader(utils.TraceIDHeader, traceID)
	if h.token != "" {
		req.SetAuthToken(h.token)
	}
	return req
}

func decodeEnvelope(resp *resty.Response) (models.Envelope, error) {
	if err := mapHTTPError(resp); err != nil {
		return nil, err
	}

	body := bytes.TrimSpace(resp.Body())
	if len(body) == 0 {
		return models.Envelope{}, nil
	}

	var env models.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	if env == nil {
		env = models.Envelope{}
	}
	return env, nil
}
