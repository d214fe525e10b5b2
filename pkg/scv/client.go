// Package scv is a client for the SCV video-rental REST API.
package scv

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"scv_loans/pkg/circuitbreaker"
	"scv_loans/pkg/loan"
	"scv_loans/pkg/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	FallbackLoad   = "failed to load data"
	FallbackSave   = "failed to save loan"
	FallbackDelete = "failed to delete loan"
)

// APIError is a non-2xx answer from the API. Message holds the server's
// "message" or "err" field, or a generic fallback when neither is present.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	logger     *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithBreaker(cb *circuitbreaker.CircuitBreaker) Option {
	return func(c *Client) { c.breaker = cb }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		breaker:    circuitbreaker.NewCircuitBreaker(5, 10*time.Second),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Clientes(ctx context.Context) ([]models.Cliente, error) {
	var clientes []models.Cliente
	if err := c.do(ctx, http.MethodGet, "/clientes", nil, &clientes, FallbackLoad); err != nil {
		return nil, err
	}
	return clientes, nil
}

func (c *Client) Filmes(ctx context.Context) ([]models.Filme, error) {
	var filmes []models.Filme
	if err := c.do(ctx, http.MethodGet, "/filmes", nil, &filmes, FallbackLoad); err != nil {
		return nil, err
	}
	return filmes, nil
}

// FitasByFilme lists every tape of a movie, available or not.
func (c *Client) FitasByFilme(ctx context.Context, filmeID uint) ([]models.Fita, error) {
	var fitas []models.Fita
	path := fmt.Sprintf("/fitas/findByFilme/%d", filmeID)
	if err := c.do(ctx, http.MethodGet, path, nil, &fitas, FallbackLoad); err != nil {
		return nil, err
	}
	return fitas, nil
}

func (c *Client) Emprestimos(ctx context.Context) ([]models.Emprestimo, error) {
	var emprestimos []models.Emprestimo
	if err := c.do(ctx, http.MethodGet, "/emprestimos", nil, &emprestimos, FallbackLoad); err != nil {
		return nil, err
	}
	return emprestimos, nil
}

func (c *Client) Emprestimo(ctx context.Context, id uint) (models.Emprestimo, error) {
	var emprestimo models.Emprestimo
	path := fmt.Sprintf("/emprestimos/%d", id)
	if err := c.do(ctx, http.MethodGet, path, nil, &emprestimo, FallbackLoad); err != nil {
		return models.Emprestimo{}, err
	}
	return emprestimo, nil
}

// SaveEmprestimo creates the loan when id is zero and updates it otherwise.
func (c *Client) SaveEmprestimo(ctx context.Context, id uint, p loan.Payload) (models.Emprestimo, error) {
	method, path := http.MethodPost, "/emprestimos"
	if id != 0 {
		method, path = http.MethodPut, fmt.Sprintf("/emprestimos/%d", id)
	}
	var stored models.Emprestimo
	if err := c.do(ctx, method, path, p, &stored, FallbackSave); err != nil {
		return models.Emprestimo{}, err
	}
	return stored, nil
}

func (c *Client) DeleteEmprestimo(ctx context.Context, id uint) error {
	path := fmt.Sprintf("/emprestimos/%d", id)
	return c.do(ctx, http.MethodDelete, path, nil, nil, FallbackDelete)
}

func (c *Client) BreakerState() circuitbreaker.State {
	return c.breaker.GetState()
}

// do performs one request. 4xx answers come back as *APIError without
// counting against the circuit breaker; transport errors and 5xx do.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, fallback string) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		payload = data
	}

	var clientErr error
	err := c.breaker.Execute(func() error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return decodeAPIError(resp, fallback)
		}
		if resp.StatusCode >= http.StatusMultipleChoices {
			clientErr = decodeAPIError(resp, fallback)
			return nil
		}
		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
		return nil
	}, nil)

	if err != nil {
		c.logger.Error("scv request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return err
	}
	if clientErr != nil {
		c.logger.Info("scv request rejected",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(clientErr))
	}
	return clientErr
}

func decodeAPIError(resp *http.Response, fallback string) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: fallback}

	data, err := io.ReadAll(resp.Body)
	if err != nil || len(data) == 0 {
		return apiErr
	}
	var body struct {
		Message interface{} `json:"message"`
		Err     interface{} `json:"err"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return apiErr
	}
	if msg, ok := body.Message.(string); ok && msg != "" {
		apiErr.Message = msg
	} else if msg, ok := body.Err.(string); ok && msg != "" {
		apiErr.Message = msg
	}
	return apiErr
}
