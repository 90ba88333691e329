// Package client — HTTP-клиент API сервиса доступа для консольной утилиты.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/17marcomoreira-hue/sportswissapp/internal/models"
)

// DeviceHeader — заголовок с идентификатором устройства.
const DeviceHeader = "X-Device-ID"

// APIError — ответ сервера с кодом ошибки.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Unreachable сообщает, что ответа сервера нет или сервер не может ответить.
// В этом случае клиент решает о доступе по локальной записи.
// Ошибки разбора ответа и локальные ошибки запроса сюда не относятся.
func Unreachable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= http.StatusInternalServerError
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}

// Client обращается к /api/v1.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New создаёт клиента. baseURL — адрес сервера без /api/v1.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/") + "/api/v1",
		httpClient: &http.Client{Timeout: timeout},
	}
}

// LoginResult — ответ на вход.
type LoginResult struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	Email string `json:"email"`
}

// Login входит по email и паролю.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var res LoginResult
	err := c.do(ctx, http.MethodPost, "/login", "", nil, map[string]string{
		"email":    email,
		"password": password,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Register создаёт учётную запись и возвращает её UID.
func (c *Client) Register(ctx context.Context, email, password string) (string, error) {
	var res struct {
		UID string `json:"uid"`
	}
	err := c.do(ctx, http.MethodPost, "/register", "", nil, map[string]string{
		"email":    email,
		"password": password,
	}, &res)
	return res.UID, err
}

// Check выполняет онлайн-проверку доступа с устройства deviceID.
func (c *Client) Check(ctx context.Context, token, deviceID string) (*models.GateResult, error) {
	var res models.GateResult
	headers := map[string]string{DeviceHeader: deviceID}
	if err := c.do(ctx, http.MethodGet, "/access", token, headers, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Activate активирует лицензию ключом.
func (c *Client) Activate(ctx context.Context, token, key string) (*models.Activation, error) {
	var res models.Activation
	if err := c.do(ctx, http.MethodPost, "/license/activate", token, nil, map[string]string{"key": key}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// envelope — общий формат ответов сервера.
type envelope struct {
	Status string          `json:"status"`
	Error  string          `json:"error"`
	Data   json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path, token string, headers map[string]string,
	body, out any) error {
	const op = "client.do"

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	var env envelope
	if err = json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if out != nil && len(env.Data) > 0 {
		if err = json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%s: decode data: %w", op, err)
		}
	}
	return nil
}
