// Пакет apiclient — HTTP-клиент REST API сервиса PDF-руководств.
// Поддерживает TLS с кастомным CA (MC_API_CA_CERT_PATH).
// Каждый запрос несёт bearer-токен, полученный через TokenProvider;
// отсутствие токена не является ошибкой — авторизацию проверяет сервер.
package apiclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// TokenProvider — функция, возвращающая bearer-токен для запроса.
// Пустая строка без ошибки означает «без авторизации».
type TokenProvider func(ctx context.Context) (string, error)

// tokenKey — ключ контекста для токена текущего пользователя.
type tokenKey struct{}

// WithToken помещает bearer-токен пользователя в контекст.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// ContextToken — TokenProvider, читающий токен из контекста запроса (см. WithToken).
func ContextToken(ctx context.Context) (string, error) {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token, nil
}

// StaticToken возвращает TokenProvider с фиксированным токеном.
func StaticToken(token string) TokenProvider {
	return func(context.Context) (string, error) {
		return token, nil
	}
}

// APIError — ответ сервера, не являющийся успешным.
// Message — сообщение сервера (поле message) или текст статуса.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API вернул статус %d: %s", e.StatusCode, e.Message)
}

// ServerMessage извлекает сообщение сервера из ошибки.
// Возвращает пустую строку, если ошибка не является *APIError.
func ServerMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// Pagination — метаданные пагинации списка.
type Pagination struct {
	TotalPages int `json:"totalPages"`
}

// ListResponse — ответ на GET списка записей.
type ListResponse struct {
	Data       []map[string]any `json:"data"`
	Pagination *Pagination      `json:"pagination,omitempty"`
}

// TotalPages возвращает количество страниц; 1, если сервер его не указал.
func (r *ListResponse) TotalPages() int {
	if r.Pagination == nil || r.Pagination.TotalPages < 1 {
		return 1
	}
	return r.Pagination.TotalPages
}

// messageResponse — типичный ответ мутаций.
type messageResponse struct {
	Message string          `json:"message"`
	Type    string          `json:"type,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Client — HTTP-клиент REST API.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	tokenProvider TokenProvider
	logger        *slog.Logger
}

// New создаёт клиент API.
// baseURL — адрес REST API (включая суффикс /api).
// caCertPath — путь к CA-сертификату для TLS (пустая строка — стандартный пул).
// tokenProvider — источник bearer-токена (nil — запросы без авторизации).
func New(baseURL, caCertPath string, timeout time.Duration, tokenProvider TokenProvider, logger *slog.Logger) (*Client, error) {
	httpClient := &http.Client{Timeout: timeout}

	if caCertPath != "" {
		tlsConfig, err := buildTLSConfig(caCertPath)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата API: %w", err)
		}
		httpClient.Transport = &http.Transport{
			TLSClientConfig: tlsConfig,
		}
		logger.Info("CA-сертификат API добавлен в пул доверия",
			slog.String("ca_cert", caCertPath),
		)
	}

	return &Client{
		baseURL:       normalizeURL(baseURL),
		httpClient:    httpClient,
		tokenProvider: tokenProvider,
		logger:        logger.With(slog.String("component", "api_client")),
	}, nil
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	caCertPool.AppendCertsFromPEM(caCert)

	return &tls.Config{
		RootCAs: caCertPool,
	}, nil
}

// --- Списки ---

// List запрашивает страницу коллекции.
// GET {path}?page=N[&extra...]
func (c *Client) List(ctx context.Context, path string, page int, extra url.Values) (*ListResponse, error) {
	query := url.Values{}
	for k, v := range extra {
		query[k] = v
	}
	query.Set("page", fmt.Sprintf("%d", page))

	req, err := c.newRequest(ctx, http.MethodGet, path+"?"+query.Encode(), nil, "")
	if err != nil {
		return nil, err
	}

	var list ListResponse
	if err := c.do(req, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// ListManuals запрашивает страницу руководств.
// GET /pdf-manuals?page=N[&archived=true]
func (c *Client) ListManuals(ctx context.Context, page int, archived bool) (*ListResponse, error) {
	var extra url.Values
	if archived {
		extra = url.Values{"archived": []string{"true"}}
	}
	return c.List(ctx, "/pdf-manuals", page, extra)
}

// ListFAQs запрашивает страницу FAQ.
// GET /faqs?page=N
func (c *Client) ListFAQs(ctx context.Context, page int) (*ListResponse, error) {
	return c.List(ctx, "/faqs", page, nil)
}

// ListTrainingFiles запрашивает страницу обучающих файлов fine-tune.
// GET /faqs/finetune?page=N
func (c *Client) ListTrainingFiles(ctx context.Context, page int) (*ListResponse, error) {
	return c.List(ctx, "/faqs/finetune", page, nil)
}

// --- Мутации руководств ---

// SetArchived архивирует или разархивирует руководства.
// PATCH /pdf-manuals/archive {ids, archivedStatus}
func (c *Client) SetArchived(ctx context.Context, ids []string, archived bool) (string, error) {
	body := map[string]any{"ids": ids, "archivedStatus": archived}
	return c.sendJSON(ctx, http.MethodPatch, "/pdf-manuals/archive", body)
}

// DeleteManuals удаляет руководства пакетом.
// POST /pdf-manuals/bulk {ids}
func (c *Client) DeleteManuals(ctx context.Context, ids []string) (string, error) {
	body := map[string]any{"ids": ids}
	return c.sendJSON(ctx, http.MethodPost, "/pdf-manuals/bulk", body)
}

// UpdateManual обновляет метаданные одного руководства.
// PUT /pdf-manuals/{id} → {type: "success" | ...}.
// Ответ с type, отличным от "success", возвращается как *APIError.
func (c *Client) UpdateManual(ctx context.Context, id string, fields map[string]string) (string, error) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("сериализация UpdateManual: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPut, "/pdf-manuals/"+url.PathEscape(id), bytes.NewReader(payload), "application/json")
	if err != nil {
		return "", err
	}

	var resp messageResponse
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	if resp.Type != "success" {
		return "", &APIError{StatusCode: http.StatusOK, Message: resp.Message}
	}
	return resp.Message, nil
}

// --- FAQ и fine-tune ---

// SetFAQApproval одобряет FAQ.
// PATCH /faqs/archive {ids, approveStatus}
func (c *Client) SetFAQApproval(ctx context.Context, ids []string, approved bool) (string, error) {
	body := map[string]any{"ids": ids, "approveStatus": approved}
	return c.sendJSON(ctx, http.MethodPatch, "/faqs/archive", body)
}

// PrepareJSONL запускает формирование JSONL-файла из одобренных FAQ.
// POST /faqs/jsonl → {data: "<имя файла>"}
func (c *Client) PrepareJSONL(ctx context.Context) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/faqs/jsonl", nil, "")
	if err != nil {
		return "", err
	}

	var resp messageResponse
	if err := c.do(req, &resp); err != nil {
		return "", err
	}

	var name string
	if len(resp.Data) > 0 && json.Unmarshal(resp.Data, &name) == nil {
		return name, nil
	}
	return resp.Message, nil
}

// StartFineTune запускает задачу fine-tune для обучающего файла.
// POST /faqs/finetune {id}
func (c *Client) StartFineTune(ctx context.Context, id string) (string, error) {
	body := map[string]any{"id": id}
	return c.sendJSON(ctx, http.MethodPost, "/faqs/finetune", body)
}

// RefreshFineTuneStatus запрашивает актуальный статус файла или задачи fine-tune.
// GET /faqs/finetune/refresh?id=...&rowId=...&status=FILE_STATUS|FINETUNE_STATUS
func (c *Client) RefreshFineTuneStatus(ctx context.Context, targetID, rowID, statusKind string) (string, error) {
	query := url.Values{}
	query.Set("id", targetID)
	query.Set("rowId", rowID)
	query.Set("status", statusKind)

	req, err := c.newRequest(ctx, http.MethodGet, "/faqs/finetune/refresh?"+query.Encode(), nil, "")
	if err != nil {
		return "", err
	}

	var resp messageResponse
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// --- Внутренние функции ---

// sendJSON отправляет JSON-тело и возвращает поле message ответа.
func (c *Client) sendJSON(ctx context.Context, method, path string, body any) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("сериализация запроса %s %s: %w", method, path, err)
	}

	req, err := c.newRequest(ctx, method, path, bytes.NewReader(payload), "application/json")
	if err != nil {
		return "", err
	}

	var resp messageResponse
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// newRequest создаёт запрос к API и добавляет авторизацию.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("создание запроса %s %s: %w", method, path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	if c.tokenProvider != nil {
		token, err := c.tokenProvider(ctx)
		if err != nil {
			return nil, fmt.Errorf("получение токена: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

// do выполняет запрос и декодирует успешный JSON-ответ в out.
// Числа декодируются как json.Number, чтобы сохранить идентификаторы без потерь.
func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("запрос %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Ответ API",
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &APIError{StatusCode: resp.StatusCode, Message: extractMessage(body, resp.StatusCode)}
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("декодирование ответа %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

// extractMessage достаёт сообщение об ошибке из тела ответа.
// Поддерживает {"message": "..."} и {"error": {"message": "..."}}.
func extractMessage(body []byte, status int) string {
	var flat struct {
		Message string `json:"message"`
		Error   *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &flat) == nil {
		if flat.Message != "" {
			return flat.Message
		}
		if flat.Error != nil && flat.Error.Message != "" {
			return flat.Error.Message
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) < 200 && !strings.HasPrefix(text, "<") {
		return text
	}
	return http.StatusText(status)
}

// normalizeURL убирает trailing slash из URL.
func normalizeURL(rawURL string) string {
	return strings.TrimRight(rawURL, "/")
}
