// Пакет directory — HTTP-клиент Directory API (справочник сотрудников).
//
// Операции: список сотрудников, запись по id или «self», обновление записи,
// словарь статусов. Каждый вызов — одна попытка с ограниченным таймаутом,
// без кэша и повторов. Для scope «self» передаются учётные данные Basic auth.
package directory

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
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/blazen1013/setting/internal/domain/model"
	"github.com/blazen1013/setting/internal/domain/status"
)

// maxBodySize — предел читаемого тела ответа (1 МБ).
const maxBodySize = 1 << 20

// Операции клиента (лейблы метрик и логов).
const (
	opListEmployees     = "list_employees"
	opFetchEmployee     = "fetch_employee"
	opUpdateEmployee    = "update_employee"
	opListStatusOptions = "list_status_options"
	opHealth            = "health"
)

// Prometheus-метрики вызовов Directory API.
var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sd_directory_requests_total",
			Help: "Общее количество запросов к Directory API по операциям и результатам",
		},
		[]string{"operation", "outcome"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sd_directory_request_duration_seconds",
			Help:    "Длительность запросов к Directory API в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// Client — HTTP-клиент Directory API.
// Создаётся один раз при старте и передаётся контроллерам явно.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// New создаёт клиент Directory API.
// baseURL — адрес бэкенда (например, http://localhost:8000).
// caCertPath — путь к CA-сертификату для TLS (пустая строка — стандартный пул).
// timeout — таймаут одного запроса (SD_API_TIMEOUT).
func New(baseURL string, caCertPath string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	httpClient := &http.Client{Timeout: timeout}

	if caCertPath != "" {
		tlsConfig, err := buildTLSConfig(caCertPath)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата directory API: %w", err)
		}
		httpClient.Transport = &http.Transport{
			TLSClientConfig: tlsConfig,
		}
		logger.Info("CA-сертификат directory API добавлен в пул доверия",
			slog.String("ca_cert", caCertPath),
		)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger.With(slog.String("component", "directory_client")),
	}, nil
}

// BaseURL возвращает адрес бэкенда без завершающего слэша.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListEmployees возвращает всех сотрудников.
// GET /employees. Пустой список — корректный результат.
func (c *Client) ListEmployees(ctx context.Context) ([]model.Employee, error) {
	var employees []model.Employee
	if err := c.do(ctx, opListEmployees, http.MethodGet, "/employees", nil, nil, &employees); err != nil {
		return nil, err
	}
	if employees == nil {
		employees = []model.Employee{}
	}
	return employees, nil
}

// FetchEmployee возвращает запись сотрудника.
// GET /employees/{id} или GET /employees/me (только с учётными данными).
func (c *Client) FetchEmployee(ctx context.Context, scope model.Scope, creds *model.Credentials) (*model.Employee, error) {
	if err := requireCredentials(opFetchEmployee, scope, creds); err != nil {
		return nil, err
	}

	var employee model.Employee
	path := "/employees/" + scope.PathSegment()
	if err := c.do(ctx, opFetchEmployee, http.MethodGet, path, nil, creds, &employee); err != nil {
		return nil, err
	}
	return &employee, nil
}

// UpdateEmployee обновляет запись и возвращает её полное новое состояние.
// PUT /employees/{id} или PUT /employees/me (только с учётными данными).
func (c *Client) UpdateEmployee(
	ctx context.Context,
	scope model.Scope,
	payload model.UpdatePayload,
	creds *model.Credentials,
) (*model.Employee, error) {
	if err := requireCredentials(opUpdateEmployee, scope, creds); err != nil {
		return nil, err
	}

	var employee model.Employee
	path := "/employees/" + scope.PathSegment()
	if err := c.do(ctx, opUpdateEmployee, http.MethodPut, path, payload, creds, &employee); err != nil {
		return nil, err
	}
	return &employee, nil
}

// ListStatusOptions возвращает коды статусов в порядке бэкенда.
// GET /employee-status-options: {"options": [...]} со строками или парами {value, label}.
func (c *Client) ListStatusOptions(ctx context.Context) ([]status.Code, error) {
	var raw json.RawMessage
	if err := c.do(ctx, opListStatusOptions, http.MethodGet, "/employee-status-options", nil, nil, &raw); err != nil {
		return nil, err
	}

	items, err := optionItems(raw)
	if err != nil {
		return nil, transportError(opListStatusOptions, http.StatusOK, err)
	}

	codes, err := status.NormalizeOptions(items)
	if err != nil {
		return nil, transportError(opListStatusOptions, http.StatusOK, err)
	}
	return codes, nil
}

// Health проверяет доступность бэкенда (GET /health).
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, opHealth, http.MethodGet, "/health", nil, nil, nil)
}

// optionItems извлекает список опций: объект {"options": [...]} или голый массив.
func optionItems(raw json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("декодирование списка опций: %w", err)
		}
		return items, nil
	}

	var envelope struct {
		Options []json.RawMessage `json:"options"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("декодирование ответа опций статуса: %w", err)
	}
	if envelope.Options == nil {
		return nil, errors.New("в ответе нет поля options")
	}
	return envelope.Options, nil
}

// requireCredentials — scope «self» без учётных данных отклоняется без запроса.
func requireCredentials(op string, scope model.Scope, creds *model.Credentials) error {
	if scope.IsSelf() && (creds == nil || creds.IsZero()) {
		return &Error{Op: op, Kind: model.ErrUnauthorized, Err: errors.New("учётные данные не заданы")}
	}
	return nil
}

// do выполняет запрос, записывает метрики и лог.
func (c *Client) do(
	ctx context.Context,
	op, method, path string,
	body any,
	creds *model.Credentials,
	out any,
) error {
	start := time.Now()
	statusCode, err := c.roundTrip(ctx, op, method, path, body, creds, out)
	duration := time.Since(start)

	result := outcome(err)
	requestsTotal.WithLabelValues(op, result).Inc()
	requestDuration.WithLabelValues(op).Observe(duration.Seconds())

	attrs := []any{
		slog.String("operation", op),
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", statusCode),
		slog.String("outcome", result),
		slog.Duration("duration", duration),
	}
	if err != nil && result == "transport" {
		c.logger.Warn("Запрос к directory API не выполнен", append(attrs, slog.String("error", err.Error()))...)
	} else {
		c.logger.Debug("Запрос к directory API", attrs...)
	}
	return err
}

// roundTrip — одна попытка запроса. Возвращает HTTP-статус (0 — ответа нет).
func (c *Client) roundTrip(
	ctx context.Context,
	op, method, path string,
	body any,
	creds *model.Credentials,
	out any,
) (int, error) {
	var reqBody io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, transportError(op, 0, fmt.Errorf("сериализация запроса: %w", err))
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, transportError(op, 0, fmt.Errorf("создание запроса: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if creds != nil && !creds.IsZero() {
		req.SetBasicAuth(creds.LoginID, creds.Password)
	}

	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: URL из конфигурации
	if err != nil {
		return 0, transportError(op, 0, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return resp.StatusCode, transportError(op, resp.StatusCode, fmt.Errorf("чтение ответа: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, errorFromResponse(op, resp.StatusCode, data)
	}

	if out == nil {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, transportError(op, resp.StatusCode, fmt.Errorf("декодирование ответа: %w", err))
	}
	return resp.StatusCode, nil
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA-сертификатом.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("в %s нет PEM-сертификатов", caCertPath)
	}

	return &tls.Config{
		RootCAs:    caCertPool,
		MinVersion: tls.VersionTLS12,
	}, nil
}
