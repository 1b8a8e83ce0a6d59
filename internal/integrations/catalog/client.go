package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Client клиент для работы с каталогом услуг и объявлений
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента каталога
// Исходящие запросы трассируются через otelhttp
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: log,
	}
}

// GetSubject получает услугу или объявление по виду и ID
func (c *Client) GetSubject(ctx context.Context, kind domain.SubjectKind, id string) (*Subject, error) {
	path, err := subjectPath(kind)
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/internal/%s/%s", c.baseURL, path, url.PathEscape(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("GetSubject: catalog unavailable for %s id=%s: %v", kind, id, err)
		return nil, fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	// Обработка статус-кодов
	switch resp.StatusCode {
	case http.StatusOK:
		// Продолжаем обработку
	case http.StatusBadRequest:
		return nil, fmt.Errorf("%w: invalid subject ID format", ErrInvalidResponse)
	case http.StatusNotFound:
		return nil, ErrSubjectNotFound
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	// Парсим ответ
	var subject Subject
	if err := json.NewDecoder(resp.Body).Decode(&subject); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}
	subject.Kind = kind

	if subject.OwnerID == "" {
		return nil, fmt.Errorf("%w: subject %s has no owner", ErrInvalidResponse, id)
	}

	return &subject, nil
}

func subjectPath(kind domain.SubjectKind) (string, error) {
	switch kind {
	case domain.SubjectService:
		return "services", nil
	case domain.SubjectListing:
		return "listings", nil
	}
	return "", fmt.Errorf("%w: unknown subject kind %q", domain.ErrInvalidInput, kind)
}
