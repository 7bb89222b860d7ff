package examsession

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/examprep-api/internal/domain/entity"
)

// HTTPGateway ходит к API платформы за вопросами и отправляет результаты.
// Запросы не повторяются автоматически: ошибка возвращается владельцу сессии.
type HTTPGateway struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPGateway создает новый шлюз к API
func NewHTTPGateway(baseURL, token string) *HTTPGateway {
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// apiError — тело ошибки API
type apiError struct {
	Message string `json:"message"`
}

// questionsEnvelope — обёртка ответа на запрос вопросов
type questionsEnvelope struct {
	Questions []entity.Question `json:"questions"`
}

// submitEnvelope — обёртка ответа на отправку
type submitEnvelope struct {
	Message string        `json:"message"`
	Result  *SubmitResult `json:"result"`
}

// LoadQuestions реализует QuestionLoader поверх GET /api/questions
func (g *HTTPGateway) LoadQuestions(ctx context.Context, params Params) ([]entity.Question, error) {
	values := url.Values{}
	ids := make([]string, len(params.SubjectIDs))
	for i, id := range params.SubjectIDs {
		ids[i] = strconv.FormatUint(uint64(id), 10)
	}
	values.Set("subject_ids", strings.Join(ids, ","))
	values.Set("year", strconv.Itoa(params.Year))
	if params.Topic != "" {
		values.Set("topic", params.Topic)
	}
	if params.Limit > 0 {
		values.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Mode != "" {
		values.Set("mode", params.Mode)
	}

	endpoint := g.baseURL + "/api/questions?" + values.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	g.authorize(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("question request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var envelope questionsEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode questions response: %w", err)
	}
	return envelope.Questions, nil
}

// SubmitExam реализует Gateway поверх POST /api/exams/submit
func (g *HTTPGateway) SubmitExam(ctx context.Context, submitReq SubmitRequest) (*SubmitResult, error) {
	body, err := json.Marshal(submitReq)
	if err != nil {
		return nil, err
	}

	endpoint := g.baseURL + "/api/exams/submit"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	g.authorize(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, decodeAPIError(resp)
	}

	var envelope submitEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode submit response: %w", err)
	}
	if envelope.Result == nil {
		return nil, fmt.Errorf("submit response missing result")
	}
	return envelope.Result, nil
}

func (g *HTTPGateway) authorize(req *http.Request) {
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}
}

// decodeAPIError превращает не-2xx ответ в ошибку с сообщением сервера
func decodeAPIError(resp *http.Response) error {
	var apiErr apiError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("api error (status %d): %s", resp.StatusCode, apiErr.Message)
	}
	return fmt.Errorf("api error (status %d)", resp.StatusCode)
}
