// Package httpsource fetches the question set from the questions endpoint.
package httpsource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"quiz-session/internal/domain"
	"quiz-session/internal/infra/file"
)

// DefaultURL is the endpoint served by `quiz serve` with its default config.
const DefaultURL = "http://localhost:8000/questions"

const maxBodyBytes = 1 << 20

// Client loads questions with a single GET. Any transport failure, non-200
// status, malformed body, or invalid question is returned as an error.
type Client struct {
	httpClient *http.Client
	url        string
}

func NewClient(httpClient *http.Client, url string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if url == "" {
		url = DefaultURL
	}
	return &Client{httpClient: httpClient, url: url}
}

func (c *Client) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch questions: %w: %d", domain.ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	questions, err := file.Decode(body)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, domain.ErrQuestionsNotFound
	}
	return questions, nil
}
