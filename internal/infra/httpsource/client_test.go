package httpsource

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"quiz-session/internal/domain"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func newTestClient(rt http.RoundTripper) *Client {
	return NewClient(&http.Client{Transport: rt}, "http://quiz.test/questions")
}

func respond(status int, body string) roundTripperFunc {
	return func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(bytes.NewReader([]byte(body))),
			Header:     make(http.Header),
		}, nil
	}
}

const validBody = `[
	{"question":"Which company invented React?","options":["Google","Apple","Netflix","Facebook"],"correctOption":3,"points":10},
	{"question":"How to pass data into a child component?","options":["State","Props","PropTypes","Parameters"],"correctOption":1,"points":20}
]`

func TestLoadQuestionsSuccess(t *testing.T) {
	var seen *http.Request
	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		seen = r
		return respond(http.StatusOK, validBody)(r)
	}))

	questions, err := client.LoadQuestions(context.Background())
	if err != nil {
		t.Fatalf("LoadQuestions returned error: %v", err)
	}
	if len(questions) != 2 || questions[0].CorrectOption != 3 || questions[1].Points != 20 {
		t.Fatalf("unexpected questions %+v", questions)
	}
	if seen.Method != http.MethodGet || seen.URL.Path != "/questions" {
		t.Fatalf("unexpected request %s %s", seen.Method, seen.URL)
	}
}

func TestLoadQuestionsNonOKStatus(t *testing.T) {
	client := newTestClient(respond(http.StatusBadGateway, ""))
	if _, err := client.LoadQuestions(context.Background()); !errors.Is(err, domain.ErrUnexpectedStatus) {
		t.Fatalf("expected ErrUnexpectedStatus, got %v", err)
	}
}

func TestLoadQuestionsMalformedJSON(t *testing.T) {
	client := newTestClient(respond(http.StatusOK, "not-json"))
	if _, err := client.LoadQuestions(context.Background()); err == nil {
		t.Fatalf("expected JSON decode error")
	}
}

func TestLoadQuestionsInvalidQuestion(t *testing.T) {
	client := newTestClient(respond(http.StatusOK, `[{"question":"x","options":["a","b","c","d"],"correctOption":9,"points":1}]`))
	if _, err := client.LoadQuestions(context.Background()); !errors.Is(err, domain.ErrInvalidQuestion) {
		t.Fatalf("expected ErrInvalidQuestion, got %v", err)
	}
}

func TestLoadQuestionsEmptyArray(t *testing.T) {
	client := newTestClient(respond(http.StatusOK, "[]"))
	if _, err := client.LoadQuestions(context.Background()); !errors.Is(err, domain.ErrQuestionsNotFound) {
		t.Fatalf("expected ErrQuestionsNotFound, got %v", err)
	}
}

func TestLoadQuestionsTransportError(t *testing.T) {
	client := newTestClient(roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	}))
	if _, err := client.LoadQuestions(context.Background()); err == nil {
		t.Fatalf("expected transport error")
	}
}

func TestLoadQuestionsAgainstServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(validBody))
	}))
	defer server.Close()

	questions, err := NewClient(server.Client(), server.URL+"/questions").LoadQuestions(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
}
