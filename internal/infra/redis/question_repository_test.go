package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quiz-session/internal/domain"
	"quiz-session/internal/infra/memory"
)

func TestQuestionRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{QuestionLoader: memory.NewStaticQuestionLoader(sampleQuestions())}
	repo := NewQuestionRepository(newClient(mr), loader, time.Minute, nil)

	questions, err := repo.GetQuestions(context.Background())
	if err != nil {
		t.Fatalf("get questions: %v", err)
	}
	if len(questions) != 1 || questions[0].CorrectOption != 1 {
		t.Fatalf("unexpected questions %+v", questions)
	}
	if loader.count() != 1 {
		t.Fatalf("expected loader called once, got %d", loader.count())
	}
	if !mr.Exists(QuestionsKey) {
		t.Fatalf("expected %s to be cached", QuestionsKey)
	}
	if ttl := mr.TTL(QuestionsKey); ttl < time.Minute || ttl > time.Minute+6*time.Second {
		t.Fatalf("expected ttl with jitter, got %s", ttl)
	}

	// Second call should hit cache, loader not incremented.
	cached, err := repo.GetQuestions(context.Background())
	if err != nil {
		t.Fatalf("get cached questions: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.count())
	}
	if cached[0].Text != questions[0].Text || len(cached[0].Options) != 4 {
		t.Fatalf("cached question differs: %+v", cached[0])
	}
}

func TestQuestionRepositoryReloadsAfterInvalidate(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{QuestionLoader: memory.NewStaticQuestionLoader(sampleQuestions())}
	repo := NewQuestionRepository(newClient(mr), loader, time.Minute, nil)

	_, _ = repo.GetQuestions(context.Background())
	if err := repo.Invalidate(context.Background()); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = repo.GetQuestions(context.Background())
	if loader.count() != 2 {
		t.Fatalf("expected reload, loader calls=%d", loader.count())
	}
}

func TestQuestionRepositoryIgnoresCorruptEntry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	if err := mr.Set(QuestionsKey, "{not json"); err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}
	loader := &countingLoader{QuestionLoader: memory.NewStaticQuestionLoader(sampleQuestions())}
	repo := NewQuestionRepository(newClient(mr), loader, time.Minute, nil)

	if _, err := repo.GetQuestions(context.Background()); err != nil {
		t.Fatalf("get questions: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected fallback to loader, calls=%d", loader.count())
	}
}

func TestQuestionRepositoryServesWhenRedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := newClient(mr)
	mr.Close()

	loader := &countingLoader{QuestionLoader: memory.NewStaticQuestionLoader(sampleQuestions())}
	repo := NewQuestionRepository(client, loader, time.Minute, nil)

	questions, err := repo.GetQuestions(context.Background())
	if err != nil {
		t.Fatalf("expected loader fallback, got %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(questions))
	}
}

type countingLoader struct {
	memory.QuestionLoader
	mu    sync.Mutex
	calls int
}

func (l *countingLoader) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.QuestionLoader.LoadQuestions(ctx)
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			Text:          "What is 2 + 2?",
			Options:       []string{"3", "4", "5", "22"},
			CorrectOption: 1,
			Points:        10,
		},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        mr.Addr(),
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
}
