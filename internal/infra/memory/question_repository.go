package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-session/internal/domain"
)

const cacheKey = "questions"

// QuestionLoader fetches the question set from a backing store (file, Postgres, SQLite).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

// QuestionRepository caches the question set with a TTL to avoid repeated store hits.
type QuestionRepository struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	questions []domain.Question
	expiresAt time.Time
	loaded    bool
}

func NewQuestionRepository(loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) GetQuestions(ctx context.Context) ([]domain.Question, error) {
	if questions, ok := r.cached(r.clock()); ok {
		return questions, nil
	}

	result, err, _ := r.sf.Do(cacheKey, func() (interface{}, error) {
		now := r.clock()
		if questions, ok := r.cached(now); ok {
			return questions, nil
		}

		questions, err := r.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.questions = questions
		r.expiresAt = now.Add(r.ttlWithJitter())
		r.loaded = true
		r.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate drops the cached set so the next read goes to the loader.
func (r *QuestionRepository) Invalidate() {
	r.mu.Lock()
	r.loaded = false
	r.questions = nil
	r.mu.Unlock()
}

func (r *QuestionRepository) cached(now time.Time) ([]domain.Question, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.loaded && r.expiresAt.After(now) {
		return r.questions, true
	}
	return nil, false
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticQuestionLoader is a simple loader backed by a fixed slice (useful for tests/demos).
type StaticQuestionLoader struct {
	questions []domain.Question
}

func NewStaticQuestionLoader(questions []domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{questions: questions}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	if len(l.questions) == 0 {
		return nil, domain.ErrQuestionsNotFound
	}
	return l.questions, nil
}

// SampleQuestions is the built-in question set used when no store is configured.
func SampleQuestions() []domain.Question {
	return []domain.Question{
		{
			Text:          "Which is the most popular JavaScript framework?",
			Options:       []string{"Angular", "React", "Svelte", "Vue"},
			CorrectOption: 1,
			Points:        10,
		},
		{
			Text:          "Which company invented React?",
			Options:       []string{"Google", "Apple", "Netflix", "Facebook"},
			CorrectOption: 3,
			Points:        10,
		},
		{
			Text:          "What's the fundamental building block of React apps?",
			Options:       []string{"Components", "Blocks", "Elements", "Effects"},
			CorrectOption: 0,
			Points:        10,
		},
		{
			Text:          "What's the name of the syntax we use to describe the UI in React components?",
			Options:       []string{"FBJ", "Babel", "JSX", "ES2015"},
			CorrectOption: 2,
			Points:        10,
		},
		{
			Text:          "How does data flow naturally in React apps?",
			Options:       []string{"From parents to children", "From children to parents", "Both ways", "The developer decides"},
			CorrectOption: 0,
			Points:        10,
		},
		{
			Text:          "How to pass data into a child component?",
			Options:       []string{"State", "Props", "PropTypes", "Parameters"},
			CorrectOption: 1,
			Points:        10,
		},
		{
			Text:          "When to use derived state?",
			Options:       []string{"Whenever the state should not trigger a re-render", "Whenever the state can be synchronized with an effect", "Whenever the state should be accessible to all components", "Whenever the state can be computed from another state variable"},
			CorrectOption: 3,
			Points:        30,
		},
		{
			Text:          "What triggers a UI re-render in React?",
			Options:       []string{"Running an effect", "Passing props", "Updating state", "Adding event listeners to DOM elements"},
			CorrectOption: 2,
			Points:        20,
		},
	}
}
