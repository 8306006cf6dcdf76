package session

import "quiz-session/internal/domain"

// State is a snapshot of quiz progress. It is a value: transitions return a
// new State and never mutate the one they were given.
//
// Index, Answer and SecondsLeft are only meaningful while Status is
// StatusActive. Answer and SecondsLeft are nil when absent.
type State struct {
	Questions   []domain.Question `json:"questions"`
	Status      Status            `json:"status"`
	Index       int               `json:"index"`
	Answer      *int              `json:"answer"`
	Points      int               `json:"points"`
	HighScore   int               `json:"highScore"`
	SecondsLeft *int              `json:"secondsLeft"`
}

// Initial returns the state a session starts in, before questions arrive.
func Initial() State {
	return State{
		Questions: []domain.Question{},
		Status:    StatusLoading,
	}
}

func (s State) NumQuestions() int {
	return len(s.Questions)
}

func (s State) TotalPoints() int {
	return domain.TotalPoints(s.Questions)
}

// Current returns the question being asked. ok is false outside StatusActive.
func (s State) Current() (domain.Question, bool) {
	if s.Status != StatusActive || s.Index < 0 || s.Index >= len(s.Questions) {
		return domain.Question{}, false
	}
	return s.Questions[s.Index], true
}

func (s State) HasAnswer() bool {
	return s.Answer != nil
}

func (s State) IsLastQuestion() bool {
	return s.Index == len(s.Questions)-1
}

// Remaining returns the countdown, or false when no countdown is running.
func (s State) Remaining() (int, bool) {
	if s.Status != StatusActive || s.SecondsLeft == nil {
		return 0, false
	}
	return *s.SecondsLeft, true
}

func intPtr(v int) *int {
	return &v
}
