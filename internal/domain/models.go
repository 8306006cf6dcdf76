package domain

import "fmt"

// OptionsPerQuestion is the number of choices every question offers.
const OptionsPerQuestion = 4

// Question models a multiple choice question with exactly one correct option.
type Question struct {
	Text          string   `json:"question"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correctOption"`
	Points        int      `json:"points"`
}

// Validate reports whether the question is well formed.
func (q Question) Validate() error {
	if q.Text == "" {
		return fmt.Errorf("%w: empty text", ErrInvalidQuestion)
	}
	if len(q.Options) != OptionsPerQuestion {
		return fmt.Errorf("%w: %q has %d options, want %d", ErrInvalidQuestion, q.Text, len(q.Options), OptionsPerQuestion)
	}
	if q.CorrectOption < 0 || q.CorrectOption >= len(q.Options) {
		return fmt.Errorf("%w: %q correct option %d out of range", ErrInvalidQuestion, q.Text, q.CorrectOption)
	}
	if q.Points < 0 {
		return fmt.Errorf("%w: %q has negative points", ErrInvalidQuestion, q.Text)
	}
	return nil
}

// ValidateQuestions checks every question of a loaded set.
func ValidateQuestions(questions []Question) error {
	for i, q := range questions {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
	}
	return nil
}

// TotalPoints is the maximum score reachable with the given questions.
func TotalPoints(questions []Question) int {
	total := 0
	for _, q := range questions {
		total += q.Points
	}
	return total
}
