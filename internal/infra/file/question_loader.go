// Package file loads the question set from a JSON file on disk.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"quiz-session/internal/domain"
)

// QuestionLoader reads either a bare JSON array of questions or a
// json-server style document of the form {"questions": [...]}.
type QuestionLoader struct {
	path string
}

func NewQuestionLoader(path string) *QuestionLoader {
	return &QuestionLoader{path: path}
}

func (l *QuestionLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read questions file: %w", err)
	}
	questions, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.path, err)
	}
	if len(questions) == 0 {
		return nil, domain.ErrQuestionsNotFound
	}
	return questions, nil
}

// Decode parses question JSON in either supported shape.
func Decode(data []byte) ([]domain.Question, error) {
	data = bytes.TrimSpace(data)
	var questions []domain.Question
	if len(data) > 0 && data[0] == '{' {
		var doc struct {
			Questions []domain.Question `json:"questions"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode questions: %w", err)
		}
		questions = doc.Questions
	} else if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	if err := domain.ValidateQuestions(questions); err != nil {
		return nil, err
	}
	return questions, nil
}
