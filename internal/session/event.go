package session

import "quiz-session/internal/domain"

// Event is the closed set of inputs a session reacts to. The unexported
// method keeps implementations inside this package.
type Event interface {
	Kind() string
	event()
}

// DataReceived delivers the loaded question set.
type DataReceived struct {
	Questions []domain.Question
}

// DataFailed reports that the question set could not be loaded.
type DataFailed struct {
	Err error
}

// Start begins the timed quiz.
type Start struct{}

// NextQuestion advances to the following question.
type NextQuestion struct{}

// NewAnswer selects an option of the current question.
type NewAnswer struct {
	Choice int
}

// Finish ends the quiz before the timer runs out.
type Finish struct{}

// Restart returns to the start screen, keeping the questions and high score.
type Restart struct{}

// Tick is one second of the quiz timer.
type Tick struct{}

func (DataReceived) Kind() string { return "dataReceived" }
func (DataFailed) Kind() string   { return "dataFailed" }
func (Start) Kind() string        { return "start" }
func (NextQuestion) Kind() string { return "nextQuestion" }
func (NewAnswer) Kind() string    { return "newAnswer" }
func (Finish) Kind() string       { return "finished" }
func (Restart) Kind() string      { return "restart" }
func (Tick) Kind() string         { return "tick" }

func (DataReceived) event() {}
func (DataFailed) event()   {}
func (Start) event()        {}
func (NextQuestion) event() {}
func (NewAnswer) event()    {}
func (Finish) event()       {}
func (Restart) event()      {}
func (Tick) event()         {}
