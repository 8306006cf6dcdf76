package session

import (
	"fmt"

	"quiz-session/internal/domain"
)

const (
	// SecondsPerQuestion is the time budget each question adds to the countdown.
	SecondsPerQuestion = 30
	// RestartSeconds is the countdown carried by the ready state after a restart.
	// Start always recomputes it from the question count.
	RestartSeconds = 10
)

// Reduce applies ev to s and returns the resulting state. It is pure and
// deterministic. An event whose precondition does not hold leaves the state
// unchanged. An event outside the closed set is a programming error and panics.
func Reduce(s State, ev Event) State {
	switch ev := ev.(type) {
	case DataReceived:
		s.Questions = ev.Questions
		s.Status = StatusReady

	case DataFailed:
		s.Questions = []domain.Question{}
		s.Status = StatusError

	case Start:
		if s.Status != StatusReady || len(s.Questions) == 0 {
			return s
		}
		// A reload with fewer questions can leave the index past the end.
		if s.Index >= len(s.Questions) {
			s.Index = 0
			s.Answer = nil
		}
		s.Status = StatusActive
		s.SecondsLeft = intPtr(len(s.Questions) * SecondsPerQuestion)

	case NextQuestion:
		if s.Status != StatusActive || s.Index >= len(s.Questions)-1 {
			return s
		}
		s.Index++
		s.Answer = nil

	case NewAnswer:
		if s.Status != StatusActive || s.Answer != nil || s.Index >= len(s.Questions) {
			return s
		}
		question := s.Questions[s.Index]
		if ev.Choice < 0 || ev.Choice >= len(question.Options) {
			return s
		}
		s.Answer = intPtr(ev.Choice)
		if ev.Choice == question.CorrectOption {
			s.Points += question.Points
		}

	case Finish:
		if s.Status != StatusActive {
			return s
		}
		return finish(s)

	case Restart:
		s.Status = StatusReady
		s.Index = 0
		s.Answer = nil
		s.Points = 0
		s.SecondsLeft = intPtr(RestartSeconds)

	case Tick:
		if s.Status != StatusActive || s.SecondsLeft == nil {
			return s
		}
		// The countdown shows 0 for one full tick before the session expires.
		if *s.SecondsLeft <= 0 {
			return finish(s)
		}
		s.SecondsLeft = intPtr(*s.SecondsLeft - 1)

	default:
		panic(fmt.Sprintf("session: unknown event %T", ev))
	}
	return s
}

func finish(s State) State {
	s.Status = StatusFinished
	if s.Points > s.HighScore {
		s.HighScore = s.Points
	}
	return s
}
