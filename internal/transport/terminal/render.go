// Package terminal renders quiz sessions to a text terminal and maps typed
// commands onto session events.
package terminal

import (
	"fmt"
	"io"
	"math"
	"strings"

	"quiz-session/internal/session"
)

const progressWidth = 24

// Render writes the screen for the state's status.
func Render(w io.Writer, s session.State) error {
	var b strings.Builder
	b.WriteString("\n=== The React Quiz ===\n\n")

	switch s.Status {
	case session.StatusLoading:
		b.WriteString("Loading questions...\n")
	case session.StatusError:
		b.WriteString("💥 There was an error fetching questions.\n")
		b.WriteString("\n[q] quit\n")
	case session.StatusReady:
		fmt.Fprintf(&b, "Welcome to The React Quiz!\n%d questions to test your React mastery\n", s.NumQuestions())
		b.WriteString("\n[s] let's start   [q] quit\n")
	case session.StatusActive:
		renderActive(&b, s)
	case session.StatusFinished:
		renderFinished(&b, s)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func renderActive(b *strings.Builder, s session.State) {
	q, ok := s.Current()
	if !ok {
		return
	}

	done := s.Index
	if s.HasAnswer() {
		done++
	}
	filled := 0
	if n := s.NumQuestions(); n > 0 {
		filled = done * progressWidth / n
	}
	fmt.Fprintf(b, "[%s%s]\n", strings.Repeat("#", filled), strings.Repeat("-", progressWidth-filled))
	fmt.Fprintf(b, "Question %d/%d   %d/%d points\n\n", s.Index+1, s.NumQuestions(), s.Points, s.TotalPoints())

	fmt.Fprintf(b, "%s\n", q.Text)
	for i, option := range q.Options {
		mark := " "
		if s.HasAnswer() {
			switch {
			case i == q.CorrectOption:
				mark = "✔"
			case i == *s.Answer:
				mark = "✘"
			}
		}
		fmt.Fprintf(b, " %s %d) %s\n", mark, i+1, option)
	}

	if seconds, ok := s.Remaining(); ok {
		fmt.Fprintf(b, "\n⏱ %s\n", FormatClock(seconds))
	}

	switch {
	case !s.HasAnswer():
		fmt.Fprintf(b, "\n[1-%d] answer   [q] quit\n", len(q.Options))
	case s.IsLastQuestion():
		b.WriteString("\n[n] finish   [q] quit\n")
	default:
		b.WriteString("\n[n] next   [q] quit\n")
	}
}

func renderFinished(b *strings.Builder, s session.State) {
	total := s.TotalPoints()
	percent, medal := Grade(s.Points, total)
	fmt.Fprintf(b, "%s You scored %d out of %d (%d%%)\n", medal, s.Points, total, percent)
	fmt.Fprintf(b, "(Highscore: %d points)\n", s.HighScore)
	b.WriteString("\n[r] restart   [q] quit\n")
}

// FormatClock renders a countdown as mm:ss.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Grade returns the score as a rounded-up percentage and a medal for it.
func Grade(points, total int) (int, string) {
	if total <= 0 {
		return 0, "😫"
	}
	ratio := float64(points) / float64(total) * 100
	percent := int(math.Ceil(ratio))

	switch {
	case ratio >= 100:
		return percent, "🥇"
	case ratio >= 80:
		return percent, "🥈"
	case ratio >= 50:
		return percent, "🥉"
	case ratio > 0:
		return percent, "🎉"
	default:
		return percent, "😫"
	}
}
