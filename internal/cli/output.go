package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mcoot/quizclient/internal/api/apierr"
	"github.com/mcoot/quizclient/internal/model"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	out    io.Writer
	errOut io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, out, errOut io.Writer) *Output {
	return &Output{format: format, out: out, errOut: errOut}
}

// AdminStatus is the result of "admin status"
type AdminStatus struct {
	Authenticated bool `json:"authenticated"`
}

// CreatedQuestion is the result of "admin questions create"
type CreatedQuestion struct {
	ID model.QuestionID `json:"id"`
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error, preferring the user-facing message
func (o *Output) PrintError(err error) {
	msg := err.Error()
	if apiErr, ok := apierr.As(err); ok && apiErr.UserMessage != "" {
		msg = apiErr.UserMessage
	}

	if o.format == "json" {
		data, _ := json.Marshal(map[string]any{
			"error": map[string]string{"message": msg},
		})
		_, _ = fmt.Fprintln(o.errOut, string(data))
	} else {
		_, _ = fmt.Fprintf(o.errOut, "Error: %s\n", msg)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.out, string(data))
	} else {
		_, _ = fmt.Fprintln(o.out, msg)
	}
}

// PrintNotifications writes notifications to the error stream so they never
// mix with command output
func (o *Output) PrintNotifications(list []model.Notification) {
	for _, n := range list {
		if o.format == "json" {
			data, _ := json.Marshal(map[string]any{
				"notification": map[string]any{"id": n.ID, "kind": n.Kind, "message": n.Message},
			})
			_, _ = fmt.Fprintln(o.errOut, string(data))
		} else {
			_, _ = fmt.Fprintf(o.errOut, "[%s] %s\n", n.Kind, n.Message)
		}
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case *model.QuizInfo:
		o.printQuizInfo(v)
	case *model.Question:
		o.printQuestion(v)
	case []model.Question:
		o.printQuestionList(v)
	case *model.ScoreResult:
		o.printScore(v)
	case AdminStatus:
		o.printAdminStatus(v)
	case CreatedQuestion:
		_, _ = fmt.Fprintf(o.out, "Question created: %d\n", v.ID)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printQuizInfo(info *model.QuizInfo) {
	_, _ = fmt.Fprintf(o.out, "Questions: %d\n", info.Size)
	if len(info.Scores) == 0 {
		_, _ = fmt.Fprintln(o.out, "No participations yet")
		return
	}
	_, _ = fmt.Fprintf(o.out, "Scores (%d):\n", len(info.Scores))
	for _, s := range info.Scores {
		_, _ = fmt.Fprintf(o.out, "  - %s: %d (%s)\n", s.PlayerName, s.Score, s.Date)
	}
}

func (o *Output) printQuestion(q *model.Question) {
	_, _ = fmt.Fprintf(o.out, "Question %d (id %d): %s\n", q.Position, q.ID, q.Title)
	_, _ = fmt.Fprintln(o.out, q.Text)
	if q.Image != nil && *q.Image != "" {
		_, _ = fmt.Fprintln(o.out, "[image]")
	}
	for i, a := range q.PossibleAnswers {
		marker := ""
		if a.IsCorrect != nil && *a.IsCorrect {
			marker = " *"
		}
		_, _ = fmt.Fprintf(o.out, "  %d. %s%s\n", i+1, a.Text, marker)
	}
}

func (o *Output) printQuestionList(list []model.Question) {
	if len(list) == 0 {
		_, _ = fmt.Fprintln(o.out, "No questions")
		return
	}
	for i := range list {
		if i > 0 {
			_, _ = fmt.Fprintln(o.out)
		}
		o.printQuestion(&list[i])
	}
}

func (o *Output) printScore(s *model.ScoreResult) {
	_, _ = fmt.Fprintf(o.out, "Score: %d/%d\n", s.Score, len(s.AnswersSummaries))
	for i, a := range s.AnswersSummaries {
		status := "wrong"
		if a.WasCorrect {
			status = "correct"
		}
		line := fmt.Sprintf("  %d. %s", i+1, status)
		if !a.WasCorrect && a.CorrectAnswerPosition != nil {
			line += fmt.Sprintf(" (answer: %d)", *a.CorrectAnswerPosition)
		}
		_, _ = fmt.Fprintln(o.out, line)
	}
}

func (o *Output) printAdminStatus(s AdminStatus) {
	state := "not logged in"
	if s.Authenticated {
		state = "logged in"
	}
	_, _ = fmt.Fprintf(o.out, "Admin: %s\n", state)
}
