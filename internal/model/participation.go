package model

// ParticipationPhase is the phase of the participation state machine
type ParticipationPhase string

const (
	PhaseNotStarted ParticipationPhase = "not_started"
	PhaseInProgress ParticipationPhase = "in_progress" // Answering the question at CurrentPosition
	PhaseSubmitting ParticipationPhase = "submitting"  // Answers sent, waiting for the score
	PhaseCompleted  ParticipationPhase = "completed"   // Terminal
)

// ParticipationState tracks one player's walk through the quiz
type ParticipationState struct {
	Phase               ParticipationPhase
	PlayerName          string
	QuizSize            int
	CurrentPosition     int  // 1-based, 0 before start
	SelectedAnswerIndex *int // selection at CurrentPosition, nil if none

	// SubmittedAnswers holds the last selection per position (index 0 is
	// position 1). A nil entry is submitted as "no answer".
	SubmittedAnswers []*int
}

// Answers returns the ordered answer sequence for submission, one entry per
// position from 1 to QuizSize
func (p *ParticipationState) Answers() []*int {
	answers := make([]*int, p.QuizSize)
	for i := range answers {
		if i < len(p.SubmittedAnswers) && p.SubmittedAnswers[i] != nil {
			v := *p.SubmittedAnswers[i]
			answers[i] = &v
		}
	}
	return answers
}

// IsLastPosition reports whether the current question is the final one
func (p *ParticipationState) IsLastPosition() bool {
	return p.CurrentPosition == p.QuizSize
}
