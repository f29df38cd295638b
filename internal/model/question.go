package model

// QuestionID uniquely identifies a question on the backend
type QuestionID int

// Answer is one of the possible answers to a question
type Answer struct {
	ID   *int   `json:"id,omitempty"`
	Text string `json:"text"`
	// IsCorrect is only present in admin-scoped fetches
	IsCorrect *bool `json:"isCorrect,omitempty"`
}

// Question is a single quiz question. Immutable once fetched.
type Question struct {
	ID              QuestionID `json:"id"`
	Title           string     `json:"title"`
	Text            string     `json:"text"`
	Image           *string    `json:"image"`
	Position        int        `json:"position"` // 1-based
	PossibleAnswers []Answer   `json:"possibleAnswers"`
}

// HasAnswer reports whether index addresses one of the possible answers
func (q *Question) HasAnswer(index int) bool {
	return index >= 0 && index < len(q.PossibleAnswers)
}

// CorrectAnswerIndex returns the index of the answer flagged correct, or -1
// when the question was fetched without admin scope
func (q *Question) CorrectAnswerIndex() int {
	for i, a := range q.PossibleAnswers {
		if a.IsCorrect != nil && *a.IsCorrect {
			return i
		}
	}
	return -1
}
