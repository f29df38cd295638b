package request

// Participation is the request body for submitting a participation.
// A nil answer is sent as JSON null ("no answer").
type Participation struct {
	PlayerName string `json:"playerName"`
	Answers    []*int `json:"answers"`
}

// Login is the request body for the admin login
type Login struct {
	Password string `json:"password"`
}

// AnswerInput is one possible answer of a question being created
type AnswerInput struct {
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"isCorrect"`
}

// QuestionInput is the request body for creating a question
type QuestionInput struct {
	Title           string        `json:"title" validate:"required,max=200"`
	Text            string        `json:"text" validate:"required"`
	Image           *string       `json:"image"`
	Position        int           `json:"position" validate:"gte=1"`
	PossibleAnswers []AnswerInput `json:"possibleAnswers" validate:"min=2,dive"`
}

// QuestionPatch is the request body for updating a question. Nil fields are
// left unchanged by the backend.
type QuestionPatch struct {
	Title           *string       `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Text            *string       `json:"text,omitempty" validate:"omitempty,min=1"`
	Image           *string       `json:"image,omitempty"`
	Position        *int          `json:"position,omitempty" validate:"omitempty,gte=1"`
	PossibleAnswers []AnswerInput `json:"possibleAnswers,omitempty" validate:"omitempty,min=2,dive"`
}
