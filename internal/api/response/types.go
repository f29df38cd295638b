package response

import "github.com/mcoot/quizclient/internal/model"

// Login is the response for the admin login
type Login struct {
	Token string `json:"token"`
}

// QuestionList is the response for listing every question (admin)
type QuestionList struct {
	Questions []model.Question `json:"questions"`
}

// Created is the response for creating a question
type Created struct {
	ID      model.QuestionID `json:"id"`
	Message string           `json:"message,omitempty"`
}

// Message is the response for admin mutations that only acknowledge
type Message struct {
	Message string `json:"message,omitempty"`
}

// Error is the error body returned by the backend
type Error struct {
	Error string `json:"error"`
}
