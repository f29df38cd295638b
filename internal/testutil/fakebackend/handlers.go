package fakebackend

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/quizclient/internal/api/request"
	"github.com/mcoot/quizclient/internal/api/response"
	"github.com/mcoot/quizclient/internal/model"
)

// tokenTTL matches the backend's JWT lifetime
const tokenTTL = 24 * time.Hour

// maxBodyBytes mirrors the backend's 1MB image limit
const maxBodyBytes = 1 << 20

func (s *Server) handleQuizInfo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	info := model.QuizInfo{Size: len(s.questions), Scores: []model.ScoreEntry{}}
	for _, p := range s.participations {
		info.Scores = append(info.Scores, model.ScoreEntry{
			PlayerName: p.PlayerName,
			Score:      p.Score,
			Date:       p.CreatedAt.Format("02/01/2006 15:04:05"),
		})
	}
	s.mu.Unlock()

	response.JSON(w, http.StatusOK, info)
}

func (s *Server) handleQuestionByPosition(w http.ResponseWriter, r *http.Request) {
	position, err := strconv.Atoi(mux.Vars(r)["position"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid position")
		return
	}

	s.mu.Lock()
	q, ok := s.byPositionLocked(position)
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Question not found")
		return
	}

	response.JSON(w, http.StatusOK, publicQuestion(q))
}

func (s *Server) handleQuestionByID(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	s.mu.Lock()
	q, ok := s.questions[model.QuestionID(id)]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Question not found")
		return
	}

	// The reference backend wraps single-question responses
	response.JSON(w, http.StatusOK, map[string]any{"question": publicQuestion(q)})
}

func (s *Server) handleSubmitParticipation(w http.ResponseWriter, r *http.Request) {
	var req request.Participation
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.PlayerName) == "" {
		writeError(w, http.StatusBadRequest, "playerName is required")
		return
	}

	s.mu.Lock()
	if len(req.Answers) != len(s.questions) {
		s.mu.Unlock()
		writeError(w, http.StatusBadRequest, "Answers count does not match quiz size")
		return
	}
	score, summaries := s.scoreLocked(req)
	s.participations = append(s.participations, Participation{
		PlayerName: req.PlayerName,
		Answers:    req.Answers,
		Score:      score,
		CreatedAt:  time.Now(),
	})
	s.mu.Unlock()

	response.JSON(w, http.StatusOK, model.ScoreResult{
		PlayerName:       req.PlayerName,
		Score:            score,
		AnswersSummaries: summaries,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req request.Login
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid password")
		return
	}

	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}).SignedString(s.signingKey)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not sign token")
		return
	}

	response.JSON(w, http.StatusOK, response.Login{Token: token})
}

func (s *Server) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	questions := s.orderedLocked()
	s.mu.Unlock()

	response.JSON(w, http.StatusOK, response.QuestionList{Questions: questions})
}

func (s *Server) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req request.QuestionInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			writeError(w, http.StatusRequestEntityTooLarge, "Payload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Title == "" || req.Text == "" || req.Position < 1 {
		writeError(w, http.StatusUnprocessableEntity, "title, text and position are required")
		return
	}

	s.mu.Lock()
	if _, taken := s.byPositionLocked(req.Position); taken {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "Position already used")
		return
	}
	id := s.insertLocked(model.Question{
		Title:           req.Title,
		Text:            req.Text,
		Image:           req.Image,
		Position:        req.Position,
		PossibleAnswers: toAnswers(req.PossibleAnswers),
	})
	s.mu.Unlock()

	response.JSON(w, http.StatusCreated, response.Created{ID: id, Message: "Question created"})
}

func (s *Server) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	var patch request.QuestionPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.questions[model.QuestionID(id)]
	if !ok {
		writeError(w, http.StatusNotFound, "Question not found")
		return
	}
	if patch.Title != nil {
		q.Title = *patch.Title
	}
	if patch.Text != nil {
		q.Text = *patch.Text
	}
	if patch.Image != nil {
		q.Image = patch.Image
	}
	if patch.Position != nil {
		q.Position = *patch.Position
	}
	if patch.PossibleAnswers != nil {
		q.PossibleAnswers = toAnswers(patch.PossibleAnswers)
	}
	s.questions[q.ID] = q

	response.JSON(w, http.StatusOK, response.Message{Message: "Question updated"})
}

func (s *Server) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	s.mu.Lock()
	_, ok := s.questions[model.QuestionID(id)]
	delete(s.questions, model.QuestionID(id))
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "Question not found")
		return
	}
	response.NoContent(w)
}

func (s *Server) handleDeleteAllQuestions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.questions = make(map[model.QuestionID]model.Question)
	s.mu.Unlock()

	response.JSON(w, http.StatusOK, response.Message{Message: "All questions deleted"})
}

func (s *Server) handleDeleteAllParticipations(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.participations = nil
	s.mu.Unlock()

	response.JSON(w, http.StatusOK, response.Message{Message: "All participations deleted"})
}

func toAnswers(in []request.AnswerInput) []model.Answer {
	out := make([]model.Answer, len(in))
	for i, a := range in {
		id := i + 1
		isCorrect := a.IsCorrect
		out[i] = model.Answer{ID: &id, Text: a.Text, IsCorrect: &isCorrect}
	}
	return out
}
