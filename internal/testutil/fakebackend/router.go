package fakebackend

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcoot/quizclient/internal/api/response"
)

// routes builds the backend router
func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()

	// Public endpoints
	r.Handle("/quiz-info", s.instrument(RouteQuizInfo, s.handleQuizInfo)).Methods(http.MethodGet)
	r.Handle("/questions", s.instrument(RouteQuestionByPosition, s.handleQuestionByPosition)).
		Methods(http.MethodGet).
		Queries("position", "{position}")
	r.Handle("/participations", s.instrument(RouteSubmitParticipation, s.handleSubmitParticipation)).Methods(http.MethodPost)
	r.Handle("/login", s.instrument(RouteLogin, s.handleLogin)).Methods(http.MethodPost)

	// Admin endpoints; fixed paths are registered before {id}
	r.Handle("/questions/all", s.instrument(RouteListQuestions, s.requireAdmin(s.handleListQuestions))).Methods(http.MethodGet)
	r.Handle("/questions/all", s.instrument(RouteDeleteAllQuestions, s.requireAdmin(s.handleDeleteAllQuestions))).Methods(http.MethodDelete)
	r.Handle("/participations/all", s.instrument(RouteDeleteAllParticipations, s.requireAdmin(s.handleDeleteAllParticipations))).Methods(http.MethodDelete)
	r.Handle("/questions", s.instrument(RouteCreateQuestion, s.requireAdmin(s.handleCreateQuestion))).Methods(http.MethodPost)

	r.Handle("/questions/{id:[0-9]+}", s.instrument(RouteQuestionByID, s.handleQuestionByID)).Methods(http.MethodGet)
	r.Handle("/questions/{id:[0-9]+}", s.instrument(RouteUpdateQuestion, s.requireAdmin(s.handleUpdateQuestion))).Methods(http.MethodPut)
	r.Handle("/questions/{id:[0-9]+}", s.instrument(RouteDeleteQuestion, s.requireAdmin(s.handleDeleteQuestion))).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})

	return r
}

// instrument counts the hit, records headers, and applies any queued
// failure or stall before handing over to h
func (s *Server) instrument(route string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[route]++
		s.headers[route] = append(s.headers[route], r.Header.Clone())
		stall := s.stalls[route]
		status := 0
		if queue := s.failures[route]; len(queue) > 0 {
			status = queue[0]
			s.failures[route] = queue[1:]
		}
		s.mu.Unlock()

		if stall > 0 {
			select {
			case <-time.After(stall):
			case <-r.Context().Done():
				return
			}
		}

		if status != 0 {
			writeError(w, status, http.StatusText(status))
			return
		}

		h(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	response.JSON(w, status, response.Error{Error: message})
}
