// Package fakebackend is an in-process quiz backend honoring the wire
// contract the client speaks. It exists for tests and local demos only.
package fakebackend

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/quizclient/internal/api/request"
	"github.com/mcoot/quizclient/internal/model"
)

// Route names, usable with FailNext, Stall and Hits
const (
	RouteQuizInfo                = "quiz-info"
	RouteQuestionByID            = "question-by-id"
	RouteQuestionByPosition      = "question-by-position"
	RouteSubmitParticipation     = "submit-participation"
	RouteLogin                   = "login"
	RouteListQuestions           = "list-questions"
	RouteCreateQuestion          = "create-question"
	RouteUpdateQuestion          = "update-question"
	RouteDeleteQuestion          = "delete-question"
	RouteDeleteAllQuestions      = "delete-all-questions"
	RouteDeleteAllParticipations = "delete-all-participations"
)

// DefaultPassword is the admin password when none is given
const DefaultPassword = "iloveflask"

// Participation is a recorded submission
type Participation struct {
	PlayerName string
	Answers    []*int
	Score      int
	CreatedAt  time.Time
}

// Server is the fake backend state plus its router
type Server struct {
	mu sync.Mutex

	router       *mux.Router
	passwordHash []byte
	signingKey   []byte

	nextID         model.QuestionID
	questions      map[model.QuestionID]model.Question
	participations []Participation

	failures map[string][]int
	stalls   map[string]time.Duration
	hits     map[string]int
	headers  map[string][]http.Header
}

// New creates a fake backend protecting admin routes with password
func New(password string) *Server {
	if password == "" {
		password = DefaultPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}

	s := &Server{
		passwordHash: hash,
		signingKey:   []byte("fake-backend-signing-key"),
		nextID:       1,
		questions:    make(map[model.QuestionID]model.Question),
		failures:     make(map[string][]int),
		stalls:       make(map[string]time.Duration),
		hits:         make(map[string]int),
		headers:      make(map[string][]http.Header),
	}
	s.router = s.routes()
	return s
}

// Start runs the fake backend on a local port for the duration of the test
// and returns its base URL
func (s *Server) Start(t testing.TB) string {
	t.Helper()
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return srv.URL
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// AddQuestion stores a question as-is (ids are assigned when zero) and
// returns its id
func (s *Server) AddQuestion(q model.Question) model.QuestionID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(q)
}

// SeedQuiz stores n questions at positions 1..n whose correct answer is the
// index given in correct
func (s *Server) SeedQuiz(correct ...int) {
	for i, c := range correct {
		answers := make([]model.Answer, 4)
		for j := range answers {
			isCorrect := j == c
			answers[j] = model.Answer{Text: string(rune('A' + j)), IsCorrect: &isCorrect}
		}
		s.AddQuestion(model.Question{
			Title:           "Question",
			Text:            "Pick one",
			Position:        i + 1,
			PossibleAnswers: answers,
		})
	}
}

// FailNext makes the next len(statuses) requests to route answer with the
// given statuses instead of being handled
func (s *Server) FailNext(route string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = append(s.failures[route], statuses...)
}

// Stall delays every response on route by d
func (s *Server) Stall(route string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stalls[route] = d
}

// Hits returns how many requests reached route, failures included
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// Headers returns the request headers seen on route, in arrival order
func (s *Server) Headers(route string) []http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]http.Header(nil), s.headers[route]...)
}

// Participations returns every recorded submission
func (s *Server) Participations() []Participation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Participation(nil), s.participations...)
}

// Questions returns the stored questions ordered by position
func (s *Server) Questions() []model.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orderedLocked()
}

func (s *Server) insertLocked(q model.Question) model.QuestionID {
	if q.ID == 0 {
		q.ID = s.nextID
	}
	if q.ID >= s.nextID {
		s.nextID = q.ID + 1
	}
	s.questions[q.ID] = q
	return q.ID
}

func (s *Server) orderedLocked() []model.Question {
	out := make([]model.Question, 0, len(s.questions))
	for _, q := range s.questions {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func (s *Server) byPositionLocked(position int) (model.Question, bool) {
	for _, q := range s.questions {
		if q.Position == position {
			return q, true
		}
	}
	return model.Question{}, false
}

// score compares answers with the stored correct indexes
func (s *Server) scoreLocked(p request.Participation) (int, []model.AnswerSummary) {
	ordered := s.orderedLocked()
	summaries := make([]model.AnswerSummary, len(ordered))
	score := 0
	for i, q := range ordered {
		correct := q.CorrectAnswerIndex()
		correctPos := correct + 1
		summaries[i].CorrectAnswerPosition = &correctPos
		if i < len(p.Answers) && p.Answers[i] != nil && *p.Answers[i] == correct {
			summaries[i].WasCorrect = true
			score++
		}
	}
	return score, summaries
}

// publicQuestion strips correctness flags from a question
func publicQuestion(q model.Question) model.Question {
	answers := make([]model.Answer, len(q.PossibleAnswers))
	for i, a := range q.PossibleAnswers {
		answers[i] = model.Answer{ID: a.ID, Text: a.Text}
	}
	q.PossibleAnswers = answers
	return q
}
