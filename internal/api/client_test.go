package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/quizclient/internal/api"
	"github.com/mcoot/quizclient/internal/api/apierr"
	"github.com/mcoot/quizclient/internal/api/request"
	"github.com/mcoot/quizclient/internal/model"
	"github.com/mcoot/quizclient/internal/testutil"
	"github.com/mcoot/quizclient/internal/testutil/fakebackend"
)

type ClientSuite struct {
	suite.Suite
	backend *fakebackend.Server
	client  *api.Client
	cfg     api.Config
	ctx     context.Context
	retries *testutil.RetryRecorder
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.backend = fakebackend.New("")
	s.cfg = api.DefaultConfig()
	s.cfg.BaseURL = s.backend.Start(s.T())
	s.retries = &testutil.RetryRecorder{}
	s.client = s.newClient(s.cfg)
	s.ctx = context.Background()
}

func (s *ClientSuite) newClient(cfg api.Config) *api.Client {
	return api.NewClient(cfg, testutil.NopLogger(), api.WithRetryTimer(s.retries.NewTimer))
}

func (s *ClientSuite) login() string {
	token, err := s.client.AdminLogin(s.ctx, fakebackend.DefaultPassword)
	s.Require().NoError(err)
	return token
}

func (s *ClientSuite) requireAPIError(err error) *apierr.Error {
	s.Require().Error(err)
	apiErr, ok := apierr.As(err)
	s.Require().True(ok, "expected *apierr.Error, got %T", err)
	return apiErr
}

// Headers

func (s *ClientSuite) TestCallSendsJSONHeadersAndRequestID() {
	_, err := s.client.GetQuizInfo(s.ctx)
	s.Require().NoError(err)

	headers := s.backend.Headers(fakebackend.RouteQuizInfo)
	s.Require().Len(headers, 1)
	s.Equal("application/json", headers[0].Get("Content-Type"))
	s.Equal("application/json", headers[0].Get("Accept"))
	s.NotEmpty(headers[0].Get(api.RequestIDHeader))
	s.Empty(headers[0].Get("Authorization"))
}

func (s *ClientSuite) TestAdminCallSendsBearerToken() {
	token := s.login()

	_, err := s.client.GetAllQuestions(s.ctx, token)
	s.Require().NoError(err)

	headers := s.backend.Headers(fakebackend.RouteListQuestions)
	s.Require().Len(headers, 1)
	s.Equal("Bearer "+token, headers[0].Get("Authorization"))
}

func (s *ClientSuite) TestEachAttemptGetsItsOwnRequestID() {
	s.backend.FailNext(fakebackend.RouteQuizInfo, http.StatusInternalServerError)

	_, err := s.client.GetQuizInfo(s.ctx)
	s.Require().NoError(err)

	headers := s.backend.Headers(fakebackend.RouteQuizInfo)
	s.Require().Len(headers, 2)
	s.NotEqual(headers[0].Get(api.RequestIDHeader), headers[1].Get(api.RequestIDHeader))
}

// Retry policy

func (s *ClientSuite) TestServerErrorIsRetriedExactlyOnce() {
	s.backend.FailNext(fakebackend.RouteQuizInfo, http.StatusServiceUnavailable, http.StatusServiceUnavailable)

	_, err := s.client.GetQuizInfo(s.ctx)

	apiErr := s.requireAPIError(err)
	s.Equal(apierr.KindServer, apiErr.Kind)
	s.Equal(http.StatusServiceUnavailable, apiErr.StatusCode)
	s.Equal(apierr.MsgUnavailable, apiErr.UserMessage)
	s.Equal(2, s.backend.Hits(fakebackend.RouteQuizInfo))
	s.Equal([]time.Duration{time.Second}, s.retries.Delays())
}

func (s *ClientSuite) TestServerErrorThenSuccessRecovers() {
	s.backend.SeedQuiz(0, 1, 2)
	s.backend.FailNext(fakebackend.RouteQuizInfo, http.StatusInternalServerError)

	info, err := s.client.GetQuizInfo(s.ctx)

	s.Require().NoError(err)
	s.Equal(3, info.Size)
	s.Equal(2, s.backend.Hits(fakebackend.RouteQuizInfo))
}

func (s *ClientSuite) TestClientErrorIsNotRetried() {
	_, err := s.client.GetQuestionByPosition(s.ctx, 99)

	apiErr := s.requireAPIError(err)
	s.Equal(apierr.KindClientRequest, apiErr.Kind)
	s.Equal(http.StatusNotFound, apiErr.StatusCode)
	s.Equal(apierr.MsgNotFound, apiErr.UserMessage)
	s.Equal("Question not found", apiErr.ServerMessage)
	s.Equal(1, s.backend.Hits(fakebackend.RouteQuestionByPosition))
	s.Empty(s.retries.Delays())
}

func (s *ClientSuite) TestZeroRetriesMakesSingleAttempt() {
	s.backend.FailNext(fakebackend.RouteQuizInfo, http.StatusInternalServerError)

	_, err := s.client.CallWithRetries(s.ctx, 0, http.MethodGet, "/quiz-info", nil, "")

	s.Equal(http.StatusInternalServerError, apierr.StatusCode(err))
	s.Equal(1, s.backend.Hits(fakebackend.RouteQuizInfo))
}

func (s *ClientSuite) TestCustomRetryDelayIsUsed() {
	cfg := s.cfg
	cfg.RetryDelay = 250 * time.Millisecond
	client := s.newClient(cfg)
	s.backend.FailNext(fakebackend.RouteQuizInfo, http.StatusBadGateway, http.StatusBadGateway)

	_, err := client.GetQuizInfo(s.ctx)

	s.Require().Error(err)
	s.Equal([]time.Duration{250 * time.Millisecond}, s.retries.Delays())
}

// Error normalization

func (s *ClientSuite) TestPayloadTooLarge() {
	token := s.login()
	s.backend.FailNext(fakebackend.RouteCreateQuestion, http.StatusRequestEntityTooLarge)

	_, err := s.client.CreateQuestion(s.ctx, request.QuestionInput{Title: "t", Text: "x", Position: 1}, token)

	apiErr := s.requireAPIError(err)
	s.Equal(apierr.MsgPayloadTooLarge, apiErr.UserMessage)
	s.Equal(1, s.backend.Hits(fakebackend.RouteCreateQuestion))
}

func (s *ClientSuite) TestUnauthorizedWithBadToken() {
	_, err := s.client.GetAllQuestions(s.ctx, "not-a-token")

	apiErr := s.requireAPIError(err)
	s.True(apierr.IsUnauthorized(err))
	s.Equal(apierr.MsgUnauthorized, apiErr.UserMessage)
	s.Equal("Token is invalid or expired", apiErr.ServerMessage)
}

func (s *ClientSuite) TestWrongPasswordIsUnauthorized() {
	_, err := s.client.AdminLogin(s.ctx, "wrong")

	s.True(apierr.IsUnauthorized(err))
}

func (s *ClientSuite) TestUnmappedStatusUsesServerMessage() {
	token := s.login()
	s.backend.SeedQuiz(0)

	_, err := s.client.CreateQuestion(s.ctx, request.QuestionInput{
		Title:    "dup",
		Text:     "dup",
		Position: 1,
	}, token)

	apiErr := s.requireAPIError(err)
	s.Equal(http.StatusConflict, apiErr.StatusCode)
	s.Equal("Position already used", apiErr.UserMessage)
}

func (s *ClientSuite) TestTimeoutIsTransportFailure() {
	cfg := s.cfg
	cfg.Timeout = 50 * time.Millisecond
	client := s.newClient(cfg)
	s.backend.Stall(fakebackend.RouteQuizInfo, 500*time.Millisecond)

	_, err := client.GetQuizInfo(s.ctx)

	apiErr := s.requireAPIError(err)
	s.Equal(apierr.KindTransport, apiErr.Kind)
	s.Equal(apierr.StatusNoResponse, apiErr.StatusCode)
	s.True(apiErr.Timeout)
	s.Equal(apierr.MsgTimeout, apiErr.UserMessage)
	s.Equal(2, s.backend.Hits(fakebackend.RouteQuizInfo))
}

func (s *ClientSuite) TestConnectionRefusedIsRetriedTransportFailure() {
	closed := httptest.NewServer(http.NotFoundHandler())
	cfg := s.cfg
	cfg.BaseURL = closed.URL
	closed.Close()
	client := s.newClient(cfg)

	_, err := client.GetQuizInfo(s.ctx)

	apiErr := s.requireAPIError(err)
	s.Equal(apierr.KindTransport, apiErr.Kind)
	s.Equal(apierr.StatusNoResponse, apiErr.StatusCode)
	s.Equal(apierr.MsgNoResponse, apiErr.UserMessage)
	s.Len(s.retries.Delays(), 1)
}

func (s *ClientSuite) TestMalformedBaseURLIsConfigFailure() {
	cfg := s.cfg
	cfg.BaseURL = "http://[::1"
	client := s.newClient(cfg)

	_, err := client.GetQuizInfo(s.ctx)

	apiErr := s.requireAPIError(err)
	s.Equal(apierr.KindConfig, apiErr.Kind)
	s.Equal(apierr.StatusNotBuilt, apiErr.StatusCode)
	s.Equal(apierr.MsgConfig, apiErr.UserMessage)
	s.Empty(s.retries.Delays())
}

func (s *ClientSuite) TestUnencodableBodyIsConfigFailure() {
	_, err := s.client.Call(s.ctx, http.MethodPost, "/participations", make(chan int), "")

	s.True(apierr.IsKind(err, apierr.KindConfig))
	s.Equal(0, s.backend.Hits(fakebackend.RouteSubmitParticipation))
}

func (s *ClientSuite) TestCancelledContextIsNotRetried() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.client.GetQuizInfo(ctx)

	s.True(apierr.IsKind(err, apierr.KindTransport))
	s.Empty(s.retries.Delays())
}

// Endpoints

func (s *ClientSuite) TestQuestionByPositionHidesCorrectness() {
	s.backend.SeedQuiz(2)

	q, err := s.client.GetQuestionByPosition(s.ctx, 1)

	s.Require().NoError(err)
	s.Equal(1, q.Position)
	s.Len(q.PossibleAnswers, 4)
	s.Equal(-1, q.CorrectAnswerIndex())
}

func (s *ClientSuite) TestQuestionByIDUnwrapsEnvelope() {
	id := s.backend.AddQuestion(model.Question{
		Title:           "Capitale",
		Text:            "Quelle est la capitale de la France ?",
		Position:        1,
		PossibleAnswers: []model.Answer{{Text: "Paris"}, {Text: "Lyon"}},
	})

	q, err := s.client.GetQuestionByID(s.ctx, id)

	s.Require().NoError(err)
	s.Equal(id, q.ID)
	s.Equal("Capitale", q.Title)
	s.Len(q.PossibleAnswers, 2)
}

func (s *ClientSuite) TestSubmitParticipationSendsNullForSkippedAnswer() {
	s.backend.SeedQuiz(0, 1)
	first := 0

	result, err := s.client.SubmitParticipation(s.ctx, "Alice", []*int{&first, nil})

	s.Require().NoError(err)
	s.Equal(1, result.Score)
	s.Require().Len(result.AnswersSummaries, 2)
	s.True(result.AnswersSummaries[0].WasCorrect)
	s.False(result.AnswersSummaries[1].WasCorrect)

	recorded := s.backend.Participations()
	s.Require().Len(recorded, 1)
	s.Equal("Alice", recorded[0].PlayerName)
	s.Require().Len(recorded[0].Answers, 2)
	s.Nil(recorded[0].Answers[1])
}

func (s *ClientSuite) TestQuizInfoReportsScores() {
	s.backend.SeedQuiz(0)
	zero := 0
	_, err := s.client.SubmitParticipation(s.ctx, "Bob", []*int{&zero})
	s.Require().NoError(err)

	info, err := s.client.GetQuizInfo(s.ctx)

	s.Require().NoError(err)
	s.Equal(1, info.Size)
	s.Require().Len(info.Scores, 1)
	s.Equal("Bob", info.Scores[0].PlayerName)
	s.Equal(1, info.Scores[0].Score)
}

func (s *ClientSuite) TestConcurrentQuizInfoSharesOneRequest() {
	s.backend.SeedQuiz(0, 0)
	s.backend.Stall(fakebackend.RouteQuizInfo, 200*time.Millisecond)

	const callers = 5
	var wg sync.WaitGroup
	start := make(chan struct{})
	sizes := make([]int, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			info, err := s.client.GetQuizInfo(s.ctx)
			errs[i] = err
			if err == nil {
				sizes[i] = info.Size
			}
		}()
	}
	close(start)
	wg.Wait()

	for i := range callers {
		s.NoError(errs[i])
		s.Equal(2, sizes[i])
	}
	s.Equal(1, s.backend.Hits(fakebackend.RouteQuizInfo))
}

func (s *ClientSuite) TestQuizInfoCallerDeadlineDoesNotFailOthers() {
	s.backend.SeedQuiz(0, 0)
	s.backend.Stall(fakebackend.RouteQuizInfo, 300*time.Millisecond)

	shortCtx, cancel := context.WithTimeout(s.ctx, 50*time.Millisecond)
	defer cancel()

	leaderErr := make(chan error, 1)
	go func() {
		_, err := s.client.GetQuizInfo(shortCtx)
		leaderErr <- err
	}()
	s.Eventually(func() bool {
		return s.backend.Hits(fakebackend.RouteQuizInfo) == 1
	}, time.Second, 5*time.Millisecond)

	info, err := s.client.GetQuizInfo(s.ctx)

	s.Require().NoError(err)
	s.Equal(2, info.Size)
	apiErr := s.requireAPIError(<-leaderErr)
	s.Equal(apierr.KindTransport, apiErr.Kind)
	s.True(apiErr.Timeout)
	s.Equal(1, s.backend.Hits(fakebackend.RouteQuizInfo))
}

func (s *ClientSuite) TestAdminQuestionLifecycle() {
	token := s.login()

	created, err := s.client.CreateQuestion(s.ctx, request.QuestionInput{
		Title:    "Couleur",
		Text:     "De quelle couleur est le ciel ?",
		Position: 1,
		PossibleAnswers: []request.AnswerInput{
			{Text: "Bleu", IsCorrect: true},
			{Text: "Vert"},
		},
	}, token)
	s.Require().NoError(err)
	s.NotZero(created.ID)

	all, err := s.client.GetAllQuestions(s.ctx, token)
	s.Require().NoError(err)
	s.Require().Len(all, 1)
	s.Equal(0, all[0].CorrectAnswerIndex())

	title := "Ciel"
	_, err = s.client.UpdateQuestion(s.ctx, created.ID, request.QuestionPatch{Title: &title}, token)
	s.Require().NoError(err)

	q, err := s.client.GetQuestionByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("Ciel", q.Title)
	s.Equal("De quelle couleur est le ciel ?", q.Text)

	s.Require().NoError(s.client.DeleteQuestion(s.ctx, created.ID, token))
	err = s.client.DeleteQuestion(s.ctx, created.ID, token)
	s.Equal(http.StatusNotFound, apierr.StatusCode(err))
}

func (s *ClientSuite) TestAdminDeleteAll() {
	token := s.login()
	s.backend.SeedQuiz(0, 1)
	zero := 0
	_, err := s.client.SubmitParticipation(s.ctx, "Carol", []*int{&zero, &zero})
	s.Require().NoError(err)

	msg, err := s.client.DeleteAllParticipations(s.ctx, token)
	s.Require().NoError(err)
	s.NotEmpty(msg.Message)
	s.Empty(s.backend.Participations())

	_, err = s.client.DeleteAllQuestions(s.ctx, token)
	s.Require().NoError(err)
	s.Empty(s.backend.Questions())
}
