package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/sync/singleflight"

	"github.com/mcoot/quizclient/internal/api/apierr"
	"github.com/mcoot/quizclient/internal/api/request"
	"github.com/mcoot/quizclient/internal/api/response"
	"github.com/mcoot/quizclient/internal/model"
)

// Public endpoints

// GetQuizInfo fetches the quiz size and leaderboard. Concurrent callers
// share a single in-flight request; it is detached from any one caller's
// cancellation and bounded by the client timeout instead.
func (c *Client) GetQuizInfo(ctx context.Context) (*model.QuizInfo, error) {
	flightCtx := context.WithoutCancel(ctx)
	ch := c.quizInfo.DoChan("quiz-info", func() (any, error) {
		resp, err := c.Call(flightCtx, http.MethodGet, "/quiz-info", nil, "")
		if err != nil {
			return nil, err
		}
		return decode[model.QuizInfo](resp)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, apierr.NewTransport(ctx.Err(), errors.Is(ctx.Err(), context.DeadlineExceeded))
	}
	if res.Err != nil {
		return nil, res.Err
	}

	shared := res.Val.(*model.QuizInfo)
	info := *shared
	info.Scores = append([]model.ScoreEntry(nil), shared.Scores...)
	return &info, nil
}

// GetQuestionByID fetches a question by its numeric id
func (c *Client) GetQuestionByID(ctx context.Context, id model.QuestionID) (*model.Question, error) {
	resp, err := c.Call(ctx, http.MethodGet, fmt.Sprintf("/questions/%d", id), nil, "")
	if err != nil {
		return nil, err
	}
	return decodeQuestion(resp)
}

// GetQuestionByPosition fetches the question at a 1-based position
func (c *Client) GetQuestionByPosition(ctx context.Context, position int) (*model.Question, error) {
	resp, err := c.Call(ctx, http.MethodGet, fmt.Sprintf("/questions?position=%d", position), nil, "")
	if err != nil {
		return nil, err
	}
	return decodeQuestion(resp)
}

// SubmitParticipation sends the player's ordered answers and returns the
// score. A nil answer means "no answer".
func (c *Client) SubmitParticipation(ctx context.Context, playerName string, answers []*int) (*model.ScoreResult, error) {
	body := request.Participation{PlayerName: playerName, Answers: answers}
	if body.Answers == nil {
		body.Answers = []*int{}
	}

	resp, err := c.Call(ctx, http.MethodPost, "/participations", body, "")
	if err != nil {
		return nil, err
	}
	return decode[model.ScoreResult](resp)
}

// Auth endpoint

// AdminLogin exchanges the admin password for a bearer token
func (c *Client) AdminLogin(ctx context.Context, password string) (string, error) {
	resp, err := c.Call(ctx, http.MethodPost, "/login", request.Login{Password: password}, "")
	if err != nil {
		return "", err
	}
	login, err := decode[response.Login](resp)
	if err != nil {
		return "", err
	}
	if login.Token == "" {
		return "", apierr.NewDecode(resp.Status, resp.Data, fmt.Errorf("login response has no token"))
	}
	return login.Token, nil
}

// Admin endpoints (require token)

// GetAllQuestions lists every question, including which answers are correct
func (c *Client) GetAllQuestions(ctx context.Context, token string) ([]model.Question, error) {
	resp, err := c.Call(ctx, http.MethodGet, "/questions/all", nil, token)
	if err != nil {
		return nil, err
	}
	list, err := decode[response.QuestionList](resp)
	if err != nil {
		return nil, err
	}
	return list.Questions, nil
}

// CreateQuestion creates a question and returns its id
func (c *Client) CreateQuestion(ctx context.Context, q request.QuestionInput, token string) (*response.Created, error) {
	resp, err := c.Call(ctx, http.MethodPost, "/questions", q, token)
	if err != nil {
		return nil, err
	}
	return decode[response.Created](resp)
}

// UpdateQuestion applies a partial update to a question
func (c *Client) UpdateQuestion(ctx context.Context, id model.QuestionID, patch request.QuestionPatch, token string) (*response.Message, error) {
	resp, err := c.Call(ctx, http.MethodPut, fmt.Sprintf("/questions/%d", id), patch, token)
	if err != nil {
		return nil, err
	}
	return decodeMessage(resp)
}

// DeleteQuestion deletes a single question
func (c *Client) DeleteQuestion(ctx context.Context, id model.QuestionID, token string) error {
	_, err := c.Call(ctx, http.MethodDelete, fmt.Sprintf("/questions/%d", id), nil, token)
	return err
}

// DeleteAllQuestions deletes every question
func (c *Client) DeleteAllQuestions(ctx context.Context, token string) (*response.Message, error) {
	resp, err := c.Call(ctx, http.MethodDelete, "/questions/all", nil, token)
	if err != nil {
		return nil, err
	}
	return decodeMessage(resp)
}

// DeleteAllParticipations deletes every recorded participation
func (c *Client) DeleteAllParticipations(ctx context.Context, token string) (*response.Message, error) {
	resp, err := c.Call(ctx, http.MethodDelete, "/participations/all", nil, token)
	if err != nil {
		return nil, err
	}
	return decodeMessage(resp)
}

// decode unmarshals a response body into T
func decode[T any](resp *Response) (*T, error) {
	var v T
	if err := json.Unmarshal(resp.Data, &v); err != nil {
		return nil, apierr.NewDecode(resp.Status, resp.Data, err)
	}
	return &v, nil
}

// decodeMessage tolerates empty bodies (204)
func decodeMessage(resp *Response) (*response.Message, error) {
	if len(resp.Data) == 0 {
		return &response.Message{}, nil
	}
	return decode[response.Message](resp)
}

// decodeQuestion accepts both a bare question and {"question": {...}}
func decodeQuestion(resp *Response) (*model.Question, error) {
	var wrapped struct {
		Question *model.Question `json:"question"`
	}
	if err := json.Unmarshal(resp.Data, &wrapped); err != nil {
		return nil, apierr.NewDecode(resp.Status, resp.Data, err)
	}
	if wrapped.Question != nil {
		return wrapped.Question, nil
	}
	return decode[model.Question](resp)
}
