package participation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/quizclient/internal/api/apierr"
	"github.com/mcoot/quizclient/internal/model"
)

// User-facing messages
const (
	MsgEmptyPlayerName = "Veuillez saisir votre nom."
	MsgEmptyQuiz       = "Le quiz ne contient aucune question."
	MsgLoadQuizFailed  = "Impossible de charger le quiz."
	MsgLoadFailed      = "Impossible de charger la question."
	MsgSubmitFailed    = "Erreur lors de l'envoi de vos réponses."
	msgCompletedFormat = "Quiz terminé ! Votre score : %d/%d"
)

// Gateway is the subset of the API client the controller needs
type Gateway interface {
	GetQuizInfo(ctx context.Context) (*model.QuizInfo, error)
	GetQuestionByPosition(ctx context.Context, position int) (*model.Question, error)
	SubmitParticipation(ctx context.Context, playerName string, answers []*int) (*model.ScoreResult, error)
}

// Notifier receives the user-facing outcome of each action
type Notifier interface {
	NotifySuccess(message string, duration ...time.Duration) int64
	NotifyWarning(message string, duration ...time.Duration) int64
	HandleAPIError(err error, defaultMessage string) int64
}

// Snapshot is a consistent view of the controller for presentation
type Snapshot struct {
	State    model.ParticipationState
	Question *model.Question
	Score    *model.ScoreResult
}

// Controller drives one player through the quiz:
// NotStarted -> InProgress(1..size) -> Submitting -> Completed.
// At most one network action runs at a time.
type Controller struct {
	gateway  Gateway
	notifier Notifier
	storage  *Storage
	logger   *slog.Logger

	mu       sync.Mutex
	state    model.ParticipationState
	question *model.Question
	score    *model.ScoreResult
	busy     bool
}

// NewController creates a new ParticipationController
func NewController(gateway Gateway, notifier Notifier, storage *Storage, logger *slog.Logger) *Controller {
	return &Controller{
		gateway:  gateway,
		notifier: notifier,
		storage:  storage,
		logger:   logger.With(slog.String("component", "participation")),
		state:    model.ParticipationState{Phase: model.PhaseNotStarted},
	}
}

// Start begins a participation for playerName: it loads the quiz size and
// the first question. On failure the controller stays NotStarted.
func (c *Controller) Start(ctx context.Context, playerName string) error {
	name := strings.TrimSpace(playerName)
	if name == "" {
		return apierr.NewValidation(model.ErrEmptyPlayerName, MsgEmptyPlayerName)
	}

	if err := c.acquire(model.PhaseNotStarted); err != nil {
		return err
	}
	defer c.release()

	info, err := c.gateway.GetQuizInfo(ctx)
	if err != nil {
		c.notifier.HandleAPIError(err, MsgLoadQuizFailed)
		return err
	}
	if info.Size <= 0 {
		c.notifier.NotifyWarning(MsgEmptyQuiz)
		return apierr.NewValidation(model.ErrEmptyQuiz, MsgEmptyQuiz)
	}

	question, err := c.gateway.GetQuestionByPosition(ctx, 1)
	if err != nil {
		c.notifier.HandleAPIError(err, MsgLoadFailed)
		return err
	}

	c.mu.Lock()
	c.state = model.ParticipationState{
		Phase:            model.PhaseInProgress,
		PlayerName:       name,
		QuizSize:         info.Size,
		CurrentPosition:  1,
		SubmittedAnswers: make([]*int, info.Size),
	}
	c.question = question
	c.score = nil
	c.mu.Unlock()

	if c.storage != nil {
		if err := c.storage.SavePlayerName(ctx, name); err != nil {
			c.logger.Warn("failed to save player name", slog.String("error", err.Error()))
		}
	}

	c.logger.Info("participation started",
		slog.String("player", name),
		slog.Int("quiz_size", info.Size),
	)
	return nil
}

// SelectAnswer records the selection for the current question. Only the
// last selection counts.
func (c *Controller) SelectAnswer(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy {
		return model.ErrOperationInProgress
	}
	if c.state.Phase != model.PhaseInProgress {
		return model.ErrInvalidState
	}
	if c.question == nil || !c.question.HasAnswer(index) {
		return model.ErrInvalidAnswer
	}

	c.state.SelectedAnswerIndex = &index
	return nil
}

// Advance commits the current selection and moves on: it fetches the next
// question, or submits every answer when on the last one. Skipping an answer
// is only allowed on the last question, where it is sent as "no answer".
func (c *Controller) Advance(ctx context.Context) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return model.ErrOperationInProgress
	}
	if c.state.Phase != model.PhaseInProgress {
		c.mu.Unlock()
		return model.ErrInvalidState
	}

	last := c.state.IsLastPosition()
	if !last && c.state.SelectedAnswerIndex == nil {
		c.mu.Unlock()
		return model.ErrNoAnswerSelected
	}

	position := c.state.CurrentPosition
	c.state.SubmittedAnswers[position-1] = copyIndex(c.state.SelectedAnswerIndex)
	c.busy = true
	if last {
		c.state.Phase = model.PhaseSubmitting
	}
	name := c.state.PlayerName
	answers := c.state.Answers()
	c.mu.Unlock()
	defer c.release()

	if last {
		return c.submit(ctx, name, answers)
	}
	return c.next(ctx, position+1)
}

func (c *Controller) next(ctx context.Context, position int) error {
	question, err := c.gateway.GetQuestionByPosition(ctx, position)
	if err != nil {
		c.notifier.HandleAPIError(err, MsgLoadFailed)
		return err
	}

	c.mu.Lock()
	c.state.CurrentPosition = position
	c.state.SelectedAnswerIndex = copyIndex(c.state.SubmittedAnswers[position-1])
	c.question = question
	c.mu.Unlock()
	return nil
}

func (c *Controller) submit(ctx context.Context, name string, answers []*int) error {
	result, err := c.gateway.SubmitParticipation(ctx, name, answers)
	if err != nil {
		c.mu.Lock()
		c.state.Phase = model.PhaseInProgress
		c.mu.Unlock()

		c.logger.Warn("participation submission failed", slog.String("player", name))
		c.notifier.HandleAPIError(err, MsgSubmitFailed)
		return err
	}

	c.mu.Lock()
	c.state.Phase = model.PhaseCompleted
	c.score = result
	c.mu.Unlock()

	if c.storage != nil {
		if err := c.storage.SaveScore(ctx, result); err != nil {
			c.logger.Warn("failed to save score", slog.String("error", err.Error()))
		}
	}

	c.logger.Info("participation completed",
		slog.String("player", name),
		slog.Int("score", result.Score),
	)
	c.notifier.NotifySuccess(fmt.Sprintf(msgCompletedFormat, result.Score, len(answers)))
	return nil
}

// Reset discards the current participation and returns to NotStarted
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy {
		return model.ErrOperationInProgress
	}
	c.state = model.ParticipationState{Phase: model.PhaseNotStarted}
	c.question = nil
	c.score = nil
	return nil
}

// State returns a copy of the participation state
func (c *Controller) State() model.ParticipationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Question returns the question at the current position, or nil
func (c *Controller) Question() *model.Question {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.question
}

// Score returns the result once Completed, or nil
func (c *Controller) Score() *model.ScoreResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.score
}

// Snapshot returns state, question and score read together
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{State: c.stateLocked(), Question: c.question, Score: c.score}
}

// RememberedPlayerName returns the name used in the last participation
func (c *Controller) RememberedPlayerName(ctx context.Context) string {
	if c.storage == nil {
		return ""
	}
	name, _, err := c.storage.PlayerName(ctx)
	if err != nil {
		c.logger.Warn("failed to read player name", slog.String("error", err.Error()))
	}
	return name
}

// LastScore returns the score of the last completed participation
func (c *Controller) LastScore(ctx context.Context) (*model.ScoreResult, bool) {
	if c.storage == nil {
		return nil, false
	}
	score, ok, err := c.storage.Score(ctx)
	if err != nil {
		c.logger.Warn("failed to read last score", slog.String("error", err.Error()))
		return nil, false
	}
	return score, ok
}

// ForgetSaved removes the remembered player name and last score
func (c *Controller) ForgetSaved(ctx context.Context) error {
	if c.storage == nil {
		return nil
	}
	if err := c.storage.Clear(ctx); err != nil {
		return fmt.Errorf("clear participation storage: %w", err)
	}
	c.logger.Info("saved participation cleared")
	return nil
}

// acquire marks the controller busy if it is idle and in the given phase
func (c *Controller) acquire(phase model.ParticipationPhase) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy {
		return model.ErrOperationInProgress
	}
	if c.state.Phase != phase {
		return model.ErrInvalidState
	}
	c.busy = true
	return nil
}

func (c *Controller) release() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

func (c *Controller) stateLocked() model.ParticipationState {
	st := c.state
	st.SelectedAnswerIndex = copyIndex(c.state.SelectedAnswerIndex)
	if c.state.SubmittedAnswers != nil {
		st.SubmittedAnswers = make([]*int, len(c.state.SubmittedAnswers))
		for i, a := range c.state.SubmittedAnswers {
			st.SubmittedAnswers[i] = copyIndex(a)
		}
	}
	return st
}

func copyIndex(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}
