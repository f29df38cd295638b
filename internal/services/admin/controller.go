package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mcoot/quizclient/internal/api/apierr"
	"github.com/mcoot/quizclient/internal/api/request"
	"github.com/mcoot/quizclient/internal/api/response"
	"github.com/mcoot/quizclient/internal/model"
)

// User-facing messages
const (
	MsgEmptyPassword   = "Veuillez saisir le mot de passe."
	MsgLoginFailed     = "Échec de la connexion."
	MsgLoginSucceeded  = "Connexion réussie."
	MsgLoggedOut       = "Vous êtes déconnecté."
	MsgLoginRequired   = "Veuillez vous connecter pour accéder à l'administration."
	MsgInvalidQuestion = "Question invalide : vérifiez le titre, le texte, la position et les réponses (une seule réponse correcte)."
	MsgLoadFailed      = "Impossible de charger les questions."
	MsgCreateFailed    = "Impossible de créer la question."
	MsgCreated         = "Question créée."
	MsgUpdateFailed    = "Impossible de modifier la question."
	MsgUpdated         = "Question modifiée."
	MsgDeleteFailed    = "Impossible de supprimer la question."
	MsgDeleted         = "Question supprimée."
	MsgDeleteAllFailed = "Impossible de supprimer les questions."
	MsgDeletedAll      = "Toutes les questions ont été supprimées."
	MsgClearFailed     = "Impossible de supprimer les participations."
	MsgClearedAll      = "Toutes les participations ont été supprimées."
)

// Gateway is the subset of the API client used by admin flows
type Gateway interface {
	AdminLogin(ctx context.Context, password string) (string, error)
	GetAllQuestions(ctx context.Context, token string) ([]model.Question, error)
	CreateQuestion(ctx context.Context, q request.QuestionInput, token string) (*response.Created, error)
	UpdateQuestion(ctx context.Context, id model.QuestionID, patch request.QuestionPatch, token string) (*response.Message, error)
	DeleteQuestion(ctx context.Context, id model.QuestionID, token string) error
	DeleteAllQuestions(ctx context.Context, token string) (*response.Message, error)
	DeleteAllParticipations(ctx context.Context, token string) (*response.Message, error)
}

// TokenStore persists the admin session
type TokenStore interface {
	SaveToken(ctx context.Context, token string) error
	GetToken(ctx context.Context) (string, bool, error)
	ClearToken(ctx context.Context) error
}

// Notifier receives the user-facing outcome of each action
type Notifier interface {
	NotifySuccess(message string, duration ...time.Duration) int64
	NotifyWarning(message string, duration ...time.Duration) int64
	NotifyInfo(message string, duration ...time.Duration) int64
	HandleAPIError(err error, defaultMessage string) int64
}

// Controller runs the admin flows. Every call reads the token from the
// store; a 401 from the backend ends the session.
type Controller struct {
	gateway  Gateway
	tokens   TokenStore
	notifier Notifier
	validate *validator.Validate
	logger   *slog.Logger
}

// NewController creates a new AdminController
func NewController(gateway Gateway, tokens TokenStore, notifier Notifier, logger *slog.Logger) *Controller {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterStructValidation(questionInputValidation, request.QuestionInput{})
	validate.RegisterStructValidation(questionPatchValidation, request.QuestionPatch{})

	return &Controller{
		gateway:  gateway,
		tokens:   tokens,
		notifier: notifier,
		validate: validate,
		logger:   logger.With(slog.String("component", "admin")),
	}
}

// Login exchanges the password for a token and stores it
func (c *Controller) Login(ctx context.Context, password string) error {
	if strings.TrimSpace(password) == "" {
		c.notifier.NotifyWarning(MsgEmptyPassword)
		return apierr.NewValidation(errors.New("password is required"), MsgEmptyPassword)
	}

	token, err := c.gateway.AdminLogin(ctx, password)
	if err != nil {
		c.notifier.HandleAPIError(err, MsgLoginFailed)
		return err
	}

	if err := c.tokens.SaveToken(ctx, token); err != nil {
		return fmt.Errorf("save admin token: %w", err)
	}

	c.logger.Info("admin logged in")
	c.notifier.NotifySuccess(MsgLoginSucceeded)
	return nil
}

// Logout forgets the stored token
func (c *Controller) Logout(ctx context.Context) error {
	if err := c.tokens.ClearToken(ctx); err != nil {
		return err
	}
	c.logger.Info("admin logged out")
	c.notifier.NotifyInfo(MsgLoggedOut)
	return nil
}

// IsAuthenticated reports whether a valid token is stored
func (c *Controller) IsAuthenticated(ctx context.Context) bool {
	_, ok, err := c.tokens.GetToken(ctx)
	return err == nil && ok
}

// ListQuestions returns every question with its correct answer flagged
func (c *Controller) ListQuestions(ctx context.Context) ([]model.Question, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	questions, err := c.gateway.GetAllQuestions(ctx, token)
	if err != nil {
		return nil, c.fail(ctx, err, MsgLoadFailed)
	}
	return questions, nil
}

// CreateQuestion validates and creates a question, returning its id
func (c *Controller) CreateQuestion(ctx context.Context, input request.QuestionInput) (model.QuestionID, error) {
	if err := c.check(input); err != nil {
		return 0, err
	}
	token, err := c.token(ctx)
	if err != nil {
		return 0, err
	}

	created, err := c.gateway.CreateQuestion(ctx, input, token)
	if err != nil {
		return 0, c.fail(ctx, err, MsgCreateFailed)
	}

	c.logger.Info("question created", slog.Int("id", int(created.ID)), slog.Int("position", input.Position))
	c.notifier.NotifySuccess(MsgCreated)
	return created.ID, nil
}

// UpdateQuestion validates and applies a partial update
func (c *Controller) UpdateQuestion(ctx context.Context, id model.QuestionID, patch request.QuestionPatch) error {
	if err := c.check(patch); err != nil {
		return err
	}
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	if _, err := c.gateway.UpdateQuestion(ctx, id, patch, token); err != nil {
		return c.fail(ctx, err, MsgUpdateFailed)
	}

	c.logger.Info("question updated", slog.Int("id", int(id)))
	c.notifier.NotifySuccess(MsgUpdated)
	return nil
}

// DeleteQuestion deletes a single question
func (c *Controller) DeleteQuestion(ctx context.Context, id model.QuestionID) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	if err := c.gateway.DeleteQuestion(ctx, id, token); err != nil {
		return c.fail(ctx, err, MsgDeleteFailed)
	}

	c.logger.Info("question deleted", slog.Int("id", int(id)))
	c.notifier.NotifySuccess(MsgDeleted)
	return nil
}

// DeleteAllQuestions deletes every question
func (c *Controller) DeleteAllQuestions(ctx context.Context) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	if _, err := c.gateway.DeleteAllQuestions(ctx, token); err != nil {
		return c.fail(ctx, err, MsgDeleteAllFailed)
	}

	c.logger.Info("all questions deleted")
	c.notifier.NotifySuccess(MsgDeletedAll)
	return nil
}

// DeleteAllParticipations deletes every recorded participation
func (c *Controller) DeleteAllParticipations(ctx context.Context) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	if _, err := c.gateway.DeleteAllParticipations(ctx, token); err != nil {
		return c.fail(ctx, err, MsgClearFailed)
	}

	c.logger.Info("all participations deleted")
	c.notifier.NotifySuccess(MsgClearedAll)
	return nil
}

// token returns the stored token or ErrNotAuthenticated
func (c *Controller) token(ctx context.Context) (string, error) {
	token, ok, err := c.tokens.GetToken(ctx)
	if err != nil {
		return "", fmt.Errorf("read admin token: %w", err)
	}
	if !ok {
		c.notifier.NotifyWarning(MsgLoginRequired)
		return "", model.ErrNotAuthenticated
	}
	return token, nil
}

// fail notifies once and ends the session when the backend rejected the token
func (c *Controller) fail(ctx context.Context, err error, defaultMessage string) error {
	if apierr.IsUnauthorized(err) {
		c.logger.Info("admin token rejected, clearing session")
		if clearErr := c.tokens.ClearToken(ctx); clearErr != nil {
			c.logger.Warn("failed to clear admin token", slog.String("error", clearErr.Error()))
		}
	}
	c.notifier.HandleAPIError(err, defaultMessage)
	return err
}

// check validates a request body before it is sent
func (c *Controller) check(v any) error {
	err := c.validate.Struct(v)
	if err == nil {
		return nil
	}

	var fields []string
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s(%s)", fe.Namespace(), fe.Tag()))
		}
	}

	c.notifier.NotifyWarning(MsgInvalidQuestion)
	return apierr.NewValidation(
		fmt.Errorf("%w: %s", model.ErrInvalidQuestion, strings.Join(fields, ", ")),
		MsgInvalidQuestion,
	)
}

func questionInputValidation(sl validator.StructLevel) {
	q := sl.Current().Interface().(request.QuestionInput)
	if len(q.PossibleAnswers) > 0 && countCorrect(q.PossibleAnswers) != 1 {
		sl.ReportError(q.PossibleAnswers, "PossibleAnswers", "possibleAnswers", "one_correct", "")
	}
}

func questionPatchValidation(sl validator.StructLevel) {
	p := sl.Current().Interface().(request.QuestionPatch)
	if p.PossibleAnswers != nil && countCorrect(p.PossibleAnswers) != 1 {
		sl.ReportError(p.PossibleAnswers, "PossibleAnswers", "possibleAnswers", "one_correct", "")
	}
}

func countCorrect(answers []request.AnswerInput) int {
	n := 0
	for _, a := range answers {
		if a.IsCorrect {
			n++
		}
	}
	return n
}
