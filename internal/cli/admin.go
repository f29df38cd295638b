package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/quizclient/internal/api/request"
	"github.com/mcoot/quizclient/internal/model"
)

// passwordEnv is read by admin login when --password is not set
const passwordEnv = "QUIZ_ADMIN_PASSWORD"

var errNotConfirmed = errors.New("refusing to delete without --yes")

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administer questions and participations",
	}

	cmd.AddCommand(newAdminLoginCmd())
	cmd.AddCommand(newAdminLogoutCmd())
	cmd.AddCommand(newAdminStatusCmd())
	cmd.AddCommand(newQuestionsCmd())
	cmd.AddCommand(newParticipationsCmd())

	return cmd
}

func newAdminLoginCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as administrator",
		Long: `Log in as administrator. The password is taken from --password, then
from ` + passwordEnv + `, then read from standard input.`,
		Args: cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv(passwordEnv)
			}
			if password == "" {
				scanner := bufio.NewScanner(cmd.InOrStdin())
				if scanner.Scan() {
					password = scanner.Text()
				}
			}
			return app.AdminController.Login(cmd.Context(), password)
		}),
	}

	cmd.Flags().StringVar(&password, "password", "", "Admin password (env: "+passwordEnv+")")
	return cmd
}

func newAdminLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the admin session",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string) error {
			return app.AdminController.Logout(cmd.Context())
		}),
	}
}

func newAdminStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether an admin session is active",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string) error {
			newOutput(cmd).Print(AdminStatus{Authenticated: app.AdminController.IsAuthenticated(cmd.Context())})
			return nil
		}),
	}
}

func newQuestionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "questions",
		Short: "Manage quiz questions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every question with its correct answer",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string) error {
			questions, err := app.AdminController.ListQuestions(cmd.Context())
			if err != nil {
				return err
			}
			newOutput(cmd).Print(questions)
			return nil
		}),
	})
	cmd.AddCommand(newQuestionCreateCmd())
	cmd.AddCommand(newQuestionUpdateCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a question",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string) error {
			id, err := parseQuestionID(args[0])
			if err != nil {
				return err
			}
			return app.AdminController.DeleteQuestion(cmd.Context(), id)
		}),
	})
	cmd.AddCommand(newConfirmedCmd("delete-all", "Delete every question", func(cmd *cobra.Command) error {
		return app.AdminController.DeleteAllQuestions(cmd.Context())
	}))

	return cmd
}

func newParticipationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "participations",
		Short: "Manage recorded participations",
	}

	cmd.AddCommand(newConfirmedCmd("clear", "Delete every participation", func(cmd *cobra.Command) error {
		return app.AdminController.DeleteAllParticipations(cmd.Context())
	}))

	return cmd
}

// questionFlags are shared by create and update
type questionFlags struct {
	title    string
	text     string
	image    string
	position int
	answers  []string
	correct  int
}

func (f *questionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "Question title")
	cmd.Flags().StringVar(&f.text, "text", "", "Question text")
	cmd.Flags().StringVar(&f.image, "image", "", "Image URL or data URI")
	cmd.Flags().IntVar(&f.position, "position", 0, "1-based position in the quiz")
	cmd.Flags().StringArrayVar(&f.answers, "answer", nil, "Possible answer, repeat for each answer")
	cmd.Flags().IntVar(&f.correct, "correct", 0, "1-based number of the correct answer")
}

func (f *questionFlags) answerInputs() []request.AnswerInput {
	inputs := make([]request.AnswerInput, len(f.answers))
	for i, text := range f.answers {
		inputs[i] = request.AnswerInput{Text: text, IsCorrect: i+1 == f.correct}
	}
	return inputs
}

func newQuestionCreateCmd() *cobra.Command {
	var f questionFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a question",
		Example: `  quizctl admin questions create --title Capitale --position 1 \
    --text "Quelle est la capitale de l'Italie ?" \
    --answer Rome --answer Milan --answer Naples --correct 1`,
		Args: cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string) error {
			input := request.QuestionInput{
				Title:           f.title,
				Text:            f.text,
				Position:        f.position,
				PossibleAnswers: f.answerInputs(),
			}
			if f.image != "" {
				input.Image = &f.image
			}

			id, err := app.AdminController.CreateQuestion(cmd.Context(), input)
			if err != nil {
				return err
			}
			newOutput(cmd).Print(CreatedQuestion{ID: id})
			return nil
		}),
	}

	f.register(cmd)
	return cmd
}

func newQuestionUpdateCmd() *cobra.Command {
	var f questionFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update the given fields of a question",
		Long: `Update the given fields of a question. Answers are replaced as a whole:
pass every --answer together with --correct.`,
		Args: cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string) error {
			id, err := parseQuestionID(args[0])
			if err != nil {
				return err
			}

			var patch request.QuestionPatch
			changed := cmd.Flags().Changed
			if changed("title") {
				patch.Title = &f.title
			}
			if changed("text") {
				patch.Text = &f.text
			}
			if changed("image") {
				patch.Image = &f.image
			}
			if changed("position") {
				patch.Position = &f.position
			}
			if changed("answer") || changed("correct") {
				patch.PossibleAnswers = f.answerInputs()
			}

			return app.AdminController.UpdateQuestion(cmd.Context(), id, patch)
		}),
	}

	f.register(cmd)
	return cmd
}

// newConfirmedCmd builds a destructive command that requires --yes
func newConfirmedCmd(use, short string, run func(cmd *cobra.Command) error) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errNotConfirmed
			}
			return run(cmd)
		}),
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the deletion")
	return cmd
}

func parseQuestionID(s string) (model.QuestionID, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid question id %q", s)
	}
	return model.QuestionID(n), nil
}
