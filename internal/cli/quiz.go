package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/quizclient/internal/model"
	"github.com/mcoot/quizclient/internal/services/participation"
)

// skipAnswer marks a position left unanswered in --answers
const skipAnswer = "-"

var errQuit = errors.New("participation abandoned")

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the quiz size and the leaderboard",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string) error {
			info, err := app.API.GetQuizInfo(cmd.Context())
			if err != nil {
				app.NotificationService.HandleAPIError(err, participation.MsgLoadQuizFailed)
				return err
			}
			newOutput(cmd).Print(info)
			return nil
		}),
	}
}

func newQuestionCmd() *cobra.Command {
	var byID bool

	cmd := &cobra.Command{
		Use:   "question <position>",
		Short: "Show a question by position, or by id with --id",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid question reference %q", args[0])
			}

			var q *model.Question
			if byID {
				q, err = app.API.GetQuestionByID(cmd.Context(), model.QuestionID(n))
			} else {
				q, err = app.API.GetQuestionByPosition(cmd.Context(), n)
			}
			if err != nil {
				app.NotificationService.HandleAPIError(err, participation.MsgLoadFailed)
				return err
			}
			newOutput(cmd).Print(q)
			return nil
		}),
	}

	cmd.Flags().BoolVar(&byID, "id", false, "Treat the argument as a question id")
	return cmd
}

func newPlayCmd() *cobra.Command {
	var (
		name    string
		answers string
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Answer the quiz and submit a participation",
		Long: `Answer the quiz question by question and print the score.

Without --answers the questions are asked on the terminal: type the number of
an answer, "q" to quit, or nothing on the last question to leave it blank.
With --answers the answers are given up front as 1-based numbers, for
example --answers "2,1,-" where "-" leaves the last question blank.`,
		Args: cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			controller := app.ParticipationController

			if strings.TrimSpace(name) == "" {
				name = controller.RememberedPlayerName(ctx)
			}
			if err := controller.Start(ctx, name); err != nil {
				return err
			}

			var choose chooser
			if cmd.Flags().Changed("answers") {
				picks, err := parseAnswerList(answers)
				if err != nil {
					return err
				}
				choose = listChooser(picks)
			} else {
				choose = promptChooser(cmd.InOrStdin(), newOutput(cmd))
			}

			if err := playAll(cmd, controller, choose); err != nil {
				return err
			}
			newOutput(cmd).Print(controller.Score())
			return nil
		}),
	}

	cmd.Flags().StringVar(&name, "name", "", "Player name (defaults to the last one used)")
	cmd.Flags().StringVar(&answers, "answers", "", `Comma separated 1-based answers, "-" for none`)
	return cmd
}

func newScoreCmd() *cobra.Command {
	var forget bool

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Show the score of the last completed participation",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string) error {
			controller := app.ParticipationController
			if forget {
				if err := controller.ForgetSaved(cmd.Context()); err != nil {
					return err
				}
				newOutput(cmd).PrintMessage("Saved player name and score cleared")
				return nil
			}

			score, ok := controller.LastScore(cmd.Context())
			if !ok {
				newOutput(cmd).PrintMessage("No participation recorded yet")
				return nil
			}
			newOutput(cmd).Print(score)
			return nil
		}),
	}

	cmd.Flags().BoolVar(&forget, "clear", false, "Forget the saved player name and score")
	return cmd
}

// chooser returns the selected answer index for a question, or nil to leave
// it unanswered
type chooser func(state model.ParticipationState, q *model.Question) (*int, error)

// playAll walks the controller from the first question to completion
func playAll(cmd *cobra.Command, controller *participation.Controller, choose chooser) error {
	ctx := cmd.Context()
	for {
		snap := controller.Snapshot()
		if snap.State.Phase == model.PhaseCompleted {
			return nil
		}

		pick, err := choose(snap.State, snap.Question)
		if err != nil {
			return err
		}
		if pick != nil {
			if err := controller.SelectAnswer(*pick); err != nil {
				return err
			}
		}
		if err := controller.Advance(ctx); err != nil {
			return err
		}
	}
}

func listChooser(picks []*int) chooser {
	return func(state model.ParticipationState, _ *model.Question) (*int, error) {
		i := state.CurrentPosition - 1
		if i >= len(picks) {
			return nil, nil
		}
		return picks[i], nil
	}
}

func promptChooser(in io.Reader, out *Output) chooser {
	scanner := bufio.NewScanner(in)
	return func(state model.ParticipationState, q *model.Question) (*int, error) {
		for {
			out.Print(q)
			if state.IsLastPosition() {
				out.PrintMessage(fmt.Sprintf("Question %d/%d: answer 1-%d, empty for none, q to quit",
					state.CurrentPosition, state.QuizSize, len(q.PossibleAnswers)))
			} else {
				out.PrintMessage(fmt.Sprintf("Question %d/%d: answer 1-%d, q to quit",
					state.CurrentPosition, state.QuizSize, len(q.PossibleAnswers)))
			}

			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return nil, err
				}
				return nil, errQuit
			}

			line := strings.TrimSpace(scanner.Text())
			switch {
			case line == "q":
				return nil, errQuit
			case line == "" && state.IsLastPosition():
				return nil, nil
			}

			n, err := strconv.Atoi(line)
			if err == nil && q.HasAnswer(n-1) {
				pick := n - 1
				return &pick, nil
			}
			out.PrintMessage(fmt.Sprintf("Invalid answer %q", line))
		}
	}
}

// parseAnswerList parses "2,1,-" into zero-based indexes, nil for skipped
func parseAnswerList(s string) ([]*int, error) {
	var picks []*int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == skipAnswer || part == "" {
			picks = append(picks, nil)
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid answer %q: expected a number from 1 or %q", part, skipAnswer)
		}
		pick := n - 1
		picks = append(picks, &pick)
	}
	return picks, nil
}
