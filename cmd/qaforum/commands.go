package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sakif/qaforum/internal/app"
	"github.com/sakif/qaforum/internal/apperror"
	"github.com/sakif/qaforum/internal/config"
	"github.com/sakif/qaforum/internal/model"
)

// cli holds what every subcommand shares. The app is built once per
// invocation in PersistentPreRunE and closed by execute.
type cli struct {
	configPath string
	debug      bool
	appOpts    []app.Option
	app        *app.App
}

// execute runs one CLI invocation. Cobra skips post-run hooks when a
// command fails, so the app is closed here instead.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	c := &cli{}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if cerr := c.close(); err == nil {
		err = cerr
	}
	return err
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "qaforum",
		Short:         "Ask, answer and vote on the Q&A forum from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.open(cmd.Context(), cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "qaforum.yaml", "path to the YAML config file")
	root.PersistentFlags().BoolVar(&c.debug, "debug", false, "log gateway traffic to stderr")

	root.AddCommand(
		c.loginCmd(),
		c.registerCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.questionsCmd(),
		c.showCmd(),
		c.askCmd(),
		c.answerCmd(),
		c.voteCmd(),
		c.acceptCmd(),
		c.notificationsCmd(),
	)
	return root
}

func (c *cli) open(ctx context.Context, stderr io.Writer) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if c.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	a, err := app.New(cfg.Client, logger, c.appOpts...)
	if err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		return errors.Join(err, a.Close())
	}
	c.app = a
	return nil
}

func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, s)
	}
	return id, nil
}

func (c *cli) loginCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login EMAIL",
		Short: "Sign in and remember the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("QAFORUM_PASSWORD")
			}
			res := c.app.Session.Login(cmd.Context(), args[0], password)
			if !res.Success {
				return errors.New(res.Error)
			}
			user, _ := c.app.Session.User()
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", user.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (default $QAFORUM_PASSWORD)")
	return cmd
}

func (c *cli) registerCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "register USERNAME EMAIL",
		Short: "Create an account and sign in",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := c.app.Session.Register(cmd.Context(), model.RegisterInput{
				Username: args[0],
				Email:    args[1],
				Password: password,
			})
			if !res.Success {
				return errors.New(res.Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, ok := c.app.Session.User()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "not logged in")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> (id %d)\n", user.Username, user.Email, user.ID)
			return nil
		},
	}
}

func (c *cli) questionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "questions",
		Short: "List questions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Questions.FetchQuestions(cmd.Context()); err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tVOTES\tANSWERS\tTITLE\tTAGS")
			for _, q := range c.app.Questions.Questions() {
				fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%s\n", q.ID, q.Votes, q.AnswerCount, q.Title, strings.Join(q.Tags, ","))
			}
			return tw.Flush()
		},
	}
}

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show QUESTION_ID",
		Short: "Show a question and its answers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "question")
			if err != nil {
				return err
			}
			if err := c.app.Questions.FetchQuestionByID(cmd.Context(), id); err != nil {
				return err
			}
			q, _ := c.app.Questions.CurrentQuestion()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "#%d %s\n", q.ID, q.Title)
			fmt.Fprintf(out, "by %s, %d votes, %d views\n\n%s\n", q.Author.Username, q.Votes, q.Views, q.Description)
			for _, a := range c.app.Questions.Answers() {
				mark := " "
				if a.IsAccepted {
					mark = "*"
				}
				fmt.Fprintf(out, "\n%s answer %d by %s (%d votes)\n  %s\n", mark, a.ID, a.Author.Username, a.Votes, a.Content)
			}
			return nil
		},
	}
}

func (c *cli) askCmd() *cobra.Command {
	var in model.QuestionInput
	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Post a new question",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := c.app.Ask(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "posted question %d\n", q.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&in.Title, "title", "t", "", "question title (10-200 characters)")
	cmd.Flags().StringVarP(&in.Description, "description", "d", "", "question body (20-5000 characters)")
	cmd.Flags().StringSliceVar(&in.Tags, "tag", nil, "tag, repeatable (1-10)")
	return cmd
}

func (c *cli) answerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "answer QUESTION_ID TEXT...",
		Short: "Answer a question",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "question")
			if err != nil {
				return err
			}
			a, err := c.app.Answer(cmd.Context(), id, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "posted answer %d\n", a.ID)
			return nil
		},
	}
}

func (c *cli) voteCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "vote question|answer ID up|down",
		Short:     "Vote on a question or an answer",
		Args:      cobra.ExactArgs(3),
		ValidArgs: []string{"question", "answer"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Session.Require(); err != nil {
				return err
			}
			id, err := parseID(args[1], args[0])
			if err != nil {
				return err
			}
			v := model.VoteType(args[2])

			switch args[0] {
			case "question":
				err = c.app.Questions.VoteQuestion(cmd.Context(), id, v)
			case "answer":
				err = c.app.Questions.VoteAnswer(cmd.Context(), id, v)
			default:
				return fmt.Errorf("can only vote on a question or an answer, not %q", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "voted %s on %s %d\n", v, args[0], id)
			return nil
		},
	}
}

func (c *cli) acceptCmd() *cobra.Command {
	var questionID int64
	cmd := &cobra.Command{
		Use:   "accept ANSWER_ID --question QUESTION_ID",
		Short: "Mark an answer on your question as accepted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Session.Require(); err != nil {
				return err
			}
			id, err := parseID(args[0], "answer")
			if err != nil {
				return err
			}
			// accepting needs the answer cached
			if err := c.app.Questions.FetchQuestionByID(cmd.Context(), questionID); err != nil {
				return err
			}
			if err := c.app.Questions.AcceptAnswer(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "accepted answer %d\n", id)
			return nil
		},
	}
	cmd.Flags().Int64VarP(&questionID, "question", "q", 0, "question the answer belongs to")
	_ = cmd.MarkFlagRequired("question")
	return cmd
}

func (c *cli) notificationsCmd() *cobra.Command {
	var (
		readAll bool
		readID  int64
	)
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Show your notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, ok := c.app.Session.User()
			if !ok {
				return apperror.Unauthorized("you must be logged in to do that")
			}
			ctx := cmd.Context()
			if err := c.app.RefreshNotifications(ctx); err != nil {
				return err
			}

			switch {
			case readAll:
				if err := c.app.Notifications.MarkAllAsRead(ctx, user.ID); err != nil {
					return err
				}
			case readID > 0:
				if err := c.app.Notifications.MarkAsRead(ctx, readID); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			unread := c.app.Notifications.UnreadCount()
			remote, err := c.app.ServerUnreadCount(ctx)
			if err != nil {
				return err
			}
			if remote != unread {
				fmt.Fprintf(out, "%d unread (server reports %d)\n", unread, remote)
			} else {
				fmt.Fprintf(out, "%d unread\n", unread)
			}
			for _, n := range c.app.Notifications.Notifications() {
				mark := " "
				if !n.Read {
					mark = "•"
				}
				fmt.Fprintf(out, "%s %d %s %s\n", mark, n.ID, n.CreatedAt.Format("2006-01-02 15:04"), n.Message)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&readAll, "read-all", false, "mark every notification as read")
	cmd.Flags().Int64Var(&readID, "read", 0, "mark one notification as read")
	return cmd
}
