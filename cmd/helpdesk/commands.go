package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ahmednasr/githelpdesk/internal/app"
	"github.com/ahmednasr/githelpdesk/internal/models"
	"github.com/ahmednasr/githelpdesk/internal/preferences"
	"github.com/ahmednasr/githelpdesk/internal/service"
)

// --- ask ---

type askOutput struct {
	Question    string                  `json:"question"`
	Answer      string                  `json:"answer"`
	Error       string                  `json:"error,omitempty"`
	Context     models.ContextData      `json:"context_data"`
	Preferences preferences.Preferences `json:"user_preferences"`
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the chatbot a question",
	Long: `Ask the chatbot a question.

Without arguments, questions are read from stdin one per line and answered
in a single conversation, so preferences and history carry over.

Examples:
  helpdesk ask "Find beginner friendly Go projects"
  printf 'I like rust\nshow me some issues\n' | helpdesk ask`,
	RunE: func(cmd *cobra.Command, args []string) error {
		noRealtime, _ := cmd.Flags().GetBool("no-realtime")
		refresh, _ := cmd.Flags().GetBool("refresh")
		conversation, _ := cmd.Flags().GetString("conversation")

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		sess := a.Sessions.Get(conversation)
		ask := func(q string) error {
			turn := a.Chat.Ask(cmd.Context(), sess, service.ChatInput{
				Question:     q,
				UseRealtime:  !noRealtime,
				ForceRefresh: refresh,
			})
			return writeJSON(cmd.OutOrStdout(), askOutput{
				Question:    q,
				Answer:      turn.Answer,
				Error:       turn.Error,
				Context:     turn.ContextData,
				Preferences: turn.Preferences,
			})
		}

		if len(args) > 0 {
			return ask(strings.Join(args, " "))
		}

		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			q := strings.TrimSpace(scanner.Text())
			if q == "" {
				continue
			}
			if err := ask(q); err != nil {
				return err
			}
		}
		return scanner.Err()
	},
}

func init() {
	askCmd.Flags().String("conversation", "cli", "conversation id")
	askCmd.Flags().Bool("no-realtime", false, "skip the external data gatherers")
	askCmd.Flags().Bool("refresh", false, "bypass the cache")
}

// --- repos ---

var reposCmd = &cobra.Command{
	Use:   "repos [query]",
	Short: "Search repositories suited to a newcomer",
	RunE: func(cmd *cobra.Command, args []string) error {
		language, _ := cmd.Flags().GetString("language")
		refresh, _ := cmd.Flags().GetBool("refresh")

		return withApp(cmd, func(a *app.App) error {
			return printResult(cmd.OutOrStdout(), a.Gatherers.Repos.Search(cmd.Context(), preferences.New(), service.RepoQuery{
				Query:        strings.Join(args, " "),
				Language:     language,
				ForceRefresh: refresh,
			}))
		})
	},
}

func init() {
	reposCmd.Flags().String("language", "", "programming language filter")
	reposCmd.Flags().Bool("refresh", false, "bypass the cache")
}

// --- issues ---

var issuesCmd = &cobra.Command{
	Use:   "issues <owner/repo>",
	Short: "List issues suitable for a skill level",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		skill, _ := cmd.Flags().GetString("skill")
		refresh, _ := cmd.Flags().GetBool("refresh")

		level := preferences.SkillLevel(strings.ToLower(skill))
		switch level {
		case preferences.Beginner, preferences.Intermediate, preferences.Advanced:
		default:
			return fmt.Errorf("invalid --skill %q: want beginner, intermediate or advanced", skill)
		}

		return withApp(cmd, func(a *app.App) error {
			return printResult(cmd.OutOrStdout(), a.Gatherers.Issues.Search(cmd.Context(), args[0], level, refresh))
		})
	},
}

func init() {
	issuesCmd.Flags().String("skill", string(preferences.Beginner), "beginner, intermediate or advanced")
	issuesCmd.Flags().Bool("refresh", false, "bypass the cache")
}

// --- guide ---

var guideCmd = &cobra.Command{
	Use:   "guide <owner/repo>",
	Short: "Show a repository's contribution guide",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		refresh, _ := cmd.Flags().GetBool("refresh")
		return withApp(cmd, func(a *app.App) error {
			return printResult(cmd.OutOrStdout(), a.Gatherers.Guides.Get(cmd.Context(), args[0], refresh))
		})
	},
}

func init() {
	guideCmd.Flags().Bool("refresh", false, "bypass the cache")
}

// --- insights ---

var insightsCmd = &cobra.Command{
	Use:   "insights <owner/repo>",
	Short: "Show activity and health insights for a repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		refresh, _ := cmd.Flags().GetBool("refresh")
		return withApp(cmd, func(a *app.App) error {
			return printResult(cmd.OutOrStdout(), a.Gatherers.Insights.Get(cmd.Context(), args[0], refresh))
		})
	},
}

func init() {
	insightsCmd.Flags().Bool("refresh", false, "bypass the cache")
}

// --- trending ---

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "Show what is trending in open source",
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, _ := cmd.Flags().GetString("topic")
		language, _ := cmd.Flags().GetString("language")
		return withApp(cmd, func(a *app.App) error {
			return printResult(cmd.OutOrStdout(), a.Gatherers.Trending.Crawl(cmd.Context(), service.TrendingQuery{Topic: topic, Language: language}))
		})
	},
}

func init() {
	trendingCmd.Flags().String("topic", "", "topic or interest")
	trendingCmd.Flags().String("language", "", "programming language")
}

// --- questions ---

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Search Stack Overflow questions about a repository or topic (default: open source)",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, _ := cmd.Flags().GetString("repo")
		topic, _ := cmd.Flags().GetString("topic")

		term := service.QATerm(repo, topic, nil)
		return withApp(cmd, func(a *app.App) error {
			return printResult(cmd.OutOrStdout(), a.Gatherers.QA.Search(cmd.Context(), term))
		})
	},
}

func init() {
	questionsCmd.Flags().String("repo", "", "repository full name")
	questionsCmd.Flags().String("topic", "", "topic when no repository is given")
}

// --- helpers ---

// resultOutput is the printed form of a gatherer result.
type resultOutput struct {
	Origin models.Origin `json:"origin"`
	Error  string        `json:"error,omitempty"`
	Data   any           `json:"data"`
}

// withApp opens the app for the duration of fn.
func withApp(cmd *cobra.Command, fn func(a *app.App) error) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(a)
}

func printResult[T any](w io.Writer, r models.Result[T]) error {
	out := resultOutput{Origin: r.Origin, Data: r.Value}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return writeJSON(w, out)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
