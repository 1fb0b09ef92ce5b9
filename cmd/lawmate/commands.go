package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ashureev/lawmate/internal/apiclient"
	"github.com/ashureev/lawmate/internal/assistant"
	"github.com/ashureev/lawmate/internal/config"
	"github.com/ashureev/lawmate/internal/domain"
	"github.com/ashureev/lawmate/internal/drafting"
	"github.com/ashureev/lawmate/internal/state"
	"github.com/ashureev/lawmate/internal/store"
	"github.com/ashureev/lawmate/internal/workspace"
)

// localOwner keys the single client state kept by the terminal client.
const localOwner = "local"

// stdin is swapped in tests.
var stdin io.Reader = os.Stdin

type commonFlags struct {
	server string
	dbPath string
	direct bool
	asJSON bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.server, "server", envOr("LAWMATE_SERVER", "http://localhost:8080"), "lawmate server URL")
	fs.StringVar(&c.dbPath, "db", envOr("LAWMATE_DB", defaultDBPath()), "local state database")
	fs.BoolVar(&c.direct, "direct", false, "call the assistant service directly instead of a server")
	fs.BoolVar(&c.asJSON, "json", false, "print results as JSON")
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".lawmate", "state.db")
	}
	return filepath.Join(home, ".lawmate", "state.db")
}

// session is an opened workspace with its resources.
type session struct {
	ws    *workspace.Workspace
	close func()
}

func openSession(ctx context.Context, c commonFlags, logger *slog.Logger) (*session, error) {
	repo, err := store.NewSQLite(c.dbPath)
	if err != nil {
		return nil, fmt.Errorf("open local state: %w", err)
	}
	st := state.New(localOwner, repo)
	if err := st.Rehydrate(ctx); err != nil {
		_ = repo.Close()
		return nil, err
	}

	backend, err := newBackend(c, logger)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	return &session{
		ws: workspace.New(backend, st, logger),
		close: func() {
			if err := repo.Close(); err != nil {
				logger.Warn("Failed to close local state", "error", err)
			}
		},
	}, nil
}

func newBackend(c commonFlags, logger *slog.Logger) (workspace.Backend, error) {
	if !c.direct {
		return apiclient.New(c.server), nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	client := assistant.NewOpenAIClient(assistant.OpenAIConfig{
		APIKey:       cfg.Assistant.APIKey,
		BaseURL:      cfg.Assistant.BaseURL,
		PollInterval: cfg.Assistant.PollInterval,
	}, logger)
	return drafting.NewService(client, drafting.Config{
		APIKey:        cfg.Assistant.APIKey,
		AssistantID:   cfg.Assistant.AssistantID,
		DraftJSONMode: cfg.Assistant.DraftJSONMode,
	}, logger), nil
}

// inputText joins the positional arguments, or reads stdin when there are none.
func inputText(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func runDraft(args []string, stdout, stderr io.Writer, logger *slog.Logger) int {
	fs := flag.NewFlagSet("draft", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	var caseType string
	common.register(fs)
	fs.StringVar(&caseType, "type", string(domain.CaseTypeGeneral), "case type")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	text, err := inputText(fs.Args())
	if err != nil {
		fmt.Fprintf(stderr, "draft failed: %v\n", err)
		return 1
	}

	ctx := context.Background()
	s, err := openSession(ctx, common, logger)
	if err != nil {
		fmt.Fprintf(stderr, "draft failed: %v\n", err)
		return 1
	}
	defer s.close()

	if err := s.ws.SetInput(ctx, text); err != nil {
		fmt.Fprintf(stderr, "draft failed: %v\n", err)
		return 1
	}
	out, err := s.ws.Draft(ctx, text, domain.ParseCaseType(caseType))
	if err != nil {
		return reportError(stderr, "draft", err)
	}
	if out == nil {
		fmt.Fprintln(stderr, "nothing to draft: input is empty")
		return 0
	}
	if common.asJSON {
		return writeJSON(stdout, stderr, out.Result.Record)
	}
	printDraft(stdout, out.Result.Record, out.Result.Degraded)
	return 0
}

func runAsk(args []string, stdout, stderr io.Writer, logger *slog.Logger) int {
	fs := flag.NewFlagSet("ask", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	text, err := inputText(fs.Args())
	if err != nil {
		fmt.Fprintf(stderr, "ask failed: %v\n", err)
		return 1
	}

	ctx := context.Background()
	s, err := openSession(ctx, common, logger)
	if err != nil {
		fmt.Fprintf(stderr, "ask failed: %v\n", err)
		return 1
	}
	defer s.close()

	ex, err := s.ws.Ask(ctx, text)
	if err != nil {
		return reportError(stderr, "ask", err)
	}
	if ex == nil {
		fmt.Fprintln(stderr, "nothing to ask: input is empty")
		return 0
	}
	if common.asJSON {
		return writeJSON(stdout, stderr, ex)
	}
	printTurn(stdout, ex.Assistant)
	return 0
}

func runGuide(args []string, stdout, stderr io.Writer, logger *slog.Logger) int {
	fs := flag.NewFlagSet("guide", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	text, err := inputText(fs.Args())
	if err != nil {
		fmt.Fprintf(stderr, "guide failed: %v\n", err)
		return 1
	}

	ctx := context.Background()
	s, err := openSession(ctx, common, logger)
	if err != nil {
		fmt.Fprintf(stderr, "guide failed: %v\n", err)
		return 1
	}
	defer s.close()

	out, err := s.ws.Guide(ctx, text)
	if err != nil {
		return reportError(stderr, "guide", err)
	}
	if out == nil {
		fmt.Fprintln(stderr, "nothing to look up: input is empty")
		return 0
	}
	if common.asJSON {
		return writeJSON(stdout, stderr, out.Result.Record)
	}
	fmt.Fprintf(stdout, "[전략]\n%s\n", out.Result.Record.Strategy)
	printLaws(stdout, out.Result.Record.Laws)
	return 0
}

func runShow(args []string, stdout, stderr io.Writer, logger *slog.Logger) int {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx := context.Background()
	s, err := openSession(ctx, common, logger)
	if err != nil {
		fmt.Fprintf(stderr, "show failed: %v\n", err)
		return 1
	}
	defer s.close()

	st := s.ws.State()
	if common.asJSON {
		return writeJSON(stdout, stderr, st)
	}
	fmt.Fprintf(stdout, "[입력]\n%s\n", orDash(st.MainInput))
	if st.MainResult != nil {
		printDraft(stdout, *st.MainResult, false)
	}
	fmt.Fprintf(stdout, "session: %s\n", orDash(st.StrategyThreadID))
	for i, ex := range st.StrategyMessages {
		fmt.Fprintf(stdout, "\n#%d %s\nQ: %s\n", i+1, ex.CreatedAt.Format("2006-01-02 15:04"), ex.User)
		printTurn(stdout, ex.Assistant)
	}
	return 0
}

func runReset(args []string, stdout, stderr io.Writer, logger *slog.Logger) int {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx := context.Background()
	s, err := openSession(ctx, common, logger)
	if err != nil {
		fmt.Fprintf(stderr, "reset failed: %v\n", err)
		return 1
	}
	defer s.close()

	if err := s.ws.Reset(ctx); err != nil {
		fmt.Fprintf(stderr, "reset failed: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, "conversation reset")
	return 0
}

func reportError(stderr io.Writer, cmd string, err error) int {
	switch {
	case errors.Is(err, assistant.ErrSessionExpired):
		fmt.Fprintf(stderr, "%s failed: the conversation session has expired; run `lawmate reset` to start a new one\n", cmd)
	case errors.Is(err, apiclient.ErrRateLimited):
		fmt.Fprintf(stderr, "%s failed: too many requests, try again shortly\n", cmd)
	default:
		fmt.Fprintf(stderr, "%s failed: %v\n", cmd, err)
	}
	return 1
}

func writeJSON(stdout, stderr io.Writer, v any) int {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(stderr, "encode output: %v\n", err)
		return 1
	}
	return 0
}

func printDraft(w io.Writer, r domain.DraftingResult, degraded bool) {
	if degraded {
		fmt.Fprintln(w, "(the reply could not be parsed; showing it as-is)")
	}
	fmt.Fprintf(w, "[청구취지]\n%s\n\n", r.Prayer)
	fmt.Fprintf(w, "[청구원인]\n%s\n\n", r.Cause)
	fmt.Fprintf(w, "[관련 법령]\n%s\n\n", r.Law)
	fmt.Fprintf(w, "[참고 판례]\n%s\n\n", r.Case)
	fmt.Fprintf(w, "[소송 전략]\n%s\n", r.Strategy)
}

func printTurn(w io.Writer, reply domain.AssistantReply) {
	t := reply.Turn
	if reply.Degraded {
		fmt.Fprintln(w, "(the reply could not be parsed; showing it as-is)")
	}
	fmt.Fprintf(w, "[분석]\n%s\n", t.Analysis)
	if len(t.Options) > 0 {
		fmt.Fprintln(w, "[선택지]")
		for _, o := range t.Options {
			fmt.Fprintf(w, "- %s\n", o)
		}
	}
	fmt.Fprintf(w, "[위험]\n%s\n", t.Risk)
	printLaws(w, t.Laws)
	fmt.Fprintf(w, "[권고]\n%s\n", t.Recommendation)
}

func printLaws(w io.Writer, laws []domain.LawItem) {
	if len(laws) == 0 {
		return
	}
	fmt.Fprintln(w, "[법령]")
	for _, l := range laws {
		fmt.Fprintf(w, "- %s: %s\n", l.Name, l.Summary)
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
