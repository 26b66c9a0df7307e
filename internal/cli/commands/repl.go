package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/dataload/internal/integration"
	"github.com/leapstack-labs/dataload/internal/notifier"
	"github.com/leapstack-labs/dataload/internal/table"
)

const replPrompt = "dataload> "

// NewREPLCommand creates the line-mode shell.
func NewREPLCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Load and inspect records from a line-mode shell",
		Long: `Start an interactive shell with dot-commands to load, clear and show the
current dataset. Useful over SSH or in terminals where the full-screen view
does not fit.`,
		Example: `  dataload repl -i hubspot --credentials-file hubspot.json`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			return runREPL(cmd, cc)
		},
	}
	addSourceFlags(cmd)
	return cmd
}

func runREPL(cmd *cobra.Command, cc *CommandContext) error {
	historyFile, err := resolveHistoryFile(cc.Cfg.HistoryFile)
	if err != nil {
		cc.Logger.Warn("REPL history disabled", "error", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newDotCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	s := newREPLSession(cmd.Context(), cc)
	defer s.close()

	_, _ = fmt.Fprintf(cc.Out, "dataload REPL (%s via %s)\n", cc.Source.Integration, cc.Client.BaseURL())
	_, _ = fmt.Fprintln(cc.Out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cc.Out)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if s.exec(line) {
			break
		}
	}
	return nil
}

// replSession executes REPL commands against one loader.
type replSession struct {
	ctx   context.Context
	cc    *CommandContext
	notes chan notifier.Notice
}

func newREPLSession(ctx context.Context, cc *CommandContext) *replSession {
	return &replSession{
		ctx:   ctx,
		cc:    cc,
		notes: cc.Loader.Notifier().Subscribe(),
	}
}

func (s *replSession) close() {
	s.cc.Loader.Notifier().Unsubscribe(s.notes)
}

// exec runs one input line and reports whether the REPL should exit. The
// leading dot is optional.
func (s *replSession) exec(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	command := strings.ToLower(strings.TrimPrefix(parts[0], "."))
	out, errOut := s.cc.Out, s.cc.Err

	switch command {
	case "quit", "exit":
		return true

	case "help":
		printREPLHelp(out)

	case "load":
		if err := s.cc.Loader.TriggerLoad(s.ctx); err == nil {
			_, _ = fmt.Fprintf(out, "Loaded: %s\n", s.cc.Loader.Dataset())
		}

	case "clear":
		s.cc.Loader.Clear()
		_, _ = fmt.Fprintln(out, "Cleared.")

	case "show":
		if err := table.Render(out, table.Build(s.cc.Loader.Dataset()), s.cc.Table); err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
		}

	case "state":
		_, _ = fmt.Fprintf(out, "integration: %s\ndataset: %s\n", s.cc.Source.Integration, s.cc.Loader.Dataset())

	case "format":
		if len(parts) < 2 {
			_, _ = fmt.Fprintf(out, "format: %s\n", s.cc.Table.Format)
			break
		}
		f, err := table.ParseFormat(parts[1])
		if err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
			break
		}
		s.cc.Table.Format = f

	case "use":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(errOut, "Usage: .use <integration>")
			break
		}
		t, err := integration.ParseType(parts[1])
		if err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
			break
		}
		// The current dataset belongs to the previous integration.
		s.cc.Source.Integration = t
		s.cc.Loader.Clear()
		_, _ = fmt.Fprintf(out, "Using %s.\n", t)

	default:
		_, _ = fmt.Fprintf(errOut, "Unknown command: %s (type .help for commands)\n", parts[0])
	}

	s.flushNotices()
	return false
}

// flushNotices prints notices raised by the last command.
func (s *replSession) flushNotices() {
	for {
		select {
		case n := <-s.notes:
			_, _ = fmt.Fprintf(s.cc.Err, "! %s\n", n.Message)
		default:
			return
		}
	}
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .load              Load records from the integration
  .clear             Discard the current dataset
  .show              Print the current dataset as a table
  .state             Show the integration and dataset state
  .format [name]     Show or set the output format (table, csv, markdown, html, json)
  .use <integration> Switch integration (clears the dataset)
  .help              Show this help message
  .quit / .exit      Exit the REPL
`
	_, _ = fmt.Fprintln(w, help)
}

// newDotCompleter creates a readline completer for dot-commands.
func newDotCompleter() *readline.PrefixCompleter {
	var uses []readline.PrefixCompleterInterface
	for _, t := range integration.Types() {
		e, _ := integration.Endpoint(t)
		uses = append(uses, readline.PcItem(e))
	}
	var formats []readline.PrefixCompleterInterface
	for _, f := range table.Formats {
		formats = append(formats, readline.PcItem(string(f)))
	}

	return readline.NewPrefixCompleter(
		readline.PcItem(".load"),
		readline.PcItem(".clear"),
		readline.PcItem(".show"),
		readline.PcItem(".state"),
		readline.PcItem(".format", formats...),
		readline.PcItem(".use", uses...),
		readline.PcItem(".help"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}

// resolveHistoryFile returns the configured history path, or one under the
// user cache directory, creating its parent directory.
func resolveHistoryFile(configured string) (string, error) {
	path := configured
	if path == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(dir, "dataload", "history")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", err
	}
	return path, nil
}
