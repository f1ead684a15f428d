// Package shell is the interactive command line for editing a family graph.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/N3moAhead/kinship/internal/config"
	"github.com/N3moAhead/kinship/internal/db"
	"github.com/N3moAhead/kinship/internal/graph"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/shlex"
	"go.uber.org/zap"
)

// ErrQuit is returned by Exec for the quit command.
var ErrQuit = errors.New("quit")

var (
	errNoGraph    = errors.New("this command requires a graph. Either load one with the 'load' command or make one with the 'create graph' command")
	errNoSelected = errors.New("this command requires a person to be selected. Please use the 'select' command")
)

const intro = "CLI for the family tree system. Use 'help' or '<command> --help'."

// Shell holds one session: the graph being edited, the selected person and
// the file it came from. Every call into the graph happens under mu, writes
// exclusively, so a viewer sharing the graph never sees half an update.
type Shell struct {
	mu       sync.RWMutex
	graph    *graph.Graph
	selected string
	path     string

	cfg    *config.Config
	out    io.Writer
	logger *zap.Logger
	today  func() time.Time

	titleStyle   lipgloss.Style
	infoStyle    lipgloss.Style
	errorStyle   lipgloss.Style
	successStyle lipgloss.Style
}

func New(cfg *config.Config, out io.Writer, logger *zap.Logger) *Shell {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := lipgloss.NewRenderer(out)
	return &Shell{
		cfg:    cfg,
		out:    out,
		logger: logger,
		today: func() time.Time {
			t, err := cfg.Today()
			if err != nil {
				return time.Now()
			}
			return t
		},
		titleStyle:   r.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		infoStyle:    r.NewStyle().Foreground(lipgloss.Color("240")),
		errorStyle:   r.NewStyle().Foreground(lipgloss.Color("196")),
		successStyle: r.NewStyle().Foreground(lipgloss.Color("42")),
	}
}

// Open loads path into the session as the load command does.
func (s *Shell) Open(path string) error {
	return s.load(path)
}

// View runs fn with the graph under the read lock. g is nil when no graph
// has been created or loaded yet.
func (s *Shell) View(fn func(g *graph.Graph, selected string)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.graph, s.selected)
}

// Run reads commands from in until quit, end of input or ctx is done.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(s.out, s.infoStyle.Render(intro))

	scanner := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(s.out, s.cfg.Prompt)
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}

		err := s.Exec(scanner.Text())
		if errors.Is(err, ErrQuit) {
			return nil
		}
		if err != nil {
			s.logger.Debug("command failed", zap.String("line", scanner.Text()), zap.Error(err))
			fmt.Fprintln(s.out, s.errorStyle.Render(describe(err)))
		}
	}
}

// Exec runs a single command line.
func (s *Shell) Exec(line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("%q: %w", line, err)
	}
	if len(args) == 0 {
		return nil
	}
	cmd := s.rootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func (s *Shell) printf(format string, a ...any) {
	fmt.Fprintf(s.out, format+"\n", a...)
}

func (s *Shell) success(format string, a ...any) {
	fmt.Fprintln(s.out, s.successStyle.Render(fmt.Sprintf(format, a...)))
}

// read runs fn with the graph under the read lock.
func (s *Shell) read(fn func(g *graph.Graph) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.graph == nil {
		return errNoGraph
	}
	return fn(s.graph)
}

// readSelected is read for commands about the selected person.
func (s *Shell) readSelected(fn func(g *graph.Graph, selected string) error) error {
	return s.read(func(g *graph.Graph) error {
		if s.selected == "" {
			return errNoSelected
		}
		return fn(g, s.selected)
	})
}

// write runs a mutation under the write lock and autosaves after it.
func (s *Shell) write(fn func(g *graph.Graph) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.graph == nil {
		return errNoGraph
	}
	if err := fn(s.graph); err != nil {
		return err
	}
	if s.cfg.Autosave && s.path != "" {
		if err := db.Save(s.graph, s.path, s.logger); err != nil {
			return fmt.Errorf("autosave: %w", err)
		}
	}
	return nil
}

func (s *Shell) writeSelected(fn func(g *graph.Graph, selected string) error) error {
	return s.write(func(g *graph.Graph) error {
		if s.selected == "" {
			return errNoSelected
		}
		return fn(g, s.selected)
	})
}

func (s *Shell) load(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := db.Load(path, s.logger)
	switch {
	case err == nil:
		s.success("Family graph loaded from %s (%d people).", path, g.Len())
	case g != nil:
		// Missing file: start fresh, as promised by db.Load.
		s.printf("No file found at %s, starting with an empty graph.", path)
	default:
		return err
	}
	s.graph = g
	s.selected = ""
	s.path = path
	return nil
}

// describe turns an error into the line shown to the user.
func describe(err error) string {
	switch {
	case errors.Is(err, graph.ErrNotFound):
		return "Not found: " + err.Error()
	case errors.Is(err, graph.ErrDuplicateName):
		return "Already exists: " + err.Error()
	case errors.Is(err, db.ErrParse):
		return "Could not read the file, it is not a valid family document: " + err.Error()
	case errors.Is(err, db.ErrDanglingReference):
		return "The file refers to people it does not contain: " + err.Error()
	}
	msg := err.Error()
	if msg == "" {
		return msg
	}
	first, size := utf8.DecodeRuneInString(msg)
	return string(unicode.ToUpper(first)) + msg[size:]
}
