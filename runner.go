package dialogue

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/studiobgc/dialogue-editor/pkg/domain"
)

// Runner handles the interactive execution loop of an Engine using provided
// IO. This allows for easy testing and integration with different frontends
// (CLI, TUI, etc).
type Runner struct {
	Input  io.Reader
	Output io.Writer

	// Headless disables prompts: the runner always takes the first branch
	// and stops after MaxSteps plays, for scripted graph walkthroughs.
	Headless bool
	MaxSteps int

	// Renderer transforms a dialogue line before outputting it. This allows
	// TUI rendering without coupling the core package.
	Renderer func(string) (string, error)
}

// NewRunner creates a new Runner. Input and Output must be set before Run
// (use os.Stdin and os.Stdout for a terminal session).
func NewRunner() *Runner {
	return &Runner{MaxSteps: 1000}
}

// Run executes the flow from the given start node until the graph runs out
// of branches or the user quits.
func (r *Runner) Run(ctx context.Context, engine *Engine, startNode string) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lineReader := bufio.NewReader(r.Input)

	if err := engine.Start(ctx, startNode); err != nil {
		return err
	}

	steps := 0
	for {
		r.display(engine)

		branches := engine.Branches()
		if len(branches) == 0 {
			fmt.Fprintln(r.Output, "(end)")
			return nil
		}

		index := 0
		if !r.Headless && len(branches) > 1 {
			choice, quit, err := r.prompt(lineReader, engine, branches)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
			index = choice
		}

		if err := engine.Play(ctx, index); err != nil {
			return fmt.Errorf("play error: %w", err)
		}

		steps++
		if r.MaxSteps > 0 && steps >= r.MaxSteps {
			return fmt.Errorf("stopped after %d steps (possible cycle)", steps)
		}
	}
}

// display prints the current dialogue line, if the cursor carries one.
func (r *Runner) display(engine *Engine) {
	node := engine.Cursor()
	if node == nil || node.Dialogue == nil || node.Dialogue.Text == "" {
		return
	}

	line := node.Dialogue.Text
	if r.Renderer != nil {
		if rendered, err := r.Renderer(line); err == nil {
			line = rendered
		}
	}
	if speaker := engine.Speaker(node); speaker != nil {
		fmt.Fprintf(r.Output, "%s: %s\n", speaker.DisplayName, line)
	} else {
		fmt.Fprintln(r.Output, line)
	}
	if node.Dialogue.StageDirections != "" {
		fmt.Fprintf(r.Output, "  (%s)\n", node.Dialogue.StageDirections)
	}
}

// prompt lists the branch choices and reads one, returning quit=true on EOF
// or an explicit exit.
func (r *Runner) prompt(lineReader *bufio.Reader, engine *Engine, branches []domain.Branch) (int, bool, error) {
	for _, branch := range branches {
		label := branchLabel(branch)
		marker := " "
		if !branch.Valid {
			marker = "x"
		}
		fmt.Fprintf(r.Output, " [%d]%s %s\n", branch.Index+1, marker, label)
	}

	for {
		fmt.Fprint(r.Output, "> ")
		text, err := lineReader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return 0, true, nil
			}
			return 0, false, fmt.Errorf("input error: %w", err)
		}
		input := strings.TrimSpace(text)

		if input == "exit" || input == "quit" {
			fmt.Fprintln(r.Output, "Bye!")
			return 0, true, nil
		}

		choice, err := strconv.Atoi(input)
		if err != nil || choice < 1 || choice > len(branches) {
			fmt.Fprintf(r.Output, "pick 1-%d\n", len(branches))
			continue
		}
		return choice - 1, false, nil
	}
}

// branchLabel picks the most speaker-facing description of a branch target.
func branchLabel(branch domain.Branch) string {
	target := branch.Target()
	if target == nil {
		return "(empty)"
	}
	if target.Dialogue != nil {
		if target.Dialogue.MenuText != "" {
			return target.Dialogue.MenuText
		}
		if target.Dialogue.Text != "" {
			return target.Dialogue.Text
		}
	}
	if target.Hub != nil && target.Hub.DisplayName != "" {
		return target.Hub.DisplayName
	}
	return target.TechnicalName
}
