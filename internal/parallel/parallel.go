package parallel

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/msalah0e/depviz/internal/ui"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is used when a caller passes a limit below one.
const DefaultConcurrency = 4

// Result holds the outcome of a parallel task.
type Result struct {
	Name    string
	OK      bool
	Err     error
	Output  string
	Elapsed time.Duration
}

// Task is a function that runs in parallel.
type Task struct {
	Name string
	Fn   func() (string, error)
}

// Run executes tasks in parallel with the given concurrency limit, printing
// a progress line per task. Returns results in the order tasks were submitted.
func Run(tasks []Task, concurrency int) []Result {
	return run(context.Background(), tasks, concurrency, printer{})
}

// Collect is Run without terminal output. Tasks not yet started when ctx is
// done are reported as failed with ctx.Err().
func Collect(ctx context.Context, tasks []Task, concurrency int) []Result {
	return run(ctx, tasks, concurrency, nil)
}

type reporter interface {
	start(name string)
	done(r Result)
}

func run(ctx context.Context, tasks []Task, concurrency int, rep reporter) []Result {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}

	results := make([]Result, len(tasks))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, task := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = Result{Name: task.Name, Err: err}
				return nil
			}
			start := time.Now()

			if rep != nil {
				mu.Lock()
				rep.start(task.Name)
				mu.Unlock()
			}

			output, err := task.Fn()
			r := Result{Name: task.Name, OK: err == nil, Err: err, Output: output, Elapsed: time.Since(start)}

			mu.Lock()
			results[i] = r
			if rep != nil {
				rep.done(r)
			}
			mu.Unlock()

			return nil // never fail the group, collect results instead
		})
	}

	_ = g.Wait()
	return results
}

// Failed returns the results that did not succeed.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.OK {
			out = append(out, r)
		}
	}
	return out
}

type printer struct{}

func (printer) start(name string) {
	fmt.Printf("  %s %s...\n", ui.Subtle.Sprint("⟳"), name)
}

func (printer) done(r Result) {
	if r.Err != nil {
		fmt.Printf("  %s %s %s\n", ui.StatusIcon(false), r.Name, ui.Bad.Sprintf("(%v)", r.Err))
		// Show truncated output to help diagnose failures
		if output := strings.TrimSpace(r.Output); output != "" {
			for _, line := range truncateLines(output, 5) {
				fmt.Printf("      %s\n", ui.Subtle.Sprint(line))
			}
		}
		return
	}
	fmt.Printf("  %s %s %s\n", ui.StatusIcon(true), r.Name, ui.Subtle.Sprintf("%.1fs", r.Elapsed.Seconds()))
}

// truncateLines splits text into lines and returns at most n lines.
func truncateLines(s string, n int) []string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return lines
	}
	out := lines[:n]
	out = append(out, fmt.Sprintf("... (%d more lines)", len(lines)-n))
	return out
}
