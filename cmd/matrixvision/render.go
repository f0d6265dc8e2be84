package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/codegangsta/cli"
	"github.com/kevin-cantwell/matrixvision"
	"github.com/kevin-cantwell/matrixvision/internal/scratch"
	"github.com/muesli/termenv"
	"golang.org/x/crypto/ssh/terminal"
)

var errTerminal = errors.New("refusing to write video to a terminal, use --out or redirect stdout")

type job struct {
	in, out string
}

type result struct {
	job
	took time.Duration
	err  error
}

func render(c *cli.Context) error {
	s, err := loadSettings(c)
	if err != nil {
		return exit(err)
	}
	engine, err := engineFor(s)
	if err != nil {
		return exit(err)
	}
	ctx, stop := interruptible()
	defer stop()

	inputs := []string(c.Args())
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}
	out := c.String("out")
	if out == "" || out == "-" {
		if len(inputs) > 1 {
			return exit(errors.New("several images need --out DIR"))
		}
		if err := renderStdout(ctx, engine, inputs[0]); err != nil {
			return exit(err)
		}
		return nil
	}

	jobs, err := planJobs(inputs, out, engine.Config().Format)
	if err != nil {
		return exit(err)
	}
	results := runJobs(ctx, engine, jobs, c.Int("jobs"))

	status := termenv.NewOutput(os.Stderr)
	var failed int
	for _, r := range results {
		if r.err != nil {
			failed++
			fmt.Fprintln(os.Stderr, status.String("✗ "+r.in+": "+r.err.Error()).Foreground(status.Color("#FF5555")))
			continue
		}
		fmt.Fprintln(os.Stderr, status.String(fmt.Sprintf("✓ %s → %s (%s)", r.in, r.out, r.took.Round(time.Millisecond))).Foreground(status.Color("#00FF41")))
	}
	if failed > 0 {
		return cli.NewExitError(fmt.Sprintf("%d of %d renders failed", failed, len(results)), 1)
	}
	return nil
}

// renderStdout renders through a temporary file so a half written video never
// reaches stdout.
func renderStdout(ctx context.Context, engine *matrixvision.Engine, in string) error {
	if terminal.IsTerminal(int(os.Stdout.Fd())) {
		return errTerminal
	}
	data, err := readInput(in)
	if err != nil {
		return err
	}
	pattern := "matrixvision-*." + string(engine.Config().Format)
	return scratch.With("", pattern, func(path string) error {
		if err := engine.Run(ctx, data, path); err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(os.Stdout, f)
		return err
	})
}

// planJobs maps inputs to output files. With one input out may name the file
// itself; otherwise out is a directory, created if needed.
func planJobs(inputs []string, out string, format matrixvision.Format) ([]job, error) {
	if len(inputs) == 0 {
		return nil, errors.New("no input images")
	}
	if len(inputs) == 1 {
		if info, err := os.Stat(out); err != nil || !info.IsDir() {
			return []job{{in: inputs[0], out: out}}, nil
		}
	}
	if err := os.MkdirAll(out, 0755); err != nil {
		return nil, err
	}
	jobs := make([]job, 0, len(inputs))
	issued := make(map[string]bool)
	for _, in := range inputs {
		name := outputName(in, format)
		ext := filepath.Ext(name)
		for n := 1; issued[name]; n++ {
			name = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(outputName(in, format), ext), n, ext)
		}
		issued[name] = true
		jobs = append(jobs, job{in: in, out: filepath.Join(out, name)})
	}
	return jobs, nil
}

// outputName swaps the extension of the input's base name for the format's.
func outputName(in string, format matrixvision.Format) string {
	base := filepath.Base(in)
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == "/" {
		base = "matrix"
	}
	return base + "." + string(format)
}

// runJobs renders jobs on up to workers goroutines sharing engine. Results
// come back in input order.
func runJobs(ctx context.Context, engine *matrixvision.Engine, jobs []job, workers int) []result {
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}
	results := make([]result, len(jobs))
	next := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range next {
				results[i] = runJob(ctx, engine, jobs[i])
			}
		}()
	}
	for i := range jobs {
		next <- i
	}
	close(next)
	wg.Wait()
	return results
}

func runJob(ctx context.Context, engine *matrixvision.Engine, j job) result {
	start := time.Now()
	data, err := readInput(j.in)
	if err == nil {
		err = engine.Run(ctx, data, j.out)
	}
	return result{job: j, took: time.Since(start), err: err}
}
