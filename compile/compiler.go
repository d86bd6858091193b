// Package compile runs the shader toolchain out of band and hands versioned
// artifacts back to the render loop.
//
// The render loop never blocks here: Submit returns immediately and Poll is
// a non-blocking channel check. At most one job is live; submitting a newer
// generation makes any unfinished job stale, and a stale job's result is
// discarded on receipt even if it succeeded.
package compile

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/gogpu/sdfview"
)

// DefaultShutdownWait bounds how long Close waits for a running compiler
// process before cancelling it.
const DefaultShutdownWait = 3 * time.Second

// Job identifies one compilation request.
type Job struct {
	// Generation is the source generation being compiled.
	Generation uint64

	// Fingerprint is the source fingerprint the generation was observed at.
	Fingerprint uint64
}

// DiagnosticError is a compile failure with operator-facing output.
// It is a diagnostic, not a fault: the previously active pipeline keeps
// rendering.
type DiagnosticError struct {
	// Stage names what produced the failure (toolchain name).
	Stage string

	// Output is captured compiler stderr (or equivalent).
	Output string

	// Err is the underlying process or library error.
	Err error
}

func (e *DiagnosticError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s failed: %v\n%s", e.Stage, e.Err, e.Output)
	}
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *DiagnosticError) Unwrap() error { return e.Err }

// Diagnostic reports a failed compilation to the render loop.
type Diagnostic struct {
	// Generation is the source generation that failed to build.
	Generation uint64

	// Err is the failure, usually a *DiagnosticError.
	Err error
}

// result is what a finished job delivers, success or failure.
type result struct {
	generation uint64
	artifact   *Artifact
	err        error
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithProgress directs compiler progress output (stdout of the external
// process) to w. Default is io.Discard.
func WithProgress(w io.Writer) Option {
	return func(c *Compiler) { c.progress = w }
}

// WithShutdownWait bounds how long Close waits for a live job.
func WithShutdownWait(d time.Duration) Option {
	return func(c *Compiler) { c.shutdownWait = d }
}

// Compiler supervises out-of-band shader compilation.
//
// Submit and Poll are called from the render loop goroutine; each job runs
// on its own goroutine and communicates back over a channel, so the compiler
// never shares mutable state with the loop.
type Compiler struct {
	toolchain    Toolchain
	srcRoot      string
	outDir       string
	progress     io.Writer
	shutdownWait time.Duration

	results chan result

	mu     sync.Mutex
	latest uint64             // newest submitted generation; older results are stale
	cancel context.CancelFunc // cancels the live job
	done   chan struct{}      // closed when the live job's goroutine exits
}

// New creates a compiler for the given source root. Artifacts are written
// to a per-run temporary directory.
func New(toolchain Toolchain, srcRoot string, opts ...Option) (*Compiler, error) {
	outDir, err := os.MkdirTemp("", "sdfview-artifacts-*")
	if err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}

	c := &Compiler{
		toolchain:    toolchain,
		srcRoot:      srcRoot,
		outDir:       outDir,
		progress:     io.Discard,
		shutdownWait: DefaultShutdownWait,
		results:      make(chan result, 4),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Submit starts compiling the given generation and returns immediately.
// Any unfinished prior job becomes stale: its external process is left to
// finish (it may be nearly done anyway) but its result will be dropped.
func (c *Compiler) Submit(job Job) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if job.Generation <= c.latest {
		sdfview.Logger().Debug("compile: ignoring non-monotonic submit",
			"generation", job.Generation, "latest", c.latest)
		return
	}
	c.latest = job.Generation

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	done := make(chan struct{})
	c.done = done

	sdfview.Logger().Info("compile: job started", "generation", job.Generation)

	go func() {
		defer close(done)
		defer cancel()

		outPath := artifactPath(c.outDir, job.Generation)
		start := time.Now()

		if err := c.toolchain.Compile(ctx, c.srcRoot, outPath, c.progress); err != nil {
			c.results <- result{generation: job.Generation, err: err}
			return
		}

		artifact, err := LoadArtifact(outPath, job.Generation, job.Fingerprint)
		if err != nil {
			c.results <- result{generation: job.Generation, err: err}
			return
		}

		sdfview.Logger().Info("compile: job finished",
			"generation", job.Generation, "elapsed", time.Since(start))
		c.results <- result{generation: job.Generation, artifact: artifact}
	}()
}

// Poll checks for a finished job without blocking. It returns an artifact
// on success, a diagnostic on failure, or (nil, nil) when nothing is ready.
// Results from generations older than the newest submitted one are dropped
// silently; staleness is not an error.
func (c *Compiler) Poll() (*Artifact, *Diagnostic) {
	for {
		select {
		case r := <-c.results:
			c.mu.Lock()
			latest := c.latest
			c.mu.Unlock()

			if r.generation < latest {
				sdfview.Logger().Debug("compile: dropping stale result",
					"generation", r.generation, "latest", latest)
				continue
			}
			if r.err != nil {
				return nil, &Diagnostic{Generation: r.generation, Err: r.err}
			}
			return r.artifact, nil
		default:
			return nil, nil
		}
	}
}

// Close shuts the compiler down. A live job gets a bounded grace period to
// finish before its context is cancelled, which kills an external process.
// Unread results are discarded while waiting so a job parked on a full
// results buffer can still exit. The artifact directory is removed afterward.
func (c *Compiler) Close() error {
	c.mu.Lock()
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()

	if done != nil {
		grace := time.NewTimer(c.shutdownWait)
		defer grace.Stop()
		for waiting := true; waiting; {
			select {
			case <-done:
				waiting = false
			case <-c.results:
				// A full buffer parks the job goroutine on its send.
			case <-grace.C:
				sdfview.Logger().Warn("compile: job still running at shutdown, cancelling")
				if cancel != nil {
					cancel()
				}
			}
		}
	}

	return os.RemoveAll(c.outDir)
}
