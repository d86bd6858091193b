// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/sdfview/compile"
	"github.com/gogpu/sdfview/pipeline"
	"github.com/gogpu/sdfview/watch"
)

// scriptedSource yields each queued event once.
type scriptedSource struct {
	mu     sync.Mutex
	events []*watch.ChangeEvent
}

func (s *scriptedSource) push(gen, fp uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, &watch.ChangeEvent{Generation: gen, Fingerprint: fp})
}

func (s *scriptedSource) Poll() (*watch.ChangeEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		return nil, false
	}
	ev := s.events[0]
	s.events = s.events[1:]
	return ev, true
}

// instantCompiler turns every submitted job into a result immediately.
type instantCompiler struct {
	mu sync.Mutex

	// failGens are generations that produce diagnostics instead of artifacts.
	failGens map[uint64]bool

	jobs    []compile.Job
	pending []compile.Job
}

func (c *instantCompiler) Submit(job compile.Job) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobs = append(c.jobs, job)
	c.pending = append(c.pending, job)
}

func (c *instantCompiler) Poll() (*compile.Artifact, *compile.Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) == 0 {
		return nil, nil
	}
	job := c.pending[0]
	c.pending = c.pending[1:]

	if c.failGens[job.Generation] {
		return nil, &compile.Diagnostic{
			Generation: job.Generation,
			Err:        errors.New("syntax error"),
		}
	}
	return &compile.Artifact{
		Generation:    job.Generation,
		Fingerprint:   job.Fingerprint,
		WGSL:          "@vertex fn vs_main() {}\n@fragment fn fs_main() {}",
		VertexEntry:   "vs_main",
		FragmentEntry: "fs_main",
	}, nil
}

// recordingPresenter records every presented frame and can inject errors.
type recordingPresenter struct {
	mu sync.Mutex

	frames       []uint64
	generations  []uint64
	reconfigures int

	// errs is consumed one Present call at a time.
	errs []error
}

func (p *recordingPresenter) Size() (uint32, uint32) { return 64, 64 }

func (p *recordingPresenter) Present(frame uint64, _ FrameContext, state *pipeline.State) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		if err != nil {
			return err
		}
	}
	p.frames = append(p.frames, frame)
	p.generations = append(p.generations, state.Generation)
	return nil
}

func (p *recordingPresenter) Reconfigure(_, _ uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reconfigures++
	return nil
}

func (p *recordingPresenter) Close() error { return nil }

func (p *recordingPresenter) presented() ([]uint64, []uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]uint64(nil), p.frames...), append([]uint64(nil), p.generations...)
}

func newTestLoop(src SourcePoller, comp CompileQueue, pres Presenter, frames uint64) (*Loop, *pipeline.Manager) {
	mgr := pipeline.NewManager(&pipeline.NopDevice{})
	l := NewLoop(src, comp, mgr, pres,
		WithFrameInterval(0),
		WithFrameLimit(frames),
	)
	return l, mgr
}

func TestLoopCompilesAndPresents(t *testing.T) {
	src := &scriptedSource{}
	src.push(1, 0xaa)
	comp := &instantCompiler{}
	pres := &recordingPresenter{}

	l, mgr := newTestLoop(src, comp, pres, 3)
	defer mgr.Close()

	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(comp.jobs) != 1 || comp.jobs[0].Generation != 1 {
		t.Fatalf("jobs = %+v, want one job for generation 1", comp.jobs)
	}
	frames, gens := pres.presented()
	if len(frames) != 3 {
		t.Fatalf("presented %d frames, want 3", len(frames))
	}
	for i, g := range gens {
		if g != 1 {
			t.Errorf("frame %d rendered with generation %d, want 1", frames[i], g)
		}
	}
}

func TestLoopNoFrameBeforePipeline(t *testing.T) {
	src := &scriptedSource{}
	comp := &instantCompiler{}
	pres := &recordingPresenter{}

	l, mgr := newTestLoop(src, comp, pres, 1)
	defer mgr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := l.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run = %v, want deadline exceeded", err)
	}
	if frames, _ := pres.presented(); len(frames) != 0 {
		t.Errorf("presented %d frames with no compiled pipeline", len(frames))
	}
}

func TestLoopKeepsPipelineOnDiagnostic(t *testing.T) {
	src := &scriptedSource{}
	src.push(1, 0xaa)
	comp := &instantCompiler{failGens: map[uint64]bool{2: true}}
	pres := &recordingPresenter{}

	l, mgr := newTestLoop(src, comp, pres, 4)
	defer mgr.Close()

	// Break the source after the first good build.
	go func() {
		time.Sleep(5 * time.Millisecond)
		src.push(2, 0xbb)
	}()

	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	_, gens := pres.presented()
	for _, g := range gens {
		if g != 1 {
			t.Errorf("rendered with generation %d after failed compile, want 1", g)
		}
	}
}

func TestLoopRecoversAfterDiagnostic(t *testing.T) {
	src := &scriptedSource{}
	src.push(1, 0xaa)
	src.push(2, 0xbb)
	src.push(3, 0xcc)
	comp := &instantCompiler{failGens: map[uint64]bool{2: true}}
	pres := &recordingPresenter{}

	l, mgr := newTestLoop(src, comp, pres, 6)
	defer mgr.Close()

	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	_, gens := pres.presented()
	if len(gens) == 0 {
		t.Fatal("no frames presented")
	}
	if last := gens[len(gens)-1]; last != 3 {
		t.Errorf("final frame rendered with generation %d, want 3", last)
	}
	for i := 1; i < len(gens); i++ {
		if gens[i] < gens[i-1] {
			t.Errorf("generation regressed: %v", gens)
			break
		}
	}
}

func TestLoopSurfaceOutdatedReconfigures(t *testing.T) {
	src := &scriptedSource{}
	src.push(1, 0xaa)
	comp := &instantCompiler{}
	pres := &recordingPresenter{errs: []error{ErrSurfaceOutdated}}

	l, mgr := newTestLoop(src, comp, pres, 2)
	defer mgr.Close()

	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if pres.reconfigures != 1 {
		t.Errorf("reconfigures = %d, want 1", pres.reconfigures)
	}
	// The outdated attempt consumes frame 1; only frame 2 lands.
	frames, _ := pres.presented()
	if len(frames) != 1 || frames[0] != 2 {
		t.Errorf("presented frames = %v, want [2]", frames)
	}
}

func TestLoopSurfaceLostStops(t *testing.T) {
	src := &scriptedSource{}
	src.push(1, 0xaa)
	comp := &instantCompiler{}
	pres := &recordingPresenter{errs: []error{ErrSurfaceLost}}

	l, mgr := newTestLoop(src, comp, pres, 10)
	defer mgr.Close()

	err := l.Run(context.Background())
	if !errors.Is(err, ErrSurfaceLost) {
		t.Fatalf("Run = %v, want ErrSurfaceLost", err)
	}
}

func TestLoopRetiresDisplacedPipeline(t *testing.T) {
	src := &scriptedSource{}
	src.push(1, 0xaa)
	src.push(2, 0xbb)
	comp := &instantCompiler{}
	pres := &recordingPresenter{}

	l, mgr := newTestLoop(src, comp, pres, 4)
	defer mgr.Close()

	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := mgr.PendingRetire(); got != 0 {
		t.Errorf("PendingRetire = %d after run, want 0", got)
	}
	if s := mgr.Active(); s == nil || s.Generation != 2 {
		t.Errorf("active state = %+v, want generation 2", s)
	}
}
