// Command sdfview renders a live-reloading signed distance field scene.
//
// It watches a shader directory, recompiles the scene shader when it
// changes, and hot-swaps the render pipeline without dropping frames. With
// -software it skips the GPU and ray-marches the built-in scene on the CPU.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gogpu/sdfview"
	"github.com/gogpu/sdfview/compile"
	"github.com/gogpu/sdfview/internal/gpu"
	"github.com/gogpu/sdfview/pipeline"
	"github.com/gogpu/sdfview/render"
	"github.com/gogpu/sdfview/scene"
	"github.com/gogpu/sdfview/watch"
)

func main() {
	var (
		shaderDir = flag.String("shader-dir", "./shader", "directory holding the scene shader")
		width     = flag.Uint("width", 700, "render width in pixels")
		height    = flag.Uint("height", 400, "render height in pixels")
		software  = flag.Bool("software", false, "ray-march on the CPU instead of the GPU")
		frames    = flag.Uint64("frames", 0, "stop after this many frames (0 = run until interrupted)")
		output    = flag.String("o", "", "write the final frame to this PNG file")
		compiler  = flag.String("compiler", "", "external shader compiler command with {src} and {out} placeholders")
		interval  = flag.Duration("frame-interval", render.DefaultFrameInterval, "frame pacing")
		verbose   = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	sdfview.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(config{
		shaderDir: *shaderDir,
		width:     uint32(*width),
		height:    uint32(*height),
		software:  *software,
		frames:    *frames,
		output:    *output,
		compiler:  *compiler,
		interval:  *interval,
	}); err != nil {
		log.Fatalf("sdfview: %v", err)
	}
}

type config struct {
	shaderDir string
	width     uint32
	height    uint32
	software  bool
	frames    uint64
	output    string
	compiler  string
	interval  time.Duration
}

func run(cfg config) error {
	if err := seedShaderDir(cfg.shaderDir); err != nil {
		return err
	}

	watcher, err := watch.New(cfg.shaderDir, watch.WithInitialEvent())
	if err != nil {
		return fmt.Errorf("watch %s: %w", cfg.shaderDir, err)
	}
	defer func() { _ = watcher.Close() }()

	comp, err := compile.New(toolchain(cfg.compiler), cfg.shaderDir,
		compile.WithProgress(os.Stderr))
	if err != nil {
		return err
	}
	defer func() { _ = comp.Close() }()

	var (
		manager   *pipeline.Manager
		presenter interface {
			render.Presenter
			Last() (*sdfview.Pixmap, uint64)
		}
	)
	if cfg.software {
		manager = pipeline.NewManager(&pipeline.NopDevice{})
		presenter = render.NewSoftwarePresenter(scene.Default(), cfg.width, cfg.height)
	} else {
		gctx, err := gpu.Open()
		if err != nil {
			return fmt.Errorf("open GPU: %w", err)
		}
		defer gctx.Close()

		adapter := gpu.NewAdapter(gctx.Device())
		manager = pipeline.NewManager(adapter,
			pipeline.WithUniformSize(render.ParamsSize))

		p, err := gpu.NewPresenter(gctx, adapter, cfg.width, cfg.height)
		if err != nil {
			return fmt.Errorf("create presenter: %w", err)
		}
		presenter = p
	}
	defer manager.Close()
	defer func() { _ = presenter.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := render.NewLoop(watcher, comp, manager, presenter,
		render.WithFrameInterval(cfg.interval),
		render.WithFrameLimit(cfg.frames),
	)

	sdfview.Logger().Info("sdfview: running",
		"shader-dir", cfg.shaderDir,
		"size", fmt.Sprintf("%dx%d", cfg.width, cfg.height),
		"software", cfg.software)

	runErr := loop.Run(ctx)
	if runErr != nil && ctx.Err() != nil {
		// Interrupt is a normal exit.
		runErr = nil
	}

	if cfg.output != "" {
		if pix, frame := presenter.Last(); pix != nil {
			if err := pix.SavePNG(cfg.output); err != nil {
				return fmt.Errorf("save %s: %w", cfg.output, err)
			}
			sdfview.Logger().Info("sdfview: frame saved",
				"path", cfg.output, "frame", frame)
		}
	}
	return runErr
}

// seedShaderDir creates the shader directory with the default scene when it
// does not exist or holds no WGSL yet, so a first run has something to edit.
func seedShaderDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create shader dir: %w", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.wgsl"))
	if err != nil {
		return err
	}
	if len(matches) > 0 {
		return nil
	}

	path := filepath.Join(dir, "scene.wgsl")
	src := scene.ShaderSource(scene.Default())
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		return fmt.Errorf("seed %s: %w", path, err)
	}
	sdfview.Logger().Info("sdfview: seeded default scene", "path", path)
	return nil
}

// toolchain picks the external compiler when configured, the built-in naga
// toolchain otherwise.
func toolchain(command string) compile.Toolchain {
	if command == "" {
		return compile.NagaToolchain{}
	}
	fields := strings.Fields(command)
	return compile.ExecToolchain{Command: fields[0], Args: fields[1:]}
}
