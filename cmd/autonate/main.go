// autonate: evaluate and render animation scenes from the command line
//
// Usage:
//
//	autonate frame   -scene ID -frame N [-camera PRESET]
//	autonate render  -scene ID [-from A] [-to B] [-workers W] [-out file.jsonl]
//	autonate scenes  [-dir DIR]
//	autonate timing  -script FILE [-fps 30] [-start 30] [-manifest]
//	autonate probe   FILE...
//
// frame, render and scenes work on local scenes by default, or against a
// running autonate-server with -server URL.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-autonate/internal/config"
	"github.com/teslashibe/go-autonate/internal/log"
	"github.com/teslashibe/go-autonate/pkg/render"
	"github.com/teslashibe/go-autonate/pkg/scene"
	"github.com/teslashibe/go-autonate/pkg/script"
	"github.com/teslashibe/go-autonate/pkg/stream"
	"github.com/teslashibe/go-autonate/pkg/voiceover"
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, args []string) error
}

var commands = []command{
	{"frame", "print one frame as JSON", runFrame},
	{"render", "render a frame range as JSON lines", runRender},
	{"scenes", "list scenes", runScenes},
	{"timing", "compute dialogue cues for a script", runTiming},
	{"probe", "print audio durations and frame counts", runProbe},
}

func main() {
	log.Init(os.Getenv(config.EnvLogLevel))

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	for _, cmd := range commands {
		if cmd.name == os.Args[1] {
			if err := cmd.run(ctx, os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "autonate %s: %v\n", cmd.name, err)
				os.Exit(1)
			}
			return
		}
	}

	usage()
	os.Exit(2)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: autonate <command> [flags]")
	fmt.Fprintln(os.Stderr)
	for _, cmd := range commands {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", cmd.name, cmd.usage)
	}
}

// sceneFlags are shared by the commands that load a scene.
type sceneFlags struct {
	id     *string
	file   *string
	dir    *string
	assets *string
	server *string
}

func addSceneFlags(fs *flag.FlagSet) sceneFlags {
	return sceneFlags{
		id:     fs.String("scene", "", "Scene ID (built-in or from -dir)"),
		file:   fs.String("file", "", "Scene YAML file (instead of -scene)"),
		dir:    fs.String("dir", os.Getenv(config.EnvScenesDir), "Directory of scene files"),
		assets: fs.String("assets", envOr(config.EnvAssetsDir, "."), "Root for audio paths in scenes"),
		server: fs.String("server", "", "autonate-server URL; evaluate remotely"),
	}
}

func (f sceneFlags) load() (*scene.Scene, error) {
	opt := scene.WithDurationSource(voiceover.NewProber(*f.assets))
	if *f.file != "" {
		return scene.LoadFile(*f.file, opt)
	}
	if *f.id == "" {
		return nil, errors.New("-scene or -file is required")
	}

	reg := scene.NewRegistry(log.L(), opt)
	if err := reg.LoadBuiltIn(); err != nil {
		return nil, err
	}
	if *f.dir != "" {
		if err := reg.LoadDir(*f.dir); err != nil {
			log.Warn("some scenes failed to load", "dir", *f.dir, "error", err)
		}
	}
	return reg.Get(*f.id)
}

func runFrame(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("frame", flag.ExitOnError)
	sf := addSceneFlags(fs)
	frame := fs.Int("frame", 0, "Frame number")
	preset := fs.String("camera", "", "Camera preset override")
	fs.Parse(args)

	var state scene.FrameState
	if *sf.server != "" {
		var err error
		state, err = stream.NewClient(*sf.server).Frame(ctx, *sf.id, *frame, *preset)
		if err != nil {
			return err
		}
	} else {
		sc, err := sf.load()
		if err != nil {
			return err
		}
		if *preset != "" {
			cfg, err := sc.Camera().Apply(map[string]interface{}{"preset": *preset})
			if err != nil {
				return err
			}
			if sc, err = sc.WithCamera(cfg); err != nil {
				return err
			}
		}
		if state, err = sc.Frame(*frame); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(state)
}

func runRender(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	sf := addSceneFlags(fs)
	from := fs.Int("from", 0, "First frame")
	to := fs.Int("to", 0, "End frame, exclusive (0 = end of scene)")
	workers := fs.Int("workers", envInt(config.EnvWorkers, runtime.NumCPU()), "Parallel workers")
	chunk := fs.Int("chunk", config.DefaultChunkSize, "Frames per work unit")
	out := fs.String("out", "", "Output file (default stdout)")
	fs.Parse(args)

	w := io.Writer(os.Stdout)
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	start := time.Now()
	if *sf.server != "" {
		return renderRemote(ctx, stream.NewClient(*sf.server), *sf.id, *from, *to, bw)
	}

	sc, err := sf.load()
	if err != nil {
		return err
	}
	end := *to
	if end == 0 {
		end = sc.DurationFrames()
	}

	farm := render.NewFarm(
		render.WithWorkers(*workers),
		render.WithChunkSize(*chunk),
		render.WithLogger(log.L()),
	)
	if err := farm.Stream(ctx, sc, *from, end, render.JSONLSink(bw)); err != nil {
		return err
	}
	log.Info("rendered", "scene", sc.ID(), "frames", end-*from, "workers", *workers, "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

func renderRemote(ctx context.Context, c *stream.Client, id string, from, to int, w io.Writer) error {
	job, err := c.Render(ctx, id, from, to)
	if err != nil {
		return err
	}
	log.Info("job submitted", "job", job.ID, "scene", id)

	job, err = c.WaitJob(ctx, job.ID, 250*time.Millisecond)
	if err != nil {
		return err
	}
	if job.Status != render.StatusDone {
		return fmt.Errorf("job %s %s: %s", job.ID, job.Status, job.Error)
	}

	frames, err := c.JobFrames(ctx, job.ID)
	if err != nil {
		return err
	}
	return render.WriteJSONL(w, frames)
}

func runScenes(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("scenes", flag.ExitOnError)
	sf := addSceneFlags(fs)
	fs.Parse(args)

	var infos []scene.Info
	if *sf.server != "" {
		var err error
		if infos, err = stream.NewClient(*sf.server).Scenes(ctx); err != nil {
			return err
		}
	} else {
		reg := scene.NewRegistry(log.L(), scene.WithDurationSource(voiceover.NewProber(*sf.assets)))
		if err := reg.LoadBuiltIn(); err != nil {
			return err
		}
		if *sf.dir != "" {
			if err := reg.LoadDir(*sf.dir); err != nil {
				log.Warn("some scenes failed to load", "dir", *sf.dir, "error", err)
			}
		}
		infos = reg.List()
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tFRAMES\tFPS\tSECONDS\tCHARACTERS")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.1f\t%d\n",
			info.ID, info.Title, info.DurationFrames, info.FPS,
			float64(info.DurationFrames)/float64(info.FPS), len(info.Characters))
	}
	return tw.Flush()
}

func runTiming(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("timing", flag.ExitOnError)
	path := fs.String("script", "", "Script YAML file")
	fps := fs.Int("fps", scene.DefaultFPS, "Frames per second")
	start := fs.Int("start", script.DefaultStartFrame, "Frame of the first line")
	manifest := fs.Bool("manifest", false, "Print the voiceover manifest instead of cues")
	fs.Parse(args)

	if *path == "" {
		return errors.New("-script is required")
	}
	s, err := script.Load(*path)
	if err != nil {
		return err
	}

	if *manifest {
		m, err := script.Manifest(s)
		if err != nil {
			return err
		}
		_, err = io.WriteString(os.Stdout, m)
		return err
	}

	cues, err := script.Timing(s, *fps, *start)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(map[string]interface{}{"dialogue": cues})
}

func runProbe(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("probe", flag.ExitOnError)
	fps := fs.Int("fps", scene.DefaultFPS, "Frames per second")
	fs.Parse(args)

	if fs.NArg() == 0 {
		return fmt.Errorf("no files given (supported: %v)", voiceover.Extensions())
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tSECONDS\tFRAMES\tRATE\tCHANNELS")
	var errs []error
	for _, name := range fs.Args() {
		info, err := voiceover.Probe(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		frames, err := info.Frames(*fps)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%.3f\t%d\t%d\t%d\n", name, info.Seconds(), frames, info.SampleRate, info.Channels)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return errors.Join(errs...)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	var n int
	if _, err := fmt.Sscanf(os.Getenv(key), "%d", &n); err == nil && n > 0 {
		return n
	}
	return def
}
