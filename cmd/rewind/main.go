// Package main is an interactive demo driving a raster surface through the
// history engine.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dshills/rewind/internal/config"
	"github.com/dshills/rewind/internal/config/loader"
	"github.com/dshills/rewind/internal/config/watcher"
	"github.com/dshills/rewind/internal/engine/history"
	"github.com/dshills/rewind/internal/event"
	"github.com/dshills/rewind/internal/logging"
	"github.com/dshills/rewind/internal/surface"
)

// Version information (set via ldflags during build).
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to a TOML or YAML config file")
	logLevel := flag.String("log-level", "warn", "log level (debug, info, warn, error)")
	width := flag.Int("width", 64, "surface width in pixels")
	height := flag.Int("height", 64, "surface height in pixels")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("rewind %s\n", version)
		return 0
	}

	logger := logging.New(logging.Config{
		Level:  logging.ParseLevel(*logLevel),
		Prefix: "rewind",
	})

	opts := config.Default()
	if *configPath != "" {
		loaded, err := loader.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: load config: %v\n", err)
			return 1
		}
		opts = loaded
	}
	if err := opts.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid config: %v\n", err)
		return 1
	}

	surf := surface.NewRaster(*width, *height)
	engine := history.New(surf,
		history.WithOptions(opts),
		history.WithLogger(logger),
	)

	engine.Emitter().Subscribe(func(ev event.Event) {
		switch ev.Type {
		case event.TypeClear:
			fmt.Println("  [event] clear")
		case event.TypeSnapshot:
			fmt.Printf("  [event] snapshot at index %d (%d bytes)\n", ev.Snapshot.Index, ev.Snapshot.MemoryUsage)
		default:
			fmt.Printf("  [event] %s %q\n", ev.Type, ev.Command.Name())
		}
	})

	if *configPath != "" {
		w, err := watcher.New(*configPath, func(loaded config.Options) {
			engine.SetLimits(loaded.MaxHistorySize, loaded.MaxMemoryUsage)
			fmt.Printf("  [config] limits now %d entries / %d bytes\n",
				loaded.MaxHistorySize, loaded.MaxMemoryUsage)
		}, logger)
		if err != nil {
			logger.Warn("config watch disabled: %v", err)
		} else {
			defer w.Close()
		}
	}

	repl := &repl{
		engine:  engine,
		surf:    surf,
		factory: surface.NewFactory(),
		reader:  bufio.NewReader(os.Stdin),
	}
	repl.loop()
	return 0
}

// repl holds the state of the interactive session.
type repl struct {
	engine  *history.Engine
	surf    *surface.Raster
	factory *surface.Factory
	reader  *bufio.Reader
}

func (r *repl) loop() {
	fmt.Println("rewind - reversible-operation engine demo")
	fmt.Println("Type 'help' for available commands, 'quit' to exit")
	fmt.Println()

	for {
		fmt.Print("rewind> ")
		input, err := r.reader.ReadString('\n')
		if err != nil {
			fmt.Println("\nGoodbye!")
			return
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !r.handle(input) {
			return
		}
	}
}

func (r *repl) handle(input string) bool {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]
	ctx := context.Background()

	switch cmd {
	case "help":
		r.printHelp()

	case "quit", "exit":
		fmt.Println("Goodbye!")
		return false

	case "fill":
		r.cmdFill(ctx, args)

	case "bright", "brightness":
		r.cmdBrightness(ctx, args)

	case "undo":
		if !r.engine.Undo(ctx) {
			fmt.Println("nothing to undo")
		}

	case "redo":
		if !r.engine.Redo(ctx) {
			fmt.Println("nothing to redo")
		}

	case "begin":
		name := "group"
		if len(args) > 0 {
			name = strings.Join(args, " ")
		}
		r.engine.BeginGroup(name)
		fmt.Printf("group %q open\n", name)

	case "end":
		r.engine.EndGroup()

	case "cancel":
		r.engine.CancelGroup()

	case "snapshot":
		if err := r.engine.TakeSnapshot(); err != nil {
			fmt.Printf("snapshot failed: %v\n", err)
		}

	case "history":
		r.cmdHistory()

	case "state":
		r.cmdState()

	case "clear":
		r.engine.Clear()

	default:
		fmt.Printf("unknown command %q (try 'help')\n", cmd)
	}
	return true
}

func (r *repl) cmdFill(ctx context.Context, args []string) {
	if len(args) < 7 {
		fmt.Println("usage: fill x y w h r g b [a]")
		return
	}
	nums, err := parseInts(args)
	if err != nil {
		fmt.Printf("bad argument: %v\n", err)
		return
	}
	a := 255
	if len(nums) > 7 {
		a = nums[7]
	}
	color := [4]byte{byte(nums[4]), byte(nums[5]), byte(nums[6]), byte(a)}
	fill := r.factory.Fill(r.surf, nums[0], nums[1], nums[2], nums[3], color)
	if err := r.engine.Execute(ctx, fill); err != nil {
		fmt.Printf("fill failed: %v\n", err)
	}
}

func (r *repl) cmdBrightness(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Println("usage: bright <delta>")
		return
	}
	delta, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Printf("bad delta: %v\n", err)
		return
	}
	if err := r.engine.Execute(ctx, r.factory.Brightness(r.surf, delta)); err != nil {
		fmt.Printf("brightness failed: %v\n", err)
	}
}

func (r *repl) cmdHistory() {
	state := r.engine.State()
	if len(state.Commands) == 0 {
		fmt.Println("history is empty")
		return
	}
	for i, rec := range state.Commands {
		marker := " "
		if i == state.CurrentIndex {
			marker = "*"
		}
		fmt.Printf("%s %3d  %-12s %s\n", marker, i, rec.Kind, rec.Name)
	}
}

func (r *repl) cmdState() {
	state := r.engine.State()
	w, h := r.surf.Bounds()
	fmt.Printf("surface:  %dx%d\n", w, h)
	fmt.Printf("entries:  %d (cursor %d)\n", len(state.Commands), state.CurrentIndex)
	fmt.Printf("memory:   %d / %d bytes\n", state.MemoryUsage, state.MaxMemoryUsage)
	fmt.Printf("snapshots: %d\n", r.engine.SnapshotCount())
	fmt.Printf("can undo: %v, can redo: %v\n", r.engine.CanUndo(), r.engine.CanRedo())
}

func (r *repl) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  fill x y w h r g b [a]  - fill a rect with a color")
	fmt.Println("  bright <delta>          - shift brightness (merges rapid calls)")
	fmt.Println("  undo / redo             - step through history")
	fmt.Println("  begin [name] / end      - group edits into one undo unit")
	fmt.Println("  cancel                  - drop the open group")
	fmt.Println("  snapshot                - capture surface state now")
	fmt.Println("  history                 - list timeline entries")
	fmt.Println("  state                   - engine status")
	fmt.Println("  clear                   - reset all history")
	fmt.Println("  quit                    - exit")
}

func parseInts(args []string) ([]int, error) {
	out := make([]int, len(args))
	for i, s := range args {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", s)
		}
		out[i] = n
	}
	return out, nil
}
