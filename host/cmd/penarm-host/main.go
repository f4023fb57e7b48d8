package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"penarm/host/cmdgen"
	"penarm/host/config"
	"penarm/host/mcu"
	"penarm/host/serial"
	"penarm/host/sim"
	"penarm/host/streamer"
	standaloneconfig "penarm/standalone/config"
)

var (
	configPath = flag.String("config", "", "YAML settings file (PENARM_* variables override it)")
	device     = flag.String("device", "", "Serial device path (overrides config)")
	verbose    = flag.Bool("verbose", false, "Enable debug logging")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *device != "" {
		cfg.Port = *device
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}
	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	args := flag.Args()[1:]
	switch flag.Arg(0) {
	case "gen":
		err = runGen(cfg, logger, args)
	case "stream":
		err = runStream(ctx, cfg, logger, args)
	case "simulate":
		err = runSimulate(ctx, cfg, logger, args)
	case "console":
		err = runConsole(ctx, cfg, logger)
	case "ports":
		err = runPorts()
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Error(flag.Arg(0)+" failed", "err", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "penarm-host - command tools for the pen drawing arm")
	fmt.Fprintln(os.Stderr, "\nUsage: penarm-host [flags] <command> [args]")
	fmt.Fprintln(os.Stderr, "\nCommands:")
	fmt.Fprintln(os.Stderr, "  gen [-svg] <in> [out]  - Convert a points file or SVG drawing into a command file")
	fmt.Fprintln(os.Stderr, "  stream <commands>      - Send a command file under REQUEST flow control")
	fmt.Fprintln(os.Stderr, "  simulate <commands>    - Dry-run a command file against the firmware logic")
	fmt.Fprintln(os.Stderr, "  console                - Interactive shell on the serial link")
	fmt.Fprintln(os.Stderr, "  ports                  - List serial ports")
	fmt.Fprintln(os.Stderr, "\nFlags:")
	flag.PrintDefaults()
}

func runGen(cfg *config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("gen", flag.ContinueOnError)
	svg := fs.Bool("svg", false, "Input is an SVG drawing instead of a points file")
	samples := fs.Int("samples", cmdgen.DefaultSamples, "Points per SVG segment")
	scale := fs.Float64("scale", 1, "Scale applied to input coordinates")
	offsetX := fs.Float64("offset-x", 0, "X shift applied after scaling")
	offsetY := fs.Float64("offset-y", 0, "Y shift applied after scaling")
	if err := fs.Parse(args); err != nil {
		return err
	}
	args = fs.Args()
	if len(args) < 1 {
		return errors.New("usage: gen [-svg] [-samples n] [-scale s] [-offset-x x] [-offset-y y] <input> [out]")
	}

	in, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	var points []cmdgen.Point
	if *svg {
		points, err = cmdgen.ReadSVG(in, *samples)
	} else {
		points, err = cmdgen.ReadPoints(in)
	}
	if err != nil {
		return err
	}
	points = cmdgen.Place(points, *scale, mgl64.Vec2{*offsetX, *offsetY})

	cmds, report, err := cmdgen.Generate(points, cfg.Arm.Arm(), logger)
	if err != nil {
		return err
	}

	out := os.Stdout
	if len(args) > 1 {
		f, err := os.Create(args[1])
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	if err := cmdgen.Write(out, cmds); err != nil {
		return fmt.Errorf("write commands: %w", err)
	}

	logger.Info("generated", "commands", len(cmds), "points", report.Points,
		"skipped", report.Skipped, "pen_toggles", report.Toggles)
	return nil
}

func readCommandFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return cmdgen.ReadCommands(f)
}

func connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*mcu.MCU, error) {
	m := mcu.NewMCU(logger)
	err := m.ConnectWithConfig(&serial.Config{
		Device:      cfg.Port,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeoutMS,
	})
	if err != nil {
		return nil, err
	}

	if cfg.WaitReady {
		if err := m.WaitReady(ctx, 5*time.Second); err != nil {
			m.Close()
			return nil, err
		}
		logger.Info("controller ready")
	}
	return m, nil
}

func runStream(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: stream <commands>")
	}
	lines, err := readCommandFile(args[0])
	if err != nil {
		return err
	}

	m, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer m.Close()

	start := time.Now()
	s := streamer.New(m, streamer.Options{
		Window:      cfg.Window,
		IdleTimeout: cfg.IdleTimeout,
		Logger:      logger,
	})
	res, err := s.Run(ctx, lines)
	logger.Info("stream finished",
		"sent", res.Sent,
		"total", len(lines),
		"buffer_full", res.BufferFull,
		"invalid", res.Invalid,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return err
}

func runSimulate(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: simulate <commands>")
	}
	lines, err := readCommandFile(args[0])
	if err != nil {
		return err
	}

	machine := standaloneconfig.DefaultArmConfig()
	if cfg.Machine != "" {
		data, err := os.ReadFile(cfg.Machine)
		if err != nil {
			return err
		}
		if machine, err = standaloneconfig.LoadConfig(data); err != nil {
			return err
		}
	}

	s, err := sim.New(sim.Options{
		Config: machine,
		Window: cfg.Window,
		Logger: logger,
		Trace:  cfg.LogLevel == "debug",
	})
	if err != nil {
		return err
	}

	rep, err := s.Run(ctx, lines)
	if err != nil {
		return err
	}
	fmt.Printf("lines=%d moves=%d pen=%d invalid=%d dropped=%d duration=%s final=(%.2f, %.2f)\n",
		rep.Stats.Lines, rep.Stats.Moves, rep.Stats.PenActions, rep.Stats.Invalid, rep.Stats.Dropped,
		time.Duration(rep.DurationMS)*time.Millisecond, rep.Final[0], rep.Final[1])
	return nil
}

func runPorts() error {
	ports, err := serial.ListPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found")
		return nil
	}
	for _, p := range ports {
		fmt.Println(p)
	}
	return nil
}
