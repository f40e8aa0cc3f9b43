package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/sqweek/dialog"
	"github.com/user-none/enc1020/cli"
	"github.com/user-none/enc1020/emu"
	"github.com/user-none/enc1020/ui"
	"github.com/user-none/enc1020/ui/storage"
	"golang.org/x/term"
)

func main() {
	dataDir := flag.String("data", "", "data directory (default: per-OS application data directory)")
	imageSource := flag.String("rom", "", "directory or archive holding obj_lu.bin and nc1020.fls")
	fps := flag.Int("fps", 0, "frames per second (overrides config)")
	speedUp := flag.Bool("speed-up", false, "start with pacing disabled")
	headless := flag.Bool("headless", false, "run without a window")
	frames := flag.Uint64("frames", 600, "loop iterations to run in headless mode (0 runs until interrupted)")
	out := flag.String("out", "", "write the last frame as PNG (headless mode)")
	flag.Parse()

	fatal := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		if !*headless {
			dialog.Message("%s", msg).Title(emu.Name).Error()
		}
		log.Fatal(msg)
	}

	storage.Init(emu.Name)
	if *dataDir != "" {
		storage.SetBaseDir(*dataDir)
	}
	if err := storage.EnsureDirectories(); err != nil {
		fatal("Failed to create directories: %v", err)
	}
	if err := storage.CreateConfigIfMissing(); err != nil {
		log.Printf("Warning: failed to create config: %v", err)
	}

	config, err := storage.LoadConfig()
	if err != nil {
		fatal("Failed to load config: %v", err)
	}
	if *fps > 0 {
		config.Emulation.FrameRate = *fps
	}
	if *speedUp {
		config.Emulation.SpeedUp = true
	}
	if *imageSource != "" {
		config.Emulation.ImageSource = *imageSource
	}

	baseDir, err := storage.GetBaseDir()
	if err != nil {
		fatal("Failed to locate data directory: %v", err)
	}
	machine, err := ui.OpenMachine(baseDir, config.Emulation.ImageSource)
	if err != nil {
		fatal("Failed to start: %v\n\nPlace %s and %s in %s or pass -rom.",
			err, emu.ROMFileName, emu.NORFileName, baseDir)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *headless {
		fg, err := storage.ParseColor(config.Video.Foreground)
		if err != nil {
			fatal("Invalid foreground color: %v", err)
		}
		bg, err := storage.ParseColor(config.Video.Background)
		if err != nil {
			fatal("Invalid background color: %v", err)
		}
		runner := cli.NewRunner(machine, ui.DriverConfig{
			FrameRate:  config.Emulation.FrameRate,
			SpeedUp:    config.Emulation.SpeedUp,
			SaveOnExit: config.Emulation.SaveOnExit,
		}, fg, bg)
		if term.IsTerminal(int(os.Stderr.Fd())) {
			runner.Report = func(line string) {
				fmt.Fprintf(os.Stderr, "\r%s\033[K", line)
			}
		}
		if err := runner.Run(ctx, *frames, *out); err != nil {
			log.Fatal(err)
		}
		if runner.Report != nil {
			fmt.Fprintln(os.Stderr)
		}
		log.Printf("Ran %d steps, %d frames, %d cycles", runner.Steps(), runner.Frames(), machine.Cycles())
		return
	}

	app, err := ui.NewApp(config, machine, baseDir, config.Emulation.ImageSource)
	if err != nil {
		fatal("Failed to start: %v", err)
	}
	if err := app.Run(ctx); err != nil {
		log.Fatal(err)
	}
}
