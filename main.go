// main.go - Headless command-line embedder for the retro8 fantasy console
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"
)

func main() {
	var (
		cartPath    string
		frames      int
		instrBudget int
		dataDir     string
		show        bool
		fps         int
	)

	flagSet := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&cartPath, "cart", "", "Cartridge file to load (.p8 or .png)")
	flagSet.IntVar(&frames, "frames", 0, "Number of frames to run (0 = until quit)")
	flagSet.IntVar(&instrBudget, "instr-budget", DEFAULT_INSTR_HOOK_INTERVAL*DEFAULT_INSTR_BUDGET_HOOKS,
		"Instruction budget per frame before a cooperative yield")
	flagSet.StringVar(&dataDir, "data-dir", ".", "Directory for persistent cartdata files")
	flagSet.BoolVar(&show, "show", true, "Paint the framebuffer to the terminal")
	flagSet.IntVar(&fps, "fps", 30, "Target frames per second")

	flagSet.Usage = func() {
		flagSet.SetOutput(os.Stdout)
		fmt.Println("Usage: ./retro8 -cart game.p8 [-frames n] [-show=false]")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if cartPath == "" && flagSet.NArg() > 0 {
		cartPath = flagSet.Arg(0)
	}
	if cartPath == "" {
		flagSet.Usage()
		os.Exit(1)
	}

	vm, err := NewVM(dataDir)
	if err != nil {
		fmt.Printf("Error initialising VM: %v\n", err)
		os.Exit(1)
	}
	defer vm.Close()
	vm.instrBudget = instrBudget

	if err := vm.Load(cartPath); err != nil {
		fmt.Printf("Error loading cartridge: %v\n", err)
		os.Exit(1)
	}
	if err := vm.Run(); err != nil {
		fmt.Printf("Error running cartridge: %v\n", err)
		os.Exit(1)
	}

	embedder := NewTerminalEmbedder(vm)
	interactive := stdinIsTerminal()
	if interactive {
		if err := embedder.Start(); err != nil {
			fmt.Printf("%v\n", err)
			interactive = false
		} else {
			defer embedder.Stop()
			fmt.Print("\033[2J")
		}
	}

	dt := 1.0 / float64(fps)
	ticker := time.NewTicker(time.Duration(float64(time.Second) * dt))
	defer ticker.Stop()

	for frame := 0; frames == 0 || frame < frames; frame++ {
		if interactive {
			embedder.Apply()
		}
		if err := vm.Step(dt); err != nil {
			fmt.Printf("\033[0m\r\nScript error: %v\n", err)
			os.Exit(1)
		}
		if show && interactive {
			embedder.DrawScreen(os.Stdout)
		}
		if interactive && embedder.QuitRequested() {
			break
		}
		<-ticker.C
	}
}
