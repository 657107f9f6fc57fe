package main

import (
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/user-none/emld/cli"
	"github.com/user-none/emld/emu"
	"github.com/user-none/emld/script"
)

func main() {
	scriptPath := flag.String("script", "", "path to a Lua program (built-in demo when empty)")
	statePath := flag.String("state", emu.Name+".state", "save-state file used by F5/F7")
	scale := flag.Int("scale", 4, "initial window scale")
	fullscreen := flag.Bool("fullscreen", false, "start in fullscreen")
	flag.Parse()

	var program script.Program = script.Demo{}
	if *scriptPath != "" {
		if _, err := os.Stat(*scriptPath); err != nil {
			log.Fatalf("script: %v", err)
		}
		program = script.NewEngine(*scriptPath)
	}

	if *scale < 1 {
		*scale = 1
	}

	dev := emu.New()

	ebiten.SetWindowSize(emu.ScreenSize*(*scale), emu.ScreenSize*(*scale))
	ebiten.SetWindowTitle(emu.Name)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(emu.ScreenSize, emu.ScreenSize, -1, -1)
	ebiten.SetTPS(60)
	if *fullscreen {
		ebiten.SetFullscreen(true)
	}

	runner := cli.NewRunner(dev, program, *statePath)
	defer runner.Close()

	if err := ebiten.RunGame(runner); err != nil {
		log.Fatal(err)
	}
}
