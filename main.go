package main

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/fatih/color"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	exitOK    = 0
	exitError = 1
)

const usage = "Load:  y0l0 load <image.png>\nStore: y0l0 store <input-image> <output.png> [palette]\n"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		return exitError
	}

	cfg, err := LoadConfig(envString("CONFIG", defaultConfigFile))
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		return exitError
	}

	log := NewLogger(cfg.DevMode, cfg.LogFile)
	defer log.Sync()

	switch {
	case args[0] == "load" && len(args) == 2:
		if err := loadImage(cfg, log, args[1]); err != nil {
			log.Error("load failed", zap.String("path", args[1]), zap.Error(err))
			return exitError
		}
	case args[0] == "store" && (len(args) == 3 || len(args) == 4):
		usePalette := len(args) == 4
		if usePalette && args[3] != "palette" {
			fmt.Fprint(os.Stderr, usage)
			return exitError
		}
		if err := storeImage(cfg, log, args[1], args[2], usePalette); err != nil {
			log.Error("store failed", zap.String("input", args[1]), zap.String("output", args[2]), zap.Error(err))
			return exitError
		}
	default:
		fmt.Fprint(os.Stderr, usage)
		return exitError
	}
	return exitOK
}

func loadImage(cfg Config, log *zap.Logger, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	s, err := NewDecoder(cfg.DecoderOptions(log)).DecodeStream(f)
	if err != nil {
		return err
	}

	color.New(color.FgGreen, color.Bold).Printf("Loaded %s\n", path)
	fmt.Printf("  size:       %dx%d\n", s.Image.Width(), s.Image.Height())
	fmt.Printf("  color mode: %v, %d-bit\n", s.Header.ColorMode, s.Header.BitDepth)
	if s.Palette != nil {
		fmt.Printf("  palette:    %d entries\n", len(s.Palette))
	}
	return nil
}

func storeImage(cfg Config, log *zap.Logger, inPath, outPath string, usePalette bool) error {
	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", inPath, err)
	}
	defer in.Close()

	src, format, err := image.Decode(in)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", inPath, err)
	}
	img, err := FromImage(src)
	if err != nil {
		return err
	}

	var pal Palette
	if usePalette {
		if pal, err = PaletteOf(img); err != nil {
			return err
		}
	}

	if err := NewEncoder(cfg.EncoderOptions(log)).EncodeFile(outPath, img, pal); err != nil {
		return err
	}

	mode := ColorRGBA
	if pal != nil {
		mode = ColorPalette
	}
	color.New(color.FgGreen, color.Bold).Printf("Stored %s (%s) → %s\n", inPath, format, outPath)
	fmt.Printf("  size:       %dx%d\n", img.Width(), img.Height())
	fmt.Printf("  color mode: %v\n", mode)
	return nil
}
