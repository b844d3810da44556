package render

import (
	"flag"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tilekit/tmx"
)

// Run is the entrypoint of the render subcommand.
func Run(flagSet *flag.FlagSet) {
	inputPtr := flagSet.String("in", "", "Path to TMX map file")
	outputPtr := flagSet.String("out", "", "Path to output PNG file")

	flagSet.Parse(os.Args[2:])

	if *inputPtr == "" || *outputPtr == "" {
		flagSet.PrintDefaults()
		os.Exit(1)
	}

	start := time.Now()

	m, err := tmx.ParseMapFile(*inputPtr)
	if err != nil {
		log.Fatal().Err(err).Msg("parsing map")
	}
	log.Info().
		Str("map", *inputPtr).
		Int("width", m.Width).
		Int("height", m.Height).
		Msg("parsed map")

	r := New(m, filepath.Dir(*inputPtr), log.Logger)
	img, err := r.Render()
	if err != nil {
		log.Fatal().Err(err).Msg("rendering map")
	}

	if err := SaveImage(*outputPtr, img); err != nil {
		log.Fatal().Err(err).Msg("writing output")
	}

	log.Info().Str("out", *outputPtr).Dur("took", time.Since(start)).Msg("rendered map")
}

// SaveImage writes img as PNG.
func SaveImage(path string, img image.Image) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
