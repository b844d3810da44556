// Package preview renders a map and writes a set of downscaled preview
// images next to the full-size one.
package preview

import (
	"flag"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/nfnt/resize"
	"github.com/rs/zerolog/log"

	"github.com/tilekit/tmx"
	"github.com/tilekit/tmx/internal/render"
)

var sizes = []uint{128, 256, 512, 1024}

// Run is the entrypoint of the preview subcommand.
func Run(flagSet *flag.FlagSet) {
	inputPtr := flagSet.String("in", "", "Path to TMX map file")
	outputPtr := flagSet.String("out", "", "Path to output directory")

	flagSet.Parse(os.Args[2:])

	if *inputPtr == "" || *outputPtr == "" {
		flagSet.PrintDefaults()
		os.Exit(1)
	}

	info, err := os.Stat(*outputPtr)
	if err != nil || !info.IsDir() {
		log.Fatal().Str("dir", *outputPtr).Msg("output directory doesn't exist")
	}

	start := time.Now()

	m, err := tmx.ParseMapFile(*inputPtr)
	if err != nil {
		log.Fatal().Err(err).Msg("parsing map")
	}

	full, err := render.New(m, filepath.Dir(*inputPtr), log.Logger).Render()
	if err != nil {
		log.Fatal().Err(err).Msg("rendering map")
	}

	if err := render.SaveImage(path.Join(*outputPtr, "preview.png"), full); err != nil {
		log.Fatal().Err(err).Msg("writing preview")
	}

	fullWidth := full.Bounds().Dx()
	fullHeight := full.Bounds().Dy()

	for _, size := range sizes {
		timer := time.Now()

		factor := float64(size) / float64(fullHeight)
		w := uint(float64(fullWidth) * factor)

		img := resize.Resize(w, size, full, resize.MitchellNetravali)
		name := path.Join(*outputPtr, fmt.Sprintf("preview_%d.png", size))
		if err := render.SaveImage(name, img); err != nil {
			log.Fatal().Err(err).Msg("writing preview")
		}

		log.Info().Uint("size", size).Dur("took", time.Since(timer)).Msg("built preview image")
	}

	log.Info().Dur("took", time.Since(start)).Msg("finished")
}
