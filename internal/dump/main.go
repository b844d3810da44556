// Package dump prints a textual summary of a parsed map.
package dump

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/tilekit/tmx"
)

// Run is the entrypoint of the dump subcommand.
func Run(flagSet *flag.FlagSet) {
	inputPtr := flagSet.String("in", "", "Path to TMX map file")

	flagSet.Parse(os.Args[2:])

	if *inputPtr == "" {
		flagSet.PrintDefaults()
		os.Exit(1)
	}

	m, err := tmx.ParseMapFile(*inputPtr)
	if err != nil {
		log.Fatal().Err(err).Msg("parsing map")
	}

	if err := Fdump(os.Stdout, m); err != nil {
		log.Fatal().Err(err).Msg("dumping map")
	}
}

// Fdump writes a summary of the map to w.
func Fdump(w io.Writer, m *tmx.Map) error {
	fmt.Fprintf(w, "map: %s %dx%d, tiles %dx%d px, %d tileset(s)\n",
		m.Orientation, m.Width, m.Height, m.TileWidth, m.TileHeight, len(m.Tilesets))

	for _, ts := range m.Tilesets {
		src := "embedded"
		if ts.Source != "" {
			src = ts.Source
		}
		fmt.Fprintf(w, "tileset %q: firstgid=%d count=%d (%s)\n",
			ts.Name, ts.FirstGID, ts.TileCount, src)
	}

	return tmx.WalkLayers(m, tmx.LayerVisitorFuncs{
		TileLayer: func(_ *tmx.Map, l *tmx.TileLayer) error {
			used := 0
			for _, c := range l.Cells {
				if !c.Empty() {
					used++
				}
			}
			fmt.Fprintf(w, "tile layer %q: %dx%d, %d cell(s) set, %d chunk(s)\n",
				l.Name, l.Width, l.Height, used, len(l.Chunks))
			return nil
		},
		ObjectGroup: func(_ *tmx.Map, l *tmx.ObjectGroup) error {
			fmt.Fprintf(w, "object group %q: %d object(s)\n", l.Name, len(l.Objects))
			return nil
		},
		ImageLayer: func(_ *tmx.Map, l *tmx.ImageLayer) error {
			src := ""
			if l.Image != nil {
				src = l.Image.Source
			}
			fmt.Fprintf(w, "image layer %q: %s\n", l.Name, src)
			return nil
		},
		GroupLayer: func(_ *tmx.Map, l *tmx.GroupLayer) error {
			fmt.Fprintf(w, "group %q: %d layer(s)\n", l.Name, len(l.Layers))
			return nil
		},
	})
}
