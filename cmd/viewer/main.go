// Command viewer opens a window to author routes with the mouse and watch
// processions walk them.
//
//	viewer [-config procession.toml] [-actor macarena] [-load slot]
package main

import (
	"context"
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/comalice/procession"
	"github.com/comalice/procession/internal/config"
	"github.com/comalice/procession/internal/viewer"
	"github.com/comalice/procession/internal/viewer/scene"
)

func main() {
	configPath := flag.String("config", "", "TOML config file")
	actor := flag.String("actor", "", "brotherhood to select at start")
	load := flag.String("load", "", "save slot to restore")
	flag.Parse()

	if err := run(*configPath, *actor, *load); err != nil {
		log.Fatal(err)
	}
}

func run(configPath, actor, load string) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	if len(cfg.Actors) == 0 {
		cfg.Actors = config.SampleRoster()
	}

	sc := scene.New(nil)
	sim, err := procession.New(procession.WithConfig(cfg), procession.WithRenderer(sc))
	if err != nil {
		return err
	}
	defer sim.Close()
	if load != "" {
		if err := sim.LoadGame(context.Background(), load); err != nil {
			return err
		}
	}
	if actor != "" {
		if err := sim.SelectActor(actor); err != nil {
			return err
		}
	}

	game := viewer.New(sim, sc)
	defer game.Close()

	ebiten.SetWindowTitle("Procession")
	ebiten.SetWindowSize(viewer.Width, viewer.Height)
	return ebiten.RunGame(game)
}
