package main

import (
	"flag"
	"os"
	"runtime"

	"github.com/gekko3d/rasterizer"
	"github.com/gekko3d/rasterizer/raster/rt/app"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "YAML file overriding the built-in configuration")
	debug := flag.Bool("debug", false, "Enable debug logging")
	progress := flag.Bool("progress", false, "Show a progress bar while loading the scene")
	flag.Parse()

	log := rasterizer.NewDefaultLogger("raster", *debug)
	if err := run(*configPath, *debug, *progress, log); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(configPath string, debug, progress bool, log rasterizer.Logger) error {
	cfg := rasterizer.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = rasterizer.LoadConfig(configPath); err != nil {
			return err
		}
	}
	cfg.Debug = cfg.Debug || debug
	cfg.ShowProgress = cfg.ShowProgress || progress
	log.SetDebug(cfg.Debug)

	application := app.NewApp(cfg, log)
	defer application.Release()

	if err := application.Start(); err != nil {
		return err
	}
	return application.Run()
}
