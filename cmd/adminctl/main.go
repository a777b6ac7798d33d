package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/aidesk/internal/adminctl"
	"github.com/dmitrijs2005/aidesk/internal/logging"
	"github.com/dmitrijs2005/aidesk/internal/server"
	"github.com/dmitrijs2005/aidesk/internal/server/config"
)

func main() {

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	opts, err := adminctl.ParseOptions(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger, err := logging.New(cfg.LogBackend, cfg.Debug, os.Stderr)
	if err != nil {
		log.Fatalf("%v", err)
	}

	b, err := server.OpenBackend(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer b.DB.Close()

	if err := adminctl.NewApp(b.Service, os.Stdin, os.Stdout).Run(ctx, opts); err != nil {
		log.Printf("%v", err)
		b.DB.Close()
		os.Exit(1)
	}
}
