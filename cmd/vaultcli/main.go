package main

import (
	"context"
	"log"
	"os"

	"github.com/cryptovault/vaultd/internal/buildinfo"
	"github.com/cryptovault/vaultd/internal/cli"
	"github.com/cryptovault/vaultd/internal/server/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(ctx, cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
