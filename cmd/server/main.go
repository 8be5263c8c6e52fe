package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/farmhand/internal/logging"
	"github.com/dmitrijs2005/farmhand/internal/server"
	"github.com/dmitrijs2005/farmhand/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewJSONLogger(os.Stdout, cfg.SlogLevel())

	app, err := server.NewApp(ctx, cfg, logger)

	if err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}

	app.Run(ctx)

}
