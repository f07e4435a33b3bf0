// Command pagedlist serves and fetches the paged movie discovery list.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("pagedlist failed")
	}
}

func envFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "env",
		Usage: "path to an optional .env file",
		Value: ".env",
	}
}

func sortFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "sort",
		Usage: "sort order (popularity, vote_average, release_date, revenue); overrides MOVIES_SORT",
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "pagedlist",
		Usage: "paged movie discovery list backed by a sequential page-job executor",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP service",
				Flags: []cli.Flag{
					envFlag(),
					sortFlag(),
					&cli.IntFlag{
						Name:  "port",
						Usage: "HTTP port (overrides PAGEDLIST_PORT)",
					},
				},
				Action: serveAction,
			},
			{
				Name:  "fetch",
				Usage: "load pages of the list and print the movies as JSON lines",
				Flags: []cli.Flag{
					envFlag(),
					sortFlag(),
					&cli.IntFlag{
						Name:  "pages",
						Usage: "number of pages to load",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "retries",
						Usage: "times failed pages are retried before giving up",
						Value: 2,
					},
					&cli.BoolFlag{
						Name:  "refresh",
						Usage: "drop cached pages of the sort order before loading",
					},
				},
				Action: fetchAction,
			},
		},
	}
}
