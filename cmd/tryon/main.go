package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/Hitansu2004/AI-TryOn-Studio/cmd/tryon/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "tryon",
		Usage: "Command line client for the virtual try-on service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env",
				Usage: "path to an env file",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:    "api",
				Usage:   "try-on backend base URL (overrides TRYON_API_BASE_URL)",
				Sources: cli.EnvVars("TRYON_API"),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log request details to stderr",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "products",
				Usage: "list catalog products",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "category",
						Usage: "only show products in this category",
					},
				},
				Action: commands.ProductListAction,
			},
			{
				Name:  "product",
				Usage: "show a single product",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "product id",
						Required: true,
					},
				},
				Action: commands.ProductShowAction,
			},
			{
				Name:   "jobs",
				Usage:  "list recent try-on jobs",
				Action: commands.JobListAction,
			},
			{
				Name:  "status",
				Usage: "show the status of a try-on job",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "job",
						Usage:    "job id",
						Required: true,
					},
				},
				Action: commands.JobStatusAction,
			},
			{
				Name:  "submit",
				Usage: "submit a try-on job",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "product",
						Usage: "catalog product id",
					},
					&cli.StringFlag{
						Name:  "product-image",
						Usage: "path to a product photo (instead of --product)",
					},
					&cli.StringFlag{
						Name:  "user-image",
						Usage: "path to the user photo",
					},
					&cli.StringFlag{
						Name:  "camera-frame",
						Usage: "capture the user photo from a still frame, resized and re-encoded like a camera capture",
					},
					&cli.StringFlag{
						Name:  "prompt",
						Usage: "optional prompt",
					},
					&cli.BoolFlag{
						Name:  "wait",
						Usage: "poll until the job finishes",
					},
					&cli.StringFlag{
						Name:  "out-dir",
						Usage: "with --wait, save the result image under this directory",
					},
					&cli.StringFlag{
						Name:  "zip",
						Usage: "with --wait, write a bundle with the result and inputs to this path",
					},
				},
				Action: commands.SubmitAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
