package main

import (
	"os"

	"github.com/andresuchdata/autotransfer/backend-go/internal/config"
	"github.com/andresuchdata/autotransfer/backend-go/pkg/logger"
	"github.com/urfave/cli/v2"
)

func newInventoryFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "inventory",
		Aliases:  []string{"i"},
		Usage:    "Inventory export (.xlsx, .xls, .csv) or drive://<file id>",
		Required: true,
		EnvVars:  []string{"TRANSFER_INVENTORY"},
	}
}

func main() {
	cfg := config.Load()
	logger.SetFormat(cfg.App.LogFormat)

	app := &cli.App{
		Name:  "autotransfer",
		Usage: "Turn demand and warehouse stock into transfer order workbooks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.SetLevel(c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Allocate demand against inventory and write the transfer workbooks",
				Flags: []cli.Flag{
					newInventoryFlag(),
					&cli.StringFlag{
						Name:     "demand",
						Aliases:  []string{"d"},
						Usage:    "Demand sheet (.xlsx, .xls, .csv), JSON array (.json), or - to read pasted rows from stdin",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "plan",
						Usage: "Pickup plan whose reservations are deducted before allocating",
					},
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Directory the workbooks are written to",
						Value:   cfg.App.OutputDir,
					},
					&cli.StringFlag{
						Name:  "partition-by",
						Usage: "Split files by zone, warehouse or tag",
						Value: cfg.Transfer.PartitionBy,
					},
				},
				Action: func(c *cli.Context) error {
					return runTransfer(c, cfg)
				},
			},
			{
				Name:  "inspect",
				Usage: "Show how an inventory sheet is read without allocating",
				Flags: []cli.Flag{newInventoryFlag()},
				Action: func(c *cli.Context) error {
					return inspectInventory(c, cfg)
				},
			},
			{
				Name:  "drive-files",
				Usage: "List the spreadsheets in a Google Drive folder",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "folder",
						Usage:    "Folder path, e.g. 库存/每日",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					return listDriveFiles(c, cfg)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("autotransfer failed")
	}
}
