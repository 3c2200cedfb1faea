package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sridharani/designhaven/database/seeders"
	"github.com/sridharani/designhaven/internal/server"
)

// designhaven seed — fill an empty store with the default catalogue.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the default catalogue into an empty store",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := server.Bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close(cmd.Context())
		return seeders.Run(cmd.Context(), app.Store)
	},
}

// designhaven sync — force one reload from the active backend.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reload the shared collections from the active backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := server.Bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close(cmd.Context())

		app.Store.Reload(cmd.Context())
		backend := "local"
		if app.Store.Remote() {
			backend = "remote"
		}
		fmt.Printf("Synced from %s backend.\n", backend)
		return nil
	},
}
