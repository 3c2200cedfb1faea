package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sridharani/designhaven/app/routes"
	"github.com/sridharani/designhaven/internal/push"
	"github.com/sridharani/designhaven/internal/server"
	"github.com/sridharani/designhaven/pkg/router"
	"github.com/sridharani/designhaven/pkg/schedule"
)

// designhaven serve — start the HTTP server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Run()
	},
}

// designhaven route:list — print all registered routes.
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List all registered routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := server.Bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close(cmd.Context())

		r := router.New()
		routes.RegisterAPI(r, routes.Deps{
			Store:       app.Store,
			Catalog:     app.Catalog,
			Cart:        app.Cart,
			Orders:      app.Orders,
			Auth:        app.Auth,
			Reviews:     app.Reviews,
			Banner:      app.Banner,
			Broadcaster: push.NewBroadcaster(),
		})

		infos := r.Routes()
		sort.Slice(infos, func(i, j int) bool {
			if infos[i].Path != infos[j].Path {
				return infos[i].Path < infos[j].Path
			}
			return infos[i].Method < infos[j].Method
		})

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		fmt.Fprintln(w, "------\t----\t----")
		for _, ri := range infos {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
		}
		return w.Flush()
	},
}

// designhaven schedule:list — print the registered scheduled tasks.
var scheduleListCmd = &cobra.Command{
	Use:   "schedule:list",
	Short: "List scheduled background tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := server.Bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close(cmd.Context())
		app.Store.RegisterRefresh(cmd.Context())

		for _, line := range schedule.List() {
			fmt.Println(line)
		}
		return nil
	},
}
