package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is stamped by the build; "dev" otherwise.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "todolistd",
	Short: "todolistd is a priority-ordered todo list HTTP service",
	Long: `todolistd serves a JSON REST API for todo lists and todo items.

Item priorities are kept unique within each list: creating or moving an
item onto an occupied priority pushes the occupying items down. Storage is
a local SQLite file by default, or PostgreSQL when TODOLISTD_DATABASE_URL
is set.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the todolistd version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("todolistd", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}
