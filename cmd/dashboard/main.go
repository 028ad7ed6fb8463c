package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/roivaz/azdo-pr-dashboard/internal/config"
)

func main() {
	root := &cobra.Command{
		Use:   "dashboard",
		Short: "Azure DevOps pull request dashboard",
	}

	root.PersistentFlags().String("org", "", "Azure DevOps organization")
	root.PersistentFlags().String("project", "", "Azure DevOps project")
	root.PersistentFlags().String("token", "", "Personal access token or OAuth bearer token")
	root.PersistentFlags().String("auth-mode", "", "Credential scheme: basic (PAT) or bearer")
	root.PersistentFlags().String("base-url", "", "Azure DevOps base URL")
	root.PersistentFlags().Int("concurrency", 16, "Pull requests enriched in parallel (0 = unlimited)")
	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(newServeCmd(), newListCmd())

	config.Init(root)

	if err := root.Execute(); err != nil {
		log.Fatalf("dashboard: %v", err)
	}
}
