package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var pageCmd = &cobra.Command{
	Use:   "page",
	Short: "Manage persisted pages",
	Long:  `List, inspect, and remove pages stored in the configured page store.`,
}

var pageLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored pages",
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, closeStore, err := openSessions(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		ids, err := sessions.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing pages: %w", err)
		}
		if len(ids) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No pages found.")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Pages:")
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), "- "+id)
		}
		return nil
	},
}

var pageInspectCmd = &cobra.Command{
	Use:   "inspect <page-id>",
	Short: "Print a stored page as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, closeStore, err := openSessions(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		snapshot, err := sessions.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("loading page '%s': %w", args[0], err)
		}
		data, err := json.MarshalIndent(snapshot, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var pageRmCmd = &cobra.Command{
	Use:   "rm <page-id>...",
	Short: "Remove one or more pages",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, closeStore, err := openSessions(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		var failed int
		for _, id := range args {
			if err := sessions.Delete(cmd.Context(), id); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", id, err)
				failed++
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed page '%s'\n", id)
		}
		if failed > 0 {
			return fmt.Errorf("%d page(s) could not be removed", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pageCmd)
	pageCmd.AddCommand(pageLsCmd)
	pageCmd.AddCommand(pageInspectCmd)
	pageCmd.AddCommand(pageRmCmd)
}
