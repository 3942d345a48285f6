package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/guiapi"
	"github.com/aretw0/guiapi/internal/presentation/tui"
	"github.com/aretw0/guiapi/pkg/page"
	"github.com/spf13/cobra"
)

var callCmd = &cobra.Command{
	Use:   "call <action> [args-json]",
	Short: "Submit an action and apply the results to the page",
	Long: `Loads the page from the configured store (creating it from the configured
markup on first use), submits the action to the endpoint, applies the
returned HTML updates and function calls, saves the page and prints a report.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var actionArgs any
		if len(args) == 2 {
			if !json.Valid([]byte(args[1])) {
				return fmt.Errorf("args is not valid JSON: %s", args[1])
			}
			actionArgs = json.RawMessage(args[1])
		}

		sessions, closeStore, err := openSessions(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		out, snapshot, err := guiapi.CallStored(cmd.Context(), sessions, guiapi.StoredCall{
			PageID:   cfg.Page.ID,
			Markup:   cfg.Page.Markup,
			Endpoint: cfg.Endpoint,
			Action:   args[0],
			Args:     actionArgs,
		}, clientOptions(cfg)...)
		if err != nil {
			return err
		}

		render := tui.RendererFor(os.Stdout)
		report, err := render(tui.ReportMarkdown([]string{args[0]}, out))
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), report)

		showHTML, _ := cmd.Flags().GetBool("html")
		selector, _ := cmd.Flags().GetString("selector")
		if showHTML || selector != "" {
			return printHTML(cmd, snapshot, selector)
		}
		return nil
	},
}

func printHTML(cmd *cobra.Command, snapshot *page.Snapshot, selector string) error {
	if selector == "" {
		fmt.Fprintln(cmd.OutOrStdout(), snapshot.HTML)
		return nil
	}
	doc, err := page.NewDocument(snapshot.HTML)
	if err != nil {
		return err
	}
	inner, ok := doc.InnerHTML(selector)
	if !ok {
		return fmt.Errorf("no element matches %q", selector)
	}
	fmt.Fprintln(cmd.OutOrStdout(), inner)
	return nil
}

func init() {
	rootCmd.AddCommand(callCmd)
	callCmd.Flags().Bool("html", false, "Print the page markup after applying")
	callCmd.Flags().String("selector", "", "Print only the inner HTML matching this selector")
}
