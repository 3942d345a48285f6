package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/guiapi"
	"github.com/aretw0/guiapi/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of guiapi",
	Run: func(cmd *cobra.Command, args []string) {
		if banner, _ := cmd.Flags().GetBool("banner"); banner {
			tui.PrintBanner(os.Stdout, strings.TrimSpace(guiapi.Version))
			return
		}
		fmt.Printf("guiapi version %s\n", strings.TrimSpace(guiapi.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("banner", false, "Print the banner")
}
