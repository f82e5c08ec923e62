package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version = "dev"

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Prints the gradewatch version.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}
