package cmd

import (
	"fmt"
	"runtime"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
)

var extended bool

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print version information",
	Long:        "Print version information. Use --extended for full details including Crucible and Go versions.",
	Annotations: map[string]string{annotationConfig: configNotRequired},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		version := versionInfo.Version
		if version == "" {
			version = "dev"
		}

		if !extended {
			_, err := fmt.Fprintf(out, "%s %s\n", binaryName, version)
			return err
		}

		info := crucible.GetVersion()
		_, err := fmt.Fprintf(out,
			"%s %s\nCommit: %s\nBuilt: %s\nGo: %s\n\nGofulmen: %s\nCrucible: %s\n",
			binaryName, version,
			versionInfo.Commit,
			versionInfo.BuildDate,
			runtime.Version(),
			info.Gofulmen,
			info.Crucible,
		)
		return err
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&extended, "extended", "e", false, "show extended version information")
}
