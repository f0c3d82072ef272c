package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/gemora/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print the gemora version. --long adds the commit, build date, Go version and
platform; --format json or yaml prints every field.`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

var versionLong bool

func init() {
	versionCmd.Flags().BoolVar(&versionLong, "long", false, "show commit, build date and platform")

	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	info := version.GetInfo()

	if versionLong || (cc.Format != "" && cc.Format != "text") {
		return emit(cmd, cc.Format, cc.NoColor, info, nil)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "gemora %s\n", info.Version)
	return err
}
