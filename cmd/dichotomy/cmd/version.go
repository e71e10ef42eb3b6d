package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/dichotomy/internal/output"
	"github.com/Aman-CERP/dichotomy/pkg/version"
)

func newVersionCmd() *cobra.Command {
	var asJSON, short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			switch {
			case short:
				_, err := fmt.Fprintln(cmd.OutOrStdout(), info.Version)
				return err
			case asJSON:
				return writeJSON(cmd.OutOrStdout(), info)
			}
			out := output.New(cmd.OutOrStdout())
			out.KeyValue("version", info.Version)
			out.KeyValue("commit", info.Commit)
			out.KeyValue("built", info.Date)
			if info.Modified {
				out.KeyValue("modified", strconv.FormatBool(info.Modified))
			}
			out.KeyValue("go", info.GoVersion)
			out.KeyValue("platform", info.Platform)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print build information as JSON")
	cmd.Flags().BoolVar(&short, "short", false, "Print only the version")
	return cmd
}
