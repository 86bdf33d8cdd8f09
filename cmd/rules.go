package main

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/callmatch/internal/config"
	"github.com/sells-group/callmatch/internal/dispatch"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Validate and print the dispatch rule tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printRules(cmd.OutOrStdout(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

func printRules(w io.Writer, c *config.Config) error {
	tables, err := dispatch.LoadTables(c.Rules.Designations, c.Rules.Conditions)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(tables); err != nil {
		return eris.Wrap(err, "rules: encode tables")
	}
	return enc.Close()
}
