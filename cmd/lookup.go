package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/callmatch/internal/config"
	"github.com/sells-group/callmatch/internal/crm"
	"github.com/sells-group/callmatch/internal/export"
	"github.com/sells-group/callmatch/internal/fetcher"
)

var (
	lookupCallsDir  string
	lookupOutputDir string
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Fill missing deal ids in call imports from the CRM export",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyDirFlags(cfg, lookupCallsDir, lookupOutputDir)
		if err := cfg.Validate("lookup"); err != nil {
			return err
		}
		return lookupDeals(cmd.Context(), cfg)
	},
}

func init() {
	lookupCmd.Flags().StringVar(&lookupCallsDir, "calls-dir", "", "directory of call imports (overrides input.calls_dir)")
	lookupCmd.Flags().StringVar(&lookupOutputDir, "output-dir", "", "output directory (overrides output.dir)")
	rootCmd.AddCommand(lookupCmd)
}

func lookupDeals(ctx context.Context, c *config.Config) error {
	deals, err := crm.LoadExport(c.Input.CRMExport)
	if err != nil {
		return err
	}
	index := crm.NewIndex(deals)

	files, err := fetcher.ListFiles(c.Input.CallsDir, callExts...)
	if err != nil {
		return err
	}
	writer := export.NewWriter(c.Output.Dir)
	for _, file := range files {
		t, err := fetcher.ReadTable(ctx, file)
		if err != nil {
			return err
		}
		filled, err := crm.AssignDealIDs(t, index, c.Policy.LookupResolver)
		if err != nil {
			return err
		}
		path, err := writer.WriteTable(export.DirLookup, "Lookup Output", file, t)
		if err != nil {
			return err
		}
		zap.L().Info("lookup: wrote call import", zap.String("path", path), zap.Int("filled", filled), zap.Int("rows", len(t.Rows)))
	}
	return nil
}
