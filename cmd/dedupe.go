package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/callmatch/internal/config"
	"github.com/sells-group/callmatch/internal/export"
	"github.com/sells-group/callmatch/internal/fetcher"
	"github.com/sells-group/callmatch/internal/intake"
)

var (
	dedupeCallsDir  string
	dedupeOutputDir string
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Keep the earliest call per origin number in each call import",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyDirFlags(cfg, dedupeCallsDir, dedupeOutputDir)
		if err := cfg.Validate("dedupe"); err != nil {
			return err
		}
		return dedupeCalls(cmd.Context(), cfg)
	},
}

func init() {
	dedupeCmd.Flags().StringVar(&dedupeCallsDir, "calls-dir", "", "directory of call imports (overrides input.calls_dir)")
	dedupeCmd.Flags().StringVar(&dedupeOutputDir, "output-dir", "", "output directory (overrides output.dir)")
	rootCmd.AddCommand(dedupeCmd)
}

func dedupeCalls(ctx context.Context, c *config.Config) error {
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
		unique, dupes, err := intake.Dedupe(t)
		if err != nil {
			return err
		}
		if _, err := writer.WriteTable(export.DirNoDupes, "No Duplicates", file, unique); err != nil {
			return err
		}
		if len(dupes.Rows) > 0 {
			if _, err := writer.WriteTable(export.DirDupes, "Duplicates", file, dupes); err != nil {
				return err
			}
		}
		zap.L().Info("dedupe: call import done",
			zap.String("file", file),
			zap.Int("kept", len(unique.Rows)),
			zap.Int("duplicates", len(dupes.Rows)),
		)
	}
	return nil
}
