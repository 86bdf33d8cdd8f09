package main

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/callmatch/internal/cascade"
	"github.com/sells-group/callmatch/internal/config"
	"github.com/sells-group/callmatch/internal/crm"
	"github.com/sells-group/callmatch/internal/dispatch"
	"github.com/sells-group/callmatch/internal/enrich"
	"github.com/sells-group/callmatch/internal/export"
	"github.com/sells-group/callmatch/internal/fetcher"
	"github.com/sells-group/callmatch/internal/intake"
	"github.com/sells-group/callmatch/internal/sourcea"
	"github.com/sells-group/callmatch/internal/sourceb"
)

// callExts are the call import formats picked up from the calls directory.
var callExts = []string{".xlsx", ".csv"}

var (
	runCallsDir  string
	runOutputDir string
	runLinkDeals bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Resolve every call import and write the CRM import workbooks",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyDirFlags(cfg, runCallsDir, runOutputDir)
		if cmd.Flags().Changed("link-deals") {
			cfg.SourceB.LinkCRMDeals = runLinkDeals
		}
		if err := cfg.Validate("run"); err != nil {
			return err
		}
		return runCalls(cmd.Context(), cfg)
	},
}

func init() {
	runCmd.Flags().StringVar(&runCallsDir, "calls-dir", "", "directory of call imports (overrides input.calls_dir)")
	runCmd.Flags().StringVar(&runOutputDir, "output-dir", "", "output directory (overrides output.dir)")
	runCmd.Flags().BoolVar(&runLinkDeals, "link-deals", false, "follow up calls whose contact carries a CRM deal id (overrides source_b.link_crm_deals)")
	rootCmd.AddCommand(runCmd)
}

func applyDirFlags(c *config.Config, callsDir, outputDir string) {
	if callsDir != "" {
		c.Input.CallsDir = callsDir
	}
	if outputDir != "" {
		c.Output.Dir = outputDir
	}
}

func newPolicy(c *config.Config) enrich.Policy {
	return enrich.Policy{
		Analyst:           c.Policy.Analyst,
		DealOwner:         c.Policy.DealOwner,
		TrackingFlag:      c.Policy.TrackingFlag,
		JuniorAgent:       c.Policy.JuniorAgent,
		PlaceholderAgents: c.Policy.PlaceholderAgents,
	}
}

func runCalls(ctx context.Context, c *config.Config) error {
	files, err := fetcher.ListFiles(c.Input.CallsDir, callExts...)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		zap.L().Info("run: no call imports, nothing to do", zap.String("dir", c.Input.CallsDir))
		return nil
	}

	tables, err := dispatch.LoadTables(c.Rules.Designations, c.Rules.Conditions)
	if err != nil {
		return err
	}
	engine := dispatch.NewEngine(tables)

	tz, err := enrich.LoadTimezones(ctx, c.Input.Timezones)
	if err != nil {
		return err
	}

	deals, err := crm.LoadExport(c.Input.CRMExport)
	if err != nil {
		return &cascade.UnavailableError{Source: "crm_export", Err: err}
	}
	index := crm.NewIndex(deals)

	storeA, err := sourcea.Open(c.SourceA.Path, c.SourceA.Table)
	if err != nil {
		return &cascade.UnavailableError{Source: "source_a", Err: err}
	}
	defer storeA.Close() //nolint:errcheck
	records, err := storeA.Records(ctx)
	if err != nil {
		return &cascade.UnavailableError{Source: "source_a", Err: err}
	}

	storeB, err := sourceb.Open(ctx, c.SourceB.DatabaseURL, sourceb.Options{
		Driver:          c.SourceB.Driver,
		MaxConns:        c.SourceB.MaxConns,
		ConnectAttempts: c.SourceB.ConnectAttempts,
	})
	if err != nil {
		return &cascade.UnavailableError{Source: "source_b", Err: err}
	}
	defer storeB.Close()
	snap, err := storeB.Snapshot(ctx)
	if err != nil {
		return &cascade.UnavailableError{Source: "source_b", Err: err}
	}

	policy := newPolicy(c)
	stageA := sourcea.NewStage(records, policy, tz)
	stageB := sourceb.NewStage(snap, policy, tz)

	var opts []cascade.Option
	if c.SourceB.LinkCRMDeals {
		opts = append(opts, cascade.WithDealLink(stageB))
	}
	runner := cascade.NewRunner(index, engine, policy, tz, []cascade.Stage{stageA, stageB}, opts...)
	writer := export.NewWriter(c.Output.Dir)

	zap.L().Info("run: sources loaded",
		zap.Int("files", len(files)),
		zap.Int("deals", index.Len()),
		zap.Int("source_a_records", len(records)),
		zap.Int("source_b_phones", len(snap.Phones)),
	)

	for i, file := range files {
		n := i + 1
		log := zap.L().With(zap.Int("file_no", n), zap.String("file", file))

		calls, err := intake.ReadCalls(ctx, file)
		if err != nil {
			return eris.Wrapf(err, "run: read %s", file)
		}
		report, err := runner.Run(calls)
		if errors.Is(err, cascade.ErrNoInput) {
			log.Info("run: call import is empty, skipping")
			continue
		}
		if err != nil {
			return eris.Wrapf(err, "run: resolve %s", file)
		}

		written, err := writer.WriteReport(n, report)
		if err != nil {
			return err
		}
		log.Info("run: call import done",
			zap.Int("skipped", report.Skipped),
			zap.Int("follow_ups", len(report.FollowUps)),
			zap.Int("new_deals", len(report.NewDeals)),
			zap.Int("no_results", len(report.NoResults)),
			zap.String("new_deals_file", written.NewDeals),
			zap.String("follow_up_file", written.FollowUp),
			zap.String("no_result_file", written.NoResult),
		)
	}
	return nil
}
