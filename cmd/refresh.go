package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/callmatch/internal/config"
	"github.com/sells-group/callmatch/internal/crm"
	"github.com/sells-group/callmatch/pkg/pipedrive"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Rebuild the CRM export from the Pipedrive API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("refresh"); err != nil {
			return err
		}
		client := pipedrive.NewClient(cfg.CRM.APIToken,
			pipedrive.WithBaseURL(cfg.CRM.BaseURL),
			pipedrive.WithRateLimit(float64(cfg.CRM.RateLimit)),
			pipedrive.WithTimeout(time.Duration(cfg.CRM.TimeoutSecs)*time.Second),
		)
		return refreshExport(cmd.Context(), cfg, client)
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}

func refreshExport(ctx context.Context, c *config.Config, client pipedrive.Client) error {
	deals, err := crm.Refresh(ctx, client, crm.RefreshOptions{
		PageSize:            c.CRM.PageSize,
		BatchSize:           c.CRM.BatchSize,
		TrackingFlagFieldID: c.CRM.TrackingFlagFieldID,
		DealStatusFieldID:   c.CRM.DealStatusFieldID,
		Keys: crm.FieldKeys{
			TrackingFlag:    c.CRM.TrackingFlagKey,
			DealStatus:      c.CRM.DealStatusKey,
			UniqueDBID:      c.CRM.UniqueDBIDKey,
			OfferReady:      c.CRM.OfferReadyKey,
			OfferReadySmall: c.CRM.OfferReadySmallKey,
		},
	})
	if err != nil {
		return err
	}
	if err := crm.WriteExport(c.Input.CRMExport, deals); err != nil {
		return err
	}
	zap.L().Info("refresh: export written", zap.String("path", c.Input.CRMExport), zap.Int("deals", len(deals)))
	return nil
}
