package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/yieldshift/sidecar/internal/config"
	"github.com/yieldshift/sidecar/internal/logger"
	"github.com/yieldshift/sidecar/internal/metrics"
	"github.com/yieldshift/sidecar/pkg/eventBus"
	"github.com/yieldshift/sidecar/pkg/viewModel"
	"go.uber.org/zap"
)

const (
	vaultsFormat  = "format"
	vaultsTimeout = "timeout"

	vaultsFormat_Table = "table"
	vaultsFormat_Csv   = "csv"
)

var vaultsCmd = &cobra.Command{
	Use:   "vaults",
	Short: "Read every vault once and print the summaries",
	RunE: func(cmd *cobra.Command, args []string) error {
		initRunCmd(cmd)
		cfg := config.NewConfig()

		l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})

		ctx, cancel := context.WithTimeout(context.Background(), viper.GetDuration(vaultsTimeout))
		defer cancel()

		source, err := newDataSource(ctx, cfg, metrics.NewNoopMetricsSink(), l)
		if err != nil {
			return err
		}
		defer source.Close()

		d, err := newDashboard(cfg, source, eventBus.NewEventBus(l), metrics.NewNoopMetricsSink(), l)
		if err != nil {
			return err
		}
		d.Refresh(ctx)

		section := d.Vaults()
		if !section.Enabled {
			return errors.New("vault reads are disabled: no yield oracle configured for this chain")
		}
		if section.Error != "" && section.Loading {
			return errors.Errorf("failed to read vaults: %s", section.Error)
		}
		if section.Error != "" {
			l.Sugar().Warnw("Vault read reported an error", zap.String("error", section.Error))
		}

		switch viper.GetString(vaultsFormat) {
		case vaultsFormat_Csv:
			return gocsv.Marshal(section.Value.Vaults, os.Stdout)
		case vaultsFormat_Table:
			return writeVaultTable(os.Stdout, section.Value.Vaults)
		default:
			return errors.Errorf("unsupported format '%s'", viper.GetString(vaultsFormat))
		}
	},
}

func writeVaultTable(out io.Writer, vaults []viewModel.VaultSummary) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tADDRESS\tAPY\tRISK\tSTATUS\tDEPOSITED\tHARVESTED")
	for _, v := range vaults {
		fmt.Fprintf(w, "%s\t%s\t%s%%\t%d (%s)\t%s\t%s\t%s\n",
			v.Name,
			viewModel.ShortenAddress(v.Address),
			v.APY,
			v.RiskScore,
			v.RiskLabel,
			v.Status,
			orDash(v.Deposited),
			orDash(v.Harvested),
		)
	}
	return w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
