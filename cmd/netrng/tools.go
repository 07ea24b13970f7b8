package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/infincia/netrng/internal/cliconfig"
	"github.com/infincia/netrng/internal/device"
	"github.com/infincia/netrng/internal/entropycheck"
	"github.com/infincia/netrng/pkg/log"
)

func newCalibrateCmd(cfg *cliconfig.Config, cfgPath *string) *cobra.Command {
	period := device.DefaultCalibrationPeriod

	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Measure entropy device throughput and suggest max_clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := loadConfig(cmd, cfg, *cfgPath, cliconfig.ModeServer)
			if err != nil {
				return err
			}

			guard, err := device.Open(cfg.HWRNGDevice, device.WithLogger(logger))
			if err != nil {
				return err
			}
			defer guard.Close()

			logger.Info("calibrating entropy device",
				log.String("device", cfg.HWRNGDevice),
				log.Int("sample_size", cfg.SampleSizeBytes),
				log.Duration("period", period),
			)
			c, err := device.Calibrate(cmd.Context(), guard, cfg.SampleSizeBytes, period)
			if err != nil {
				return err
			}

			logger.Info("calibration complete",
				log.Int64("bytes", c.Bytes),
				log.Duration("elapsed", c.Elapsed),
				log.Float64("bytes_per_second", c.BytesPerSecond),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %.0f bytes/s, max_clients = %d at sample_size_bytes = %d\n",
				cfg.HWRNGDevice, c.BytesPerSecond, c.MaxClients(cfg.SampleSizeBytes), cfg.SampleSizeBytes)
			return nil
		},
	}
	cmd.Flags().DurationVar(&period, "period", period, "how long to read from the device")
	return cmd
}

func newEntropyCheckCmd(cfg *cliconfig.Config, cfgPath *string) *cobra.Command {
	m := entropycheck.Monitor{
		Path:     entropycheck.DefaultPath,
		Interval: entropycheck.DefaultInterval,
	}

	cmd := &cobra.Command{
		Use:   "entropycheck",
		Short: "Log the kernel entropy estimate until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := loadConfig(cmd, cfg, *cfgPath, "")
			if err != nil {
				return err
			}
			m.Logger = logger
			return m.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&m.Path, "path", m.Path, "entropy estimate file")
	cmd.Flags().DurationVar(&m.Interval, "interval", m.Interval, "time between readings")
	return cmd
}
