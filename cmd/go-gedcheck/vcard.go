package main

import (
	"bytes"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-gedcheck/internal/config"
	"github.com/tartampluch/go-gedcheck/internal/report"
)

func newExportVCardCmd(a *cli) *cobra.Command {
	var (
		src    sourceFlags
		dates  dateFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   config.CmdExportVCard,
		Short: config.CmdShortVCard,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.settings
			src.apply(cmd, args, s)
			dates.apply(cmd, s)
			if err := s.Validate(); err != nil {
				return err
			}

			// Detection runs too but only the document is exported.
			an, err := newAnalyzer(s, nil, a.now())
			if err != nil {
				return err
			}
			res, err := an.Run(cmd.Context(), sourceConfig(s))
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			n, err := report.WriteVCards(&buf, res.Document)
			if err != nil {
				return err
			}
			slog.Info(config.MsgReportWritten,
				config.LogKeyComponent, config.CompReport,
				config.LogKeyFormat, "vcard",
				config.LogKeyCount, n,
			)
			return writeOutput(cmd.OutOrStdout(), output, buf.Bytes())
		},
	}

	src.register(cmd)
	dates.register(cmd)
	cmd.Flags().StringVarP(&output, config.FlagOutput, "o", "", config.FlagDescOutput)
	return cmd
}
