package main

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-gedcheck/internal/config"
	"github.com/tartampluch/go-gedcheck/internal/engine"
	"github.com/tartampluch/go-gedcheck/internal/report"
)

func newAnalyzeCmd(a *cli) *cobra.Command {
	var (
		src    sourceFlags
		dates  dateFlags
		det    detectorFlags
		lang   string
		output string
		format string
		failOn string
	)

	cmd := &cobra.Command{
		Use:   config.CmdAnalyze,
		Short: config.CmdShortAnalyze,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.settings
			src.apply(cmd, args, s)
			dates.apply(cmd, s)
			det.apply(cmd, s)
			applyLang(cmd, lang, s)
			if cmd.Flags().Changed(config.FlagOutput) {
				s.Report.Output = output
			}
			if cmd.Flags().Changed(config.FlagFormat) {
				s.Report.Format = format
			}
			if cmd.Flags().Changed(config.FlagFailOn) {
				s.Report.FailOn = failOn
			}
			if err := s.Validate(); err != nil {
				return err
			}

			loc, err := report.NewLocalizer(s.Report.Language)
			if err != nil {
				return err
			}
			an, err := newAnalyzer(s, loc, a.now())
			if err != nil {
				return err
			}

			res, err := an.Run(cmd.Context(), sourceConfig(s))
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := renderReport(&buf, s.Report.Format, res, loc); err != nil {
				return err
			}
			if err := writeOutput(cmd.OutOrStdout(), s.Report.Output, buf.Bytes()); err != nil {
				return err
			}
			return checkFailOn(res.Findings, s.Report.FailOn)
		},
	}

	src.register(cmd)
	dates.register(cmd)
	det.register(cmd)
	registerLang(cmd, &lang)
	cmd.Flags().StringVarP(&output, config.FlagOutput, "o", "", config.FlagDescOutput)
	cmd.Flags().StringVar(&format, config.FlagFormat, config.DefaultFormat, config.FlagDescFormat)
	cmd.Flags().StringVar(&failOn, config.FlagFailOn, "", config.FlagDescFailOn)
	return cmd
}

func renderReport(w io.Writer, format string, res *engine.Result, loc *report.Localizer) error {
	switch strings.ToLower(format) {
	case config.FormatText:
		return report.WriteText(w, res, loc)
	case config.FormatJSON:
		return report.WriteJSON(w, res)
	case config.FormatICS:
		data, err := report.FindingsICS(res, loc)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	return fmt.Errorf("%s: %q", config.ErrFormatUnknown, format)
}

// checkFailOn returns errFindingsFound when a finding reaches threshold.
// An empty threshold never fails.
func checkFailOn(findings []engine.Finding, threshold string) error {
	if threshold == "" {
		return nil
	}
	level, err := engine.ParseSeverity(threshold)
	if err != nil {
		return err
	}
	for _, f := range findings {
		if f.Severity >= level {
			return errFindingsFound
		}
	}
	return nil
}
