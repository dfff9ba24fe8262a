package main

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-gedcheck/internal/config"
	"github.com/tartampluch/go-gedcheck/internal/report"
)

func newCalendarCmd(a *cli) *cobra.Command {
	var (
		to     int
		ics    bool
		lang   string
		output string
	)

	cmd := &cobra.Command{
		Use:   config.CmdCalendar,
		Short: config.CmdShortCalendar,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.settings
			applyLang(cmd, lang, s)

			from, err := parseYear(args[0])
			if err != nil {
				return err
			}
			last := from
			if cmd.Flags().Changed(config.FlagTo) {
				if last, err = checkYear(to); err != nil {
					return err
				}
			}
			if last < from {
				return errors.New(config.ErrYearOrder)
			}

			loc, err := report.NewLocalizer(s.Report.Language)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if ics {
				data, err := report.CalendarICS(from, last, loc, a.now().Now())
				if err != nil {
					return err
				}
				buf.Write(data)
			} else if err := report.WriteCalendarText(&buf, from, last, loc); err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, buf.Bytes())
		},
	}

	cmd.Flags().IntVar(&to, config.FlagTo, 0, config.FlagDescTo)
	cmd.Flags().BoolVar(&ics, config.FlagICS, false, config.FlagDescICS)
	cmd.Flags().StringVarP(&output, config.FlagOutput, "o", "", config.FlagDescOutput)
	registerLang(cmd, &lang)
	return cmd
}

func parseYear(s string) (int, error) {
	year, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", config.ErrYearRange, err)
	}
	return checkYear(year)
}

func checkYear(year int) (int, error) {
	if year < config.MinYear || year > config.MaxYear {
		return 0, fmt.Errorf("%s: %d", config.ErrYearRange, year)
	}
	return year, nil
}
