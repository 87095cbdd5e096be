package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPrintCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "print",
		Short: "打印全部教室当天的课表",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.cleanup()

			text, err := s.svc.ExportText(cmd.Context(), s.date)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(s.out, text)
			return err
		},
	}
}

func newWeekCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "week",
		Short: "显示日期对应的教学周",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.cleanup()

			week, err := s.svc.GetWeek(cmd.Context(), s.date)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(s.out, week.Label)
			return err
		},
	}
}

func newShareCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "share",
		Short: "生成 Telegram 分享链接",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.cleanup()

			share, err := s.svc.Share(cmd.Context(), s.date)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(s.out, share.URL)
			return err
		},
	}
}
