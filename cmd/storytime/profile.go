package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/storytime/progress/internal/progress"
)

func newProfileCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Inspect or reset the stored learning profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(
		newProfileShowCommand(opts),
		newProfileResetCommand(opts),
	)
	return cmd
}

func newProfileShowCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print level, points, streak and unlocked achievements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup(cmd.Context(), opts, os.Stderr)
			if err != nil {
				return err
			}
			defer rt.close()

			if err := rt.engine.LoadErr(); err != nil {
				return fmt.Errorf("stored profile unreadable: %w", err)
			}
			printProfile(cmd.OutOrStdout(), rt.engine)
			return nil
		},
	}
}

func newProfileResetCommand(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase all progress and start from a fresh profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to reset without --yes")
			}
			rt, err := setup(cmd.Context(), opts, os.Stderr)
			if err != nil {
				return err
			}
			defer rt.close()

			res, err := rt.engine.Reset(cmd.Context())
			if err != nil {
				return err
			}
			if res.SaveErr != nil {
				return fmt.Errorf("reset not saved: %w", res.SaveErr)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Profile reset.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the reset")
	return cmd
}

func printProfile(w io.Writer, e *progress.Engine) {
	p := e.Profile()
	info := e.LevelInfo()
	today := e.TodayStats()

	fmt.Fprintf(w, "%s Level %d: %s\n", info.Current.Badge, info.Current.Level, info.Current.Title)
	if info.Next != nil {
		fmt.Fprintf(w, "  Points:      %d (%d to %s)\n", info.TotalPoints, info.PointsToNext, info.Next.Title)
	} else {
		fmt.Fprintf(w, "  Points:      %d (top level)\n", info.TotalPoints)
	}
	fmt.Fprintf(w, "  Streak:      %d days (longest %d)\n", p.Metrics.LearningStreak, p.Metrics.LongestLearningStreak)
	fmt.Fprintf(w, "  Today:       %d/%d activities\n", today.ActivitiesCompletedToday, today.DailyGoal)
	fmt.Fprintf(w, "  Activities:  %d\n", len(p.Activities))
	fmt.Fprintf(w, "  Games:       %d\n", p.GameStats.TotalPlayed())

	unlocked := e.RecentAchievements(0)
	fmt.Fprintf(w, "\nAchievements (%d unlocked)\n", len(unlocked))
	if len(unlocked) == 0 {
		fmt.Fprintln(w, "  none yet")
		return
	}
	for _, u := range unlocked {
		fmt.Fprintf(w, "  %s %-20s %s\n", u.Reward.Badge, u.Title, u.UnlockedAt.Format("2006-01-02"))
	}
}
