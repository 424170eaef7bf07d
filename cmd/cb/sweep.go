package main

import (
	"fmt"

	"github.com/callboard/callboard/internal/config"
	"github.com/callboard/callboard/internal/notify"
	"github.com/callboard/callboard/internal/notify/discord"
	"github.com/callboard/callboard/internal/notify/github"
	"github.com/callboard/callboard/internal/notify/slack"
	"github.com/callboard/callboard/internal/store"
	"github.com/callboard/callboard/internal/sweep"
	"github.com/spf13/cobra"
)

func newSweepCmd() *cobra.Command {
	var (
		configPath string
		schedule   string
		loop       bool
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Escalate overdue tasks",
		Long: `Flips every loaded, unfinished task past its deadline to escalated and sends
notifications on the configured channels. Runs once by default; with --loop it
keeps running on the configured cron schedule.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			notifiers, err := buildNotifiers(cfg)
			if err != nil {
				return err
			}

			sw := &sweep.Sweeper{
				DB:        gormDB,
				Escalator: store.NewProcs(gormDB),
				Notifiers: notifiers,
				Out:       cmd.OutOrStdout(),
			}

			if loop {
				if schedule == "" {
					schedule = cfg.Sweep.Schedule
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Sweeping on schedule %q\n", schedule)
				return sw.Run(cmd.Context(), schedule)
			}

			n, err := sw.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Escalated %d overdue tasks\n", n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "callboard.yaml", "path to Callboard config file")
	cmd.Flags().StringVar(&schedule, "schedule", "", "cron schedule override (with --loop)")
	cmd.Flags().BoolVar(&loop, "loop", false, "keep sweeping on the cron schedule")
	return cmd
}

// buildNotifiers assembles the escalation fan-out from config. Channels with
// no configuration are skipped.
func buildNotifiers(cfg *config.Config) (notify.Fanout, error) {
	var fanout notify.Fanout

	if cfg.Notify.Command != "" {
		fanout = append(fanout, &notify.CommandNotifier{Command: cfg.Notify.Command})
	}

	if cfg.Notify.Slack.Channel != "" {
		adapter, err := slack.New(slack.AdapterOpts{
			BotToken:  cfg.Notify.Slack.Token,
			ChannelID: cfg.Notify.Slack.Channel,
		})
		if err != nil {
			return nil, err
		}
		fanout = append(fanout, adapter)
	}

	if cfg.Notify.Discord.Channel != "" {
		adapter, err := discord.New(discord.AdapterOpts{
			BotToken:  cfg.Notify.Discord.Token,
			ChannelID: cfg.Notify.Discord.Channel,
		})
		if err != nil {
			return nil, err
		}
		fanout = append(fanout, adapter)
	}

	if cfg.Notify.GitHub.Repo != "" {
		adapter, err := github.New(github.AdapterOpts{
			Token: cfg.Notify.GitHub.Token,
			Owner: cfg.Notify.GitHub.Owner,
			Repo:  cfg.Notify.GitHub.Repo,
		})
		if err != nil {
			return nil, err
		}
		fanout = append(fanout, adapter)
	}

	return fanout, nil
}
