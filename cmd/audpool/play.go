// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ik5/audpool"
	"github.com/ik5/audpool/playback"
	"github.com/ik5/audpool/transition"
)

const tickInterval = 20 * time.Millisecond

func playCommand(a *app) *cobra.Command {
	var (
		group  bool
		fadeIn time.Duration
		loops  int
	)

	cmd := &cobra.Command{
		Use:   "play <library.yaml> <key>",
		Short: "Play a resource or group through the speaker",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.cfg.Library.Path = args[0]

			sys, err := audpool.New(a.cfg, audpool.WithLogger(a.logger))
			if err != nil {
				return err
			}
			defer sys.Close()

			if err := sys.Start(); err != nil {
				return err
			}

			req := playback.Request{Key: args[1], IsGroup: group}
			if fadeIn > 0 {
				req.Transition = transition.New(fadeIn, false)
			}

			ctx := cmd.Context()
			seq, err := sys.Manager.Play(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "playing %s (%s)\n", seq.Resource().Name(), seq.ID())

			ticker := time.NewTicker(tickInterval)
			defer ticker.Stop()
			last := time.Now()
			for {
				select {
				case <-seq.Done():
					if group && loops > 1 {
						loops--
						if seq, err = sys.Manager.Play(ctx, req); err != nil {
							return err
						}
						fmt.Fprintf(cmd.OutOrStdout(), "playing %s\n", seq.Resource().Name())
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\n", seq.Result())
					return nil
				case <-ctx.Done():
					seq.Stop()
					return nil
				case now := <-ticker.C:
					sys.Manager.Tick(now.Sub(last))
					last = now
				}
			}
		},
	}
	cmd.Flags().BoolVarP(&group, "group", "g", false, "Treat the key as a group key")
	cmd.Flags().DurationVar(&fadeIn, "fade-in", 0, "Fade in over this duration")
	cmd.Flags().IntVarP(&loops, "count", "n", 1, "Group members to play in a row")
	return cmd
}
