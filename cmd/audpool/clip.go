// SPDX-License-Identifier: EPL-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ik5/audpool"
	"github.com/ik5/audpool/detect"
	"github.com/ik5/audpool/formats"
	"github.com/ik5/audpool/formats/wav"
)

type detectFlags struct {
	threshold float64
	offset    int
}

func (f *detectFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.threshold, "threshold", 0, "RMS fraction a sample must exceed (default from config)")
	cmd.Flags().IntVar(&f.offset, "offset", -1, "Interleaved samples to keep before the onset (default from config)")
}

func (f *detectFlags) options(a *app) detect.Options {
	opts := a.cfg.DetectOptions()
	if f.threshold > 0 {
		opts.Threshold = f.threshold
	}
	if f.offset >= 0 {
		opts.OffsetSamples = f.offset
	}
	return opts
}

func detectCommand(a *app) *cobra.Command {
	var flags detectFlags

	cmd := &cobra.Command{
		Use:   "detect <clip>",
		Short: "Print where a clip becomes audible",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, err := formats.NewRegistry().Load(args[0])
			if err != nil {
				return err
			}

			start, err := detect.Detect(buf, flags.options(a))
			if errors.Is(err, detect.ErrNoOnset) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: silent\n", args[0])
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %.3fs of %.3fs\n",
				args[0], start.Seconds(), buf.Duration().Seconds())
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func trimCommand(a *app) *cobra.Command {
	var (
		flags detectFlags
		rate  int
	)

	cmd := &cobra.Command{
		Use:   "trim <in> <out.wav>",
		Short: "Write a mono 16-bit WAV without the leading silence",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, err := formats.NewRegistry().Load(args[0])
			if err != nil {
				return err
			}

			trimmed, start, err := detect.Trim(buf, flags.options(a))
			if err != nil && !errors.Is(err, detect.ErrNoOnset) {
				return err
			}
			if err != nil {
				a.logger.Warn("clip is silent, writing it unchanged", "clip", args[0])
			}

			outRate := rate
			if outRate <= 0 {
				outRate = buf.SampleRate
			}
			pcm16, err := audpool.EncodeMono16(trimmed.Source(), outRate, 4096)
			if err != nil {
				return err
			}

			out, err := os.Create(args[1])
			if err != nil {
				return fmt.Errorf("creating output: %w", err)
			}
			if err := wav.WriteWAV16(out, outRate, 1, pcm16); err != nil {
				out.Close()
				return fmt.Errorf("writing %s: %w", args[1], err)
			}
			if err := out.Close(); err != nil {
				return fmt.Errorf("%w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "trimmed %.3fs, wrote %d samples at %d Hz to %s\n",
				start.Seconds(), len(pcm16), outRate, args[1])
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&rate, "rate", 0, "Output sample rate in Hz (default: the clip's rate)")
	return cmd
}
