package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/squadracorsepolito/bmsmon/frame"
	"github.com/squadracorsepolito/bmsmon/internal"
	"github.com/squadracorsepolito/bmsmon/rawlog"
	"github.com/squadracorsepolito/bmsmon/source"
)

// Frames closer than this are sent in the same packet.
const replayBatchWindow = 10 * time.Millisecond

// replayCmd sends a recorded raw log to a cannelloni endpoint
func replayCmd() *cobra.Command {
	var (
		addr  string
		speed float64
	)

	cmd := &cobra.Command{
		Use:   "replay [file]",
		Short: "Replay a raw CAN log to a cannelloni endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(); err != nil {
				return err
			}

			if speed < 0 {
				return fmt.Errorf("invalid speed %v", speed)
			}

			ctx, cancelCtx := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancelCtx()

			sent, err := replay(ctx, args[0], addr, speed)
			fmt.Fprintf(cmd.OutOrStdout(), "Replayed %d frames to %s\n", sent, addr)
			return err
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "127.0.0.1:20000", "Address of the cannelloni endpoint")
	cmd.Flags().Float64VarP(&speed, "speed", "s", 1, "Replay speed factor, 0 sends as fast as possible")
	return cmd
}

func replay(ctx context.Context, path, addr string, speed float64) (int, error) {
	logger := internal.NewLogger("cmd", "replay")

	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	sender, err := source.DialCannelloni(addr)
	if err != nil {
		return 0, err
	}
	defer sender.Close()

	var (
		sent    int
		batch   []frame.Frame
		first   time.Time
		batchTS time.Time
		started = time.Now()
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}

		if speed > 0 {
			offset := time.Duration(float64(batchTS.Sub(first)) / speed)
			if wait := time.Until(started.Add(offset)); wait > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(wait):
				}
			}
		}

		if err := sender.Send(batch); err != nil {
			return err
		}

		sent += len(batch)
		batch = batch[:0]
		return nil
	}

	for line, err := range rawlog.ReadLines(file) {
		if err != nil {
			return sent, err
		}

		ts := line.Frame.Timestamp
		if first.IsZero() {
			first = ts
			batchTS = ts
		}

		if ts.Sub(batchTS) >= replayBatchWindow {
			if err := flush(); err != nil {
				return sent, err
			}
			batchTS = ts
		}

		batch = append(batch, line.Frame)
	}

	if err := flush(); err != nil {
		return sent, err
	}

	logger.Info("replay completed", "frames", sent, "elapsed", time.Since(started))

	return sent, nil
}
