// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"time"

	"github.com/Thermoquad/velocictl/mup1coap"
	"github.com/spf13/cobra"
)

var traceDuration time.Duration

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Capture frames for a fixed duration and dump the trace ring",
	Long: `Connects, listens for traceDuration, then prints every frame recorded
in the in-memory trace ring, oldest first.

Each line shows a frame's arrival time, type and unescaped payload in hex.
This listing is not the raw MUP1 wire-byte format that "velocictl replay"
reads.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, err := openController(mup1coap.WithTraceCapacity(4096))
		if err != nil {
			return err
		}
		defer ctrl.Close()

		fmt.Printf("capturing for %s...\n", traceDuration)
		time.Sleep(traceDuration)

		for _, entry := range ctrl.Trace() {
			fmt.Printf("%s type=%c payload=% X\n", entry.At.Format(time.RFC3339Nano), entry.Type, entry.Payload)
		}
		fmt.Println(ctrl.Stats())
		return nil
	},
}

func init() {
	traceCmd.Flags().DurationVar(&traceDuration, "duration", 10*time.Second, "how long to capture before dumping")
	rootCmd.AddCommand(traceCmd)
}
