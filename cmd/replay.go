// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"

	"github.com/Thermoquad/velocictl/mup1coap"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay <capture-file>",
	Short: "Replay a raw MUP1 byte capture offline, without a live device",
	Long: `Feeds a previously captured file of raw MUP1 wire bytes through the
same reassembler and dispatcher used for a live device, printing each
recovered pong, announcement, CoAP, system and trace frame. CoAP payloads
are printed as raw hex; they are not parsed as CoAP or CBOR.

This never opens --port or --url; it exists purely to let a capture be
re-analyzed without the hardware that produced it.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("velocictl: reading capture file: %w", err)
	}

	reassembler := mup1coap.NewReassembler(nil)
	dispatcher := mup1coap.NewDispatcher(nil, nil, nil)

	checksumErrors := 0
	dispatcher.On(mup1coap.EventPong, func(ev mup1coap.Event) { fmt.Println("PONG") })
	dispatcher.On(mup1coap.EventAnnounce, func(ev mup1coap.Event) {
		if ev.Info != nil {
			fmt.Printf("ANNOUNCE type=%s firmware=%s serial=%s\n", ev.Info.DeviceType, ev.Info.FirmwareVersion, ev.Info.SerialNumber)
		} else {
			fmt.Printf("ANNOUNCE (unparsed) %q\n", ev.Raw)
		}
	})
	dispatcher.On(mup1coap.EventCoAPResponse, func(ev mup1coap.Event) { fmt.Printf("COAP % X\n", ev.Raw) })
	dispatcher.On(mup1coap.EventSystem, func(ev mup1coap.Event) { fmt.Printf("SYSTEM % X\n", ev.Raw) })
	dispatcher.On(mup1coap.EventTrace, func(ev mup1coap.Event) { fmt.Printf("TRACE % X\n", ev.Raw) })

	frames := 0
	for _, frame := range reassembler.Push(data) {
		frames++
		if !frame.ChecksumOK {
			checksumErrors++
		}
		dispatcher.Dispatch(frame)
	}

	fmt.Printf("\n%d frames replayed, %d checksum errors\n", frames, checksumErrors)
	return nil
}
