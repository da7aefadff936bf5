// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Run the bring-up handshake and print the device's announcement",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, err := openController()
		if err != nil {
			return err
		}
		defer ctrl.Close()

		info, err := ctrl.Initialize()
		if err != nil {
			return fmt.Errorf("device_info failed: %w", err)
		}

		fmt.Printf("device type:     %s\n", info.DeviceType)
		fmt.Printf("firmware:        %s\n", info.FirmwareVersion)
		fmt.Printf("serial:          %s\n", info.SerialNumber)
		fmt.Printf("ports (derived): %d\n", info.PortCount())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
