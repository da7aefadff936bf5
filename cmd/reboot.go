// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rebootCmd = &cobra.Command{
	Use:   "reboot",
	Short: "Reboot the device",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, err := openController()
		if err != nil {
			return err
		}
		defer ctrl.Close()

		if err := ctrl.Reboot(); err != nil {
			return fmt.Errorf("reboot failed: %w", err)
		}
		fmt.Println("reboot issued")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rebootCmd)
}
