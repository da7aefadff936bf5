// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Persist the device's running configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, err := openController()
		if err != nil {
			return err
		}
		defer ctrl.Close()

		if err := ctrl.SaveConfig(); err != nil {
			return fmt.Errorf("save_config failed: %w", err)
		}
		fmt.Println("configuration saved")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(saveCmd)
}
