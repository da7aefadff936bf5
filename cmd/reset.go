// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "factory-reset",
	Short: "Reset the device to its factory configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, err := openController()
		if err != nil {
			return err
		}
		defer ctrl.Close()

		if err := ctrl.FactoryReset(); err != nil {
			return fmt.Errorf("factory_reset failed: %w", err)
		}
		fmt.Println("factory reset issued")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
