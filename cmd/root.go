// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package cmd implements the velocictl command-line interface: a thin
// cobra layer over the mup1coap.Controller facade.
package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Ambient flags
	logLevel string
	logJSON  bool

	log = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "velocictl",
	Short: "Control a Microchip VelocityDRIVE-class switch over MUP1/CoAP/CORECONF",
	Long: `velocictl talks to a VelocityDRIVE-class network device over its MUP1
console, running CoAP/CORECONF requests against its YANG datastore.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the
VELOCICTL_PASSWORD environment variable, or prompted interactively if not
set. There is intentionally no --password flag, to avoid leaking
credentials in shell history.`,
	Version:           "0.1.0",
	PersistentPreRunE: configureLogging,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")

	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Emit structured JSON logs instead of text")
}

func configureLogging(cmd *cobra.Command, args []string) error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	if logJSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
