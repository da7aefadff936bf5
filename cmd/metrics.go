// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"net/http"
	"time"

	healthz "github.com/klyve/go-healthz"
	"github.com/Thermoquad/velocictl/mup1coap"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var metricsListenAddr string

var metricsCmd = &cobra.Command{
	Use:   "serve-metrics",
	Short: "Run a long-lived process exposing Prometheus metrics and health endpoints",
	Long: `Connects to the device and serves /metrics (request latency gauges),
/healthz and /liveness on metricsListenAddr, polling request statistics
on a fixed interval.`,
	RunE: runMetrics,
}

func init() {
	metricsCmd.Flags().StringVar(&metricsListenAddr, "listen", ":9100", "address to serve /metrics, /healthz and /liveness on")
	rootCmd.AddCommand(metricsCmd)
}

var (
	requestLatencyP50 = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "velocictl",
		Subsystem: "requests",
		Name:      "latency_p50_seconds",
	})
	requestLatencyP99 = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "velocictl",
		Subsystem: "requests",
		Name:      "latency_p99_seconds",
	})
	requestsCompleted = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "velocictl",
		Subsystem: "requests",
		Name:      "completed_total",
	})
)

func init() {
	prometheus.MustRegister(requestLatencyP50, requestLatencyP99, requestsCompleted)
}

func runMetrics(cmd *cobra.Command, args []string) error {
	ctrl, err := openController()
	if err != nil {
		return err
	}
	defer ctrl.Close()

	instance := healthz.Instance{
		Logger:   log,
		Detailed: true,
	}
	http.Handle("/metrics", promhttp.Handler())
	http.Handle("/healthz", instance.Healthz())
	http.Handle("/liveness", instance.Liveness())

	go pollStats(ctrl)

	log.Infof("serving metrics on %s", metricsListenAddr)
	return http.ListenAndServe(metricsListenAddr, nil)
}

func pollStats(ctrl *mup1coap.Controller) {
	for {
		snap := ctrl.Stats()
		requestLatencyP50.Set(snap.P50.Seconds())
		requestLatencyP99.Set(snap.P99.Seconds())
		requestsCompleted.Set(float64(snap.Completed))
		time.Sleep(5 * time.Second)
	}
}
