/*
Package monitoring provides metrics collection for the bundle manager.

# Overview

This package implements Prometheus-based metrics covering HTTP requests,
install state transitions, component queries, persistent store operations,
installer results, and notification fan-out.

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Storage reports every operation
	db.SetObserver(metrics)

	// Time installer operations
	timer := monitoring.NewTimer(metrics, "install")
	// ... perform operation ...
	timer.Stop("ERR_OK")

# Metrics Endpoint

Expose metrics via the standard Prometheus endpoint:

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
*/
package monitoring
