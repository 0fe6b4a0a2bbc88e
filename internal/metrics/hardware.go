package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	devicesOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "soundnode",
		Subsystem: "hardware",
		Name:      "devices_open",
		Help:      "Output devices currently open",
	})

	deviceOpenFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "soundnode",
		Subsystem: "hardware",
		Name:      "open_failures_total",
		Help:      "Device open or parameter negotiation failures",
	}, []string{"backend"})
)

// DeviceOpened increments the open device gauge.
func DeviceOpened() {
	devicesOpen.Inc()
}

// DeviceClosed decrements the open device gauge and drops the device's
// playback series.
func DeviceClosed(deviceID int32) {
	devicesOpen.Dec()
	DeletePlaybackMetrics(deviceID)
}

// DeviceOpenFailed counts a failed open on a backend.
func DeviceOpenFailed(backend string) {
	deviceOpenFailures.WithLabelValues(backend).Inc()
}
