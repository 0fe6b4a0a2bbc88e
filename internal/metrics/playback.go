// Package metrics provides Prometheus metrics for the playback engine and
// device registry.
package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	playbackWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "soundnode",
		Subsystem: "playback",
		Name:      "writes_total",
		Help:      "Sample blocks submitted to a device",
	}, []string{"device_id"})

	playbackFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "soundnode",
		Subsystem: "playback",
		Name:      "frames_written_total",
		Help:      "Frames accepted by the device",
	}, []string{"device_id"})

	playbackDiagnostics = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "soundnode",
		Subsystem: "playback",
		Name:      "diagnostics_total",
		Help:      "Write path diagnostics by kind",
	}, []string{"device_id", "kind"})

	// Plays for identifiers without an open device carry no device label;
	// those identifiers are caller supplied and unbounded.
	playbackUnconfigured = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "soundnode",
		Subsystem: "playback",
		Name:      "unconfigured_plays_total",
		Help:      "Play requests for identifiers without an open device",
	})

	// Local cache for summaries without scraping.
	playbackCache   = make(map[int32]*DeviceStats)
	playbackCacheMu sync.RWMutex
)

// DeviceStats holds running totals for one device.
type DeviceStats struct {
	Writes        uint64
	FramesWritten uint64
	Diagnostics   map[string]uint64
}

func deviceLabel(deviceID int32) string {
	return strconv.FormatInt(int64(deviceID), 10)
}

// RecordWrite counts one submitted block and the frames the device took.
func RecordWrite(deviceID int32, frames int) {
	label := deviceLabel(deviceID)
	playbackWrites.WithLabelValues(label).Inc()
	if frames > 0 {
		playbackFrames.WithLabelValues(label).Add(float64(frames))
	}
	updateCache(deviceID, func(s *DeviceStats) {
		s.Writes++
		if frames > 0 {
			s.FramesWritten += uint64(frames)
		}
	})
}

// RecordDiagnostic counts a write path diagnostic.
func RecordDiagnostic(deviceID int32, kind string) {
	playbackDiagnostics.WithLabelValues(deviceLabel(deviceID), kind).Inc()
	updateCache(deviceID, func(s *DeviceStats) { s.Diagnostics[kind]++ })
}

// RecordUnconfigured counts a play request for an identifier with no open
// device. No per-device series or cache entry is created.
func RecordUnconfigured() {
	playbackUnconfigured.Inc()
}

// DeletePlaybackMetrics removes all series for a device.
func DeletePlaybackMetrics(deviceID int32) {
	label := deviceLabel(deviceID)
	playbackWrites.DeleteLabelValues(label)
	playbackFrames.DeleteLabelValues(label)
	playbackDiagnostics.DeletePartialMatch(prometheus.Labels{"device_id": label})

	playbackCacheMu.Lock()
	delete(playbackCache, deviceID)
	playbackCacheMu.Unlock()
}

// GetDeviceStats returns a copy of the totals for a device, or nil.
func GetDeviceStats(deviceID int32) *DeviceStats {
	playbackCacheMu.RLock()
	defer playbackCacheMu.RUnlock()
	if s, ok := playbackCache[deviceID]; ok {
		return s.clone()
	}
	return nil
}

// GetAllDeviceStats returns totals for every device with recorded activity.
func GetAllDeviceStats() map[int32]*DeviceStats {
	playbackCacheMu.RLock()
	defer playbackCacheMu.RUnlock()
	result := make(map[int32]*DeviceStats, len(playbackCache))
	for id, s := range playbackCache {
		result[id] = s.clone()
	}
	return result
}

func (s *DeviceStats) clone() *DeviceStats {
	dup := *s
	dup.Diagnostics = make(map[string]uint64, len(s.Diagnostics))
	for k, v := range s.Diagnostics {
		dup.Diagnostics[k] = v
	}
	return &dup
}

func updateCache(deviceID int32, update func(*DeviceStats)) {
	playbackCacheMu.Lock()
	defer playbackCacheMu.Unlock()
	s, ok := playbackCache[deviceID]
	if !ok {
		s = &DeviceStats{Diagnostics: make(map[string]uint64)}
		playbackCache[deviceID] = s
	}
	update(s)
}
