package models

import "time"

// OutputData describes a configured playback device.
type OutputData struct {
	ID        int32     `json:"id" example:"1" doc:"Device identifier"`
	Device    string    `json:"device" example:"default" doc:"ALSA device name"`
	Channels  int       `json:"channels" example:"1" doc:"Interleaved channel count"`
	Rate      int       `json:"rate" example:"44100" doc:"Sample rate in Hz"`
	LatencyUs int       `json:"latency_us" example:"500000" doc:"Requested latency in microseconds"`
	State     string    `json:"state" example:"open" doc:"Device state"`
	Backend   string    `json:"backend" example:"alsa" doc:"Backend that owns the stream"`
	Auto      bool      `json:"auto" example:"false" doc:"Whether the device was created with defaults on first use"`
	OpenedAt  time.Time `json:"opened_at,omitempty" doc:"When the device was opened"`
}

type OutputListData struct {
	Outputs []OutputData `json:"outputs" doc:"Configured devices in configuration order"`
	Count   int          `json:"count" example:"1" doc:"Number of configured devices"`
}

type OutputListResponse struct {
	Body OutputListData
}

type OutputResponse struct {
	Body OutputData
}

type OutputRequestData struct {
	ID        int32  `json:"id" example:"1" doc:"Device identifier"`
	Device    string `json:"device,omitempty" example:"hw:0,0" doc:"ALSA device name (defaults to \"default\")"`
	Channels  int    `json:"channels" minimum:"1" maximum:"32" example:"1" doc:"Interleaved channel count"`
	Rate      int    `json:"rate" minimum:"1" example:"44100" doc:"Sample rate in Hz"`
	LatencyUs int    `json:"latency_us,omitempty" minimum:"0" example:"500000" doc:"Requested latency in microseconds"`
}

type OutputRequest struct {
	Body OutputRequestData
}

type OutputIDInput struct {
	ID int32 `path:"id" example:"1" doc:"Device identifier"`
}

// OutputStatsData mirrors the playback counters for one device.
type OutputStatsData struct {
	ID            int32             `json:"id" example:"1" doc:"Device identifier"`
	Writes        uint64            `json:"writes" example:"120" doc:"Write calls that reached the device"`
	FramesWritten uint64            `json:"frames_written" example:"176400" doc:"Frames accepted by the device"`
	Diagnostics   map[string]uint64 `json:"diagnostics" doc:"Diagnostic counts by kind"`
}

type OutputStatsResponse struct {
	Body OutputStatsData
}
