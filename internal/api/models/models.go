package models

// Health check models
type HealthData struct {
	Status    string `json:"status" example:"ok" doc:"Service status"`
	Message   string `json:"message" example:"API is healthy" doc:"Status message"`
	Supported bool   `json:"supported" example:"true" doc:"Whether the audio backend is available on this platform"`
}

type HealthResponse struct {
	Body HealthData
}

// Error models
type ErrorData struct {
	Code    string `json:"code" example:"REPEAT_CONFIG" doc:"Error code"`
	Message string `json:"message" example:"repeat config" doc:"Error message"`
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"dev" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit hash"`
	BuildDate string `json:"build_date" example:"2025-01-01T00:00:00Z" doc:"Build timestamp"`
	BuildID   string `json:"build_id" example:"42" doc:"Build identifier"`
	GoVersion string `json:"go_version" example:"go1.24.0" doc:"Go compiler version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Go compiler"`
	Platform  string `json:"platform" example:"linux/arm64" doc:"Operating system and architecture"`
}

type VersionResponse struct {
	Body VersionData
}

// Logging models
type LogLevelInput struct {
	Module string `path:"module" example:"playback" doc:"Logger module name"`
}

type SetLogLevelInput struct {
	Module string `path:"module" example:"playback" doc:"Logger module name"`
	Body   struct {
		Level string `json:"level" enum:"debug,info,warn,error" example:"debug" doc:"New log level"`
	}
}

type LogLevelData struct {
	Module string `json:"module" example:"playback" doc:"Logger module name"`
	Level  string `json:"level" example:"INFO" doc:"Current log level"`
}

type LogLevelResponse struct {
	Body LogLevelData
}
