// Package config loads heaplab settings from CUE.
//
// A file is unified with the embedded #Config schema, which closes every
// struct and supplies defaults, and then decoded into Config. Validate adds
// the checks CUE cannot express cheaply.
package config

import (
	"time"

	"github.com/roach88/heaplab/internal/engine"
)

// Config is the complete heaplab configuration.
type Config struct {
	Experiment ExperimentConfig `json:"experiment"`
	Recorder   RecorderConfig   `json:"recorder"`
	Server     ServerConfig     `json:"server"`
}

// ExperimentConfig controls session bootstrap.
type ExperimentConfig struct {
	ArrayLength  int    `json:"array_length" validate:"min=1,max=64"`
	MinValue     int    `json:"min_value"`
	MaxValue     int    `json:"max_value" validate:"gtefield=MinValue"`
	Seed         int64  `json:"seed"`
	HistoryLimit int    `json:"history_limit" validate:"min=0"`
	MachineID    string `json:"machine_id" validate:"required"`
}

// RecorderConfig selects the sinks transitions are delivered to.
// Empty values disable a sink.
type RecorderConfig struct {
	Database  string      `json:"database"`
	RemoteURL string      `json:"remote_url" validate:"omitempty,http_url"`
	TimeoutMS int         `json:"timeout_ms" validate:"min=0"`
	QueueSize int         `json:"queue_size" validate:"min=0"`
	Kafka     KafkaConfig `json:"kafka"`
}

// KafkaConfig configures the streaming sink.
type KafkaConfig struct {
	Brokers []string `json:"brokers" validate:"dive,hostname_port"`
	Topic   string   `json:"topic" validate:"required_with=Brokers"`
}

// ServerConfig configures the collector service.
type ServerConfig struct {
	Addr string `json:"addr" validate:"required,hostname_port"`
}

// Default returns the configuration used when no file is given. It matches
// the schema defaults.
func Default() Config {
	return Config{
		Experiment: ExperimentConfig{
			ArrayLength: engine.DefaultArraySpec.Length,
			MinValue:    engine.DefaultArraySpec.Min,
			MaxValue:    engine.DefaultArraySpec.Max,
			MachineID:   engine.DefaultMachineID,
		},
		Recorder: RecorderConfig{
			TimeoutMS: 5000,
			Kafka: KafkaConfig{
				Brokers: []string{},
				Topic:   "heaplab.transitions",
			},
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// ArraySpec returns the bootstrap array settings.
func (c Config) ArraySpec() engine.ArraySpec {
	return engine.ArraySpec{
		Length: c.Experiment.ArrayLength,
		Min:    c.Experiment.MinValue,
		Max:    c.Experiment.MaxValue,
	}
}

// Timeout returns the remote recorder timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.Recorder.TimeoutMS) * time.Millisecond
}
