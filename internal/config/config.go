package config

import (
	"fmt"
	"time"
)

// Config holds server configuration values. The capacity knobs default to
// the reference deployment (2 workers of 1000 sessions, 50 rooms of 40) and
// exist so tests and small deployments can shrink them.
type Config struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	OpsAddr         string        `mapstructure:"ops_addr" yaml:"ops_addr"`
	LogLevel        string        `mapstructure:"log_level" yaml:"log_level"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`

	Workers          int `mapstructure:"workers" yaml:"workers"`
	ClientsPerWorker int `mapstructure:"clients_per_worker" yaml:"clients_per_worker"`
	MaxSessions      int `mapstructure:"max_sessions" yaml:"max_sessions"`
	MaxRooms         int `mapstructure:"max_rooms" yaml:"max_rooms"`
	RoomCapacity     int `mapstructure:"room_capacity" yaml:"room_capacity"`
	SessionQueueSize int `mapstructure:"session_queue_size" yaml:"session_queue_size"`
}

// Default returns configuration with the reference limits.
func Default() Config {
	return Config{
		Addr:             ":5050",
		OpsAddr:          ":9090",
		LogLevel:         "info",
		ShutdownTimeout:  5 * time.Second,
		WriteTimeout:     5 * time.Second,
		Workers:          2,
		ClientsPerWorker: 1000,
		MaxSessions:      2000,
		MaxRooms:         50,
		RoomCapacity:     40,
		SessionQueueSize: 64,
	}
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.ClientsPerWorker < 1 {
		return fmt.Errorf("clients_per_worker must be at least 1, got %d", c.ClientsPerWorker)
	}
	if c.MaxSessions < 1 {
		return fmt.Errorf("max_sessions must be at least 1, got %d", c.MaxSessions)
	}
	if c.MaxSessions > c.Workers*c.ClientsPerWorker {
		return fmt.Errorf("max_sessions %d exceeds pool capacity %d",
			c.MaxSessions, c.Workers*c.ClientsPerWorker)
	}
	if c.MaxRooms < 1 {
		return fmt.Errorf("max_rooms must be at least 1, got %d", c.MaxRooms)
	}
	if c.RoomCapacity < 1 {
		return fmt.Errorf("room_capacity must be at least 1, got %d", c.RoomCapacity)
	}
	return nil
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.OpsAddr != "" {
		c.OpsAddr = other.OpsAddr
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.WriteTimeout != 0 {
		c.WriteTimeout = other.WriteTimeout
	}
	if other.Workers != 0 {
		c.Workers = other.Workers
	}
	if other.ClientsPerWorker != 0 {
		c.ClientsPerWorker = other.ClientsPerWorker
	}
	if other.MaxSessions != 0 {
		c.MaxSessions = other.MaxSessions
	}
	if other.MaxRooms != 0 {
		c.MaxRooms = other.MaxRooms
	}
	if other.RoomCapacity != 0 {
		c.RoomCapacity = other.RoomCapacity
	}
	if other.SessionQueueSize != 0 {
		c.SessionQueueSize = other.SessionQueueSize
	}
}
