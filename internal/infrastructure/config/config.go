package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the garage door controller.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	Network  NetworkConfig  `yaml:"network"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	GPIO     GPIOConfig     `yaml:"gpio"`
	Doors    DoorsConfig    `yaml:"doors"`
	Actuator ActuatorConfig `yaml:"actuator"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	API      APIConfig      `yaml:"api"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DeviceConfig identifies this controller.
type DeviceConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// NetworkConfig controls the link watcher that gates the MQTT session.
type NetworkConfig struct {
	// Interface is the network interface to watch (e.g. "wlan0").
	// Empty means any non-loopback interface with an IPv4 address.
	Interface string `yaml:"interface"`

	// ProbeInterval is how often the link is probed, in milliseconds.
	ProbeInterval int `yaml:"probe_interval_ms"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`

	// AvailabilityTopic, when set, receives a retained "online" after every
	// subscription burst and a retained "offline" Last Will.
	AvailabilityTopic string `yaml:"availability_topic"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
// Reconnection is never abandoned; these only shape the retry cadence.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// GPIOConfig selects the pin driver.
type GPIOConfig struct {
	// Driver is "rpio" for memory-mapped Raspberry Pi GPIO or "memory"
	// for an in-process pin bank (bench runs without hardware).
	Driver string `yaml:"driver"`
}

// DoorsConfig contains the pin assignment for both doors.
type DoorsConfig struct {
	Left  DoorPinsConfig `yaml:"left"`
	Right DoorPinsConfig `yaml:"right"`
}

// DoorPinsConfig holds the actuator and sensor pin numbers of one door.
type DoorPinsConfig struct {
	ActuatorPin int `yaml:"actuator_pin"`
	SensorPin   int `yaml:"sensor_pin"`
}

// ActuatorConfig contains pulse timing shared by both doors.
type ActuatorConfig struct {
	PulseMillis int `yaml:"pulse_ms"`
}

// InfluxDBConfig contains InfluxDB connection settings for door telemetry.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains the local read-only status API settings.
type APIConfig struct {
	Enabled   bool             `yaml:"enabled"`
	Host      string           `yaml:"host"`
	Port      int              `yaml:"port"`
	Timeouts  APITimeoutConfig `yaml:"timeouts"`
	WebSocket WebSocketConfig  `yaml:"websocket"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WebSocketConfig contains settings for the door event stream.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"` // seconds
	PongTimeout    int `yaml:"pong_timeout"`  // seconds
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Supported GPIO drivers.
const (
	GPIODriverRPIO   = "rpio"
	GPIODriverMemory = "memory"
)

// maxRPIOPin is the highest BCM line on the Raspberry Pi 40-pin header.
// Higher lines are wired to on-board peripherals.
const maxRPIOPin = 27

// maxPulseMillis bounds the pulse length. Every millisecond of pulse is a
// millisecond in which no other command is serviced.
const maxPulseMillis = 5000

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GARAGE_SECTION_KEY
// For example: GARAGE_MQTT_HOST, GARAGE_MQTT_PASSWORD
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with the stock wiring of the controller board.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			ID:   "garage-01",
			Name: "Garage",
		},
		Network: NetworkConfig{
			ProbeInterval: 1000,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "garage-door",
			},
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     30,
			},
		},
		GPIO: GPIOConfig{
			Driver: GPIODriverRPIO,
		},
		Doors: DoorsConfig{
			Left:  DoorPinsConfig{ActuatorPin: 17, SensorPin: 25},
			Right: DoorPinsConfig{ActuatorPin: 27, SensorPin: 26},
		},
		Actuator: ActuatorConfig{
			PulseMillis: 500,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     20,
			FlushInterval: 10,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  10,
				Write: 10,
				Idle:  60,
			},
			WebSocket: WebSocketConfig{
				MaxMessageSize: 4096,
				PingInterval:   30,
				PongTimeout:    10,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("GARAGE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GARAGE_MQTT_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GARAGE_MQTT_PORT: %w", err)
		}
		cfg.MQTT.Broker.Port = port
	}
	if v := os.Getenv("GARAGE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GARAGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	if v := os.Getenv("GARAGE_NETWORK_INTERFACE"); v != "" {
		cfg.Network.Interface = v
	}

	if v := os.Getenv("GARAGE_GPIO_DRIVER"); v != "" {
		cfg.GPIO.Driver = v
	}

	if v := os.Getenv("GARAGE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	if v := os.Getenv("GARAGE_API_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GARAGE_API_PORT: %w", err)
		}
		cfg.API.Port = port
	}

	return nil
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Device.ID == "" {
		errs = append(errs, "device.id is required")
	}

	if c.Network.ProbeInterval <= 0 {
		errs = append(errs, "network.probe_interval_ms must be positive")
	}

	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.Broker.ClientID == "" {
		errs = append(errs, "mqtt.broker.client_id is required")
	}

	switch c.GPIO.Driver {
	case GPIODriverRPIO, GPIODriverMemory:
	default:
		errs = append(errs, fmt.Sprintf("gpio.driver %q must be %q or %q", c.GPIO.Driver, GPIODriverRPIO, GPIODriverMemory))
	}

	pins := map[int]string{}
	for _, p := range []struct {
		name string
		pin  int
	}{
		{"doors.left.actuator_pin", c.Doors.Left.ActuatorPin},
		{"doors.left.sensor_pin", c.Doors.Left.SensorPin},
		{"doors.right.actuator_pin", c.Doors.Right.ActuatorPin},
		{"doors.right.sensor_pin", c.Doors.Right.SensorPin},
	} {
		if p.pin < 0 {
			errs = append(errs, p.name+" must not be negative")
			continue
		}
		if c.GPIO.Driver == GPIODriverRPIO && p.pin > maxRPIOPin {
			errs = append(errs, fmt.Sprintf("%s %d is not a header pin (rpio allows 0 to %d)", p.name, p.pin, maxRPIOPin))
			continue
		}
		if other, dup := pins[p.pin]; dup {
			errs = append(errs, fmt.Sprintf("%s and %s share pin %d", other, p.name, p.pin))
			continue
		}
		pins[p.pin] = p.name
	}

	if c.Actuator.PulseMillis <= 0 || c.Actuator.PulseMillis > maxPulseMillis {
		errs = append(errs, fmt.Sprintf("actuator.pulse_ms must be between 1 and %d", maxPulseMillis))
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	if c.API.Enabled {
		if c.API.Port < 1 || c.API.Port > 65535 {
			errs = append(errs, "api.port must be between 1 and 65535")
		}
		if c.API.WebSocket.PingInterval <= 0 || c.API.WebSocket.PongTimeout <= 0 {
			errs = append(errs, "api.websocket.ping_interval and pong_timeout must be positive")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// PulseDuration returns the actuator hold time as a Duration.
func (c *Config) PulseDuration() time.Duration {
	return time.Duration(c.Actuator.PulseMillis) * time.Millisecond
}

// ProbeInterval returns the network probe interval as a Duration.
func (c *Config) ProbeInterval() time.Duration {
	return time.Duration(c.Network.ProbeInterval) * time.Millisecond
}
