// Garage door controller.
//
// This is the main entry point for the two-door garage controller. It
// drives each door's opener through a momentary GPIO pulse, reads each
// door's position sensor, and takes its commands over MQTT:
//
//	garage/door/{left,right}          "push" pulses the opener
//	garage/door/{left,right}/status   "get"  replies "status:open" or "status:closed"
//
// A hardware fault stops the process with a non-zero exit so the service
// manager restarts it.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/nerrad567/gray-logic-garage/internal/api"
	"github.com/nerrad567/gray-logic-garage/internal/door"
	"github.com/nerrad567/gray-logic-garage/internal/gpio"
	"github.com/nerrad567/gray-logic-garage/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-garage/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-garage/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-garage/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-garage/internal/network"
	"github.com/nerrad567/gray-logic-garage/internal/router"
	"github.com/nerrad567/gray-logic-garage/internal/session"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - args: Command-line arguments without the program name
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, args []string) error {
	configPath, err := parseFlags(args, os.Stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting garage door controller",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	pins, err := openPins(cfg.GPIO.Driver)
	if err != nil {
		return fmt.Errorf("opening GPIO: %w", err)
	}
	defer func() {
		log.Info("releasing GPIO")
		if closeErr := pins.Close(); closeErr != nil {
			log.Error("error releasing GPIO", "error", closeErr)
		}
	}()
	log.Info("GPIO ready", "driver", cfg.GPIO.Driver)

	actuators, err := setupDoors(cfg, pins, log)
	if err != nil {
		return fmt.Errorf("configuring doors: %w", err)
	}

	// Telemetry sinks for door pulses and sensor reads
	var recorders door.Recorders
	var influxClient *influxdb.Client

	// Connect to InfluxDB (optional)
	if cfg.InfluxDB.Enabled {
		var connectErr error
		influxClient, connectErr = influxdb.Connect(ctx, cfg.InfluxDB, cfg.Device.ID)
		if connectErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", connectErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		recorders = append(recorders, influxClient)
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	doors := make(map[door.ID]router.Door, len(actuators))
	for id, a := range actuators {
		doors[id] = a
	}
	rtr, err := router.New(router.DefaultTable(), doors)
	if err != nil {
		return fmt.Errorf("building router: %w", err)
	}
	rtr.SetLogger(log.With("component", "router"))

	// A hardware fault cancels with the fault as cause.
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	watcher := network.NewInterfaceWatcher(cfg.Network.Interface, cfg.ProbeInterval())
	watcher.SetLogger(log.With("component", "network"))
	supervisor := network.NewSupervisor(watcher)
	supervisor.SetLogger(log.With("component", "network"))

	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		_ = watcher.Run(ctx, supervisor.HandleEvent)
	}()
	defer func() {
		cancel(nil)
		<-watcherDone
	}()

	mqttClient := mqtt.New(cfg.MQTT)
	mqttClient.SetLogger(log.With("component", "mqtt"))
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()

	ctrl := session.New(mqttClient, rtr, supervisor)
	ctrl.SetLogger(log.With("component", "session"))
	ctrl.SetAvailabilityTopic(cfg.MQTT.AvailabilityTopic)
	ctrl.SetOnFault(func(err error) {
		cancel(err)
	})

	// Build the status API (optional). Its websocket hub is a recorder,
	// so it must exist before the recorders are attached.
	var apiServer *api.Server
	if cfg.API.Enabled {
		var apiErr error
		apiServer, apiErr = newAPI(cfg, apiDeps{
			log:        log,
			actuators:  actuators,
			session:    ctrl,
			supervisor: supervisor,
			mqtt:       mqttClient,
			influx:     influxClient,
		})
		if apiErr != nil {
			return fmt.Errorf("building API server: %w", apiErr)
		}
		recorders = append(recorders, apiServer.Hub())
	} else {
		log.Info("API server disabled")
	}

	if len(recorders) > 0 {
		for _, a := range actuators {
			a.SetRecorder(recorders)
		}
	}

	if apiServer != nil {
		if err := apiServer.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			log.Info("stopping API server")
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error stopping API server", "error", closeErr)
			}
		}()
	}

	if err := ctrl.Start(ctx); err != nil {
		if ctx.Err() == nil {
			return fmt.Errorf("starting session: %w", err)
		}
	} else {
		log.Info("initialisation complete, waiting for shutdown signal",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	}

	<-ctx.Done()

	if cause := context.Cause(ctx); errors.Is(cause, router.ErrHardwareFault) {
		log.Error("stopping on hardware fault", "error", cause, "stats", ctrl.Stats())
		return fmt.Errorf("hardware fault: %w", cause)
	}

	log.Info("shutdown signal received, cleaning up", "stats", ctrl.Stats())
	return nil
}

// apiDeps groups the running components the status API reports on.
type apiDeps struct {
	log        *logging.Logger
	actuators  map[door.ID]*door.Actuator
	session    *session.Controller
	supervisor *network.Supervisor
	mqtt       *mqtt.Client
	influx     *influxdb.Client // nil when disabled
}

// newAPI builds the read-only status API without starting it.
func newAPI(cfg *config.Config, deps apiDeps) (*api.Server, error) {
	doors := make(map[door.ID]api.DoorReader, len(deps.actuators))
	for id, a := range deps.actuators {
		doors[id] = a
	}

	d := api.Deps{
		Config:  cfg.API,
		Logger:  deps.log.With("component", "api"),
		Doors:   doors,
		Session: deps.session,
		Network: deps.supervisor,
		MQTT:    deps.mqtt,
		Version: version,
	}
	if deps.influx != nil {
		d.InfluxDB = deps.influx
	}

	return api.New(d)
}

// parseFlags returns the configuration path from --config, then
// GARAGE_CONFIG, then the default.
func parseFlags(args []string, output io.Writer) (string, error) {
	var configPath string

	flagSet := pflag.NewFlagSet("garagedoor", pflag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to the YAML configuration file (default: $GARAGE_CONFIG or "+defaultConfigPath+")")

	if err := flagSet.Parse(args); err != nil {
		return "", err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return "", fmt.Errorf("unexpected argument: %s", rest[0])
	}

	if configPath != "" {
		return configPath, nil
	}
	if path := os.Getenv("GARAGE_CONFIG"); path != "" {
		return path, nil
	}
	return defaultConfigPath, nil
}

// openPins opens the configured GPIO driver.
func openPins(driver string) (gpio.Driver, error) {
	switch driver {
	case config.GPIODriverRPIO:
		pins, err := gpio.OpenRPIO()
		if err != nil {
			return nil, err
		}
		return pins, nil
	case config.GPIODriverMemory:
		return gpio.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown GPIO driver %q", driver)
	}
}

// setupDoors builds both actuators and configures their lines.
//
// Returns:
//   - map of door ID to its configured actuator
//   - error: if a door is misconfigured or a line cannot be set up
func setupDoors(cfg *config.Config, pins gpio.Driver, log *logging.Logger) (map[door.ID]*door.Actuator, error) {
	wiring := map[door.ID]config.DoorPinsConfig{
		door.Left:  cfg.Doors.Left,
		door.Right: cfg.Doors.Right,
	}

	actuators := make(map[door.ID]*door.Actuator, len(door.IDs))
	for _, id := range door.IDs {
		w := wiring[id]
		a, err := door.NewActuator(door.Door{
			ID:          id,
			ActuatorPin: gpio.Pin(w.ActuatorPin),
			SensorPin:   gpio.Pin(w.SensorPin),
		}, pins, cfg.PulseDuration())
		if err != nil {
			return nil, err
		}
		a.SetLogger(log.With("component", "door"))
		if err := a.Setup(); err != nil {
			return nil, err
		}
		actuators[id] = a
		log.Info("door configured",
			"door", string(id),
			"actuator_pin", w.ActuatorPin,
			"sensor_pin", w.SensorPin,
			"pulse", cfg.PulseDuration(),
		)
	}
	return actuators, nil
}
