package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/crew-alert/internal/domain/crew"
	"github.com/oshokin/crew-alert/internal/logger"
)

// Config holds the settings shared by the crew-alert binaries.
type Config struct {
	// ServerAddress is the gRPC address of crew-server.
	ServerAddress string `yaml:"server_addr"`
	// Timeout is the duration for network operations and RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is the minimum level written by the binaries.
	LogLevel string `yaml:"log_level"`
	// LogFormat is "console" or "json".
	LogFormat string `yaml:"log_format"`
	// Store selects where engine state is persisted.
	Store StoreConfig `yaml:"store"`
	// AuditLogCapacity is the number of audit entries kept.
	AuditLogCapacity int `yaml:"audit_log_capacity"`
	// Delivery tunes ticket notifications.
	Delivery DeliveryConfig `yaml:"delivery"`
	// Fleet is the fixed list of vehicles.
	Fleet []crew.Vehicle `yaml:"fleet"`
	// AccessCodes holds argon2id hashes of the login codes. Empty values fall
	// back to the station defaults.
	AccessCodes AccessCodes `yaml:"access_codes"`
	// SeedDemoCrew fills an empty store with a demonstration roster.
	SeedDemoCrew bool `yaml:"seed_demo_crew"`
	// SingleInstance refuses to start crew-server when another one is running.
	SingleInstance bool `yaml:"single_instance"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	// Driver is StoreDriverFile or StoreDriverSQLite.
	Driver string `yaml:"driver"`
	// Path is the state file or the SQLite database file.
	Path string `yaml:"path"`
}

// DeliveryConfig tunes the notification workers.
type DeliveryConfig struct {
	Workers   int           `yaml:"workers"`
	QueueSize int           `yaml:"queue_size"`
	Timeout   time.Duration `yaml:"timeout"`
	// Channels lists the enabled delivery channels: ChannelLog, ChannelStream.
	Channels []string `yaml:"channels"`
}

// AccessCodes holds hashed login codes per role.
type AccessCodes struct {
	Supervisor string `yaml:"supervisor"`
	CrewMember string `yaml:"crew_member"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "crew-alert-settings.yaml"

	// DefaultStateFilename is the default state file of the file store.
	DefaultStateFilename = "crew-alert-state.crw"

	// DefaultDatabaseFilename is the default database of the SQLite store.
	DefaultDatabaseFilename = "crew-alert.db"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is the default file permission for config and state files.
	DefaultFilePermissions = 0o600

	// DefaultAuditLogCapacity is the default number of audit entries kept.
	DefaultAuditLogCapacity = 500

	// DefaultDeliveryWorkers is the default number of notification workers.
	DefaultDeliveryWorkers = 4

	// DefaultDeliveryQueueSize is the default notification queue capacity.
	DefaultDeliveryQueueSize = 1024

	// DefaultSupervisorCode and DefaultCrewMemberCode are the station codes
	// used when no hash is configured.
	DefaultSupervisorCode = "chef"
	DefaultCrewMemberCode = "equipier"
)

const (
	// StoreDriverFile persists a compressed snapshot file.
	StoreDriverFile = "file"
	// StoreDriverSQLite persists one row per collection in SQLite.
	StoreDriverSQLite = "sqlite"

	// ChannelLog writes alerts to the server log.
	ChannelLog = "log"
	// ChannelStream pushes alerts to connected crew-checker instances.
	ChannelStream = "stream"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerSocketRequired is returned when server address is missing.
	errServerSocketRequired = errors.New("server address must be provided")
	// errInvalidFleet is returned for duplicate vehicle ids or unnamed vehicles.
	errInvalidFleet = errors.New("invalid fleet")
)

// DefaultFleet returns the two vehicles of the station.
func DefaultFleet() []crew.Vehicle {
	return []crew.Vehicle{
		{ID: 1, Name: "VL - 12A"},
		{ID: 2, Name: "FPT - 34B"},
	}
}

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes Config to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions: the file carries access code hashes.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and fills defaults.
//
//nolint:cyclop,funlen // A flat list of field checks reads best in one place.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.ServerAddress == "" {
		return errServerSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.LogLevel != "" {
		if _, ok := logger.ParseLogLevel(settings.LogLevel); !ok {
			return fmt.Errorf("invalid log level %q", settings.LogLevel)
		}
	}

	if _, ok := logger.ParseFormat(settings.LogFormat); !ok {
		return fmt.Errorf("invalid log format %q", settings.LogFormat)
	}

	switch settings.Store.Driver {
	case "", StoreDriverFile:
		settings.Store.Driver = StoreDriverFile
		if settings.Store.Path == "" {
			settings.Store.Path = DefaultStateFilename
		}
	case StoreDriverSQLite:
		if settings.Store.Path == "" {
			settings.Store.Path = DefaultDatabaseFilename
		}
	default:
		return fmt.Errorf("unknown store driver %q", settings.Store.Driver)
	}

	if settings.AuditLogCapacity <= 0 {
		settings.AuditLogCapacity = DefaultAuditLogCapacity
	}

	if err := validateDelivery(&settings.Delivery); err != nil {
		return err
	}

	if len(settings.Fleet) == 0 {
		settings.Fleet = DefaultFleet()
	}

	seen := make(map[crew.VehicleID]struct{}, len(settings.Fleet))
	for _, v := range settings.Fleet {
		if v.ID == 0 || strings.TrimSpace(v.Name) == "" {
			return fmt.Errorf("%w: vehicle %d needs a non-zero id and a name", errInvalidFleet, v.ID)
		}

		if _, dup := seen[v.ID]; dup {
			return fmt.Errorf("%w: duplicate vehicle id %d", errInvalidFleet, v.ID)
		}

		seen[v.ID] = struct{}{}
	}

	return nil
}

// validateDelivery fills delivery defaults and checks channel names.
func validateDelivery(d *DeliveryConfig) error {
	if d.Workers <= 0 {
		d.Workers = DefaultDeliveryWorkers
	}

	if d.QueueSize <= 0 {
		d.QueueSize = DefaultDeliveryQueueSize
	}

	if d.Timeout <= 0 {
		d.Timeout = DefaultTimeout
	}

	if len(d.Channels) == 0 {
		d.Channels = []string{ChannelLog, ChannelStream}
	}

	for _, name := range d.Channels {
		if !slices.Contains([]string{ChannelLog, ChannelStream}, name) {
			return fmt.Errorf("unknown delivery channel %q", name)
		}
	}

	return nil
}
