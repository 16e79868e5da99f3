// Package config loads the server configuration. Values come from
// defaults, then an optional YAML file, then EVENTBOOKING_* environment
// variables, then command-line flags; each layer overrides the previous.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Bus drivers.
const (
	BusLocal = "local"
	BusAMQP  = "amqp"
	BusKafka = "kafka"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "EVENTBOOKING_"

// Config is the server configuration.
type Config struct {
	Addr         string `yaml:"addr"`
	DBPath       string `yaml:"db"`
	LogPath      string `yaml:"log"`
	AdminEmail   string `yaml:"admin_email"`
	ClientOrigin string `yaml:"client_origin"`

	// JWTSecret overrides the secret stored in the database.
	JWTSecret string `yaml:"jwt_secret"`

	Bus      Bus      `yaml:"bus"`
	Realtime Realtime `yaml:"realtime"`
	Stripe   Stripe   `yaml:"stripe"`
	Tracing  Tracing  `yaml:"tracing"`
}

// Bus selects and configures the lifecycle update transport.
type Bus struct {
	Driver       string   `yaml:"driver"`
	QueueSize    int      `yaml:"queue_size"`
	AMQPURL      string   `yaml:"amqp_url"`
	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`
	KafkaGroup   string   `yaml:"kafka_group"`
}

// Realtime configures websocket subscribers.
type Realtime struct {
	QueueSize int `yaml:"queue_size"`
}

// Stripe configures the payment gateway. Payments are disabled without a
// secret key.
type Stripe struct {
	SecretKey  string `yaml:"secret_key"`
	Currency   string `yaml:"currency"`
	SuccessURL string `yaml:"success_url"`
	CancelURL  string `yaml:"cancel_url"`
}

// Tracing configures the OTLP trace exporter. Tracing is off without an
// endpoint.
type Tracing struct {
	Endpoint string `yaml:"endpoint"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:         ":8080",
		DBPath:       "eventbooking.sqlite3",
		AdminEmail:   "admin@eventbooking.local",
		ClientOrigin: "http://localhost:5173",
		Bus: Bus{
			Driver:     BusLocal,
			QueueSize:  256,
			KafkaTopic: "eventbooking.bookings",
		},
		Realtime: Realtime{QueueSize: 64},
		Stripe: Stripe{
			Currency:   "inr",
			SuccessURL: "http://localhost:5173/success",
			CancelURL:  "http://localhost:5173/cancel",
		},
	}
}

// LoadFile decodes the YAML file at path over cfg. Unknown keys are an
// error.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg from environment variables found by lookup.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
		return nil
	}

	str("ADDR", &cfg.Addr)
	str("DB", &cfg.DBPath)
	str("LOG", &cfg.LogPath)
	str("ADMIN_EMAIL", &cfg.AdminEmail)
	str("CLIENT_ORIGIN", &cfg.ClientOrigin)
	str("JWT_SECRET", &cfg.JWTSecret)
	str("BUS_DRIVER", &cfg.Bus.Driver)
	str("AMQP_URL", &cfg.Bus.AMQPURL)
	str("KAFKA_TOPIC", &cfg.Bus.KafkaTopic)
	str("KAFKA_GROUP", &cfg.Bus.KafkaGroup)
	str("STRIPE_SECRET_KEY", &cfg.Stripe.SecretKey)
	str("STRIPE_CURRENCY", &cfg.Stripe.Currency)
	str("STRIPE_SUCCESS_URL", &cfg.Stripe.SuccessURL)
	str("STRIPE_CANCEL_URL", &cfg.Stripe.CancelURL)
	str("OTLP_ENDPOINT", &cfg.Tracing.Endpoint)
	if v, ok := lookup(EnvPrefix + "KAFKA_BROKERS"); ok {
		cfg.Bus.KafkaBrokers = splitList(v)
	}

	if err := num("BUS_QUEUE_SIZE", &cfg.Bus.QueueSize); err != nil {
		return err
	}
	return num("REALTIME_QUEUE_SIZE", &cfg.Realtime.QueueSize)
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("listen address is empty"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("database path is empty"))
	}
	switch c.Bus.Driver {
	case BusLocal:
	case BusAMQP:
		if c.Bus.AMQPURL == "" {
			errs = append(errs, errors.New("bus driver amqp needs bus.amqp_url"))
		}
	case BusKafka:
		if len(c.Bus.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("bus driver kafka needs bus.kafka_brokers"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown bus driver %q", c.Bus.Driver))
	}
	if c.Realtime.QueueSize < 1 {
		errs = append(errs, errors.New("realtime.queue_size must be positive"))
	}
	return errors.Join(errs...)
}

// Load builds the configuration from args (without the program name) and
// the environment. It returns pflag.ErrHelp when help was requested.
func Load(args []string, lookup func(string) (string, bool), usage io.Writer) (Config, error) {
	fs := pflag.NewFlagSet("eventbooking", pflag.ContinueOnError)
	fs.SetOutput(usage)

	var flags Config
	configPath := fs.StringP("config", "c", "", "")
	fs.StringVarP(&flags.DBPath, "db", "d", "", "")
	fs.StringVarP(&flags.Addr, "addr", "a", "", "")
	fs.StringVarP(&flags.AdminEmail, "user", "u", "", "")
	fs.StringVarP(&flags.LogPath, "log", "l", "", "")
	fs.StringVar(&flags.Bus.Driver, "bus", "", "")

	fs.Usage = func() {
		fmt.Fprint(usage, `Usage: eventbooking [flags]

Flags:
  -c, --config <path>       YAML config file (default: $EVENTBOOKING_CONFIG, else none)
  -d, --db <path>           SQLite database path (default: eventbooking.sqlite3)
  -a, --addr <host:port>    listen address (default: :8080)
  -u, --user <email>        admin email on first run (default: admin@eventbooking.local)
  -l, --log <path>          log file path (default: no file, stdout/stderr only)
      --bus <driver>        lifecycle bus: local, amqp or kafka (default: local)
  -h, --help                show this help and exit
`)
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return Config{}, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	cfg := Default()

	path := *configPath
	if path == "" {
		path, _ = lookup(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := ApplyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}

	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "db":
			cfg.DBPath = flags.DBPath
		case "addr":
			cfg.Addr = flags.Addr
		case "user":
			cfg.AdminEmail = flags.AdminEmail
		case "log":
			cfg.LogPath = flags.LogPath
		case "bus":
			cfg.Bus.Driver = flags.Bus.Driver
		}
	})

	return cfg, cfg.Validate()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
