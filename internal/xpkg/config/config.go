package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

const (
	BrokerRabbitMQ = "rabbitmq"
	BrokerKafka    = "kafka"
	BrokerNone     = "none"
)

type Config struct {
	DB      *Postgres `yaml:"database"`
	RMQ     *RabbitMQ `yaml:"rabbitmq"`
	Kafka   *Kafka    `yaml:"kafka"`
	Broker  string    `yaml:"broker"`
	Logging *Logging  `yaml:"logging"`
}

type Postgres struct {
	Host          string `yaml:"host"`
	Port          string `yaml:"port"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	Database      string `yaml:"database"`
	MaxConns      int32  `yaml:"max_conns"`
	LockTimeoutMS int    `yaml:"lock_timeout_ms"`
}

type RabbitMQ struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	VHost    string `yaml:"vhost"`
	Exchange string `yaml:"exchange"`
	Queue    string `yaml:"queue"`
}

// URL is the amqp address of the broker.
func (r *RabbitMQ) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/%s", r.User, r.Password, r.Host, r.Port, r.VHost)
}

type Kafka struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
}

type Logging struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// LoadConfig reads the yaml file at configPath, applies environment
// overrides and fills defaults for anything left empty.
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %q", configPath)
	}
	return Parse(data)
}

// Parse decodes yaml config bytes.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv builds the config from the environment only.
func LoadDotEnv() *Config {
	cfg := &Config{}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg
}

func (c *Config) Validate() error {
	switch c.Broker {
	case BrokerRabbitMQ, BrokerKafka, BrokerNone:
	default:
		return errors.Newf("unknown broker %q, expected one of rabbitmq, kafka, none", c.Broker)
	}
	if c.Broker == BrokerKafka && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka broker selected but kafka.brokers is empty")
	}
	if c.DB.LockTimeoutMS < 0 {
		return errors.Newf("database.lock_timeout_ms cannot be negative: %d", c.DB.LockTimeoutMS)
	}
	return nil
}

func (c *Config) applyEnv() {
	if c.DB == nil {
		c.DB = &Postgres{}
	}
	if c.RMQ == nil {
		c.RMQ = &RabbitMQ{}
	}
	if c.Kafka == nil {
		c.Kafka = &Kafka{}
	}
	if c.Logging == nil {
		c.Logging = &Logging{}
	}

	c.DB.Host = getEnv("POSTGRES_HOST", c.DB.Host)
	c.DB.Port = getEnv("POSTGRES_PORT", c.DB.Port)
	c.DB.User = getEnv("POSTGRES_USER", c.DB.User)
	c.DB.Password = getEnv("POSTGRES_PASSWORD", c.DB.Password)
	c.DB.Database = getEnv("POSTGRES_DBNAME", c.DB.Database)
	if v, err := strconv.Atoi(getEnv("POSTGRES_LOCK_TIMEOUT_MS", "")); err == nil {
		c.DB.LockTimeoutMS = v
	}

	c.RMQ.Host = getEnv("RABBITMQ_HOST", c.RMQ.Host)
	c.RMQ.Port = getEnv("RABBITMQ_PORT", c.RMQ.Port)
	c.RMQ.User = getEnv("RABBITMQ_USER", c.RMQ.User)
	c.RMQ.Password = getEnv("RABBITMQ_PASSWORD", c.RMQ.Password)
	c.RMQ.VHost = getEnv("RABBITMQ_VHOST", c.RMQ.VHost)

	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		c.Kafka.Brokers = strings.Split(brokers, ",")
	}
	c.Kafka.Topic = getEnv("KAFKA_TOPIC", c.Kafka.Topic)

	c.Broker = getEnv("BROKER", c.Broker)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.File = getEnv("LOG_FILE", c.Logging.File)
}

func (c *Config) applyDefaults() {
	setDefault(&c.DB.Host, "localhost")
	setDefault(&c.DB.Port, "5432")
	setDefault(&c.DB.User, "restaurant_user")
	setDefault(&c.DB.Password, "restaurant_pass")
	setDefault(&c.DB.Database, "restaurant_db")
	if c.DB.MaxConns == 0 {
		c.DB.MaxConns = 10
	}
	if c.DB.LockTimeoutMS == 0 {
		c.DB.LockTimeoutMS = 3000
	}

	setDefault(&c.RMQ.Host, "localhost")
	setDefault(&c.RMQ.Port, "5672")
	setDefault(&c.RMQ.User, "guest")
	setDefault(&c.RMQ.Password, "guest")
	setDefault(&c.RMQ.Exchange, "notifications_fanout")
	setDefault(&c.RMQ.Queue, "notifications_queue")

	setDefault(&c.Kafka.Topic, "order_status_updates")
	setDefault(&c.Kafka.GroupID, "notification-subscriber")

	setDefault(&c.Broker, BrokerRabbitMQ)
	setDefault(&c.Logging.Level, "INFO")
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = 32
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = 2
	}
	if c.Logging.MaxAgeDays == 0 {
		c.Logging.MaxAgeDays = 28
	}
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
