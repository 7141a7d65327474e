package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Services ServicesConfig `mapstructure:"services"`
	Bidding  BiddingConfig  `mapstructure:"bidding"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type MySQLConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ServicesConfig holds the endpoints of the remote collaborators: the
// auction-data provider, the funds ledger and the identity service.
type ServicesConfig struct {
	AuctionAPIURL  string        `mapstructure:"auction_api_url"`
	LedgerURL      string        `mapstructure:"ledger_url"`
	IdentityURL    string        `mapstructure:"identity_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type BiddingConfig struct {
	// AuctionStartCutoff rejects bids on lots whose auction starts sooner
	// than this window.
	AuctionStartCutoff time.Duration `mapstructure:"auction_start_cutoff"`
	ReconcileInterval  time.Duration `mapstructure:"reconcile_interval"`
	// ReconcileGrace is how old an unheld bid must be before the
	// reconciler retries its funds hold.
	ReconcileGrace time.Duration `mapstructure:"reconcile_grace"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func Load() (*Config, error) {
	// Set default values
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("mysql.dsn", "bid_user:bid_pass@tcp(localhost:3306)/bid_db?parseTime=true")
	viper.SetDefault("mysql.max_open_conns", 25)
	viper.SetDefault("mysql.max_idle_conns", 10)
	viper.SetDefault("mysql.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("services.auction_api_url", "http://localhost:8091")
	viper.SetDefault("services.ledger_url", "http://localhost:8092")
	viper.SetDefault("services.identity_url", "http://localhost:8093")
	viper.SetDefault("services.request_timeout", 10*time.Second)
	viper.SetDefault("bidding.auction_start_cutoff", 15*time.Minute)
	viper.SetDefault("bidding.reconcile_interval", time.Minute)
	viper.SetDefault("bidding.reconcile_grace", 5*time.Minute)
	viper.SetDefault("log.level", "info")

	// Configuration file settings
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/bid-service/")

	// Environment variable support
	viper.AutomaticEnv()

	// Environment variable mappings
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("mysql.dsn", "MYSQL_DSN")
	viper.BindEnv("mysql.max_open_conns", "MYSQL_MAX_OPEN_CONNS")
	viper.BindEnv("mysql.max_idle_conns", "MYSQL_MAX_IDLE_CONNS")
	viper.BindEnv("mysql.conn_max_lifetime", "MYSQL_CONN_MAX_LIFETIME")
	viper.BindEnv("redis.address", "REDIS_ADDRESS")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")
	viper.BindEnv("services.auction_api_url", "AUCTION_API_URL")
	viper.BindEnv("services.ledger_url", "LEDGER_URL")
	viper.BindEnv("services.identity_url", "IDENTITY_URL")
	viper.BindEnv("services.request_timeout", "SERVICES_REQUEST_TIMEOUT")
	viper.BindEnv("bidding.auction_start_cutoff", "BIDDING_AUCTION_START_CUTOFF")
	viper.BindEnv("bidding.reconcile_interval", "BIDDING_RECONCILE_INTERVAL")
	viper.BindEnv("bidding.reconcile_grace", "BIDDING_RECONCILE_GRACE")
	viper.BindEnv("log.level", "LOG_LEVEL")

	// Read configuration file (optional - will use defaults/env vars if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// Config file not found, continue with defaults and environment variables
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// GetConfigString returns a formatted string representation of the config
func (c *Config) GetConfigString() string {
	return fmt.Sprintf(
		"Server: %s:%d, MySQL: %s, Redis: %s, AuctionAPI: %s",
		c.Server.Host,
		c.Server.Port,
		c.MySQL.DSN,
		c.Redis.Address,
		c.Services.AuctionAPIURL,
	)
}
