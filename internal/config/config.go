package config

import (
	"log"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port         string `mapstructure:"port"`
	DBDriver     string `mapstructure:"db_driver"`
	DBDSN        string `mapstructure:"db_dsn"`
	LogFile      string `mapstructure:"log_file"`
	LogLevel     string `mapstructure:"log_level"`
	TemplatesDir string `mapstructure:"templates_dir"`
	StaticDir    string `mapstructure:"static_dir"`

	Simulation SimulationConfig `mapstructure:"simulation"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Mongo      MongoConfig      `mapstructure:"mongo"`
	AMQP       AMQPConfig       `mapstructure:"amqp"`
}

type SimulationConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Seed     int64         `mapstructure:"seed"`
}

// RedisConfig enables the redis session store when Addr is set. A zero SessionTTL
// keeps sessions until logout.
type RedisConfig struct {
	Addr       string        `mapstructure:"addr"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

// MongoConfig enables the audit trail sink when URI is set.
type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

// AMQPConfig enables domain event publishing when URL is set.
type AMQPConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

// Load reads .env, then ISDN_* environment variables, then the optional YAML file named by ISDN_CONFIG.
func Load() Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ISDN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_dsn", "isdn.db") // sqlite file in project root
	v.SetDefault("log_file", "./isdn.log")
	v.SetDefault("log_level", "info")
	v.SetDefault("templates_dir", "./web/templates")
	v.SetDefault("static_dir", "./web/static")
	v.SetDefault("simulation.interval", "2s")
	v.SetDefault("simulation.seed", 0)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.session_ttl", "0s")
	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "isdn")
	v.SetDefault("mongo.collection", "audit_logs")
	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.exchange", "isdn_events")

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			log.Printf("[config] could not read %s: %v", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Printf("[config] unmarshal: %v", err)
	}
	log.Printf("[config] PORT=%s DB_DRIVER=%s DB_DSN=%s LOG_FILE=%s REDIS=%t MONGO=%t AMQP=%t",
		cfg.Port, cfg.DBDriver, RedactDSN(cfg.DBDSN), cfg.LogFile, cfg.Redis.Addr != "", cfg.Mongo.URI != "", cfg.AMQP.URL != "")
	return cfg
}

var reDSNPassword = regexp.MustCompile(`(?i)(password=)[^&\s]+`)

// RedactDSN masks the password in URL-style and key=value connection strings.
func RedactDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		dsn = u.Redacted()
	}
	return reDSNPassword.ReplaceAllString(dsn, "${1}xxxxx")
}
