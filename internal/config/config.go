package config

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/Alturino/foodorder/internal/log"
)

const (
	StorageDriverRedis  = "redis"
	StorageDriverSqlite = "sqlite"
	StorageDriverMemory = "memory"
)

type Application struct {
	Env          string `mapstructure:"env"           json:"env"`
	Host         string `mapstructure:"host"          json:"host"`
	SecretKey    string `mapstructure:"secret_key"    json:"-"`
	HandoffPhone string `mapstructure:"handoff_phone" json:"handoff_phone"`
	LogPath      string `mapstructure:"log_path"      json:"log_path"`
	Port         int    `mapstructure:"port"          json:"port"`
}

type Database struct {
	Name           string `mapstructure:"name"            json:"name"`
	Host           string `mapstructure:"host"            json:"host"`
	MigrationPath  string `mapstructure:"migration_path"  json:"migration_path"`
	Password       string `mapstructure:"password"        json:"-"`
	TimeZone       string `mapstructure:"timezone"        json:"timezone"`
	Username       string `mapstructure:"username"        json:"username"`
	MaxConnections int    `mapstructure:"max_connections" json:"max_connections"`
	MinConnections int    `mapstructure:"min_connections" json:"min_connections"`
	Port           uint16 `mapstructure:"port"            json:"port"`
}

type Cache struct {
	Host     string `mapstructure:"host"     json:"host"`
	Password string `mapstructure:"password" json:"-"`
	Database int    `mapstructure:"database" json:"database"`
	Port     uint16 `mapstructure:"port"     json:"port"`
}

type Otel struct {
	Host string `mapstructure:"host" json:"host"`
	Port int    `mapstructure:"port" json:"port"`
}

// Storage selects the backend holding per device session state (cart
// snapshot, selected location, saved profile).
type Storage struct {
	Driver     string `mapstructure:"driver"      json:"driver"`
	SqlitePath string `mapstructure:"sqlite_path" json:"sqlite_path"`
}

// Pricing amounts are whole currency units.
type Pricing struct {
	FirstUnitFee      int64 `mapstructure:"first_unit_fee"      json:"first_unit_fee"`
	AdditionalUnitFee int64 `mapstructure:"additional_unit_fee" json:"additional_unit_fee"`
}

type Village struct {
	Name        string `mapstructure:"name"         json:"name"`
	DeliveryFee int64  `mapstructure:"delivery_fee" json:"delivery_fee"`
}

type District struct {
	Name     string    `mapstructure:"name"     json:"name"`
	Villages []Village `mapstructure:"villages" json:"villages"`
}

type Delivery struct {
	Districts []District `mapstructure:"districts" json:"districts"`
}

type Config struct {
	Database    `mapstructure:"db"          json:"db"`
	Cache       `mapstructure:"cache"       json:"cache"`
	Application `mapstructure:"application" json:"application"`
	Otel        `mapstructure:"otel"        json:"otel"`
	Storage     `mapstructure:"storage"     json:"storage"`
	Pricing     `mapstructure:"pricing"     json:"pricing"`
	Delivery    `mapstructure:"delivery"    json:"delivery"`
}

var (
	once   sync.Once
	config *Config
)

func InitConfig(c context.Context, filename string) *Config {
	once.Do(func() {
		cfg := Config{}
		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyTag, "config InitConfig").
			Str(log.KeyProcess, "init config").
			Str("filename", filename).
			Logger()

		viper.SetConfigName(filename)
		viper.AddConfigPath("./env")
		viper.SetConfigType("yaml")
		viper.AutomaticEnv()

		viper.SetDefault("storage.driver", StorageDriverRedis)
		viper.SetDefault("pricing.first_unit_fee", 10)
		viper.SetDefault("pricing.additional_unit_fee", 5)
		viper.SetDefault("application.log_path", fmt.Sprintf("/var/log/%s.log", filename))

		logger = logger.With().Str(log.KeyProcess, "reading config").Logger()
		logger.Info().Msg("reading config")
		err := viper.ReadInConfig()
		if err != nil {
			err = fmt.Errorf("error when reading config with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		logger.Info().Msg("read config")

		logger = logger.With().Str(log.KeyProcess, "unmarshaling config").Logger()
		logger.Info().Msg("unmarshaling config")
		err = viper.Unmarshal(&cfg)
		if err != nil {
			err = fmt.Errorf("error unmarshaling config with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		config = &cfg
		logger.Info().Any(log.KeyConfig, cfg).Msg("unmarshaled config")
	})
	return config
}
