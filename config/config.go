// server/config/config.go
package config

import (
	"github.com/spf13/viper"
)

// --- Sub-structs mirroring the YAML layout ---

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type MongoConfig struct {
	URI    string `mapstructure:"uri"`
	DBName string `mapstructure:"dbName"`
}

// DemurrageConfig holds the billing-policy switches for the calculation
// engine. Cancelled trucks are always evaluated; this flag only decides
// whether their costs count toward headline shipment/fleet totals.
type DemurrageConfig struct {
	IncludeCancelledInTotals bool `mapstructure:"includeCancelledInTotals"`
}

// --- Main Config struct, composed of the sub-structs ---

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Demurrage DemurrageConfig `mapstructure:"demurrage"`
}

// LoadConfig reads configuration from file and overrides it with environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()

	viper.BindEnv("mongo.uri", "MONGO_URI")
	viper.BindEnv("mongo.dbName", "MONGO_DBNAME")
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("demurrage.includeCancelledInTotals", "DEMURRAGE_INCLUDE_CANCELLED")

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("mongo.dbName", "seamaster")
	viper.SetDefault("demurrage.includeCancelledInTotals", true)

	// If config.yaml is missing, viper falls back to env vars only.
	err = viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	return
}
