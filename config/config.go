package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	API       APIConfig       `mapstructure:"api"`
	City      CityConfig      `mapstructure:"city"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Refresh   RefreshConfig   `mapstructure:"refresh"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Venues    VenuesConfig    `mapstructure:"venues"`
}

type APIConfig struct {
	Port    int  `mapstructure:"port"`
	Enabled bool `mapstructure:"enabled"`
}

type CityConfig struct {
	Default string `mapstructure:"default"`
}

type ProvidersConfig struct {
	PrimaryBaseURL  string        `mapstructure:"primary_base_url"`
	LegacyBaseURL   string        `mapstructure:"legacy_base_url"`
	SnapshotBaseURL string        `mapstructure:"snapshot_base_url"`
	WeatherBaseURL  string        `mapstructure:"weather_base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type CacheConfig struct {
	Dir      string        `mapstructure:"dir"`
	FreshTTL time.Duration `mapstructure:"fresh_ttl"`
	StaleTTL time.Duration `mapstructure:"stale_ttl"`
}

type EngineConfig struct {
	MinDurationMinutes int `mapstructure:"min_duration_minutes"`
	MaxRecommendations int `mapstructure:"max_recommendations"`
	OutlookDays        int `mapstructure:"outlook_days"`
}

type RefreshConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type VenuesConfig struct {
	Path string `mapstructure:"path"`
}

func Load(configPath string) (*Config, error) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/sunnysips")
	}

	// Set defaults
	viper.SetDefault("api.port", 8060)
	viper.SetDefault("api.enabled", true)
	viper.SetDefault("city.default", "copenhagen")
	viper.SetDefault("providers.primary_base_url", "")
	viper.SetDefault("providers.legacy_base_url", "")
	viper.SetDefault("providers.snapshot_base_url", "")
	viper.SetDefault("providers.weather_base_url", "https://api.open-meteo.com")
	viper.SetDefault("providers.timeout", "20s")
	viper.SetDefault("cache.dir", ".cache/sunnysips_v1")
	viper.SetDefault("cache.fresh_ttl", "2h")
	viper.SetDefault("cache.stale_ttl", "12h")
	viper.SetDefault("engine.min_duration_minutes", 30)
	viper.SetDefault("engine.max_recommendations", 20)
	viper.SetDefault("engine.outlook_days", 5)
	viper.SetDefault("refresh.enabled", true)
	viper.SetDefault("refresh.interval", "5m")
	viper.SetDefault("mqtt.enabled", false)
	viper.SetDefault("mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("mqtt.topic_prefix", "sunnysips")
	viper.SetDefault("mqtt.client_id", "sunnysips")
	viper.SetDefault("database.path", "./sunnysips.db")
	viper.SetDefault("venues.path", "./data/venues_copenhagen.json")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
