package config

import (
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/smartcity/navigation/internal/navigation"
)

// Config holds process configuration
type Config struct {
	Port        string `mapstructure:"PORT" validate:"required"`
	Env         string `mapstructure:"GO_ENV" validate:"oneof=development production test"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	OSRMBaseURL          string `mapstructure:"OSRM_BASE_URL" validate:"required,url"`
	RouteCacheTTLSeconds int    `mapstructure:"ROUTE_CACHE_TTL_SECONDS" validate:"gte=0"`
	AlertWebhookURL      string `mapstructure:"ALERT_WEBHOOK_URL" validate:"omitempty,url"`

	ArrivalRadiusM     float64 `mapstructure:"ARRIVAL_RADIUS_M" validate:"gt=0"`
	OffRouteThresholdM float64 `mapstructure:"OFF_ROUTE_THRESHOLD_M" validate:"gt=0"`
	ManeuverRadiusM    float64 `mapstructure:"MANEUVER_RADIUS_M" validate:"gt=0"`

	IncidentSampleSeconds int     `mapstructure:"INCIDENT_SAMPLE_SECONDS" validate:"gt=0"`
	IncidentHighSpeedKmh  float64 `mapstructure:"INCIDENT_HIGH_SPEED_KMH" validate:"gt=0"`
	IncidentStopSpeedKmh  float64 `mapstructure:"INCIDENT_STOP_SPEED_KMH" validate:"gte=0,ltfield=IncidentHighSpeedKmh"`
}

var defaults = map[string]any{
	"PORT":                    "8080",
	"GO_ENV":                  "development",
	"DATABASE_URL":            "",
	"REDIS_ADDR":              "",
	"REDIS_PASSWORD":          "",
	"OSRM_BASE_URL":           "https://router.project-osrm.org",
	"ROUTE_CACHE_TTL_SECONDS": 300,
	"ALERT_WEBHOOK_URL":       "",
	"ARRIVAL_RADIUS_M":        navigation.ArrivalVertexRadiusMeters,
	"OFF_ROUTE_THRESHOLD_M":   navigation.OffRouteThresholdMeters,
	"MANEUVER_RADIUS_M":       navigation.ManeuverTriggerRadiusMeters,
	"INCIDENT_SAMPLE_SECONDS": int(navigation.DefaultSampleInterval / time.Second),
	"INCIDENT_HIGH_SPEED_KMH": navigation.DefaultHighSpeedKmh,
	"INCIDENT_STOP_SPEED_KMH": navigation.DefaultStopSpeedKmh,
}

// Load reads .env (if present), environment variables and the optional YAML
// file named by CONFIG_FILE, then validates the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: failed to read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: failed to decode: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: invalid: %w", err)
	}
	return cfg, nil
}

// Thresholds returns the tracker radii
func (c Config) Thresholds() navigation.Thresholds {
	return navigation.Thresholds{
		ArrivalVertexRadius:   c.ArrivalRadiusM,
		OffRoute:              c.OffRouteThresholdM,
		ManeuverTriggerRadius: c.ManeuverRadiusM,
	}
}

// Incident returns the sudden-stop detector configuration
func (c Config) Incident() navigation.IncidentConfig {
	return navigation.IncidentConfig{
		SampleInterval: time.Duration(c.IncidentSampleSeconds) * time.Second,
		HighSpeedKmh:   c.IncidentHighSpeedKmh,
		StopSpeedKmh:   c.IncidentStopSpeedKmh,
	}
}

// RouteCacheTTL returns the route cache expiry
func (c Config) RouteCacheTTL() time.Duration {
	return time.Duration(c.RouteCacheTTLSeconds) * time.Second
}
