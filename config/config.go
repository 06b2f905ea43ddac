package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Room     RoomConfig     `mapstructure:"room"`
	World    WorldConfig    `mapstructure:"world"`
	Database DatabaseConfig `mapstructure:"database"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
}

type RoomConfig struct {
	MaxPlayers    int           `mapstructure:"max_players"`
	TickInterval  time.Duration `mapstructure:"tick_interval"`
	SweepTicks    int           `mapstructure:"sweep_ticks"`
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
	CommandBuffer int           `mapstructure:"command_buffer"`
}

type WorldConfig struct {
	ProjectileLifetime time.Duration  `mapstructure:"projectile_lifetime"`
	ProjectileInterval time.Duration  `mapstructure:"projectile_interval"`
	JumpDuration       time.Duration  `mapstructure:"jump_duration"`
	JumpHeight         float64        `mapstructure:"jump_height"`
	SurfaceStandoff    float64        `mapstructure:"surface_standoff"`
	TakeoffClearance   float64        `mapstructure:"takeoff_clearance"`
	SpawnExtent        float64        `mapstructure:"spawn_extent"`
	SpawnHeight        float64        `mapstructure:"spawn_height"`
	Planets            []PlanetConfig `mapstructure:"planets"`
}

type PlanetConfig struct {
	ID     string  `mapstructure:"id"`
	Name   string  `mapstructure:"name"`
	X      float64 `mapstructure:"x"`
	Y      float64 `mapstructure:"y"`
	Z      float64 `mapstructure:"z"`
	Radius float64 `mapstructure:"radius"`
	Color  string  `mapstructure:"color"`
}

type DatabaseConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Driver   string         `mapstructure:"driver"` // "gorm" or "pq"
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

func setDefaults() {
	viper.SetDefault("server.http_address", ":8080")
	viper.SetDefault("server.rpc_address", ":8081")
	viper.SetDefault("server.metrics_address", ":9090")

	viper.SetDefault("room.max_players", 16)
	viper.SetDefault("room.tick_interval", 100*time.Millisecond)
	viper.SetDefault("room.sweep_ticks", 10)
	viper.SetDefault("room.idle_timeout", 5*time.Minute)
	viper.SetDefault("room.command_buffer", 256)

	viper.SetDefault("world.projectile_lifetime", 10*time.Second)
	viper.SetDefault("world.projectile_interval", 150*time.Millisecond)
	viper.SetDefault("world.jump_duration", 1200*time.Millisecond)
	viper.SetDefault("world.jump_height", 2.0)
	viper.SetDefault("world.surface_standoff", 0.5)
	viper.SetDefault("world.takeoff_clearance", 2.0)
	viper.SetDefault("world.spawn_extent", 20.0)
	viper.SetDefault("world.spawn_height", 1.0)

	viper.SetDefault("database.enabled", false)
	viper.SetDefault("database.driver", "gorm")
}

// DefaultPlanets is the fixed world used when the config file defines none.
func DefaultPlanets() []PlanetConfig {
	return []PlanetConfig{
		{ID: "planet1", Name: "Earth", X: 0, Y: 0, Z: 0, Radius: 5, Color: "#2233ff"},
		{ID: "planet2", Name: "Mars", X: 15, Y: 0, Z: 15, Radius: 3, Color: "#ff3300"},
		{ID: "planet3", Name: "Venus", X: -15, Y: 0, Z: -15, Radius: 4, Color: "#ffcc00"},
	}
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()
	setDefaults()

	if err = viper.ReadInConfig(); err != nil {
		// Defaults are a complete configuration; only a broken file is fatal.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err = viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	if len(config.World.Planets) == 0 {
		config.World.Planets = DefaultPlanets()
	}
	return config, nil
}
