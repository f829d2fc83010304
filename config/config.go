// Package config declares the environment-driven configuration of the user
// and job state service. Each concern lives in its own file and is parsed
// with github.com/caarlos0/env struct tags.
package config

// AppConfig is the root configuration. Sub-configs carry their own env
// prefixes where the variables share one.
type AppConfig struct {
	Auth AuthConfig

	// Postgres holds the job store; Redis holds user state.
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	HTTP   HTTPConfig
	Events EventsConfig `envPrefix:"AMQP_"`
	Jobs   JobsConfig
	Log    LogConfig
	Reaper ReaperConfig

	// Services is a comma-separated list of the service modes to run.
	Services string `env:"SERVICES" envDefault:"http"`
}

// Sanitize clamps and normalizes values after parsing.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Auth.Sanitize()
	c.Events.Sanitize()
	c.Jobs.Sanitize()
	c.Log.Sanitize()
	c.Reaper.Sanitize()
}

// GetEnabledServices parses Services.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsHTTPServerEnabled reports whether the HTTP API should run. An invalid
// Services value enables nothing.
func (c *AppConfig) IsHTTPServerEnabled() bool { return c.enabled(ServiceModeHTTP) }

// IsReaperEnabled reports whether the expired job reaper should run.
func (c *AppConfig) IsReaperEnabled() bool { return c.enabled(ServiceModeReaper) }

func (c *AppConfig) enabled(mode ServiceMode) bool {
	services, err := c.GetEnabledServices()
	return err == nil && services[mode]
}
