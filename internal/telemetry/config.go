package telemetry

// Config holds configuration for the tracer
type Config struct {
	// ServiceName is the name of the service
	ServiceName string

	// ServiceVersion is the version of the service
	ServiceVersion string

	// Environment is the deployment environment (dev, staging, production)
	Environment string

	// Enabled determines whether tracing is enabled.
	// When false, a noop tracer is used.
	Enabled bool

	// Endpoint is the OTLP/HTTP collector, either host:port or a full URL.
	// If empty, spans are recorded but not exported.
	Endpoint string

	// SampleRate is the fraction of traces to sample (0.0 to 1.0)
	SampleRate float64
}

// DefaultConfig returns the CLI default: tracing off.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "gemora",
		ServiceVersion: "dev",
		Environment:    "development",
		Enabled:        false,
		SampleRate:     1.0,
	}
}

// ConfigFor returns an enabled configuration exporting to endpoint.
func ConfigFor(version, endpoint string) Config {
	cfg := DefaultConfig()
	cfg.ServiceVersion = version
	cfg.Enabled = true
	cfg.Endpoint = endpoint
	return cfg
}
