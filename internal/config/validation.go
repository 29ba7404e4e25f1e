package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Configuration validation failed with %d error(s):\n\n", len(ve)))
	for i, err := range ve {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	sb.WriteString("\nPlease fix the above errors and try again.\n")
	return sb.String()
}

// Validate performs comprehensive configuration validation
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateApp()...)
	errors = append(errors, c.validateLLM()...)
	errors = append(errors, c.validateMarket()...)
	errors = append(errors, c.validateRedis()...)
	errors = append(errors, c.validateDatabase()...)
	errors = append(errors, c.validateModel()...)
	errors = append(errors, c.validatePorts()...)

	if len(errors) > 0 {
		return errors
	}

	return nil
}

func (c *Config) validateApp() ValidationErrors {
	var errors ValidationErrors

	if c.App.Name == "" {
		errors = append(errors, ValidationError{
			Field:   "app.name",
			Message: "Application name is required",
		})
	}

	validEnvs := []string{"development", "staging", "production"}
	if !slices.Contains(validEnvs, c.App.Environment) {
		errors = append(errors, ValidationError{
			Field:   "app.environment",
			Message: fmt.Sprintf("Invalid environment '%s'. Must be one of: %v", c.App.Environment, validEnvs),
		})
	}

	validLevels := []string{"trace", "debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, strings.ToLower(c.App.LogLevel)) {
		errors = append(errors, ValidationError{
			Field:   "app.log_level",
			Message: fmt.Sprintf("Invalid log level '%s'. Must be one of: %v", c.App.LogLevel, validLevels),
		})
	}

	if c.App.LogFormat != "json" && c.App.LogFormat != "console" {
		errors = append(errors, ValidationError{
			Field:   "app.log_format",
			Message: "Log format must be 'json' or 'console'",
		})
	}

	return errors
}

func (c *Config) validateLLM() ValidationErrors {
	var errors ValidationErrors

	if err := validateHTTPURL(c.LLM.Endpoint); err != "" {
		errors = append(errors, ValidationError{Field: "llm.endpoint", Message: err})
	}

	if c.LLM.Model == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.model",
			Message: "LLM model is required",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: fmt.Sprintf("Invalid temperature %.2f. Must be between 0-2", c.LLM.Temperature),
		})
	}

	if c.LLM.MaxTokens < 1 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "LLM max_tokens must be at least 1",
		})
	}

	if c.LLM.Timeout < 0 {
		errors = append(errors, ValidationError{
			Field:   "llm.timeout",
			Message: "LLM timeout cannot be negative (0 uses the transport default)",
		})
	}

	if c.App.Environment == "production" && c.LLM.APIKey == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.api_key",
			Message: "LLM API key is required in production (RISKWISE_LLM_API_KEY or DEEPSEEK_API_KEY)",
		})
	}

	return errors
}

func (c *Config) validateMarket() ValidationErrors {
	var errors ValidationErrors

	if err := validateHTTPURL(c.Market.BaseURL); err != "" {
		errors = append(errors, ValidationError{Field: "market.base_url", Message: err})
	}

	if c.Market.Timeout < 0 {
		errors = append(errors, ValidationError{
			Field:   "market.timeout",
			Message: "Market timeout cannot be negative (0 uses the transport default)",
		})
	}

	if c.Market.RequestsPerSecond < 0 {
		errors = append(errors, ValidationError{
			Field:   "market.requests_per_second",
			Message: "Requests per second cannot be negative (0 disables pacing)",
		})
	}

	if c.Market.RequestsPerSecond > 0 && c.Market.Burst < 1 {
		errors = append(errors, ValidationError{
			Field:   "market.burst",
			Message: "Burst must be at least 1 when pacing is enabled",
		})
	}

	for i, ticker := range c.Market.WatchList {
		if strings.TrimSpace(ticker) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("market.watch_list[%d]", i),
				Message: "Watch list entries cannot be empty",
			})
		}
	}

	if c.App.Environment == "production" && c.Market.APIKey == "" {
		errors = append(errors, ValidationError{
			Field:   "market.api_key",
			Message: "Market API key is required in production (RISKWISE_MARKET_API_KEY or FINANCIAL_DATASETS_API_KEY)",
		})
	}

	return errors
}

func (c *Config) validateRedis() ValidationErrors {
	var errors ValidationErrors

	if !c.Redis.Enabled {
		return errors
	}

	if c.Redis.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "redis.host",
			Message: "Redis host is required when the cache is enabled",
		})
	}

	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "redis.port",
			Message: fmt.Sprintf("Invalid port %d. Must be between 1-65535", c.Redis.Port),
		})
	}

	if c.Redis.TTL < 1 {
		errors = append(errors, ValidationError{
			Field:   "redis.ttl",
			Message: "Redis TTL must be at least 1 second",
		})
	}

	return errors
}

func (c *Config) validateDatabase() ValidationErrors {
	var errors ValidationErrors

	if !c.Database.Enabled {
		return errors
	}

	if c.Database.URL == "" {
		errors = append(errors, ValidationError{
			Field:   "database.url",
			Message: "Database URL is required when the consultation log is enabled",
		})
	}

	if c.Database.PoolSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.pool_size",
			Message: "Database pool size must be at least 1",
		})
	}

	return errors
}

func (c *Config) validateModel() ValidationErrors {
	var errors ValidationErrors

	if c.Model.BundlePath == "" {
		errors = append(errors, ValidationError{
			Field:   "model.bundle_path",
			Message: "Model bundle path is required",
		})
	}

	return errors
}

func (c *Config) validatePorts() ValidationErrors {
	var errors ValidationErrors

	if c.API.Port < 1 || c.API.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "api.port",
			Message: fmt.Sprintf("Invalid port %d. Must be between 1-65535", c.API.Port),
		})
	}

	if c.API.AuthEnabled && len(c.API.APIKeys) == 0 {
		errors = append(errors, ValidationError{
			Field:   "api.api_keys",
			Message: "At least one API key is required when API auth is enabled",
		})
	}

	if c.Monitoring.EnableMetrics {
		if c.Monitoring.PrometheusPort < 1 || c.Monitoring.PrometheusPort > 65535 {
			errors = append(errors, ValidationError{
				Field:   "monitoring.prometheus_port",
				Message: fmt.Sprintf("Invalid port %d. Must be between 1-65535", c.Monitoring.PrometheusPort),
			})
		} else if c.Monitoring.PrometheusPort == c.API.Port {
			errors = append(errors, ValidationError{
				Field:   "monitoring.prometheus_port",
				Message: "Metrics port must differ from the API port",
			})
		}
	}

	return errors
}

// validateHTTPURL returns an empty string when raw is an absolute http(s) URL
func validateHTTPURL(raw string) string {
	if raw == "" {
		return "URL is required"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Sprintf("Invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "URL must start with http:// or https://"
	}
	if u.Host == "" {
		return "URL must include a host"
	}
	return ""
}
