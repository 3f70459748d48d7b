package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manager loads the gateway configuration from a TOML file, falling back to
// environment variables when the file does not exist.
type Manager struct {
	configPath string
}

// NewManager creates a Manager rooted at customPath, or DefaultConfigFile when
// customPath is empty.
func NewManager(customPath string) *Manager {
	if customPath == "" {
		customPath = DefaultConfigFile
	}
	return &Manager{configPath: customPath}
}

// Load reads the configuration file if it exists, otherwise builds the
// configuration from environment variables.
func (m *Manager) Load() (*Config, error) {
	if _, err := os.Stat(m.configPath); os.IsNotExist(err) {
		return loadFromEnv()
	}

	var raw tomlConfig
	if _, err := toml.DecodeFile(m.configPath, &raw); err != nil {
		return nil, &ConfigError{Op: "decode toml file " + m.configPath, Err: err}
	}

	cors, err := raw.GlobalCors.resolve()
	if err != nil {
		return nil, err
	}

	cron := raw.ReloadCron
	if cron == "" {
		cron = defaultReloadCron
	}

	return &Config{
		ReloadCron:  cron,
		OpenApiURLs: raw.OpenApiURLs,
		GlobalCors:  cors,
	}, nil
}

// loadFromEnv reconstructs the configuration from OPENAPI_* environment variables,
// per §6's environment fallback contract.
func loadFromEnv() (*Config, error) {
	cron := os.Getenv(envPrefix + "RELOAD_CRON")
	if cron == "" {
		cron = defaultReloadCron
	}

	var urls []OpenApiConfig
urlLoop:
	for i := 0; ; i++ {
		urlKey := envPrefix + strconv.Itoa(i) + "_URL"
		nameKey := envPrefix + strconv.Itoa(i) + "_NAME"

		url, urlOK := os.LookupEnv(urlKey)
		name, nameOK := os.LookupEnv(nameKey)

		switch {
		case urlOK && nameOK:
			urls = append(urls, OpenApiConfig{Name: name, URL: url})
		case urlOK && !nameOK:
			fmt.Fprintf(os.Stderr, "warning: %s found, %s missing\n", urlKey, nameKey)
			break urlLoop
		case !urlOK && nameOK:
			fmt.Fprintf(os.Stderr, "warning: %s found, %s missing\n", nameKey, urlKey)
			break urlLoop
		default:
			break urlLoop
		}
	}

	cors, err := corsFromEnv()
	if err != nil {
		return nil, err
	}

	return &Config{
		ReloadCron:  cron,
		OpenApiURLs: urls,
		GlobalCors:  cors,
	}, nil
}

func corsFromEnv() (*CorsConfig, error) {
	origin, hasOrigin := os.LookupEnv(envPrefix + "CORS_ALLOWED_ORIGIN")
	methods, hasMethods := os.LookupEnv(envPrefix + "CORS_ALLOWED_METHODS")
	headers, hasHeaders := os.LookupEnv(envPrefix + "CORS_ALLOWED_HEADERS")

	present := 0
	for _, ok := range []bool{hasOrigin, hasMethods, hasHeaders} {
		if ok {
			present++
		}
	}
	if present == 0 {
		return nil, nil
	}
	if present != 3 {
		return nil, &ConfigError{Op: "load cors from env", Err: fmt.Errorf(
			"one of [%sCORS_ALLOWED_ORIGIN, %sCORS_ALLOWED_METHODS, %sCORS_ALLOWED_HEADERS] is missing",
			envPrefix, envPrefix, envPrefix)}
	}

	methodList := make([]HTTPMethod, 0)
	for _, m := range strings.Split(methods, ",") {
		parsed, err := parseHTTPMethod(m)
		if err != nil {
			return nil, err
		}
		methodList = append(methodList, parsed)
	}

	headerList := make([]string, 0)
	for _, h := range strings.Split(headers, ",") {
		headerList = append(headerList, strings.TrimSpace(h))
	}

	return &CorsConfig{
		AllowedOrigin:  origin,
		AllowedMethods: methodList,
		AllowedHeaders: headerList,
	}, nil
}
