package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// #region settings
// Settings is the process configuration read from the environment.
type Settings struct {
	SimulatorAddr string
	ResultsDriver string
	ResultsDSN    string
	MQTTURL       string
	MQTTTopic     string
	LogLevel      string
	LogFormat     string
}

// DefaultSettings returns settings with every default applied.
func DefaultSettings() Settings {
	return Settings{
		SimulatorAddr: "localhost:50061",
		ResultsDriver: "sqlite",
		ResultsDSN:    "behavior_results.db",
		MQTTTopic:     "behavior/progress",
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// LoadDotEnv loads the first .env file found among paths. Missing files are
// not an error; variables already set win.
func LoadDotEnv(paths ...string) string {
	if len(paths) == 0 {
		paths = []string{".env", "../.env", "../../.env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadSettings reads settings from the environment over the defaults.
func LoadSettings() (Settings, error) {
	s := DefaultSettings()
	s.SimulatorAddr = getEnv("BEHAVIOR_SIM_ADDR", s.SimulatorAddr)
	s.ResultsDriver = strings.ToLower(getEnv("BEHAVIOR_RESULTS_DRIVER", s.ResultsDriver))
	s.MQTTURL = os.Getenv("MQTT_URL")
	s.MQTTTopic = getEnv("BEHAVIOR_MQTT_TOPIC", s.MQTTTopic)
	s.LogLevel = getEnv("BEHAVIOR_LOG_LEVEL", s.LogLevel)
	s.LogFormat = getEnv("BEHAVIOR_LOG_FORMAT", s.LogFormat)

	dsn, err := ResolveSecret("BEHAVIOR_RESULTS_DSN")
	if err != nil {
		return Settings{}, err
	}
	if dsn != "" {
		s.ResultsDSN = dsn
	}

	switch s.ResultsDriver {
	case "sqlite", "postgres":
	default:
		return Settings{}, fmt.Errorf("unsupported results driver %q", s.ResultsDriver)
	}
	return s, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// #endregion settings

// #region secrets
// ResolveSecret reads envName, preferring the file named by envName+"_FILE".
// Returns empty string if neither is set.
func ResolveSecret(envName string) (string, error) {
	fileEnv := envName + "_FILE"
	if filePath := os.Getenv(fileEnv); filePath != "" {
		content, err := os.ReadFile(filePath)
		if err != nil {
			return "", fmt.Errorf("failed to read secret from %s=%s: %w", fileEnv, filePath, err)
		}
		return strings.TrimSpace(string(content)), nil
	}
	return os.Getenv(envName), nil
}

// #endregion secrets
