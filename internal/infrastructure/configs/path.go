package configs

import (
	"flag"
	"os"

	"github.com/lunahex/mimic/internal/infrastructure/env"
)

// DetermineConfigPath resolves the config file from the --config flag,
// the MIMIC_CONFIG env var, or well-known locations. An empty result
// means "defaults only", which is a valid way to run.
func DetermineConfigPath() string {
	var configPath string

	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	if configPath == "" {
		configPath = env.GetString("MIMIC_CONFIG", "")
	}

	if configPath == "" {
		candidates := []string{
			"./config.yaml",
			"./config.yml",
			"/etc/mimic/config.yaml",
			"/app/config.yaml",
		}

		for _, p := range candidates {
			if _, err := os.Stat(p); err == nil {
				configPath = p
				break
			}
		}
	}

	return configPath
}
