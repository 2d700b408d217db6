package misc

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnvSettings loads the base .env files from the working directory.
// .env.local wins over .env so developers can override without editing
// checked-in defaults.
func LoadEnvSettings(log *slog.Logger) {
	godotenv.Load(".env.local")
	godotenv.Load() // .env
}

// LoadEnvForNetwork layers network-specific overrides (ie: .env.sandbox with
// app ids and mnemonics generated by the bootstrap script) on top of whatever
// is already set.
func LoadEnvForNetwork(log *slog.Logger, network string) {
	envFile := fmt.Sprintf(".env.%s", network)
	if _, err := os.Stat(envFile); err != nil {
		return
	}
	if err := godotenv.Load(envFile); err != nil {
		Warnf(log, "unable to load env file:%s, error:%v", envFile, err)
	}
}
