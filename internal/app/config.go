package app

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/pwronski/go-taskboard/internal/config"
)

func readEnv() (*config.Config, error) {
	return config.NewEnvReader().Read()
}
