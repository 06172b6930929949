package main

import (
	"os"

	"github.com/pwronski/go-taskboard/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		os.Exit(1)
	}
}
