package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/anthienduong1212/driverkit/internal/logging"
)

func main() {
	// Load .env if present (ignore error if not found)
	_ = godotenv.Load()
	logging.Setup()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
