package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"docsage/cmd/docsage/commands"
)

func init() {
	// Load .env file if exists
	_ = godotenv.Load()
}

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
