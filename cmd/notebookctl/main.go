// Command notebookctl holds operator tasks that do not need the HTTP server.
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
