// Command petitionsctl holds operator tasks for the petitions server.
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	rootCmd := newRootCommand()
	rootCmd.AddCommand(newTokenCommand())
	rootCmd.AddCommand(newMigrateCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
