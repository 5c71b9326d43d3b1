package main

import (
	"errors"
	"io/fs"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/lazypower/rapport/internal/cli"
)

func main() {
	// .env is optional; RAPPORT_* variables may come from the shell instead
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("rapport: load .env: %v", err)
	}
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
