// Command usenest normalizes the use declarations of Rust source files.
package main

import (
	"errors"
	"os"

	"github.com/joho/godotenv"

	"aspect.build/usenest/internal/logger"
)

func main() {
	_ = godotenv.Load()

	if err := Execute(); err != nil {
		if !errors.Is(err, errCheckFailed) {
			logger.Errorf("%v", err)
		}
		os.Exit(1)
	}
}
