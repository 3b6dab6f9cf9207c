package confkit

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

var dotenvOnce sync.Once

// LoadDotenvOnce loads a .env file into the process environment. ENV_FILE
// names the file explicitly; otherwise the nearest .env from the working
// directory up to the module root is used. NO_DOTENV=1 disables loading and
// DOTENV_OVERLOAD=1 lets the file override variables already set.
func LoadDotenvOnce() {
	dotenvOnce.Do(func() {
		_ = loadDotenv(".")
	})
}

func loadDotenv(start string) error {
	if os.Getenv("NO_DOTENV") == "1" {
		return nil
	}
	path := os.Getenv("ENV_FILE")
	if path == "" {
		dir, ok := FindUp(start, ".env")
		if !ok {
			return nil
		}
		if root, ok := FindUp(start, "go.mod", ".git"); ok && len(dir) < len(root) {
			return nil
		}
		path = filepath.Join(dir, ".env")
	}
	if os.Getenv("DOTENV_OVERLOAD") == "1" {
		return godotenv.Overload(path)
	}
	return godotenv.Load(path)
}
