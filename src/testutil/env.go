package testutil

import (
	"os"
	"path/filepath"

	"github.com/ascension-ai/backend/src/utils"
	"github.com/joho/godotenv"
)

func GetEnv(key string) string {
	_ = godotenv.Load(filepath.Join(utils.FindProjectRoot(), ".env"))

	return os.Getenv(key)
}
