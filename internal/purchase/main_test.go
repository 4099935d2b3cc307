package purchase

import (
	"os"
	"testing"

	"leadmarket/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Init()

	code := m.Run()
	os.Exit(code)
}
