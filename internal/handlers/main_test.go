package handlers

import (
	"os"
	"testing"

	"fleetping-bot/internal/locales"
)

func TestMain(m *testing.M) {
	locales.Init("ru")
	os.Exit(m.Run())
}
