package tests

import (
	"io"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stiapanreha-dev/klabu/core"
	"github.com/stiapanreha-dev/klabu/core/achievement"
	"github.com/stiapanreha-dev/klabu/core/user"
	logsvc "github.com/stiapanreha-dev/klabu/services/logger"
)

// now is pinned so year/month windows are stable: January 2024.
var now = time.Date(2024, time.January, 20, 12, 0, 0, 0, time.UTC)

var (
	validate, translator = core.NewValidator()

	logger *logsvc.RollbarLogger
)

func TestMain(m *testing.M) {
	core.Conf.Debug = false
	core.Conf.TestMode = true

	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)
	achievement.RegisterValidators(validate, translator)

	logger = logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), core.Conf)
	logger.Enable(false)

	os.Exit(m.Run())
}
