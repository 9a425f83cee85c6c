package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("DEALSYNC_TEST_MODE", "1")
		for _, key := range []string{"REDIS_ADDR", "PG_DSN"} {
			_ = os.Unsetenv(key)
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
