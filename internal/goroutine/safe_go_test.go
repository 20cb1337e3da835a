package goroutine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/campusbooks/bookcycle-backend/internal/logger"
)

func TestSafeGo_RecoversPanic(t *testing.T) {
	logger.Init("error")

	done := make(chan struct{})
	SafeGo(func() {
		defer close(done)
		panic("boom")
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("горутина не завершилась")
	}
}

func TestSafeGo_RunsFunction(t *testing.T) {
	logger.Init("error")

	result := make(chan int, 1)
	SafeGo(func() { result <- 42 })

	select {
	case v := <-result:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("горутина не выполнилась")
	}
}
