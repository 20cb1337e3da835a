// Package goroutine запускает фоновые горутины с перехватом паники.
package goroutine

import (
	"runtime/debug"

	"github.com/campusbooks/bookcycle-backend/internal/logger"
)

// SafeGo выполняет fn в отдельной горутине. Паника в фоне не роняет
// процесс: она логируется вместе со стеком.
func SafeGo(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil && logger.Log != nil {
				logger.Log.Errorf("goroutine: перехвачена паника: %v\n%s", r, debug.Stack())
			}
		}()
		fn()
	}()
}
