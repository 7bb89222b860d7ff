package examsession

import (
	"context"
	"sync"
	"time"
)

// Timer — явная отменяемая ручка таймера сессии.
// Хранится внутри сессии и останавливается на каждом терминальном переходе,
// чтобы «подвисший» тик не сработал после ухода со страницы.
type Timer struct {
	cancel   context.CancelFunc
	stopOnce sync.Once
	done     chan struct{}
}

// Stop отменяет таймер. Идемпотентен: повторные вызовы безопасны.
func (t *Timer) Stop() {
	t.stopOnce.Do(func() {
		t.cancel()
	})
}

// Done возвращает канал, закрываемый после завершения горутины таймера
func (t *Timer) Done() <-chan struct{} {
	return t.done
}

// StartTimer запускает тикающую горутину: раз в interval вызывается
// Tick сессии. Горутина завершается по отмене контекста, по Stop
// или когда тик сообщил об истечении времени.
func (s *Session) StartTimer(ctx context.Context, interval time.Duration) *Timer {
	if interval <= 0 {
		interval = time.Second
	}

	timerCtx, cancel := context.WithCancel(ctx)
	t := &Timer{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	// Прежний таймер, если был, отменяем: у сессии один источник тиков
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = t
	s.mu.Unlock()

	go func() {
		defer close(t.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-timerCtx.Done():
				return
			case <-ticker.C:
				if s.Tick() {
					return
				}
			}
		}
	}()

	return t
}

// stopTimerLocked останавливает таймер сессии, если он запущен.
// Вызывается под мьютексом сессии на каждом терминальном переходе;
// Stop лишь отменяет контекст, поэтому взаимной блокировки с горутиной
// таймера не возникает.
func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
}
