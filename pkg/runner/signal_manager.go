package runner

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// SignalManager turns SIGINT/SIGTERM into a hangup of the console call.
type SignalManager struct {
	signals chan os.Signal
	stopped chan struct{}
	once    sync.Once
}

// NewSignalManager starts listening for signals.
func NewSignalManager() *SignalManager {
	sm := &SignalManager{
		signals: make(chan os.Signal, 1),
		stopped: make(chan struct{}),
	}
	signal.Notify(sm.signals, os.Interrupt, syscall.SIGTERM)
	return sm
}

// OnInterrupt runs fn once when a signal arrives, unless Stop is called first.
func (sm *SignalManager) OnInterrupt(fn func()) {
	go func() {
		select {
		case <-sm.signals:
			fn()
		case <-sm.stopped:
		}
	}()
}

// Stop permanently stops the signal listener.
func (sm *SignalManager) Stop() {
	sm.once.Do(func() {
		signal.Stop(sm.signals)
		close(sm.stopped)
	})
}
