package utils

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// shutdownSignals — сигналы, по которым сервер и CLI завершаются штатно.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// SetupGracefulShutdown отменяет контекст при SIGINT/SIGTERM.
//
// Возвращённую функцию вызывают через defer: она снимает обработчик
// сигналов и закрывает файл логов.
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer utils.SetupGracefulShutdown(cancel)()
func SetupGracefulShutdown(cancel context.CancelFunc) func() {
	sigChan := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigChan, shutdownSignals...)

	go func() {
		select {
		case sig := <-sigChan:
			Info("Received signal, shutting down gracefully", "signal", sig.String())
			cancel()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(done)
		Close()
	}
}

// SetupGracefulShutdownWithContext создаёт контекст, отменяемый по сигналу.
//
//	ctx, shutdown := utils.SetupGracefulShutdownWithContext()
//	defer shutdown()
func SetupGracefulShutdownWithContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	stop := SetupGracefulShutdown(cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
