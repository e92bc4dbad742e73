/*
Copyright 2026 The Jishu Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package lib

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
)

// Terminable is a server that can be stopped on a signal.
type Terminable interface {
	// Shutdown attempts to gracefully terminate.
	Shutdown(context.Context) error
	// Close does a fast (force) termination.
	Close()
}

// ServeSignals stops app on SIGTERM or SIGINT. A second SIGINT forces termination.
// It returns when app has been stopped or ctx is done.
func ServeSignals(ctx context.Context, app Terminable, shutdownTimeout time.Duration) {
	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC,
		syscall.SIGTERM, // graceful shutdown
		syscall.SIGINT,  // graceful-then-fast shutdown
	)
	defer signal.Stop(sigC)

	gracefulShutdown := func() {
		tctx, tcancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer tcancel()
		log.Debug("Attempting graceful shutdown...")
		if err := app.Shutdown(tctx); err != nil {
			log.Debug("Graceful shutdown failed. Trying fast shutdown...")
			app.Close()
		}
	}

	var alreadyInterrupted bool
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigC:
			switch sig {
			case syscall.SIGTERM:
				gracefulShutdown()
				return
			case syscall.SIGINT:
				if alreadyInterrupted {
					app.Close()
					return
				}
				go gracefulShutdown()
				alreadyInterrupted = true
			}
		}
	}
}
