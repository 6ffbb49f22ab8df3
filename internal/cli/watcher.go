package cli

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/watzon/holdoff/internal/config"
)

// watchDebounce coalesces the bursts of write events editors produce when
// saving a file.
const watchDebounce = 250 * time.Millisecond

// watchConfig watches the config file and invokes onChange after writes.
// The returned function stops the watcher.
func watchConfig(customPath string, onChange func()) (func(), error) {
	path, err := config.ConfigFilePath(customPath)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})

	go func() {
		var pendingMu sync.Mutex
		var pending *time.Timer

		for {
			select {
			case <-done:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}

				pendingMu.Lock()
				if pending != nil {
					pending.Stop()
				}
				pending = time.AfterFunc(watchDebounce, onChange)
				pendingMu.Unlock()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Msg("Config watcher error")
			}
		}
	}()

	log.Info().Str("path", path).Msg("Watching config file")

	return func() {
		close(done)
		watcher.Close()
	}, nil
}
