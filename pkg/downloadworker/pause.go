// Luminary: A streamlined CLI tool for searching and downloading manga.
// Copyright (C) 2025 Luca M. Schmidt (LuMiSxh)
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package downloadworker

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"tanoshi/pkg/applog"
)

const pollFallbackInterval = 5 * time.Second

// pauseGate tracks the `<download_root>/.pause` sentinel. It watches the
// download root with fsnotify (grounded on the teranos-QNTX ConfigWatcher
// pattern) and additionally polls on a fixed interval as a fallback for
// filesystems/platforms where fsnotify events are unreliable (network
// mounts, some container overlays).
type pauseGate struct {
	path    string
	watcher *fsnotify.Watcher
	log     applog.Logger

	resume chan struct{}
}

func newPauseGate(downloadRoot string, log applog.Logger) *pauseGate {
	g := &pauseGate{
		path:   filepath.Join(downloadRoot, ".pause"),
		log:    log,
		resume: make(chan struct{}, 1),
	}
	if w, err := fsnotify.NewWatcher(); err == nil {
		if err := w.Add(downloadRoot); err == nil {
			g.watcher = w
		} else {
			w.Close()
		}
	}
	return g
}

func (g *pauseGate) paused() bool {
	_, err := os.Stat(g.path)
	return err == nil
}

// run watches for the pause file's removal and signals resume; it exits
// when ctx is done.
func (g *pauseGate) run(done <-chan struct{}) {
	poll := time.NewTicker(pollFallbackInterval)
	defer poll.Stop()

	var events <-chan fsnotify.Event
	var errs <-chan error
	if g.watcher != nil {
		events = g.watcher.Events
		errs = g.watcher.Errors
		defer g.watcher.Close()
	}

	for {
		select {
		case <-done:
			return
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) == filepath.Clean(g.path) && (ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0) {
				g.signalResume()
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			g.log.Warn("pause watcher error: %v", err)
		case <-poll.C:
			if !g.paused() {
				g.signalResume()
			}
		}
	}
}

func (g *pauseGate) signalResume() {
	select {
	case g.resume <- struct{}{}:
	default:
	}
}

// waitUntilResumed blocks until the pause file is gone, polling-resume
// signals, or done fires.
func (g *pauseGate) waitUntilResumed(done <-chan struct{}) {
	for g.paused() {
		select {
		case <-done:
			return
		case <-g.resume:
		case <-time.After(pollFallbackInterval):
		}
	}
}
