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

package updateworker

import (
	"sync"

	"tanoshi/pkg/core"
)

const subscriberBuffer = 32

// broadcaster is a hand-rolled non-blocking fan-out: publish never blocks
// on a slow subscriber, it just drops the update for that one subscriber
// (at-most-once, best-effort delivery per the concurrency model — durable
// state lives in the chapter rows, not the broadcast).
type broadcaster struct {
	mu   sync.Mutex
	subs map[chan core.ChapterUpdate]struct{}
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[chan core.ChapterUpdate]struct{})}
}

func (b *broadcaster) subscribe() (<-chan core.ChapterUpdate, func()) {
	ch := make(chan core.ChapterUpdate, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

func (b *broadcaster) publish(update core.ChapterUpdate) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- update:
		default:
			// subscriber too slow; it observes a gap, not reordering.
		}
	}
}
