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

import "sync"

// pendingArchives tracks the archive writer and remaining page count for
// every chapter currently being assembled. A chapter's entry is created
// when its first page is queued (insertIntoQueue knows the total page
// count up front) and removed once the archive commits.
type pendingArchives struct {
	mu        sync.Mutex
	writers   map[int64]*archiveWriter
	remaining map[int64]int
}

func newPendingArchives() *pendingArchives {
	return &pendingArchives{
		writers:   make(map[int64]*archiveWriter),
		remaining: make(map[int64]int),
	}
}

func (p *pendingArchives) expect(chapterID int64, pageCount int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.remaining[chapterID] = pageCount
}

func (p *pendingArchives) get(chapterID int64) (*archiveWriter, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	w, ok := p.writers[chapterID]
	return w, ok
}

func (p *pendingArchives) put(chapterID int64, w *archiveWriter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writers[chapterID] = w
}

// pageWritten decrements the remaining count for a chapter and reports how
// many pages are left, including this one already subtracted.
func (p *pendingArchives) pageWritten(chapterID int64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.remaining[chapterID]--
	return p.remaining[chapterID]
}

func (p *pendingArchives) delete(chapterID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.writers, chapterID)
	delete(p.remaining, chapterID)
}
