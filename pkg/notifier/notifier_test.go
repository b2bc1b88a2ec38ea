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

package notifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingBackend struct {
	calls int
	err   error
}

func (r *recordingBackend) Notify(ctx context.Context, userID int64, event Event) error {
	r.calls++
	return r.err
}

func TestMultiFansOutAndSwallowsBackendErrors(t *testing.T) {
	ok := &recordingBackend{}
	failing := &recordingBackend{err: errors.New("boom")}

	m := NewMulti(nil, ok, failing)
	err := m.Notify(context.Background(), 1, Event{Kind: EventNewChapter, Title: "x"})

	require.NoError(t, err)
	require.Equal(t, 1, ok.calls)
	require.Equal(t, 1, failing.calls)
}

func TestNoopNeverErrors(t *testing.T) {
	require.NoError(t, Noop().Notify(context.Background(), 1, Event{}))
}
