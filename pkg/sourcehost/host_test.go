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

package sourcehost

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"tanoshi/pkg/apperr"
	"tanoshi/pkg/core"
	"tanoshi/pkg/source/local"
	"tanoshi/pkg/source/luavm"
)

// slowAdapter is a Local adapter whose ListPopular takes delay to answer.
type slowAdapter struct {
	*local.Adapter
	delay time.Duration
}

func (s slowAdapter) ListPopular(ctx context.Context, page int) ([]core.Manga, error) {
	time.Sleep(s.delay)
	return nil, nil
}

func startHost(t *testing.T, opts Options) (*Host, context.CancelFunc) {
	t.Helper()
	h := New(opts)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = h.Run(ctx) }()
	return h, cancel
}

func TestInsertAndListLocalAdapter(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/library", 0o755))
	adapter, err := local.New(10001, "Local", "/library", fs)
	require.NoError(t, err)

	h, cancel := startHost(t, Options{})
	defer cancel()

	info, err := h.Insert(context.Background(), adapter, "")
	require.NoError(t, err)
	require.Equal(t, int64(10001), info.ID)

	list, err := h.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.True(t, h.Exists(context.Background(), 10001))
	require.False(t, h.Exists(context.Background(), 99))
}

func TestFetchOpsAgainstUnloadedSourceReturnsNotFound(t *testing.T) {
	h, cancel := startHost(t, Options{})
	defer cancel()

	_, err := h.Popular(context.Background(), 7, 1)
	require.Error(t, err)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeadlineSurfacesTimeoutWithoutKillingDispatcher(t *testing.T) {
	h, cancel := startHost(t, Options{Deadline: 10 * time.Millisecond})
	defer cancel()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/library", 0o755))
	base, err := local.New(10002, "Slow", "/library", fs)
	require.NoError(t, err)
	_, err = h.Insert(context.Background(), slowAdapter{Adapter: base, delay: 200 * time.Millisecond}, "")
	require.NoError(t, err)

	_, err = h.Popular(context.Background(), 10002, 1)
	require.Error(t, err)
	require.Equal(t, apperr.KindTimeout, apperr.KindOf(err))

	a, err := luavm.Load(42, "../source/luavm/testdata/demo.lua", luavm.HostOptions{})
	require.NoError(t, err)
	_, err = h.Insert(context.Background(), a, "")
	require.NoError(t, err)

	// demo.lua resolves immediately, so this call succeeds within the
	// deadline, showing the dispatcher stays responsive after the timeout
	// above.
	_, err = h.Popular(context.Background(), 42, 1)
	require.NoError(t, err)
}

func TestInstallRejectsIDWithinLocalFloor(t *testing.T) {
	h, cancel := startHost(t, Options{})
	defer cancel()

	_, err := h.Install(context.Background(), RepoIndexEntry{ID: 10000, ScriptURL: "http://example.invalid/x.lua"}, t.TempDir())
	require.Error(t, err)
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}
