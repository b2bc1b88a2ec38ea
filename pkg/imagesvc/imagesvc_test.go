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

package imagesvc

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/philippgille/gokv/syncmap"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"tanoshi/pkg/imageuri"
)

var testSecret = []byte("0123456789abcdef")

func writeCBZ(t *testing.T, fs afero.Fs, path string, files map[string][]byte) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, afero.WriteFile(fs, path, buf.Bytes(), 0o644))
}

func TestFetchFileVariant(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/library/cover.jpg", []byte("jpegdata"), 0o644))

	svc := New(Options{Secret: testSecret, FS: fs})
	token, err := imageuri.Encode(testSecret, imageuri.File("/library/cover.jpg"))
	require.NoError(t, err)

	img, err := svc.Fetch(context.Background(), token, "")
	require.NoError(t, err)
	require.Equal(t, []byte("jpegdata"), img.Bytes)
	require.Equal(t, "image/jpeg", img.ContentType)
}

func TestFetchArchiveVariantAndCacheHit(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeCBZ(t, fs, "/library/vol1.cbz", map[string][]byte{"001.png": []byte("pngdata")})

	cache := syncmap.NewStore(syncmap.DefaultOptions)
	svc := New(Options{Secret: testSecret, FS: fs, Cache: cache})

	token, err := imageuri.Encode(testSecret, imageuri.Archive("/library/vol1.cbz", "001.png"))
	require.NoError(t, err)

	img, err := svc.Fetch(context.Background(), token, "")
	require.NoError(t, err)
	require.Equal(t, []byte("pngdata"), img.Bytes)
	require.Equal(t, "image/png", img.ContentType)

	// remove the backing file; a cache hit must still succeed.
	require.NoError(t, fs.Remove("/library/vol1.cbz"))
	img2, err := svc.Fetch(context.Background(), token, "")
	require.NoError(t, err)
	require.Equal(t, img.Bytes, img2.Bytes)
}

func TestFetchArchiveMissingEntry(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeCBZ(t, fs, "/library/vol1.cbz", map[string][]byte{"001.png": []byte("pngdata")})

	svc := New(Options{Secret: testSecret, FS: fs})
	token, err := imageuri.Encode(testSecret, imageuri.Archive("/library/vol1.cbz", "999.png"))
	require.NoError(t, err)

	_, err = svc.Fetch(context.Background(), token, "")
	require.Error(t, err)
}
