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

package imageproxy

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"tanoshi/pkg/imagesvc"
	"tanoshi/pkg/imageuri"
)

var testSecret = []byte("0123456789abcdef")

func TestGetImageServesFileVariant(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/library/page.jpg", []byte("jpegbytes"), 0o644))

	svc := imagesvc.New(imagesvc.Options{Secret: testSecret, FS: fs})
	token, err := imageuri.Encode(testSecret, imageuri.File("/library/page.jpg"))
	require.NoError(t, err)

	h := NewHandler(svc, nil)
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/" + token)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
}

func TestGetImageUnknownTokenReturnsBadRequest(t *testing.T) {
	svc := imagesvc.New(imagesvc.Options{Secret: testSecret, FS: afero.NewMemMapFs()})
	h := NewHandler(svc, nil)
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/not-a-real-token")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetImageMissingFileReturnsServerError(t *testing.T) {
	svc := imagesvc.New(imagesvc.Options{Secret: testSecret, FS: afero.NewMemMapFs()})
	token, err := imageuri.Encode(testSecret, imageuri.File("/library/missing.jpg"))
	require.NoError(t, err)

	h := NewHandler(svc, nil)
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/" + token)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
