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

package imageuri

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef") // 16 bytes

func TestRoundTripAllVariants(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "cover.jpg")
	require.NoError(t, os.WriteFile(existing, []byte("x"), 0o644))

	cases := []URI{
		Remote("https://example.com/a.jpg"),
		ExtensionRemote(7, "https://upstream.example/page/1.jpg"),
		File(existing),
		Archive(filepath.Join(dir, "vol1.cbz"), "001.jpg"),
	}

	for _, u := range cases {
		token, err := Encode(testSecret, u)
		require.NoError(t, err)

		got, err := Decode(testSecret, token)
		require.NoError(t, err)
		require.Equal(t, u.Kind, got.Kind)
	}
}

func TestReEncodeExtensionRemoteAndArchiveAreBitIdentical(t *testing.T) {
	for _, u := range []URI{
		ExtensionRemote(3, "https://upstream.example/x.png"),
		Archive("/library/one.cbz", "005.png"),
	} {
		token1, err := Encode(testSecret, u)
		require.NoError(t, err)
		decoded, err := Decode(testSecret, token1)
		require.NoError(t, err)
		token2, err := Encode(testSecret, decoded)
		require.NoError(t, err)
		require.Equal(t, token1, token2)
	}
}

func TestDecodeWithWrongSecretFails(t *testing.T) {
	token, err := Encode(testSecret, Remote("https://example.com/a.jpg"))
	require.NoError(t, err)

	wrongSecret := []byte("fedcba9876543210")
	_, err = Decode(wrongSecret, token)
	require.Error(t, err)
}

func TestClassifyLegacyBareStrings(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "page.jpg")
	require.NoError(t, os.WriteFile(existing, []byte("x"), 0o644))

	u, err := Classify("https://example.com/z.jpg")
	require.NoError(t, err)
	require.Equal(t, KindRemote, u.Kind)

	u, err = Classify(existing)
	require.NoError(t, err)
	require.Equal(t, KindFile, u.Kind)

	u, err = Classify("/library/one.CBZ/003.jpg")
	require.NoError(t, err)
	require.Equal(t, KindArchive, u.Kind)
	require.Equal(t, "/library/one.CBZ", u.ArchivePath)
	require.Equal(t, "003.jpg", u.InnerName)

	_, err = Classify("/nonexistent/does/not/exist")
	require.Error(t, err)
}

func TestEncodeRejectsWrongSecretLength(t *testing.T) {
	_, err := Encode([]byte("short"), Remote("https://example.com"))
	require.Error(t, err)
}
