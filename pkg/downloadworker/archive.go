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
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"

	"tanoshi/pkg/apperr"
)

const archiveExt = ".cbz"

// archiveWriter accumulates pages into a working `.part` zip file and
// renders the final archive via an atomic rename, so a crash mid-chapter
// never leaves a half-written file at the real path.
type archiveWriter struct {
	finalPath string
	partPath  string
	file      *os.File
	zw        *zip.Writer
}

func newArchiveWriter(dir, fileStem string) (*archiveWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperr.Track(err).AsIO().WithOp("newArchiveWriter").Error()
	}
	finalPath := filepath.Join(dir, fileStem+archiveExt)
	partPath := finalPath + ".part"

	f, err := os.Create(partPath)
	if err != nil {
		return nil, apperr.Track(err).AsIO().WithOp("newArchiveWriter").Error()
	}
	return &archiveWriter{finalPath: finalPath, partPath: partPath, file: f, zw: zip.NewWriter(f)}, nil
}

func (a *archiveWriter) writePage(rank int, data []byte) error {
	name := fmt.Sprintf("%04d.jpg", rank)
	w, err := a.zw.Create(name)
	if err != nil {
		return apperr.Track(err).AsIO().Error()
	}
	if _, err := w.Write(data); err != nil {
		return apperr.Track(err).AsIO().Error()
	}
	return nil
}

// commit finalizes the zip and atomically renames .part to the real path.
func (a *archiveWriter) commit() (string, error) {
	if err := a.zw.Close(); err != nil {
		a.file.Close()
		os.Remove(a.partPath)
		return "", apperr.Track(err).AsIO().Error()
	}
	if err := a.file.Close(); err != nil {
		os.Remove(a.partPath)
		return "", apperr.Track(err).AsIO().Error()
	}
	if err := os.Rename(a.partPath, a.finalPath); err != nil {
		os.Remove(a.partPath)
		return "", apperr.Track(err).AsIO().Error()
	}
	return a.finalPath, nil
}

// abort discards the working file entirely, used on cancellation or a
// permanent per-chapter failure.
func (a *archiveWriter) abort() {
	a.zw.Close()
	a.file.Close()
	os.Remove(a.partPath)
}
