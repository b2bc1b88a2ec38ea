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
	"io"

	"tanoshi/pkg/apperr"
)

// readZipEntry extracts innerName from a .cbz (zip) archive already read
// into memory. .cbr (rar) archives are out of scope: rar's format is
// proprietary and no pack example links a rar reader.
func readZipEntry(archiveBytes []byte, innerName string) ([]byte, error) {
	r, err := zip.NewReader(bytes.NewReader(archiveBytes), int64(len(archiveBytes)))
	if err != nil {
		return nil, apperr.Track(err).AsIO().WithDetail("not a valid archive").Error()
	}
	for _, f := range r.File {
		if f.Name != innerName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, apperr.Track(err).AsIO().Error()
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, apperr.Track(err).AsIO().Error()
		}
		return data, nil
	}
	return nil, apperr.Newf("imagesvc: entry %q not found in archive", innerName).AsNotFound().Error()
}
