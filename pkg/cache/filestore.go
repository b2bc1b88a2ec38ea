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

// Package cache implements a gokv.Store backed by one file per key on an
// afero.Fs, filling the same seam libmangal's metadata/store.go fills with
// a bbolt store, but rooted at a plain directory so the image proxy's
// cache survives restarts as "<cache_path>/<token>" files.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FileStore is a gokv.Store where every key is one file under Root, written
// atomically via a ".part" temp file followed by rename, the same
// convention sourcehost/install.go uses for installed scripts.
type FileStore struct {
	fs   afero.Fs
	root string
}

// NewFileStore builds a FileStore rooted at root, creating it if needed.
func NewFileStore(fs afero.Fs, root string) (*FileStore, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if err := fs.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{fs: fs, root: root}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.root, filepath.Base(key))
}

// Set marshals v as JSON and writes it to key's file, replacing it.
func (s *FileStore) Set(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	final := s.path(key)
	part := final + ".part"
	if err := afero.WriteFile(s.fs, part, data, 0o644); err != nil {
		return err
	}
	return s.fs.Rename(part, final)
}

// Get reads key's file and unmarshals it into v. found is false if the key
// has never been Set.
func (s *FileStore) Get(key string, v interface{}) (bool, error) {
	data, err := afero.ReadFile(s.fs, s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes key's file, if present.
func (s *FileStore) Delete(key string) error {
	err := s.fs.Remove(s.path(key))
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close is a no-op; FileStore holds no resources beyond the filesystem.
func (s *FileStore) Close() error {
	return nil
}
