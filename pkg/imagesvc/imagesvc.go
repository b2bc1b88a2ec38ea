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

// Package imagesvc implements the image proxy's fetch contract: resolve an
// opaque token to bytes, dispatching by the decoded ImageUri variant and
// caching the result. Uses a gokv.Store as the cache seam, the same pattern
// as vm/vm.go and metadata/store.go in the libmangal example, generalized
// from metadata records to raw image bytes.
package imagesvc

import (
	"context"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/philippgille/gokv"
	"github.com/spf13/afero"

	"tanoshi/pkg/apperr"
	"tanoshi/pkg/applog"
	"tanoshi/pkg/imageuri"
)

// SourceFetcher is the subset of the Extension Host the image service needs:
// resolving the ExtensionRemote variant through the owning adapter.
type SourceFetcher interface {
	ImageBytes(ctx context.Context, sourceID int64, url string) ([]byte, string, error)
}

// Image is one fetched result.
type Image struct {
	ContentType string
	Bytes       []byte
}

// cacheEntry is what gokv actually (de)serializes; gokv.Store codecs work on
// structs, not raw []byte + string pairs.
type cacheEntry struct {
	ContentType string
	Bytes       []byte
}

// Service resolves tokens to Images, consulting the cache first.
type Service struct {
	secret  []byte
	cache   gokv.Store
	fs      afero.Fs
	http    *http.Client
	sources SourceFetcher
	log     applog.Logger
}

// Options configures a Service.
type Options struct {
	Secret  []byte // exactly 16 bytes, see imageuri
	Cache   gokv.Store
	FS      afero.Fs
	HTTP    *http.Client
	Sources SourceFetcher
	Logger  applog.Logger
}

func New(opts Options) *Service {
	if opts.FS == nil {
		opts.FS = afero.NewOsFs()
	}
	if opts.HTTP == nil {
		opts.HTTP = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = applog.Noop()
	}
	return &Service{
		secret:  opts.Secret,
		cache:   opts.Cache,
		fs:      opts.FS,
		http:    opts.HTTP,
		sources: opts.Sources,
		log:     opts.Logger,
	}
}

// Fetch resolves token to an Image: cache hit first, then decode-and-dispatch,
// with a best-effort cache write on success. referer is only applied to the
// Remote variant's outbound request.
func (s *Service) Fetch(ctx context.Context, token, referer string) (Image, error) {
	if s.cache != nil {
		var entry cacheEntry
		found, err := s.cache.Get(token, &entry)
		if err == nil && found {
			return Image{ContentType: entry.ContentType, Bytes: entry.Bytes}, nil
		}
	}

	u, err := imageuri.Decode(s.secret, token)
	if err != nil {
		return Image{}, err
	}

	img, err := s.resolve(ctx, u, referer)
	if err != nil {
		return Image{}, err
	}

	if s.cache != nil {
		if err := s.cache.Set(token, cacheEntry{ContentType: img.ContentType, Bytes: img.Bytes}); err != nil {
			s.log.Warn("image cache write failed for token: %v", err)
		}
	}
	return img, nil
}

func (s *Service) resolve(ctx context.Context, u imageuri.URI, referer string) (Image, error) {
	switch u.Kind {
	case imageuri.KindRemote:
		return s.fetchRemote(ctx, u.URL, referer)
	case imageuri.KindExtensionRemote:
		if s.sources == nil {
			return Image{}, apperr.New("imagesvc: no source fetcher configured").AsAdapterFailure().Error()
		}
		data, contentType, err := s.sources.ImageBytes(ctx, u.SourceID, u.URL)
		if err != nil {
			return Image{}, err
		}
		if contentType == "" {
			contentType = contentTypeFromName(u.URL)
			if contentType == "" {
				contentType = "application/octet-stream"
			}
		}
		return Image{ContentType: contentType, Bytes: data}, nil
	case imageuri.KindFile:
		return s.fetchFile(u.Path)
	case imageuri.KindArchive:
		return s.fetchArchiveEntry(u.ArchivePath, u.InnerName)
	default:
		return Image{}, apperr.New("imagesvc: unrecognized uri variant").AsBadInput().Error()
	}
}

func (s *Service) fetchRemote(ctx context.Context, url, referer string) (Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Image{}, apperr.Track(err).AsIO().Error()
	}
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return Image{}, apperr.Track(err).AsIO().Error()
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Image{}, apperr.Newf("imagesvc: remote fetch returned status %d", resp.StatusCode).AsIO().Error()
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Image{}, apperr.Track(err).AsIO().Error()
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return Image{ContentType: contentType, Bytes: data}, nil
}

func (s *Service) fetchFile(path string) (Image, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return Image{}, apperr.Track(err).AsIO().WithOp("imagesvc.fetchFile").Error()
	}
	contentType := contentTypeFromName(path)
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return Image{ContentType: contentType, Bytes: data}, nil
}

func (s *Service) fetchArchiveEntry(archivePath, innerName string) (Image, error) {
	data, err := afero.ReadFile(s.fs, archivePath)
	if err != nil {
		return Image{}, apperr.Track(err).AsIO().WithOp("imagesvc.fetchArchiveEntry").Error()
	}

	entry, err := readZipEntry(data, innerName)
	if err != nil {
		return Image{}, err
	}

	contentType := contentTypeFromName(innerName)
	if contentType == "" {
		contentType = http.DetectContentType(entry)
	}
	return Image{ContentType: contentType, Bytes: entry}, nil
}

func contentTypeFromName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return ""
	}
	return mime.TypeByExtension(ext)
}
