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

// Package imageuri implements the bidirectional, authenticated encoding of
// image locations into opaque tokens handed to clients and redeemed by the
// image proxy. The cipher itself is stdlib crypto/aes + crypto/cipher — see
// DESIGN.md for why no pack library was preferred over it — but the
// variant model and classification rules are this package's own domain
// logic, grounded on the teacher's pkg/util type-conversion helpers for the
// string<->struct canonicalization style.
package imageuri

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"os"
	"strconv"
	"strings"

	"tanoshi/pkg/apperr"
)

// Kind tags which URI variant a decoded value holds.
type Kind int

const (
	KindRemote Kind = iota
	KindExtensionRemote
	KindFile
	KindArchive
)

// URI is the decoded, structured form of an image location. Exactly the
// fields relevant to Kind are populated.
type URI struct {
	Kind Kind

	// Remote
	URL string

	// ExtensionRemote
	SourceID int64
	// URL is reused for ExtensionRemote's fetch URL.

	// File
	Path string

	// Archive
	ArchivePath string
	InnerName   string
}

// Remote builds a Remote variant.
func Remote(url string) URI { return URI{Kind: KindRemote, URL: url} }

// ExtensionRemote builds an ExtensionRemote variant.
func ExtensionRemote(sourceID int64, url string) URI {
	return URI{Kind: KindExtensionRemote, SourceID: sourceID, URL: url}
}

// File builds a File variant.
func File(path string) URI { return URI{Kind: KindFile, Path: path} }

// Archive builds an Archive variant.
func Archive(archivePath, innerName string) URI {
	return URI{Kind: KindArchive, ArchivePath: archivePath, InnerName: innerName}
}

const ivSize = aes.BlockSize // 16; also the required secret length

// canonical renders u to the plaintext string that gets encrypted. Remote
// and File serialize raw; ExtensionRemote prefixes the source id;
// Archive joins archive and inner path with "/".
func (u URI) canonical() string {
	switch u.Kind {
	case KindRemote:
		return u.URL
	case KindFile:
		return u.Path
	case KindExtensionRemote:
		return "ext:" + strconv.FormatInt(u.SourceID, 10) + ":" + u.URL
	case KindArchive:
		return u.ArchivePath + "/" + u.InnerName
	default:
		return ""
	}
}

func parseCanonical(s string) URI {
	if strings.HasPrefix(s, "ext:") {
		rest := s[len("ext:"):]
		if idx := strings.IndexByte(rest, ':'); idx >= 0 {
			if id, err := strconv.ParseInt(rest[:idx], 10, 64); err == nil {
				return ExtensionRemote(id, rest[idx+1:])
			}
		}
	}
	return URI{} // unreachable from Encode's own output; only exercised via classify for legacy strings
}

// Encode serializes u to its canonical string, encrypts with AES-128-CBC
// under a fixed all-zero IV using secret (must be exactly 16 bytes), PKCS7
// pads, and base64-URL-no-padding encodes the result. Encoding never fails
// for a well-formed URI built via the constructors above.
func Encode(secret []byte, u URI) (string, error) {
	if len(secret) != ivSize {
		return "", apperr.Newf("imageuri: secret must be %d bytes, got %d", ivSize, len(secret)).AsBadInput().Error()
	}
	block, err := aes.NewCipher(secret)
	if err != nil {
		return "", apperr.Track(err).AsBadInput().Error()
	}

	plain := pkcs7Pad([]byte(u.canonical()), aes.BlockSize)
	iv := make([]byte, ivSize)
	cbc := cipher.NewCBCEncrypter(block, iv)
	cipherText := make([]byte, len(plain))
	cbc.CryptBlocks(cipherText, plain)

	return base64.RawURLEncoding.EncodeToString(cipherText), nil
}

// Decode is the inverse of Encode. The decrypted plaintext goes through
// Classify; a non-empty plaintext that Classify rejects is returned as a
// File, since Encode writes File paths raw whether or not they exist on the
// local disk.
func Decode(secret []byte, token string) (URI, error) {
	if len(secret) != ivSize {
		return URI{}, apperr.Newf("imageuri: secret must be %d bytes, got %d", ivSize, len(secret)).AsBadInput().Error()
	}
	cipherText, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return URI{}, apperr.Track(err).AsBadInput().WithDetail("malformed token").Error()
	}
	if len(cipherText) == 0 || len(cipherText)%aes.BlockSize != 0 {
		return URI{}, apperr.New("imageuri: ciphertext not block-aligned").AsBadInput().Error()
	}

	block, err := aes.NewCipher(secret)
	if err != nil {
		return URI{}, apperr.Track(err).AsBadInput().Error()
	}
	iv := make([]byte, ivSize)
	cbc := cipher.NewCBCDecrypter(block, iv)
	plain := make([]byte, len(cipherText))
	cbc.CryptBlocks(plain, cipherText)

	plain, err = pkcs7Unpad(plain)
	if err != nil {
		return URI{}, apperr.Track(err).AsBadInput().WithDetail("bad padding, likely wrong secret").Error()
	}

	u, err := Classify(string(plain))
	if err != nil && len(plain) > 0 {
		return File(string(plain)), nil
	}
	return u, err
}

// Classify applies the decoding classification rule to a bare string: this
// is also how a decrypted canonical plaintext is turned back into a URI, and
// how legacy unencrypted paths (pre-dating this codec) are interpreted.
func Classify(s string) (URI, error) {
	if strings.HasPrefix(s, "ext:") {
		if u := parseCanonical(s); u.Kind == KindExtensionRemote {
			return u, nil
		}
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return Remote(s), nil
	}
	if fi, err := os.Stat(s); err == nil && !fi.IsDir() {
		return File(s), nil
	}
	if archivePath, inner, ok := splitArchivePath(s); ok {
		return Archive(archivePath, inner), nil
	}
	return URI{}, apperr.Newf("imageuri: cannot classify %q", s).AsBadInput().Error()
}

// splitArchivePath finds a .cbz/ or .cbr/ boundary (case-insensitive) and
// splits s into the archive path and the inner entry name.
func splitArchivePath(s string) (archivePath, inner string, ok bool) {
	lower := strings.ToLower(s)
	for _, marker := range []string{".cbz/", ".cbr/"} {
		if idx := strings.Index(lower, marker); idx >= 0 {
			cut := idx + len(marker) - 1 // keep the extension with the archive path
			return s[:cut], s[cut+1:], true
		}
	}
	return "", "", false
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	n := len(data)
	if n == 0 {
		return nil, apperr.New("imageuri: empty plaintext").AsBadInput().Error()
	}
	padLen := int(data[n-1])
	if padLen == 0 || padLen > aes.BlockSize || padLen > n {
		return nil, apperr.New("imageuri: invalid PKCS7 padding").AsBadInput().Error()
	}
	for _, b := range data[n-padLen:] {
		if int(b) != padLen {
			return nil, apperr.New("imageuri: invalid PKCS7 padding").AsBadInput().Error()
		}
	}
	return data[:n-padLen], nil
}
