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

package apperr

// Kind is the stable error taxonomy surfaced to every caller of the core:
// the GraphQL layer (external) maps these to typed errors with a stable
// "kind" string, and the image proxy maps them to HTTP status codes.
type Kind string

const (
	KindNotFound            Kind = "NotFound"
	KindUnauthorized        Kind = "Unauthorized"
	KindForbidden           Kind = "Forbidden"
	KindBadInput            Kind = "BadInput"
	KindIncompatibleVersion Kind = "IncompatibleVersion"
	KindTimeout             Kind = "Timeout"
	KindAdapterFailure      Kind = "AdapterFailure"
	KindIO                  Kind = "IO"
	KindConflict            Kind = "Conflict"
	KindUnknown             Kind = "Unknown"
)

// HTTPStatus maps a Kind to the status code the HTTP layer (the image
// proxy) should answer with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return 404
	case KindUnauthorized:
		return 401
	case KindForbidden:
		return 403
	case KindBadInput:
		return 400
	case KindConflict:
		return 409
	case KindTimeout:
		return 504
	case KindIncompatibleVersion, KindAdapterFailure, KindIO, KindUnknown:
		return 500
	default:
		return 500
	}
}
