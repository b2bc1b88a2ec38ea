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

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackNilIsNoop(t *testing.T) {
	require.Nil(t, Track(nil).AsIO().Error())
}

func TestBuilderChain(t *testing.T) {
	err := Newf("token %q malformed", "abc").AsBadInput().WithOp("imageuri.Decode").Error()
	require.Error(t, err)
	assert.Equal(t, KindBadInput, KindOf(err))
	assert.True(t, IsKind(err, KindBadInput))
	assert.Contains(t, err.Error(), "imageuri.Decode")
}

func TestKindOfUnknownForPlainError(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, 404, KindNotFound.HTTPStatus())
	assert.Equal(t, 409, KindConflict.HTTPStatus())
	assert.Equal(t, 504, KindTimeout.HTTPStatus())
}

func TestUnwrap(t *testing.T) {
	base := errors.New("root cause")
	tracked := Track(base).AsIO().Error()
	require.ErrorIs(t, tracked, base)
}
