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

package memrepo

import (
	"context"

	"tanoshi/pkg/apperr"
	"tanoshi/pkg/core"
)

// Users implements repo.UserRepo over a shared db.
type Users struct{ db *db }

func (u *Users) Get(ctx context.Context, id int64) (core.User, error) {
	u.db.mu.RLock()
	defer u.db.mu.RUnlock()
	user, ok := u.db.users[id]
	if !ok {
		return core.User{}, apperr.Newf("user %d not found", id).AsNotFound().Error()
	}
	return user, nil
}

func (u *Users) List(ctx context.Context) ([]core.User, error) {
	u.db.mu.RLock()
	defer u.db.mu.RUnlock()
	out := make([]core.User, 0, len(u.db.users))
	for _, user := range u.db.users {
		out = append(out, user)
	}
	return out, nil
}
