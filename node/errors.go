// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package node

import (
	"errors"
	"fmt"
)

var (
	ErrDatadirUsed = errors.New("datadir already used by another process")
	ErrReadOnly    = errors.New("database opened read-only")
	ErrUnknownRoot = errors.New("unknown root")
)

// ConfigMismatchError is returned when a database is opened with a trie
// configuration other than the one it was created with.
type ConfigMismatchError struct {
	Stored, Requested string
}

func (e *ConfigMismatchError) Error() string {
	return fmt.Sprintf("database was created with trie config %s, requested %s", e.Stored, e.Requested)
}
