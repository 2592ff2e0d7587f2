// Copyright 2024 The go-ethereum Authors
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

package rawdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/golang/snappy"
	"github.com/sunyihoo/mpt/common"
	"github.com/sunyihoo/mpt/crypto"
	"github.com/sunyihoo/mpt/kvdb"
	"golang.org/x/sync/errgroup"
)

// ExportVersion is the version of the snapshot stream format.
const ExportVersion = 1

// ErrHashMismatch is returned when an imported node blob does not hash to the
// key the stream claims for it.
var ErrHashMismatch = errors.New("node hash mismatch")

// ExportHeader is the first record of a snapshot stream.
//
//	stream := snappyFramed(rlp(header) | rlp([hash, blob])*)
type ExportHeader struct {
	Version uint64
	Hasher  string
	Codec   string
	Root    common.Hash
}

// exportedNode is a single node record of a snapshot stream.
type exportedNode struct {
	Hash common.Hash
	Blob []byte
}

const logInterval = 8 * time.Second

// NodeWalker calls fn for every node that should be exported.
type NodeWalker func(fn func(hash common.Hash, blob []byte) error) error

// ExportNodes writes a snapshot stream with the given header and every node
// produced by walk. The number of exported nodes is returned.
func ExportNodes(w io.Writer, header *ExportHeader, walk NodeWalker) (int, error) {
	header.Version = ExportVersion
	sw := snappy.NewBufferedWriter(w)
	if err := rlp.Encode(sw, header); err != nil {
		return 0, err
	}
	var (
		count  int
		logged = time.Now()
	)
	err := walk(func(hash common.Hash, blob []byte) error {
		if err := rlp.Encode(sw, &exportedNode{Hash: hash, Blob: blob}); err != nil {
			return err
		}
		count++
		if time.Since(logged) > logInterval {
			log.Info("Exporting trie nodes", "count", count)
			logged = time.Now()
		}
		return nil
	})
	if err != nil {
		return count, err
	}
	return count, sw.Close()
}

// ImportNodes reads a snapshot stream and writes every node into db. Each
// blob is rehashed by a pool of workers with the hasher named in the header.
// A mismatch aborts the import, only verified nodes are ever written. If check
// is non-nil it may reject the header before any node is read.
func ImportNodes(ctx context.Context, db kvdb.KeyValueStore, r io.Reader, workers int, check func(*ExportHeader) error) (*ExportHeader, int, error) {
	stream := rlp.NewStream(snappy.NewReader(r), 0)

	header := new(ExportHeader)
	if err := stream.Decode(header); err != nil {
		return nil, 0, fmt.Errorf("invalid snapshot header: %w", err)
	}
	if header.Version != ExportVersion {
		return nil, 0, fmt.Errorf("unsupported snapshot version %d", header.Version)
	}
	hasher, err := crypto.HasherByName(header.Hasher)
	if err != nil {
		return nil, 0, err
	}
	if check != nil {
		if err := check(header); err != nil {
			return header, 0, err
		}
	}
	if workers <= 0 {
		workers = 1
	}
	var (
		g, gctx = errgroup.WithContext(ctx)
		records = make(chan *exportedNode, 4*workers)
		nodes   = make(chan *exportedNode, 4*workers)
		running atomic.Int32
		count   int
	)
	g.Go(func() error {
		defer close(records)
		for read := 0; ; read++ {
			rec := new(exportedNode)
			err := stream.Decode(rec)
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("corrupt snapshot record %d: %w", read, err)
			}
			select {
			case records <- rec:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})
	running.Store(int32(workers))
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			defer func() {
				if running.Add(-1) == 0 {
					close(nodes)
				}
			}()
			for rec := range records {
				if have := hasher.Hash(rec.Blob); have != rec.Hash {
					return fmt.Errorf("%w: have %x, want %x", ErrHashMismatch, have, rec.Hash)
				}
				select {
				case nodes <- rec:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		batch := db.NewBatch()
		for n := range nodes {
			if err := batch.Put(n.Hash[:], n.Blob); err != nil {
				return err
			}
			count++
			if batch.ValueSize() >= kvdb.IdealBatchSize {
				if err := batch.Write(); err != nil {
					return err
				}
				batch.Reset()
				log.Info("Importing trie nodes", "count", count)
			}
		}
		if err := gctx.Err(); err != nil {
			return err
		}
		return batch.Write()
	})
	if err := g.Wait(); err != nil {
		return header, count, err
	}
	if header.Root != (common.Hash{}) && count > 0 {
		if ok, _ := db.Has(header.Root[:]); !ok {
			return header, count, fmt.Errorf("%w: root %x not in snapshot", ErrHashMismatch, header.Root)
		}
	}
	return header, count, nil
}
