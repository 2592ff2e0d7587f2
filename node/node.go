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
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gofrs/flock"
	"github.com/sunyihoo/mpt/common"
	"github.com/sunyihoo/mpt/kvdb"
	"github.com/sunyihoo/mpt/rawdb"
	"github.com/sunyihoo/mpt/trie"
	"github.com/sunyihoo/mpt/triedb/hashdb"
)

// Trie is the keyed view on a root shared by plain and secure tries.
type Trie interface {
	Get(key []byte) ([]byte, error)
	Update(key, value []byte) error
	Prove(key []byte, proofDb kvdb.KeyValueWriter) error
	Hash() common.Hash
	Revert(root common.Hash) error
}

// Node is a persistent trie instance: a locked data directory, the key-value
// store inside it, and the head root the store has adopted.
type Node struct {
	config  *Config
	trieCfg *TrieConfig
	conf    *trie.Config

	dirLock   *flock.Flock
	diskdb    kvdb.KeyValueStore
	nodedb    *hashdb.Database
	preimages *rawdb.PreimageStore
	log       log.Logger

	lock   sync.Mutex // Serializes head updates
	closed bool
}

// New opens the node database in the configured data directory. The trie
// configuration is recorded on first use, later opens must match it.
func New(conf *Config, tc *TrieConfig) (*Node, error) {
	confCopy, tcCopy := *conf, *tc
	conf, tc = &confCopy, &tcCopy
	if conf.DataDir != "" {
		absdatadir, err := filepath.Abs(conf.DataDir)
		if err != nil {
			return nil, err
		}
		conf.DataDir = absdatadir
	}
	tconf, err := tc.TrieConfig()
	if err != nil {
		return nil, err
	}
	n := &Node{
		config:  conf,
		trieCfg: tc,
		conf:    tconf,
		log:     log.New("datadir", conf.DataDir),
	}
	if err := n.openDataDir(); err != nil {
		return nil, err
	}
	db, err := rawdb.Open(rawdb.OpenOptions{
		Type:      conf.DBEngine,
		Directory: conf.ResolvePath(datadirNodes),
		Namespace: "mpt/db/nodes/",
		Cache:     conf.DatabaseCache,
		Handles:   conf.DatabaseHandles,
		ReadOnly:  conf.ReadOnly,
	})
	if err != nil {
		n.closeDataDir()
		return nil, err
	}
	n.diskdb = db
	if err := n.checkMetadata(); err != nil {
		db.Close()
		n.closeDataDir()
		return nil, err
	}
	n.nodedb = hashdb.New(db, tc.HashdbConfig())
	n.preimages = rawdb.NewPreimageStore(db)
	n.log.Info("Opened trie database", "config", tconf, "head", n.Head(), "secure", tc.Secure)
	return n, nil
}

func (n *Node) openDataDir() error {
	if n.config.isMemory() || n.config.DataDir == "" {
		return nil // ephemeral
	}
	if err := os.MkdirAll(n.config.DataDir, 0700); err != nil {
		return err
	}
	// Lock the instance directory to prevent concurrent use by another instance as well as
	// accidental use of the instance directory as a database.
	n.dirLock = flock.New(filepath.Join(n.config.DataDir, "LOCK"))

	if locked, err := n.dirLock.TryLock(); err != nil {
		return err
	} else if !locked {
		return ErrDatadirUsed
	}
	return nil
}

func (n *Node) closeDataDir() {
	// Release instance directory lock.
	if n.dirLock != nil && n.dirLock.Locked() {
		n.dirLock.Unlock()
		n.dirLock = nil
	}
}

// checkMetadata verifies the stored schema version and trie configuration,
// recording both on a fresh database.
func (n *Node) checkMetadata() error {
	requested := &rawdb.TrieConfigRecord{
		Hasher: n.conf.Hasher.Name(),
		Codec:  n.conf.Codec.Name(),
	}
	if v := rawdb.ReadDatabaseVersion(n.diskdb); v != nil && *v > rawdb.DatabaseVersion {
		return fmt.Errorf("database version %d is newer than supported version %d", *v, rawdb.DatabaseVersion)
	}
	stored := rawdb.ReadTrieConfig(n.diskdb)
	if stored == nil {
		if n.config.ReadOnly {
			return nil
		}
		rawdb.WriteDatabaseVersion(n.diskdb, rawdb.DatabaseVersion)
		rawdb.WriteTrieConfig(n.diskdb, requested)
		return nil
	}
	if *stored != *requested {
		return &ConfigMismatchError{Stored: stored.String(), Requested: requested.String()}
	}
	return nil
}

// Close releases the database and the data directory lock.
func (n *Node) Close() error {
	n.lock.Lock()
	defer n.lock.Unlock()

	if n.closed {
		return nil
	}
	n.closed = true

	var errs []error
	if err := n.nodedb.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := n.diskdb.Close(); err != nil {
		errs = append(errs, err)
	}
	n.closeDataDir()
	return errors.Join(errs...)
}

// Config returns the storage configuration of the node.
func (n *Node) Config() *Config { return n.config }

// TrieSettings returns the user facing trie settings.
func (n *Node) TrieSettings() *TrieConfig { return n.trieCfg }

// TrieConfig returns the resolved codec and hasher.
func (n *Node) TrieConfig() *trie.Config { return n.conf }

// DiskDB returns the underlying key-value store.
func (n *Node) DiskDB() kvdb.KeyValueStore { return n.diskdb }

// NodeDB returns the node database tries are opened on.
func (n *Node) NodeDB() *hashdb.Database { return n.nodedb }

// Head returns the adopted root, the empty root if nothing was written yet.
func (n *Node) Head() common.Hash {
	root := rawdb.ReadHeadRoot(n.diskdb)
	if root == (common.Hash{}) {
		return n.conf.EmptyRoot()
	}
	return root
}

// OpenTrie opens a trie on root, or on the head if root is the zero hash.
// A secure trie is returned if the node is configured to hash keys.
func (n *Node) OpenTrie(root common.Hash) (Trie, error) {
	if root == (common.Hash{}) {
		root = n.Head()
	}
	if n.trieCfg.Secure {
		return trie.NewSecure(root, n.nodedb, n.conf, n.preimages)
	}
	return trie.New(root, n.nodedb, n.conf)
}

// RawTrie opens the trie on root without key hashing. For secure nodes the
// keys seen through it are the hashed keys.
func (n *Node) RawTrie(root common.Hash) (*trie.Trie, error) {
	if root == (common.Hash{}) {
		root = n.Head()
	}
	return trie.New(root, n.nodedb, n.conf)
}

// Preimage returns the original key of a hashed key, or nil if unknown.
func (n *Node) Preimage(hash common.Hash) []byte {
	return n.preimages.Preimage(hash)
}

// VerifyProof checks a proof for key against root with the node's settings.
func (n *Node) VerifyProof(root common.Hash, key []byte, proof trie.ProofList) ([]byte, error) {
	if n.trieCfg.Secure {
		return trie.VerifySecureProof(root, key, proof, n.conf)
	}
	return trie.VerifyProof(root, key, proof, n.conf)
}

// Update stores value under key on top of the head and adopts the new root.
func (n *Node) Update(key, value []byte) (common.Hash, error) {
	n.lock.Lock()
	defer n.lock.Unlock()

	if n.config.ReadOnly {
		return common.Hash{}, ErrReadOnly
	}
	tr, err := n.OpenTrie(common.Hash{})
	if err != nil {
		return common.Hash{}, err
	}
	if err := tr.Update(key, value); err != nil {
		return common.Hash{}, err
	}
	if st, ok := tr.(*trie.SecureTrie); ok {
		if err := st.Commit(); err != nil {
			return common.Hash{}, err
		}
	}
	root := tr.Hash()
	if err := n.adopt(root, key); err != nil {
		return common.Hash{}, err
	}
	return root, nil
}

// Revert adopts a previously observed root as the head. The root node must be
// present in the database.
func (n *Node) Revert(root common.Hash) error {
	n.lock.Lock()
	defer n.lock.Unlock()

	if n.config.ReadOnly {
		return ErrReadOnly
	}
	if _, err := trie.New(root, n.nodedb, n.conf); err != nil {
		var missing *trie.MissingNodeError
		if errors.As(err, &missing) && missing.NodeHash == root {
			return fmt.Errorf("%w %x", ErrUnknownRoot, root)
		}
		return err
	}
	if root == (common.Hash{}) {
		root = n.conf.EmptyRoot()
	}
	return n.adopt(root, nil)
}

// Adopt records an externally produced root, e.g. after an import, as the
// head. The root node must be present in the database.
func (n *Node) Adopt(root common.Hash) error {
	return n.Revert(root)
}

func (n *Node) adopt(root common.Hash, key []byte) error {
	seq, err := rawdb.WriteRootUpdate(n.diskdb, &rawdb.RootRecord{
		Root: root,
		Time: uint64(time.Now().Unix()),
		Key:  common.CopyBytes(key),
	})
	if err != nil {
		return fmt.Errorf("%w: root record: %v", trie.ErrStorage, err)
	}
	n.log.Debug("Adopted trie root", "seq", seq, "root", root)
	return nil
}

// History returns the recorded roots, oldest first.
func (n *Node) History() []*rawdb.RootRecord {
	return rawdb.ReadRootHistory(n.diskdb)
}
