package compilation

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/crytic/unibuild/compilation/types"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

// ArtifactCacheFileName is the name of the database file used to track exported artifact hashes within
// an export directory.
const ArtifactCacheFileName = ".unibuild-cache.db"

// artifactCacheBucket is the bucket holding one entry per exported target.
var artifactCacheBucket = []byte("archives")

// ArtifactCacheEntry records the state of one exported archive, so an unchanged compilation can skip
// rewriting its archive on the next export.
type ArtifactCacheEntry struct {
	// Hash is the SHA-256 hash of the session's compiled bytecode.
	Hash string `json:"hash"`

	// Timestamp is when the archive was written.
	Timestamp time.Time `json:"timestamp"`

	// Path is the path of the written archive.
	Path string `json:"path"`
}

// ArtifactCache tracks exported artifact hashes in a database file inside the export directory.
type ArtifactCache struct {
	db *bolt.DB
}

// OpenArtifactCache opens (creating if necessary) the artifact cache of the given export directory.
func OpenArtifactCache(exportDir string) (*ArtifactCache, error) {
	db, err := bolt.Open(filepath.Join(exportDir, ArtifactCacheFileName), 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(artifactCacheBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.WithStack(err)
	}
	return &ArtifactCache{db: db}, nil
}

// Close closes the underlying database file.
func (c *ArtifactCache) Close() error {
	return c.db.Close()
}

// Lookup returns the cache entry recorded for the given target, or nil if none exists or the recorded
// entry cannot be decoded.
func (c *ArtifactCache) Lookup(target string) *ArtifactCacheEntry {
	var entry *ArtifactCacheEntry
	_ = c.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(artifactCacheBucket).Get([]byte(target))
		if data == nil {
			return nil
		}
		var decoded ArtifactCacheEntry
		if err := json.Unmarshal(data, &decoded); err == nil {
			entry = &decoded
		}
		return nil
	})
	return entry
}

// Store records a cache entry for the given target.
func (c *ArtifactCache) Store(target string, entry *ArtifactCacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return errors.WithStack(err)
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(artifactCacheBucket).Put([]byte(target), data)
	})
}

// ComputeArtifactHash computes a SHA-256 hash of all compiled contract bytecode in the session. The hash
// is computed deterministically by visiting compilation units and contract names in sorted order, so the
// same compilation results always hash identically.
func ComputeArtifactHash(session *types.Session) string {
	hasher := sha256.New()

	for _, unitKey := range session.SortedUnitKeys() {
		unit := session.CompilationUnits[unitKey]
		hasher.Write([]byte(unitKey))
		for _, contractName := range unit.SortedContractNames() {
			hasher.Write([]byte(contractName))
			hasher.Write([]byte(unit.InitBytecodes[contractName]))
			hasher.Write([]byte(unit.RuntimeBytecodes[contractName]))
		}
	}

	return hex.EncodeToString(hasher.Sum(nil))
}
