package storagemgr

import (
	pebbledb "github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"
	"github.com/pkg/errors"
)

var _ Storage = (*pebbleDB)(nil)

type pebbleDB struct {
	db *pebbledb.DB
	wo *pebbledb.WriteOptions
}

func newPebbleOptions(cacheMegabytes int) *pebbledb.Options {
	return &pebbledb.Options{
		Cache: pebbledb.NewCache(int64(cacheMegabytes * 1024 * 1024)),

		// MemTableStopWritesThreshold is max number of the existent MemTables(including the frozen one).
		MemTableStopWritesThreshold: 2,

		Levels: []pebbledb.LevelOptions{
			{TargetFileSize: 2 * 1024 * 1024, BlockSize: 32 * 1024, FilterPolicy: bloom.FilterPolicy(10)},
			{TargetFileSize: 2 * 1024 * 1024, BlockSize: 32 * 1024, FilterPolicy: bloom.FilterPolicy(10)},
			{TargetFileSize: 4 * 1024 * 1024, BlockSize: 32 * 1024, FilterPolicy: bloom.FilterPolicy(10)},
			{TargetFileSize: 4 * 1024 * 1024, BlockSize: 32 * 1024, FilterPolicy: bloom.FilterPolicy(10)},
			{TargetFileSize: 8 * 1024 * 1024, BlockSize: 32 * 1024, FilterPolicy: bloom.FilterPolicy(10)},
		},
	}
}

func NewPebble(path string, cacheMegabytes int, sync bool) (Storage, error) {
	opts := newPebbleOptions(cacheMegabytes)
	defer opts.Cache.Unref()

	db, err := pebbledb.Open(path, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open pebble at %s", path)
	}
	return &pebbleDB{db: db, wo: &pebbledb.WriteOptions{Sync: sync}}, nil
}

func (p *pebbleDB) Get(key []byte) []byte {
	val, closer, err := p.db.Get(key)
	if err != nil {
		if errors.Is(err, pebbledb.ErrNotFound) {
			return nil
		}
		panic(err)
	}
	defer closer.Close()

	ret := make([]byte, len(val))
	copy(ret, val)
	return ret
}

func (p *pebbleDB) Has(key []byte) bool {
	return p.Get(key) != nil
}

func (p *pebbleDB) Put(key, value []byte) {
	if err := p.db.Set(key, value, p.wo); err != nil {
		panic(err)
	}
}

func (p *pebbleDB) Delete(key []byte) {
	if err := p.db.Delete(key, p.wo); err != nil {
		panic(err)
	}
}

func (p *pebbleDB) NewBatch() Batch {
	return &pebbleBatch{batch: p.db.NewBatch(), wo: p.wo}
}

func (p *pebbleDB) Close() error {
	return p.db.Close()
}

type pebbleBatch struct {
	batch *pebbledb.Batch
	wo    *pebbledb.WriteOptions
}

func (b *pebbleBatch) Put(key, value []byte) {
	if err := b.batch.Set(key, value, nil); err != nil {
		panic(err)
	}
}

func (b *pebbleBatch) Delete(key []byte) {
	if err := b.batch.Delete(key, nil); err != nil {
		panic(err)
	}
}

func (b *pebbleBatch) Commit() {
	if err := b.batch.Commit(b.wo); err != nil {
		panic(err)
	}
}

func (b *pebbleBatch) Size() int {
	return b.batch.Len()
}

func (b *pebbleBatch) Reset() {
	b.batch.Reset()
}
