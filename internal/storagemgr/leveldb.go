package storagemgr

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

var _ Storage = (*levelDB)(nil)

type levelDB struct {
	db *leveldb.DB
	wo *opt.WriteOptions
}

func NewLevelDB(path string, sync bool) (Storage, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{
		BlockCacheCapacity: 8 * opt.MiB,
		WriteBuffer:        4 * opt.MiB,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open leveldb at %s", path)
	}
	return &levelDB{db: db, wo: &opt.WriteOptions{Sync: sync}}, nil
}

// NewMemory returns a leveldb instance backed by memory, mostly used by tests.
func NewMemory() Storage {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		panic(err)
	}
	return &levelDB{db: db, wo: &opt.WriteOptions{}}
}

func (l *levelDB) Get(key []byte) []byte {
	val, err := l.db.Get(key, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil
		}
		panic(err)
	}
	return val
}

func (l *levelDB) Has(key []byte) bool {
	has, err := l.db.Has(key, nil)
	if err != nil {
		panic(err)
	}
	return has
}

func (l *levelDB) Put(key, value []byte) {
	if err := l.db.Put(key, value, l.wo); err != nil {
		panic(err)
	}
}

func (l *levelDB) Delete(key []byte) {
	if err := l.db.Delete(key, l.wo); err != nil {
		panic(err)
	}
}

func (l *levelDB) NewBatch() Batch {
	return &levelDBBatch{db: l.db, wo: l.wo, batch: new(leveldb.Batch)}
}

func (l *levelDB) Close() error {
	return l.db.Close()
}

type levelDBBatch struct {
	db    *leveldb.DB
	wo    *opt.WriteOptions
	batch *leveldb.Batch
	size  int
}

func (b *levelDBBatch) Put(key, value []byte) {
	b.batch.Put(key, value)
	b.size += len(key) + len(value)
}

func (b *levelDBBatch) Delete(key []byte) {
	b.batch.Delete(key)
	b.size += len(key)
}

func (b *levelDBBatch) Commit() {
	if err := b.db.Write(b.batch, b.wo); err != nil {
		panic(err)
	}
}

func (b *levelDBBatch) Size() int {
	return b.size
}

func (b *levelDBBatch) Reset() {
	b.batch.Reset()
	b.size = 0
}
