package storagemgr

// Storage is a flat key/value store. Implementations panic on backend IO
// failures, a nil value means the key does not exist.
type Storage interface {
	Get(key []byte) []byte
	Has(key []byte) bool
	Put(key, value []byte)
	Delete(key []byte)
	NewBatch() Batch
	Close() error
}

// Batch buffers writes until Commit.
type Batch interface {
	Put(key, value []byte)
	Delete(key []byte)
	Commit()
	Size() int
	Reset()
}
