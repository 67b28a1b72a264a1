package storagemgr

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/axiomesh/axiom-vault/pkg/loggers"
	"github.com/axiomesh/axiom-vault/pkg/repo"
)

const (
	Ledger = "ledger"
)

var globalStorageMgr = &storageMgr{
	storageBuilderMap: make(map[string]func(p string) (Storage, error)),
	storages:          make(map[string]Storage),
	lock:              new(sync.Mutex),
}

func init() {
	memoryBuilder := func(p string) (Storage, error) {
		return NewMemory(), nil
	}

	// only for test
	globalStorageMgr.storageBuilderMap[repo.KVStorageTypeLeveldb] = memoryBuilder
	globalStorageMgr.storageBuilderMap[repo.KVStorageTypePebble] = memoryBuilder
	globalStorageMgr.storageBuilderMap[repo.KVStorageTypeMemory] = memoryBuilder
	globalStorageMgr.storageBuilderMap[""] = memoryBuilder
}

type storageMgr struct {
	storageBuilderMap map[string]func(p string) (Storage, error)
	storages          map[string]Storage
	defaultKVType     string
	cacheSize         int
	lock              *sync.Mutex
}

func (m *storageMgr) open(typ string, p string) (Storage, error) {
	builder, ok := m.storageBuilderMap[typ]
	if !ok {
		return nil, fmt.Errorf("unknow kv type %s, expect leveldb, pebble or memory", typ)
	}
	return builder(p)
}

func Initialize(config repo.Storage) error {
	globalStorageMgr.lock.Lock()
	defer globalStorageMgr.lock.Unlock()

	globalStorageMgr.storageBuilderMap[repo.KVStorageTypeLeveldb] = func(p string) (Storage, error) {
		return NewLevelDB(p, config.Sync)
	}
	globalStorageMgr.storageBuilderMap[repo.KVStorageTypePebble] = func(p string) (Storage, error) {
		return NewPebble(p, config.KvCacheSize, config.Sync)
	}
	if _, ok := globalStorageMgr.storageBuilderMap[config.KvType]; !ok {
		return fmt.Errorf("unknow kv type %s, expect leveldb, pebble or memory", config.KvType)
	}
	globalStorageMgr.defaultKVType = config.KvType
	globalStorageMgr.cacheSize = config.KvCacheSize
	loggers.Logger(loggers.Storage).WithField("type", config.KvType).Info("Storage manager initialized")
	return nil
}

func Open(p string) (Storage, error) {
	return OpenSpecifyType(globalStorageMgr.defaultKVType, p)
}

// OpenSpecifyType opens (or reuses) the storage at p, wrapped with a read cache.
func OpenSpecifyType(typ string, p string) (Storage, error) {
	globalStorageMgr.lock.Lock()
	defer globalStorageMgr.lock.Unlock()
	s, ok := globalStorageMgr.storages[p]
	if !ok {
		raw, err := globalStorageMgr.open(typ, p)
		if err != nil {
			return nil, err
		}
		s = NewCachedStorage(raw, globalStorageMgr.cacheSize)
		globalStorageMgr.storages[p] = s
	}
	return s, nil
}

// Close closes and forgets the storage opened at p.
func Close(p string) error {
	globalStorageMgr.lock.Lock()
	defer globalStorageMgr.lock.Unlock()
	s, ok := globalStorageMgr.storages[p]
	if !ok {
		return nil
	}
	delete(globalStorageMgr.storages, p)
	return s.Close()
}

func GetLedgerComponentPath(rep *repo.Repo, component string) string {
	return filepath.Join(repo.GetStoragePath(rep.RepoRoot), component)
}
