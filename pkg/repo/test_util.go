package repo

import (
	"testing"
)

func MockRepo(t testing.TB) *Repo {
	repoRoot := t.TempDir()
	cfg := DefaultConfig()
	cfg.Storage.KvType = KVStorageTypeMemory
	cfg.Monitor.Enable = false
	cfg.Vault.LockPeriod = 0
	return &Repo{
		RepoRoot: repoRoot,
		Config:   cfg,
	}
}
