package loggers

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axiomesh/axiom-vault/pkg/repo"
)

func TestInitialize(t *testing.T) {
	cfg := repo.DefaultConfig().Log
	cfg.Module.Compounder = "debug"
	cfg.Module.Gateway = ""
	cfg.Level = "warn"
	require.Nil(t, Initialize(cfg))

	compounder := Logger(Compounder).(*logrus.Entry)
	assert.Equal(t, logrus.DebugLevel, compounder.Logger.GetLevel())
	assert.Equal(t, Compounder, compounder.Data["module"])

	// falls back to the global level
	gateway := Logger(Gateway).(*logrus.Entry)
	assert.Equal(t, logrus.WarnLevel, gateway.Logger.GetLevel())

	cfg.Module.Vault = "verbose"
	assert.NotNil(t, Initialize(cfg))
}

func TestLoggerUnknownModule(t *testing.T) {
	l := Logger("unknown")
	assert.NotNil(t, l)
	assert.Equal(t, "unknown", l.(*logrus.Entry).Data["module"])
}
