package loggers

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/axiomesh/axiom-vault/pkg/repo"
)

const (
	App        = "app"
	Executor   = "executor"
	Storage    = "storage"
	Ledger     = "ledger"
	Token      = "token"
	Vault      = "vault"
	Compounder = "compounder"
	Gateway    = "gateway"
)

var w = &LoggerWrapper{
	loggers: map[string]*logrus.Entry{
		App:        newWithModule(App, defaultFormatter()),
		Executor:   newWithModule(Executor, defaultFormatter()),
		Storage:    newWithModule(Storage, defaultFormatter()),
		Ledger:     newWithModule(Ledger, defaultFormatter()),
		Token:      newWithModule(Token, defaultFormatter()),
		Vault:      newWithModule(Vault, defaultFormatter()),
		Compounder: newWithModule(Compounder, defaultFormatter()),
		Gateway:    newWithModule(Gateway, defaultFormatter()),
	},
}

type LoggerWrapper struct {
	loggers map[string]*logrus.Entry
}

func defaultFormatter() logrus.Formatter {
	return &logrus.TextFormatter{FullTimestamp: true}
}

func newWithModule(name string, formatter logrus.Formatter) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(formatter)
	return l.WithField("module", name)
}

func Initialize(config repo.Log) error {
	formatter := &logrus.TextFormatter{
		FullTimestamp:    true,
		DisableColors:    !config.EnableColor,
		ForceColors:      config.EnableColor,
		DisableTimestamp: config.DisableTimestamp,
	}

	levels := map[string]string{
		App:        config.Level,
		Executor:   config.Module.Executor,
		Storage:    config.Module.Storage,
		Ledger:     config.Module.Ledger,
		Token:      config.Module.Token,
		Vault:      config.Module.Vault,
		Compounder: config.Module.Compounder,
		Gateway:    config.Module.Gateway,
	}

	m := make(map[string]*logrus.Entry, len(levels))
	for module, level := range levels {
		if level == "" {
			level = config.Level
		}
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return errors.Wrapf(err, "log initialize: module %s", module)
		}
		m[module] = newWithModule(module, formatter)
		m[module].Logger.SetLevel(lvl)
		m[module].Logger.SetReportCaller(config.ReportCaller)
	}

	w = &LoggerWrapper{loggers: m}
	return nil
}

func Logger(name string) logrus.FieldLogger {
	if l, ok := w.loggers[name]; ok {
		return l
	}
	return newWithModule(name, defaultFormatter())
}
