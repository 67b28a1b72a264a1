package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/axiomesh/axiom-vault/internal/app"
	"github.com/axiomesh/axiom-vault/pkg/loggers"
	"github.com/axiomesh/axiom-vault/pkg/profile"
)

func start(ctx *cli.Context) error {
	r, err := prepareRepo(ctx)
	if err != nil {
		return err
	}

	if err := loggers.Initialize(r.Config.Log); err != nil {
		return err
	}

	log := loggers.Logger(loggers.App)
	printVersion(func(c string) {
		log.Info(c)
	})
	r.PrintRepoInfo(func(c string) {
		log.Info(c)
	})

	appCtx, cancel := context.WithCancel(ctx.Context)
	defer cancel()

	var wg sync.WaitGroup
	err = func() error {
		axm, err := app.NewAxiomVault(r, appCtx, cancel)
		if err != nil {
			return fmt.Errorf("init axiom-vault failed: %w", err)
		}

		monitor, err := profile.NewMonitor(r.Config)
		if err != nil {
			return err
		}
		if err := monitor.Start(); err != nil {
			return err
		}

		wg.Add(1)
		handleShutdown(axm, monitor, &wg)

		if err := axm.Start(); err != nil {
			return fmt.Errorf("start axiom-vault failed: %w", err)
		}
		return nil
	}()
	if err != nil {
		log.WithField("err", err).Error("Startup failed")
		return err
	}

	wg.Wait()
	return nil
}

func handleShutdown(node *app.AxiomVault, monitor *profile.Monitor, wg *sync.WaitGroup) {
	var stop = make(chan os.Signal, 2)
	signal.Notify(stop, syscall.SIGTERM)
	signal.Notify(stop, syscall.SIGINT)

	go func() {
		<-stop
		fmt.Println("received interrupt signal, shutting down...")
		if err := monitor.Stop(); err != nil {
			fmt.Println("stop monitor:", err)
		}
		if err := node.Stop(); err != nil {
			panic(err)
		}
		wg.Done()
	}()
}
