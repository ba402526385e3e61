// bitext-batches iterates over a real parallel corpus and a pseudo-parallel corpus the way a training loop would,
// and prints statistics of the batches of each epoch.
//
// Corpora and dictionaries are configured in a YAML file (see internal/config), overridable by BITEXT_*
// environment variables. They can be local paths or http(s) URLs, downloaded once into a local cache.
//
// Usage:
//
//	bitext-batches -config=bitext.yaml -epochs=2 -v=1
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/gomlx/go-bitext/dataset"
	"github.com/gomlx/go-bitext/fetch"
	"github.com/gomlx/go-bitext/internal/config"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"
)

var (
	flagConfig   = flag.String("config", "", "YAML configuration file. Defaults to $CONFIG_PATH or ./bitext.yaml.")
	flagEpochs   = flag.Int("epochs", 0, "Number of epochs to run. If 0, the value from the configuration is used.")
	flagProgress = flag.Bool("progress", true, "Display a progress spinner while iterating.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if err := run(ctx); err != nil {
		klog.Errorf("bitext-batches failed: %+v", err)
		klog.Flush()
		os.Exit(1)
	}
	klog.Flush()
}

func run(ctx context.Context) error {
	cfg, err := config.Load(*flagConfig)
	if err != nil {
		return err
	}
	if *flagEpochs > 0 {
		cfg.Run.Epochs = *flagEpochs
	}

	fetcher := fetch.New().WithAuth(cfg.Fetch.AuthToken).WithForceDownload(cfg.Fetch.ForceDownload)
	fetcher.MaxParallelDownload = cfg.Fetch.MaxParallel
	if cfg.Fetch.CacheDir != "" {
		fetcher = fetcher.WithCacheDir(cfg.Fetch.CacheDir)
	}
	resolved, err := fetcher.ResolveAll(ctx, cfg.Dataset.Locations()...)
	if err != nil {
		return errors.WithMessage(err, "resolving corpora and dictionaries")
	}

	it, err := dataset.New(cfg.Dataset.Build(resolved))
	if err != nil {
		return err
	}
	defer func() {
		if err := it.Close(); err != nil {
			klog.Warningf("Failed to close dataset iterator: %v", err)
		}
	}()

	showProgress := *flagProgress && !cfg.Run.Quiet
	for epoch := range cfg.Run.Epochs {
		stats, err := runEpoch(ctx, it, epoch, showProgress)
		if err != nil {
			return err
		}
		fmt.Printf("Epoch %d: %s\n", epoch+1, stats)
	}
	return nil
}

// runEpoch consumes one epoch of the iterator, collecting its statistics.
func runEpoch(ctx context.Context, it *dataset.Iterator, epoch int, showProgress bool) (*epochStats, error) {
	var bar *progressbar.ProgressBar
	if showProgress {
		bar = progressbar.Default(-1, fmt.Sprintf("epoch %d", epoch+1))
	}
	stats := &epochStats{}
	start := time.Now()
	for batch, err := range it.Epoch() {
		if err != nil {
			return nil, errors.WithMessagef(err, "epoch %d", epoch+1)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stats.add(batch)
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	klog.V(1).Infof("Epoch %d took %s", epoch+1, time.Since(start))
	return stats, nil
}
