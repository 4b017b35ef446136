package kv

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ValentinKolb/mKV/cmd/util"
	"github.com/ValentinKolb/mKV/lib/idb"
	"github.com/ValentinKolb/mKV/lib/membrane"
	"github.com/rcrowley/go-metrics"
	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	perfDB    = "vscode-web-state-db-perf"
	perfStore = "ItemTable"
)

var (
	perfTestCmd = &cobra.Command{
		Use:   "perf",
		Short: "Measures transaction latency of the embedded database and the settings service",
		Long: util.WrapString(`Runs every benchmark in a scratch database that is deleted afterwards.
The remote benchmarks write a redirected key and therefore hit the settings service.`),
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix  = "__perf"
	perfValueSize  = 1
	perfNumThreads = 10
	perfOps        = 1000
	perfKeySpread  = 100
	perfSkip       = make([]string, 0)
)

func init() {
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. put,get-remote)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of goroutines per benchmark"))
	key = "ops"
	perfTestCmd.Flags().Int(key, 1000, util.WrapString("Number of transactions per goroutine"))
	key = "value-size"
	perfTestCmd.Flags().Int(key, 1, util.WrapString("Size of the written values (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the local tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(_ *cobra.Command, _ []string) error {
	perfValueSize = viper.GetInt("value-size")
	perfKeySpread = max(viper.GetInt("keys"), 1)
	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfOps = max(viper.GetInt("ops"), 1)
	perfSkip = strings.Split(viper.GetString("skip"), ",")
	return nil
}

// benchmark is one transaction shape, run perfOps times by every goroutine
type benchmark struct {
	name string
	tx   func(ctx context.Context, d *idb.Database, i int) error
}

func runPerf(cmd *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for mKV")

	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d, transactions per thread: %d\n", perfNumThreads, perfOps)
	fmt.Println()

	ctx := cmd.Context()
	scratch, err := idb.Open(ctx, perfDB, 0, []string{perfStore}, dbOptions)
	if err != nil {
		return err
	}
	defer func() {
		_ = scratch.Close()
		if err := idb.DeleteDatabase(dbOptions.Dir, perfDB); err != nil {
			fmt.Printf("error deleting scratch database: %v\n", err)
		}
	}()

	value := make([]byte, perfValueSize*1024)
	remoteKey := membrane.RedirectedKeys[0]

	benchmarks := []benchmark{
		{"put", func(ctx context.Context, d *idb.Database, i int) error {
			return put(ctx, d, localKey("put", i), value)
		}},
		{"get", func(ctx context.Context, d *idb.Database, i int) error {
			_, err := d.RunInTransaction(ctx, perfStore, idb.ReadOnly, func(s idb.ObjectStore) *idb.Request {
				return s.Get(localKey("put", i))
			})
			return err
		}},
		{"batch", func(ctx context.Context, d *idb.Database, i int) error {
			_, err := d.RunInTransactionBatch(ctx, perfStore, idb.ReadWrite, func(s idb.ObjectStore) []*idb.Request {
				return []*idb.Request{s.Get(localKey("put", i)), s.Put(localKey("batch", i), value), s.Get(localKey("batch", i))}
			})
			return err
		}},
		{"get-remote", func(ctx context.Context, d *idb.Database, i int) error {
			_, err := d.RunInTransaction(ctx, perfStore, idb.ReadOnly, func(s idb.ObjectStore) *idb.Request {
				return s.Get(remoteKey)
			})
			return err
		}},
		{"mixed", func(ctx context.Context, d *idb.Database, i int) error {
			_, err := d.RunInTransactionBatch(ctx, perfStore, idb.ReadOnly, func(s idb.ObjectStore) []*idb.Request {
				return []*idb.Request{s.Get(localKey("put", i)), s.Get(remoteKey)}
			})
			return err
		}},
	}

	fmt.Println("starting tests...")

	registry := metrics.NewRegistry()
	for _, b := range benchmarks {
		if shouldSkip(b.name) {
			fmt.Printf("%-20sskipped\n", b.name)
			continue
		}
		elapsed := runBenchmark(ctx, scratch, b, registry)
		printResult(b.name, registry, elapsed)
	}

	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, registry); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// runBenchmark runs b on perfNumThreads goroutines and records every
// transaction in the timer b.name and every failure in the counter b.name+"-errors"
func runBenchmark(ctx context.Context, d *idb.Database, b benchmark, registry metrics.Registry) time.Duration {
	timer := metrics.GetOrRegisterTimer(b.name, registry)
	errs := metrics.GetOrRegisterCounter(b.name+"-errors", registry)

	start := time.Now()
	var wg conc.WaitGroup
	for t := 0; t < perfNumThreads; t++ {
		wg.Go(func() {
			for i := 0; i < perfOps; i++ {
				opStart := time.Now()
				err := b.tx(ctx, d, t*perfOps+i)
				timer.UpdateSince(opStart)
				if err != nil {
					errs.Inc(1)
					Logger.Debugf("(%s) - transaction failed: %v", b.name, err)
				}
			}
		})
	}
	wg.Wait()
	return time.Since(start)
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	return slices.Contains(perfSkip, test)
}

func localKey(prefix string, i int) string {
	return fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i%perfKeySpread)
}

func put(ctx context.Context, d *idb.Database, key string, value []byte) error {
	_, err := d.RunInTransaction(ctx, perfStore, idb.ReadWrite, func(s idb.ObjectStore) *idb.Request {
		return s.Put(key, value)
	})
	return err
}

var percentiles = []float64{0.5, 0.95, 0.99}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, registry metrics.Registry, elapsed time.Duration) {
	t := metrics.GetOrRegisterTimer(test, registry).Snapshot()
	errs := metrics.GetOrRegisterCounter(test+"-errors", registry).Count()
	ps := t.Percentiles(percentiles)

	opsPerSec := float64(t.Count()) / max(elapsed.Seconds(), 1e-9)
	fmt.Printf("%-20s%s/op\tp50 %s\tp95 %s\tp99 %s\t%.0f ops/sec\t%d errors\n",
		test, time.Duration(t.Mean()), time.Duration(ps[0]), time.Duration(ps[1]), time.Duration(ps[2]), opsPerSec, errs)
}

// writeResultsToCSV writes one row per timer of the registry
func writeResultsToCSV(csvPath string, registry metrics.Registry) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Test", "Count", "Errors", "MeanNs", "P50Ns", "P95Ns", "P99Ns", "MaxNs",
		"Endpoint", "TimeoutSec", "Threads", "OpsPerThread", "ValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	config := util.GetClientConfig()
	var rowErr error
	registry.Each(func(name string, m interface{}) {
		timer, ok := m.(metrics.Timer)
		if !ok || rowErr != nil {
			return
		}
		t := timer.Snapshot()
		ps := t.Percentiles(percentiles)
		row := []string{
			name,
			strconv.FormatInt(t.Count(), 10),
			strconv.FormatInt(metrics.GetOrRegisterCounter(name+"-errors", registry).Count(), 10),
			fmt.Sprintf("%.0f", t.Mean()),
			fmt.Sprintf("%.0f", ps[0]),
			fmt.Sprintf("%.0f", ps[1]),
			fmt.Sprintf("%.0f", ps[2]),
			strconv.FormatInt(t.Max(), 10),
			bridge.Endpoint(),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfOps),
			strconv.Itoa(perfValueSize),
			strconv.Itoa(perfKeySpread),
		}
		if err := writer.Write(row); err != nil {
			rowErr = fmt.Errorf("failed to write row for test %s: %v", name, err)
		}
	})

	return rowErr
}
