package tree

import (
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/grove-db/grove/cmd/util"
	"github.com/grove-db/grove/lib/path"
	"github.com/grove-db/grove/lib/tree"
	"github.com/grove-db/grove/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for grove servers",
		Long:    "",
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfPathPrefix       = "__bench"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfSkip             = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	TreeCommands.PersistentFlags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. put,get)"))
	key = "threads"
	TreeCommands.PersistentFlags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "large-value-size"
	TreeCommands.PersistentFlags().Int(key, 1000, util.WrapString("How large the value for the put-large test should be (in KB)"))
	key = "keys"
	TreeCommands.PersistentFlags().Int(key, 100, util.WrapString("How many different paths to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = viper.GetInt("keys")
	perfNumThreads = viper.GetInt("threads")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func run(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for grove servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Println()

	fmt.Println("staring tests...")

	// Create results map
	results := make(map[string]testing.BenchmarkResult)

	putResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("put") {
			return
		}

		// prepare paths
		getPath, iter := getPaths("put")

		// cleanup
		b.Cleanup(func() {
			iter(func(p path.Pattern) {
				if err := rpcStore.Delete(p); err != nil {
					log.Printf("(put) - error deleting path: %v\n", err)
				}
			})
		})

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				if _, err := rpcStore.Put(getPath(counter), tree.DataPayload([]byte("bench"))); err != nil {
					log.Printf("(put) - error putting path: %v\n", err)
				}
				counter++
			}
		})
	})

	results["put"] = putResult
	printResult("put", putResult)

	putLargeValueResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("put-large") {
			return
		}

		// prepare large value
		largeValue := make([]byte, perfLargeValueSizeKB*1024)

		// prepare paths
		getPath, iter := getPaths("put-large")

		// cleanup
		b.Cleanup(func() {
			iter(func(p path.Pattern) {
				if err := rpcStore.Delete(p); err != nil {
					log.Printf("(put-large) - error deleting path: %v\n", err)
				}
			})
		})

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				if _, err := rpcStore.Put(getPath(counter), tree.DataPayload(largeValue)); err != nil {
					log.Printf("(put-large) - error putting path: %v", err)
				}
				counter++
			}
		})
	})

	results["put-large"] = putLargeValueResult
	printResult("put-large", putLargeValueResult)

	getResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("get") {
			return
		}

		// prepare paths
		getPath, iter := getPaths("get")

		// set paths
		iter(func(p path.Pattern) {
			if _, err := rpcStore.Put(p, tree.DataPayload([]byte("bench"))); err != nil {
				log.Printf("(get) - error putting path: %v\n", err)
			}
		})

		// cleanup
		b.Cleanup(func() {
			iter(func(p path.Pattern) {
				if err := rpcStore.Delete(p); err != nil {
					log.Printf("(get) - error deleting path: %v\n", err)
				}
			})
		})

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				if _, err := rpcStore.Get(getPath(counter)); err != nil {
					log.Printf("(get) - error getting path: %v\n", err)
				}
				counter++
			}
		})
	})

	results["get"] = getResult
	printResult("get", getResult)

	deleteResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("delete") {
			return
		}

		// prepare paths
		getPath, iter := getPaths("delete")

		// set paths
		iter(func(p path.Pattern) {
			if _, err := rpcStore.Put(p, tree.DataPayload([]byte("bench"))); err != nil {
				log.Printf("(delete) - error putting path: %v\n", err)
			}
		})

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				if err := rpcStore.Delete(getPath(counter)); err != nil {
					log.Printf("(delete) - error deleting path: %v\n", err)
				}
				counter++
			}
		})
	})

	results["delete"] = deleteResult
	printResult("delete", deleteResult)

	existsResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("exists") {
			return
		}

		// prepare paths
		getPath, iter := getPaths("exists")

		// set paths
		iter(func(p path.Pattern) {
			if _, err := rpcStore.Put(p, tree.DataPayload([]byte("bench"))); err != nil {
				log.Printf("(exists) - error putting path: %v\n", err)
			}
		})

		// cleanup
		b.Cleanup(func() {
			iter(func(p path.Pattern) {
				if err := rpcStore.Delete(p); err != nil {
					log.Printf("(exists) - error deleting path: %v\n", err)
				}
			})
		})

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				if _, err := rpcStore.Exists(getPath(counter)); err != nil {
					log.Printf("(exists) - error checking path: %v\n", err)
				}
				counter++
			}
		})
	})

	results["exists"] = existsResult
	printResult("exists", existsResult)

	existsNotResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("exists-not") {
			return
		}

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				p := benchPathFor(fmt.Sprintf("exists-not-%d", counter%100))
				if _, err := rpcStore.Exists(p); err != nil {
					log.Printf("(exists-not) - error checking path: %v\n", err)
				}
				counter++
			}
		})
	})

	results["exists-not"] = existsNotResult
	printResult("exists-not", existsNotResult)

	mixedUsageResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("mixed") {
			return
		}

		// prepare paths
		getPath, iter := getPaths("mixed")

		// set paths
		iter(func(p path.Pattern) {
			if _, err := rpcStore.Put(p, tree.DataPayload([]byte("bench"))); err != nil {
				log.Printf("(mixed) - error putting path: %v\n", err)
			}
		})

		// cleanup
		b.Cleanup(func() {
			iter(func(p path.Pattern) {
				if err := rpcStore.Delete(p); err != nil {
					log.Printf("(mixed) - error deleting path: %v\n", err)
				}
			})
		})

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			p := getPath(counter)
			for pb.Next() {
				var err error
				switch counter % 4 {
				case 0: // put
					_, err = rpcStore.Put(p, tree.DataPayload([]byte("bench")))
				case 1: // get
					_, err = rpcStore.Get(p)
				case 2: // delete
					err = rpcStore.Delete(p)
				case 3: // exists
					_, err = rpcStore.Exists(p)
				}

				if err != nil {
					log.Printf("(mixed) - error performing operation (%d): %v\n", counter%4, err)
				}
				counter++
			}
		})
	})

	results["mixed"] = mixedUsageResult
	printResult("mixed", mixedUsageResult)

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, util.GetClientConfig()); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// benchPathFor builds a single-literal pattern rooted under perfPathPrefix.
func benchPathFor(leaf string) path.Pattern {
	pat, err := path.ParseString(fmt.Sprintf("/%s/%s", perfPathPrefix, leaf))
	if err != nil {
		panic(err)
	}
	return pat
}

// getPaths creates an array of benchmark patterns and a function to work with them.
func getPaths(prefix string) (func(int) path.Pattern, func(func(path.Pattern))) {
	paths := make([]path.Pattern, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		paths[i] = benchPathFor(fmt.Sprintf("%s-%d", prefix, i))
	}

	// Function to get a pattern by index (with wraparound)
	getPath := func(i int) path.Pattern {
		return paths[i%perfKeySpread]
	}

	// Function to iterate over all patterns and apply a function to each
	iteratePaths := func(fn func(path.Pattern)) {
		for _, p := range paths {
			fn(p)
		}
	}

	return getPath, iteratePaths
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	// Print the formatted result
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint",
		"ShardID", "Serializer", "Transport",
		"Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, result := range results {
		var nsPerOp float64
		var opsPerSec float64
		var skipped string

		if result.NsPerOp() == 0 {
			skipped = "true"
			nsPerOp = 0
			opsPerSec = 0
		} else {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			strings.Join(config.Transport.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.Transport.RetryCount),
			strconv.Itoa(config.Transport.ConnectionsPerEndpoint),
			strconv.FormatUint(util.GetShardID(), 10),
			viper.GetString("serializer"),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
