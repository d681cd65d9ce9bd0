package exec

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/ValentinKolb/dReact/cmd/util"
	"github.com/ValentinKolb/dReact/rpc/client"
	"github.com/ValentinKolb/dReact/rpc/common"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for exec servers",
		Long:    "Runs a command repeatedly on the server and reports round trip latencies. Every thread uses its own connection, so the number of threads must not exceed the server's client limit",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfCommand    = "echo hello"
	perfNumThreads = 1
	perfRequests   = 1000
)

func init() {
	// add flags
	key := "command"
	perfTestCmd.Flags().String(key, perfCommand, util.WrapString("The command to run"))
	key = "threads"
	perfTestCmd.Flags().Int(key, perfNumThreads, util.WrapString("Number of parallel connections"))
	key = "requests"
	perfTestCmd.Flags().Int(key, perfRequests, util.WrapString("Number of commands each connection runs"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfCommand = viper.GetString("command")
	perfNumThreads = viper.GetInt("threads")
	perfRequests = viper.GetInt("requests")

	if perfNumThreads < 1 || perfRequests < 1 {
		return fmt.Errorf("threads and requests must be at least 1")
	}
	return nil
}

// perfResult is the outcome of one benchmark
type perfResult struct {
	timer    gometrics.Timer
	failures int64
	elapsed  time.Duration
}

func runPerf(_ *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for exec servers")

	// Print configuration
	config := util.GetClientConfig()
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(config.String())
	fmt.Printf("Command: %q\n", perfCommand)
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Printf("Requests per thread: %d\n", perfRequests)
	fmt.Println()

	fmt.Println("starting tests...")

	result, err := benchmark()
	if err != nil {
		return err
	}
	printResult(os.Stdout, "run", result)

	if csvPath := viper.GetString("csv"); csvPath != "" {
		if err := writeResultsToCSV(csvPath, "run", result, &config); err != nil {
			return err
		}
		fmt.Printf("results written to %s\n", csvPath)
	}
	return nil
}

// benchmark runs the configured command perfRequests times on each of perfNumThreads connections
func benchmark() (perfResult, error) {
	registry := gometrics.NewRegistry()
	timer := gometrics.GetOrRegisterTimer("exec.run", registry)
	failures := gometrics.GetOrRegisterCounter("exec.failures", registry)

	// connect first, so connection setup is not measured
	clients := make([]*client.ExecClient, 0, perfNumThreads)
	defer func() {
		for _, c := range clients {
			_ = c.Close()
		}
	}()
	for i := 0; i < perfNumThreads; i++ {
		c, err := newExecClient()
		if err != nil {
			return perfResult{}, fmt.Errorf("failed to connect client %d: %w", i, err)
		}
		clients = append(clients, c)
	}

	start := time.Now()
	var wg sync.WaitGroup
	for _, c := range clients {
		wg.Add(1)
		go func(c *client.ExecClient) {
			defer wg.Done()
			for i := 0; i < perfRequests; i++ {
				t := time.Now()
				if err := c.Execute(perfCommand, io.Discard); err != nil {
					failures.Inc(1)
					continue
				}
				timer.UpdateSince(t)
			}
		}(c)
	}
	wg.Wait()

	return perfResult{timer: timer.Snapshot(), failures: failures.Count(), elapsed: time.Since(start)}, nil
}

// printResult prints a formatted benchmark result
func printResult(w io.Writer, test string, r perfResult) {
	if r.timer.Count() == 0 {
		fmt.Fprintf(w, "%-20sno successful requests (%d failures)\n", test, r.failures)
		return
	}

	ps := r.timer.Percentiles([]float64{0.5, 0.95, 0.99})
	opsPerSec := float64(r.timer.Count()) / r.elapsed.Seconds()

	fmt.Fprintf(w, "%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, r.timer.Mean(), time.Duration(r.timer.Mean()), opsPerSec)
	fmt.Fprintf(w, "%-20sp50=%s p95=%s p99=%s max=%s\n", "", time.Duration(ps[0]), time.Duration(ps[1]), time.Duration(ps[2]), time.Duration(r.timer.Max()))
	if r.failures > 0 {
		fmt.Fprintf(w, "%-20s%d failures\n", "", r.failures)
	}
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, test string, r perfResult, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	// Write header
	header := []string{
		"Test", "Requests", "Failures", "MeanNs", "P50Ns", "P95Ns", "P99Ns", "MaxNs", "OpsPerSec",
		"Endpoint", "TimeoutSec", "Serializer", "Transport",
		"Threads", "Command",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	ps := r.timer.Percentiles([]float64{0.5, 0.95, 0.99})
	var opsPerSec float64
	if r.elapsed > 0 {
		opsPerSec = float64(r.timer.Count()) / r.elapsed.Seconds()
	}

	row := []string{
		test,
		strconv.FormatInt(r.timer.Count(), 10),
		strconv.FormatInt(r.failures, 10),
		fmt.Sprintf("%.0f", r.timer.Mean()),
		fmt.Sprintf("%.0f", ps[0]),
		fmt.Sprintf("%.0f", ps[1]),
		fmt.Sprintf("%.0f", ps[2]),
		strconv.FormatInt(r.timer.Max(), 10),
		fmt.Sprintf("%.0f", opsPerSec),
		config.Endpoint,
		strconv.Itoa(config.TimeoutSecond),
		viper.GetString("serializer"),
		viper.GetString("transport"),
		strconv.Itoa(perfNumThreads),
		perfCommand,
	}
	if err := writer.Write(row); err != nil {
		return fmt.Errorf("failed to write CSV row: %v", err)
	}

	writer.Flush()
	return writer.Error()
}
