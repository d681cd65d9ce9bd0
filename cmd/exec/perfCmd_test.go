package exec

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ValentinKolb/dReact/rpc/common"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/require"
)

func testResult() perfResult {
	timer := gometrics.NewTimer()
	for _, d := range []time.Duration{time.Millisecond, 2 * time.Millisecond, 3 * time.Millisecond} {
		timer.Update(d)
	}
	return perfResult{timer: timer.Snapshot(), failures: 1, elapsed: time.Second}
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, "run", testResult())

	out := buf.String()
	require.Contains(t, out, "2000000ns/op (2ms/op)")
	require.Contains(t, out, "3 ops/sec")
	require.Contains(t, out, "1 failures")
}

func TestPrintResultWithoutRequests(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, "run", perfResult{timer: gometrics.NewTimer().Snapshot(), failures: 4})
	require.Contains(t, buf.String(), "no successful requests (4 failures)")
}

func TestWriteResultsToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perf.csv")
	config := &common.ClientConfig{Endpoint: "localhost:28000", TimeoutSecond: 3, MaxFrameSize: 128}

	require.NoError(t, writeResultsToCSV(path, "run", testResult(), config))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Test", rows[0][0])
	require.Equal(t, []string{"run", "3", "1", "2000000"}, rows[1][:4])
	require.Equal(t, "localhost:28000", rows[1][9])
}
