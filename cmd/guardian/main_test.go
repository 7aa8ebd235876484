package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/guardian-dsp/dsp/frontend"
	"github.com/cwbudde/guardian-dsp/dsp/resonator"
	"github.com/cwbudde/guardian-dsp/internal/config"
	"github.com/cwbudde/guardian-dsp/internal/pcm"
	"github.com/cwbudde/guardian-dsp/internal/testutil"
	"github.com/cwbudde/guardian-dsp/measure/response"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	return executeContext(t, context.Background(), args...)
}

func executeContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)

	return out.String(), err
}

// writeRaw writes samples as headerless PCM16 and returns the path.
func writeRaw(t *testing.T, samples []int16) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "input.pcm")
	data := pcm.EncodeFrame(make([]byte, 2*len(samples)), samples)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	return path
}

func TestCoefsTable(t *testing.T) {
	out, err := execute(t, "coefs")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[0], "Center Hz")
	assert.Contains(t, lines[0], "Post Shift")
	assert.Contains(t, lines[1], "-32303")
	assert.Equal(t, "sample rate 16000 Hz, design Q 8", lines[5])
}

func TestCoefsYAMLRoundTrip(t *testing.T) {
	out, err := execute(t, "coefs", "-o", "yaml")
	require.NoError(t, err)

	table, err := config.ReadTable(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, resonator.DefaultTable(), table)
}

func TestCoefsExportAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.yaml")

	_, err := execute(t, "coefs", "--export", path)
	require.NoError(t, err)

	out, err := execute(t, "coefs", "--table", path, "-o", "json")
	require.NoError(t, err)

	var channels []coefsChannel
	require.NoError(t, json.Unmarshal([]byte(out), &channels))
	require.Len(t, channels, resonator.NumResonators)
	assert.Equal(t, uint16(300), channels[0].CenterHz)
	assert.Equal(t, int16(-32303), channels[0].A1)
	assert.InDelta(t, -1.9716, channels[0].Float[3], 1e-3)
}

func TestExtractJSONMatchesFrontend(t *testing.T) {
	samples := testutil.Sine(800, 16000, 12000, 0, 2*resonator.FrameSize+100)
	path := writeRaw(t, samples)

	out, err := execute(t, "extract", path, "-o", "json")
	require.NoError(t, err)

	var got []frontend.Vector
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 3)

	fe, err := frontend.New()
	require.NoError(t, err)

	padded := make([]int16, 3*resonator.FrameSize)
	copy(padded, samples)

	for i := range got {
		want, err := fe.Process(padded[i*resonator.FrameSize : (i+1)*resonator.FrameSize])
		require.NoError(t, err)
		assert.Equal(t, want, got[i], "frame %d", i)
	}
}

func TestExtractCSVLimit(t *testing.T) {
	path := writeRaw(t, testutil.Noise(3, 8000, 5*resonator.FrameSize))

	out, err := execute(t, "extract", path, "-o", "csv", "--limit", "2")
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, vectorColumns, records[0])
	assert.Equal(t, "0", records[1][0])
	assert.Equal(t, "1", records[2][0])
}

func TestExtractZCRSourceFlag(t *testing.T) {
	path := writeRaw(t, testutil.Sine(800, 16000, 12000, 0, resonator.FrameSize))

	out, err := execute(t, "extract", path, "-o", "json", "--zcr-source", "9")
	require.ErrorIs(t, err, config.ErrInvalid)
	assert.Empty(t, out)
}

func TestExtractMissingFile(t *testing.T) {
	_, err := execute(t, "extract", filepath.Join(t.TempDir(), "nope.wav"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestResponseJSON(t *testing.T) {
	out, err := execute(t, "response", "-o", "json")
	require.NoError(t, err)

	var got []response.ChannelResponse
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, resonator.NumResonators)

	for i, r := range got {
		center := float64(r.CenterHz)
		assert.Equal(t, i, r.Channel)
		assert.LessOrEqual(t, math.Abs(r.PeakHz-center), 0.03*center, "channel %d", i)
		assert.Nil(t, r.MagnitudeDB)
	}
}

func TestBenchPass(t *testing.T) {
	t.Setenv("GUARDIAN_BUDGET_FILTER", "10s")
	t.Setenv("GUARDIAN_BUDGET_FEATURES", "10s")
	t.Setenv("GUARDIAN_BUDGET_FRAME", "10s")

	out, err := execute(t, "bench", "-n", "20")
	require.NoError(t, err)
	assert.Contains(t, out, "PASS: 20 frames, kernel "+resonator.KernelName())
	assert.Contains(t, out, "Overruns")
}

func TestBenchFail(t *testing.T) {
	t.Setenv("GUARDIAN_BUDGET_FILTER", "1ns")

	out, err := execute(t, "bench", "-n", "5", "-o", "json")
	require.ErrorIs(t, err, errBudget)

	var res benchResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.False(t, res.Pass)
	assert.Equal(t, uint64(5), res.Frames)
	assert.Equal(t, "filter", res.Stages[0].Stage)
	assert.Equal(t, uint64(5), res.Stages[0].Overruns)
}

func TestBenchFileInput(t *testing.T) {
	t.Setenv("GUARDIAN_BUDGET_FRAME", "10s")
	t.Setenv("GUARDIAN_BUDGET_FILTER", "10s")
	t.Setenv("GUARDIAN_BUDGET_FEATURES", "10s")

	path := writeRaw(t, testutil.Sine(300, 16000, 8000, 0, 2*resonator.FrameSize))

	out, err := execute(t, "bench", "-n", "7", "--input", path, "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "frames: 7")
	assert.Contains(t, out, "pass: true")
}

func TestBenchNoiseSignal(t *testing.T) {
	a, err := benchSignal("", 9)
	require.NoError(t, err)
	require.Len(t, a, 10*resonator.FrameSize)

	b, err := benchSignal("", 9)
	require.NoError(t, err)
	assert.Equal(t, a, b, "same seed must give the same noise")

	c, err := benchSignal("", 10)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	var peak int16
	for _, v := range a {
		assert.LessOrEqual(t, v, int16(16000))
		assert.GreaterOrEqual(t, v, int16(-16000))
		peak = max(peak, v)
	}
	assert.Positive(t, peak)
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guardian.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output_format: csv\nlog_level: warn\n"), 0o600))

	out, err := execute(t, "--config", path, "coefs")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "channel,center_hz,b0,"))

	out, err = execute(t, "--config", path, "coefs", "-o", "json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "["))
}

func TestInvalidOutputFormat(t *testing.T) {
	_, err := execute(t, "coefs", "-o", "xml")
	require.ErrorIs(t, err, config.ErrInvalid)
}

func TestMissingExplicitConfig(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "coefs")
	require.Error(t, err)
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := executeContext(t, ctx, "serve", "--addr", "127.0.0.1:0")
	require.NoError(t, err)
}

func TestWriteTableHeaders(t *testing.T) {
	var buf bytes.Buffer

	err := writeReport(&buf, "table", report{
		Columns: []string{"peak_hz", "bandwidth_hz"},
		Rows:    [][]string{{"300.0", "52.7"}},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"Peak", "Hz", "Bandwidth", "Hz"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"300.0", "52.7"}, strings.Fields(lines[1]))
}
