package app_config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchbase/stellar-connstr/contrib/mongoconnstr"
	"github.com/couchbase/stellar-connstr/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestWatcher(t *testing.T, path string) (*DescriptorWatcher, sdkmetric.Reader) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	w, err := NewDescriptorWatcher(DescriptorWatcherOptions{
		Path:    path,
		Metrics: metrics.NewConnStrMetrics(provider),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = w.Close()
	})

	return w, reader
}

func counterTotal(t *testing.T, reader sdkmetric.Reader, name string) int64 {
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestWatcherCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connstr.txt")
	w, _ := newTestWatcher(t, path)

	_, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, "Host=localhost", w.Current().ConnectionString())
}

func TestWatcherLoadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connstr.txt")
	require.NoError(t, os.WriteFile(path, []byte("Host=a:1,b:2;User ID=u\n"), 0600))

	w, _ := newTestWatcher(t, path)

	d := w.Current()
	assert.True(t, d.EnsureHost().IsPaired())
	userID, ok := d.UserID()
	require.True(t, ok)
	assert.Equal(t, "u", userID)
}

func TestWatcherBroadcastsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connstr.txt")
	w, _ := newTestWatcher(t, path)

	ch := make(chan *mongoconnstr.Descriptor, 16)
	unsub := w.Subscribe(ch)
	defer unsub()

	require.NoError(t, os.WriteFile(path, []byte("Host=db:27018;SlaveOK=True"), 0600))

	timeout := time.After(5 * time.Second)
	for {
		select {
		case d := <-ch:
			// a write may be observed as truncate followed by write
			if d.ConnectionString() == "Host=db:27018;SlaveOK=True" {
				assert.True(t, d.SlaveOk())
				return
			}
		case <-timeout:
			t.Fatalf("no descriptor change was broadcast")
		}
	}
}

func TestWatcherKeepsPreviousOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connstr.txt")
	require.NoError(t, os.WriteFile(path, []byte("Host=good"), 0600))

	w, reader := newTestWatcher(t, path)
	require.Equal(t, "Host=good", w.Current().ConnectionString())

	require.NoError(t, os.WriteFile(path, []byte("Host=bad:port"), 0600))

	require.Eventually(t, func() bool {
		return counterTotal(t, reader, "connstr_parse_failures_total") > 0
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, "Host=good", w.Current().ConnectionString())
}

func TestWatcherUnsubscribe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connstr.txt")
	w, _ := newTestWatcher(t, path)

	ch := make(chan *mongoconnstr.Descriptor)
	unsub := w.Subscribe(ch)
	unsub()

	w.lock.RLock()
	defer w.lock.RUnlock()
	assert.Empty(t, w.watchers)
}

func TestWatcherCloseReleasesBlockedBroadcast(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connstr.txt")
	w, _ := newTestWatcher(t, path)

	// never drained
	ch := make(chan *mongoconnstr.Descriptor)
	w.Subscribe(ch)

	done := make(chan struct{})
	go func() {
		w.broadcast()
		close(done)
	}()

	require.NoError(t, w.Close())
	require.Eventually(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	// a second close must not panic on the already closed channel
	assert.NotPanics(t, func() {
		_ = w.Close()
	})
}

func TestWatcherFollowsRenameReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "connstr.txt")
	require.NoError(t, os.WriteFile(path, []byte("Host=old"), 0600))

	w, _ := newTestWatcher(t, path)
	require.Equal(t, "Host=old", w.Current().ConnectionString())

	ch := make(chan *mongoconnstr.Descriptor, 16)
	unsub := w.Subscribe(ch)
	defer unsub()

	replace := func(connStr string) {
		tmp := filepath.Join(dir, "connstr.txt.tmp")
		require.NoError(t, os.WriteFile(tmp, []byte(connStr), 0600))
		require.NoError(t, os.Rename(tmp, path))
	}

	waitFor := func(connStr string) {
		timeout := time.After(5 * time.Second)
		for {
			select {
			case d := <-ch:
				if d.ConnectionString() == connStr {
					return
				}
			case <-timeout:
				t.Fatalf("no broadcast of %q", connStr)
			}
		}
	}

	// the watch has to survive more than one replacement
	replace("Host=first")
	waitFor("Host=first")
	replace("Host=second:27018")
	waitFor("Host=second:27018")

	assert.Equal(t, "Host=second:27018", w.Current().ConnectionString())
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "connstr.txt")
	require.NoError(t, os.WriteFile(path, []byte("Host=mine"), 0600))

	w, reader := newTestWatcher(t, path)
	parsesBefore := counterTotal(t, reader, "connstr_parses_total")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("Host=theirs"), 0600))
	time.Sleep(200 * time.Millisecond)

	assert.Equal(t, "Host=mine", w.Current().ConnectionString())
	assert.Equal(t, parsesBefore, counterTotal(t, reader, "connstr_parses_total"))
}
