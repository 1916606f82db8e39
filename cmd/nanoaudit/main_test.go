package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coffersTech/nanoaudit/internal/client"
	"github.com/coffersTech/nanoaudit/internal/model"
	"github.com/coffersTech/nanoaudit/internal/overlay"
)

func testRecords(t *testing.T) []model.LogRecord {
	t.Helper()
	login := model.NewHTTPRecord(model.LogRecord{
		ID:        "r1",
		AgentID:   "a1",
		Timestamp: 1700000000,
		Request:   "POST /login HTTP/1.1\r\nHost: shop\r\n\r\nuser=admin'--",
		RequestFindings: []model.Finding{{
			RuleID:         "sqli-1",
			Classification: "sqli",
			Severity:       model.SeverityCritical,
			Position:       model.Position{Line: 3, ColumnIndex: 10, Length: 3},
		}},
	}, model.HTTPFields{Method: "POST", RequestURL: "/login", RequestVersion: "HTTP/1.1"})
	index := model.NewHTTPRecord(model.LogRecord{
		ID:        "r2",
		AgentID:   "a1",
		Timestamp: 1700000060,
		Request:   "GET / HTTP/1.1\r\n\r\n",
		Response:  "HTTP/1.1 200 OK\r\n\r\n",
	}, model.HTTPFields{Method: "GET", RequestURL: "/", RequestVersion: "HTTP/1.1", ResponseVersion: "HTTP/1.1", ResponseCode: "200"})
	in, err := model.NewTransportRecord(model.LogRecord{
		ID: "r3", AgentID: "a2", Timestamp: 1700000100, Request: "hello", StreamID: "s1", StreamIndex: 0,
	}, model.TransportFields{Transport: model.KindTCP, Direction: model.DirectionIngress})
	require.NoError(t, err)
	out, err := model.NewTransportRecord(model.LogRecord{
		ID: "r4", AgentID: "a2", Timestamp: 1700000101, Response: "world", StreamID: "s1", StreamIndex: 1,
	}, model.TransportFields{Transport: model.KindTCP, Direction: model.DirectionEgress})
	require.NoError(t, err)
	return []model.LogRecord{login, index, in, out}
}

func newBackend(t *testing.T) string {
	t.Helper()
	records := testRecords(t)
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(v))
	}
	ofKind := func(kind model.ProtocolKind) []model.LogRecord {
		var out []model.LogRecord
		for _, r := range records {
			if r.Kind() == kind {
				out = append(out, r)
			}
		}
		return out
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/logs", func(w http.ResponseWriter, r *http.Request) { writeJSON(w, records) })
	mux.HandleFunc("/api/v1/logs/http", func(w http.ResponseWriter, r *http.Request) { writeJSON(w, ofKind(model.KindHTTP)) })
	mux.HandleFunc("/api/v1/logs/tcp", func(w http.ResponseWriter, r *http.Request) { writeJSON(w, ofKind(model.KindTCP)) })
	mux.HandleFunc("/api/v1/logs/methods-stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]int{"GET": 7, "POST": 3})
	})
	mux.HandleFunc("/api/v1/logs/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/v1/logs/")
		for _, rec := range records {
			if rec.ID == id {
				writeJSON(w, rec)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, map[string]string{"detail": "Log not found"})
	})
	mux.HandleFunc("/api/v1/streams/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/v1/streams/"), "/logs")
		out := []model.LogRecord{}
		for _, rec := range records {
			if rec.StreamID == id {
				out = append([]model.LogRecord{rec}, out...)
			}
		}
		writeJSON(w, out)
	})
	mux.HandleFunc("/api/v1/agents", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{
			{"uuid": "a1", "name": "edge-1", "createdAt": "2023-11-01T00:00:00Z", "logsCollected": 120},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv.URL + "/api/v1"
}

func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NANOAUDIT_CONFIG", "")
	t.Setenv("NANOAUDIT_BACKENDS", "")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(append(args, "--color", "never", "--log-level", "error"))
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestLogs_Table(t *testing.T) {
	isolateConfig(t)
	backend := newBackend(t)

	out, err := run(t, "logs", "--backends", backend, "--sort", "timestamp:desc")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "GET"), strings.Index(out, "POST"))
	assert.Contains(t, out, "Time ▼")
	assert.Contains(t, out, "SQLI")
	assert.Contains(t, out, "page 1/1, 4 of 4 rows")
}

func TestLogs_FilterQueryAndSelection(t *testing.T) {
	isolateConfig(t)
	backend := newBackend(t)

	out, err := run(t, "logs", "--backends", backend, "--filter", "httpMethod=POST", "-o", "ids")
	require.NoError(t, err)
	assert.Equal(t, "r1\n", out)

	out, err = run(t, "logs", "--backends", backend, "--filter", "GET", "-o", "ids")
	require.NoError(t, err)
	assert.Equal(t, "r2\n", out)

	out, err = run(t, "logs", "--backends", backend, "-q", "rule:sqli-1 OR stream:s1", "--sort", "timestamp", "-o", "ids")
	require.NoError(t, err)
	assert.Equal(t, "r1\nr3\nr4\n", out)

	out, err = run(t, "logs", "--backends", backend, "--select", "r4,r2", "--sort", "timestamp", "-o", "ids")
	require.NoError(t, err)
	assert.Equal(t, "r2\nr4\n", out)

	out, err = run(t, "logs", "--backends", backend, "--select", "r4,r2", "--sort", "timestamp:desc", "-o", "ids")
	require.NoError(t, err)
	assert.Equal(t, "r4\nr2\n", out)

	out, err = run(t, "logs", "--backends", backend, "--select", "r4,r2", "--filter", "httpMethod=GET", "-o", "ids")
	require.NoError(t, err)
	assert.Equal(t, "r2\n", out)

	_, err = run(t, "logs", "--backends", backend, "--sort", "nope")
	require.Error(t, err)
	assert.Contains(t, errorMessage(err), "Hint: column ids are")
}

func TestLogs_KindJSON(t *testing.T) {
	isolateConfig(t)
	backend := newBackend(t)

	out, err := run(t, "logs", "--backends", backend, "--kind", "tcp", "-o", "json")
	require.NoError(t, err)
	var dec model.Decoder
	records, err := dec.DecodeRecords([]byte(out))
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, model.KindTCP, r.Kind())
	}
}

func TestShow(t *testing.T) {
	isolateConfig(t)
	backend := newBackend(t)

	out, err := run(t, "show", "r1", "--backends", backend)
	require.NoError(t, err)
	assert.Contains(t, out, "[SQLI]")
	assert.Contains(t, out, "user=admin'--"+overlay.DefaultMarker)
	assert.NotContains(t, out, "Host: shop"+overlay.DefaultMarker)

	out, err = run(t, "show", "r2", "--backends", backend, "-C", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Before")
	assert.Contains(t, out, "r1")
	assert.Contains(t, out, "r3")

	_, err = run(t, "show", "missing", "--backends", backend)
	var statusErr *client.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "Log not found")
	assert.Contains(t, errorMessage(err), "Hint: check the id")
}

func TestStream(t *testing.T) {
	isolateConfig(t)
	backend := newBackend(t)

	out, err := run(t, "stream", "s1", "--backends", backend)
	require.NoError(t, err)
	require.Contains(t, out, "#0 ingress")
	assert.Less(t, strings.Index(out, "#0 ingress"), strings.Index(out, "#1 egress"))
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "world")
}

func TestStats(t *testing.T) {
	isolateConfig(t)
	backend := newBackend(t)

	out, err := run(t, "stats", "--backends", backend)
	require.NoError(t, err)
	assert.Contains(t, out, "Requests by method")
	assert.Regexp(t, regexp.MustCompile(`GET\s+7 `), out)
	assert.Regexp(t, regexp.MustCompile(`records\s+4`), out)
	assert.Regexp(t, regexp.MustCompile(`ingress\s+1`), out)
	assert.Contains(t, out, "sqli-1")

	_, err = run(t, "stats", "--backends", backend, "--interval", "10ms")
	assert.Error(t, err)
}

func TestAgents(t *testing.T) {
	isolateConfig(t)
	backend := newBackend(t)

	out, err := run(t, "agents", "--backends", backend)
	require.NoError(t, err)
	assert.Contains(t, out, "edge-1")
	assert.Contains(t, out, "a2")
	assert.Contains(t, out, "120")

	out, err = run(t, "agents", "--backends", backend, "--active", "1h")
	require.NoError(t, err)
	assert.Contains(t, out, "0 of 0 rows")
}

func TestSnapshotRoundTrip(t *testing.T) {
	isolateConfig(t)
	backend := newBackend(t)
	file := filepath.Join(t.TempDir(), "audit.nanoaudit")

	out, err := run(t, "snapshot", "save", file, "--backends", backend)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 4 records")

	out, err = run(t, "snapshot", "info", file)
	require.NoError(t, err)
	assert.Contains(t, out, "records: 4")
	assert.Contains(t, out, "2023-11-14 22:13:20 UTC")

	out, err = run(t, "logs", "--snapshot", file, "--sort", "timestamp", "-o", "ids")
	require.NoError(t, err)
	assert.Equal(t, "r1\nr2\nr3\nr4\n", out)

	out, err = run(t, "stream", "s1", "--snapshot", file)
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "#0 ingress"), strings.Index(out, "#1 egress"))

	out, err = run(t, "show", "r1", "--snapshot", file)
	require.NoError(t, err)
	assert.Contains(t, out, "user=admin'--"+overlay.DefaultMarker)

	bogus := filepath.Join(t.TempDir(), "bogus")
	require.NoError(t, os.WriteFile(bogus, []byte("not a snapshot at all, not even close"), 0644))
	_, err = run(t, "logs", "--snapshot", bogus)
	require.Error(t, err)
	assert.Contains(t, errorMessage(err), "not a nanoaudit snapshot")
}

func TestConfigFileAndEnv(t *testing.T) {
	isolateConfig(t)
	backend := newBackend(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("backends:\n  - %s\ndefault-column: agentId\n", backend)), 0644))
	out, err := run(t, "logs", "--config", path, "--filter", "a2", "--sort", "timestamp", "-o", "ids")
	require.NoError(t, err)
	assert.Equal(t, "r3\nr4\n", out)

	t.Setenv("NANOAUDIT_BACKENDS", backend)
	out, err = run(t, "logs", "--filter", "httpMethod=GET", "-o", "ids")
	require.NoError(t, err)
	assert.Equal(t, "r2\n", out)
}

func TestNoBackends(t *testing.T) {
	isolateConfig(t)
	_, err := run(t, "logs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no backends configured")
}

func TestLogs_MalformedRecords(t *testing.T) {
	isolateConfig(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/logs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"id":"a","type":"http","httpMethod":"GET"},{"id":"b","type":"ftp"},{"id":"c","type":"http"}]`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	backend := srv.URL + "/api/v1"

	_, err := run(t, "logs", "--backends", backend, "-o", "ids")
	require.Error(t, err)
	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "type", verr.Field)
	assert.Contains(t, errorMessage(err), "--lenient-records")

	out, err := run(t, "logs", "--backends", backend, "--lenient-records", "-o", "ids")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "c"}, strings.Fields(out))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "boom", errorMessage(errors.New("boom")))
	assert.Contains(t, errorMessage(fmt.Errorf("fetch: %w", context.DeadlineExceeded)), "--timeout")
	assert.Contains(t, errorMessage(&client.StatusError{Backend: "http://x", Path: "/logs", StatusCode: 401}), "--token")
	assert.Contains(t, errorMessage(model.DuplicateRowID("x")), "repeats an id")
}
