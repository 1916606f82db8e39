package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coffersTech/nanoaudit/internal/model"
)

func backend(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"not found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLogs_MergeReplaceByID(t *testing.T) {
	a := backend(t, map[string]string{
		"/api/v1/logs": `[{"id":"1","type":"http","httpMethod":"GET","timestamp":10,"verdict":"old"},
		                  {"id":"2","type":"http","httpMethod":"GET","timestamp":30}]`,
	})
	b := backend(t, map[string]string{
		"/api/v1/logs": `[{"id":"1","type":"http","httpMethod":"GET","timestamp":10,"verdict":"new"},
		                  {"id":"3","type":"tcp","direction":"ingress","timestamp":20}]`,
	})

	c := New([]string{a.URL + "/api/v1", b.URL + "/api/v1/"})
	recs, err := c.Logs(context.Background())
	require.NoError(t, err)

	require.Len(t, recs, 3)
	assert.Equal(t, "2", recs[0].ID)
	assert.Equal(t, "3", recs[1].ID)
	assert.Equal(t, "1", recs[2].ID)
	assert.Equal(t, "new", recs[2].Verdict)
}

func TestHeaders(t *testing.T) {
	var gotAuth, gotID atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		gotID.Store(r.Header.Get("X-Request-ID"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New([]string{srv.URL}, WithToken("s3cret"))
	_, err := c.Logs(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer s3cret", gotAuth.Load())
	_, err = uuid.Parse(gotID.Load().(string))
	assert.NoError(t, err)
}

func TestStatusError(t *testing.T) {
	srv := backend(t, map[string]string{})
	c := New([]string{srv.URL})

	_, err := c.Logs(context.Background())
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, "not found", se.Detail)
	assert.Contains(t, err.Error(), "not found")
}

func TestPartialResults(t *testing.T) {
	good := backend(t, map[string]string{"/logs": `[{"id":"1","type":"websocket"}]`})
	bad := backend(t, map[string]string{})

	_, err := New([]string{good.URL, bad.URL}).Logs(context.Background())
	assert.Error(t, err)

	recs, err := New([]string{good.URL, bad.URL}, WithPartialResults()).Logs(context.Background())
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	_, err = New([]string{bad.URL}, WithPartialResults()).Logs(context.Background())
	assert.Error(t, err)
}

func TestLog(t *testing.T) {
	a := backend(t, map[string]string{"/logs/x1": `{"id":"x1","type":"http","httpMethod":"PUT"}`})
	b := backend(t, map[string]string{})

	rec, err := New([]string{a.URL, b.URL}).Log(context.Background(), "x1")
	require.NoError(t, err)
	h, ok := rec.HTTP()
	require.True(t, ok)
	assert.Equal(t, "PUT", h.Method)

	_, err = New([]string{b.URL}).Log(context.Background(), "x1")
	var se *StatusError
	assert.True(t, errors.As(err, &se))
}

func TestLogsByKindAndStream(t *testing.T) {
	srv := backend(t, map[string]string{
		"/logs/tcp":        `[{"id":"t","type":"tcp","direction":"egress"}]`,
		"/streams/s1/logs": `[{"id":"b","type":"tcp","direction":"egress","streamIndex":1,"timestamp":5},{"id":"a","type":"tcp","direction":"ingress","streamIndex":0,"timestamp":9}]`,
	})
	c := New([]string{srv.URL})

	recs, err := c.LogsByKind(context.Background(), model.KindTCP)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	_, err = c.LogsByKind(context.Background(), model.KindUDP)
	assert.Error(t, err)

	stream, err := c.StreamLogs(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, stream, 2)
	assert.Equal(t, "a", stream[0].ID)
}

func TestMethodStatsAndAgents(t *testing.T) {
	a := backend(t, map[string]string{
		"/logs/methods-stats": `{"GET":3,"POST":1}`,
		"/agents":             `[{"uuid":"u1","name":"edge","logsCollected":4}]`,
	})
	b := backend(t, map[string]string{
		"/logs/methods-stats": `{"GET":"2","DELETE":1}`,
		"/agents":             `[{"uuid":"u1","name":"edge-renamed","logsCollected":9},{"uuid":"u2","name":"core"}]`,
	})
	c := New([]string{a.URL, b.URL})

	stats, err := c.MethodStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.GET)
	assert.Equal(t, int64(1), stats.DELETE)
	assert.Equal(t, int64(7), stats.Total())

	agents, err := c.Agents(context.Background())
	require.NoError(t, err)
	require.Len(t, agents, 2)
	assert.Equal(t, "edge-renamed", agents[0].Name)
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := New([]string{srv.URL}, WithTimeout(50*time.Millisecond)).Logs(context.Background())
	assert.Error(t, err)
}

func TestNoBackends(t *testing.T) {
	_, err := New([]string{" ", ""}).Logs(context.Background())
	assert.Error(t, err)
}

func TestMergeRecords(t *testing.T) {
	r := func(id string, ts int64) model.LogRecord {
		return model.NewWebSocketRecord(model.LogRecord{ID: id, Timestamp: ts})
	}
	merged := MergeRecords([]model.LogRecord{r("a", 1), r("b", 2)}, []model.LogRecord{r("a", 3)})
	require.Len(t, merged, 2)
	assert.Equal(t, "a", merged[0].ID)
	assert.Equal(t, int64(3), merged[0].Timestamp)

	assert.Empty(t, MergeRecords())
}
