package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charliek/logdesk/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{BaseURL: server.URL + "/"})
}

func writeBody(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	client := NewClient(Config{BaseURL: " http://localhost:8000/ "})
	assert.Equal(t, "http://localhost:8000", client.BaseURL())
	assert.NotNil(t, client.httpClient)
}

func TestClient_ListNamespaces(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/namespaces/acme", r.URL.Path)
			assert.Equal(t, http.MethodGet, r.Method)
			writeBody(w, http.StatusOK, `{"tenant":"acme","namespaces":["default","prod",42,""]}`)
		})

		res := client.ListNamespaces(context.Background(), "acme")
		require.True(t, res.OK())
		assert.Equal(t, []string{"default", "prod"}, res.Value)
	})

	t.Run("empty list is success", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeBody(w, http.StatusOK, `{"namespaces":[]}`)
		})

		res := client.ListNamespaces(context.Background(), "acme")
		require.True(t, res.OK())
		assert.Empty(t, res.Value)
	})

	t.Run("server error uses detail", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeBody(w, http.StatusInternalServerError, `{"detail":"db down"}`)
		})

		res := client.ListNamespaces(context.Background(), "acme")
		require.False(t, res.OK())
		assert.Equal(t, FailureRemote, res.Failure.Kind)
		assert.Equal(t, http.StatusInternalServerError, res.Failure.Status)
		assert.Equal(t, "db down", res.Failure.Message)
		assert.Equal(t, domain.ErrCodeBadResponse, res.Failure.Code())
	})

	t.Run("tenant is path escaped", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/namespaces/a%2Fb", r.URL.EscapedPath())
			writeBody(w, http.StatusOK, `{"namespaces":["x"]}`)
		})

		res := client.ListNamespaces(context.Background(), "a/b")
		assert.True(t, res.OK())
	})
}

func TestClient_ListLoadBalancers(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/loadbalancers/acme/prod", r.URL.Path)
		writeBody(w, http.StatusOK, `{"loadbalancers":["lb1","lb2"]}`)
	})

	res := client.ListLoadBalancers(context.Background(), "acme", "prod")
	require.True(t, res.OK())
	assert.Equal(t, []string{"lb1", "lb2"}, res.Value)
}

func TestClient_Diagnose(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/diagnose/acme/prod/lb1", r.URL.Path)
		writeBody(w, http.StatusOK, `{
			"status": "no_logs",
			"recommendation": "check traffic",
			"tests": [
				{"name": "Load Balancer Exists", "status": "pass", "status_code": 200},
				{"name": "Query Test: (no filter)", "status": "no_data", "logs_found": 0}
			]
		}`)
	})

	res := client.Diagnose(context.Background(), "acme", "prod", "lb1")
	require.True(t, res.OK())
	assert.Equal(t, domain.DiagnosisNoLogs, res.Value.Status)
	assert.Equal(t, "check traffic", res.Value.Recommendation)
	require.Len(t, res.Value.Tests, 2)
	assert.Nil(t, res.Value.Tests[0].LogsFound)
	require.NotNil(t, res.Value.Tests[1].LogsFound)
	assert.Equal(t, 0, *res.Value.Tests[1].LogsFound)
}

func TestClient_FetchLogs(t *testing.T) {
	t.Run("access includes load balancer", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/logs", r.URL.Path)
			q := r.URL.Query()
			assert.Equal(t, "access", q.Get("log_type"))
			assert.Equal(t, "acme", q.Get("tenant"))
			assert.Equal(t, "prod", q.Get("namespace"))
			assert.Equal(t, "lb1", q.Get("loadbalancer"))
			assert.Equal(t, "24", q.Get("hours"))
			writeBody(w, http.StatusOK, `{"file":"out.csv","log_type":"access","records":1000,"total_time_seconds":2.3}`)
		})

		res := client.FetchLogs(context.Background(), domain.Query{
			LogType: domain.LogTypeAccess, Tenant: "acme", Namespace: "prod", LoadBalancer: "lb1", Hours: 24,
		})
		require.True(t, res.OK())
		assert.Equal(t, "out.csv", res.Value.File)
		require.NotNil(t, res.Value.Records)
		assert.Equal(t, 1000, *res.Value.Records)
		require.NotNil(t, res.Value.TotalTimeSeconds)
		assert.InDelta(t, 2.3, *res.Value.TotalTimeSeconds, 0.0001)
	})

	t.Run("audit omits load balancer", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, present := r.URL.Query()["loadbalancer"]
			assert.False(t, present)
			writeBody(w, http.StatusOK, `{"file":"audit.csv"}`)
		})

		res := client.FetchLogs(context.Background(), domain.Query{
			LogType: domain.LogTypeAudit, Tenant: "acme", Namespace: "prod", LoadBalancer: "lb1", Hours: 6,
		})
		require.True(t, res.OK())
		assert.Equal(t, domain.LogTypeAudit, res.Value.LogType)
		assert.Nil(t, res.Value.Records)
	})

	t.Run("nested error with stderr", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeBody(w, http.StatusInternalServerError, `{"detail":{"error":"Error running script","stderr":"Traceback: boom","stdout":"partial"}}`)
		})

		res := client.FetchLogs(context.Background(), domain.Query{LogType: domain.LogTypeAudit, Tenant: "a", Namespace: "b", Hours: 1})
		require.False(t, res.OK())
		assert.Equal(t, "Error running script", res.Failure.Message)
		assert.Equal(t, "Traceback: boom", res.Failure.Detail)
	})
}

func TestClient_SendToIndex(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/logs/elk", r.URL.Path)
		assert.Equal(t, "lb1", r.URL.Query().Get("loadbalancer"))
		writeBody(w, http.StatusOK, `{"documentsSent":500,"errors":5,"index":"xc-logs","tookMs":120,"fetchTimeSeconds":1.5,"totalTimeSeconds":3}`)
	})

	res := client.SendToIndex(context.Background(), domain.Query{
		LogType: domain.LogTypeAccess, Tenant: "acme", Namespace: "prod", LoadBalancer: "lb1", Hours: 1,
	})
	require.True(t, res.OK())
	assert.Equal(t, 500, res.Value.DocumentsSent)
	assert.Equal(t, 5, res.Value.Errors)
	assert.Equal(t, "xc-logs", res.Value.Index)
	require.NotNil(t, res.Value.TookMs)
	assert.Equal(t, int64(120), *res.Value.TookMs)
	assert.InDelta(t, 3.0, res.Value.TotalTimeSeconds, 0.0001)
}

func TestClient_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client := NewClient(Config{BaseURL: baseURL})
	res := client.ListNamespaces(context.Background(), "acme")

	require.False(t, res.OK())
	assert.Equal(t, FailureTransport, res.Failure.Kind)
	assert.Zero(t, res.Failure.Status)
	assert.NotEmpty(t, res.Failure.Message)
	assert.Equal(t, domain.ErrCodeConnectionFailed, res.Failure.Code())
	assert.Contains(t, res.Err().Error(), "connection error")
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(Config{BaseURL: server.URL, ListTimeout: 50 * time.Millisecond})
	res := client.ListNamespaces(context.Background(), "acme")

	require.False(t, res.OK())
	assert.Equal(t, FailureTransport, res.Failure.Kind)
	assert.Equal(t, "request timed out", res.Failure.Message)
}

func TestClient_InvalidSuccessBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusOK, `<html>proxy error</html>`)
	})

	res := client.ListNamespaces(context.Background(), "acme")
	require.False(t, res.OK())
	assert.Equal(t, FailureRemote, res.Failure.Kind)
	assert.Equal(t, "invalid response from log API", res.Failure.Message)
}

func TestClient_Download(t *testing.T) {
	t.Run("streams file", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/download", r.URL.Path)
			assert.Equal(t, "out file.csv", r.URL.Query().Get("file"))
			w.Header().Set("Content-Type", "text/csv")
			_, _ = io.WriteString(w, "Time,Method\n1,GET\n")
		})

		res := client.Download(context.Background(), "out file.csv")
		require.True(t, res.OK())
		defer res.Value.Body.Close()

		data, err := io.ReadAll(res.Value.Body)
		require.NoError(t, err)
		assert.Equal(t, "Time,Method\n1,GET\n", string(data))
		assert.Equal(t, "text/csv", res.Value.ContentType)
	})

	t.Run("missing file", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeBody(w, http.StatusNotFound, `{"detail":{"error":"File not found: x.csv"}}`)
		})

		res := client.Download(context.Background(), "x.csv")
		require.False(t, res.OK())
		assert.Equal(t, http.StatusNotFound, res.Failure.Status)
		assert.Equal(t, "File not found: x.csv", res.Failure.Message)
	})
}

func TestClient_DownloadURL(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://api:8000"})
	assert.Equal(t, "http://api:8000/api/download?file=out.csv", client.DownloadURL("out.csv"))
	assert.Equal(t, "http://api:8000/api/download?file=a+b%26c.csv", client.DownloadURL("a b&c.csv"))
}

func TestClient_IndexPassThrough(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/elk/test":
			writeBody(w, http.StatusOK, `{"connected":true}`)
		case r.URL.Path == "/api/elk/config" && r.Method == http.MethodGet:
			writeBody(w, http.StatusOK, `{"url":"http://es:9200","index":"xc-logs"}`)
		case r.URL.Path == "/api/elk/config" && r.Method == http.MethodPost:
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			body, _ := io.ReadAll(r.Body)
			writeBody(w, http.StatusOK, string(body))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	res := client.TestIndex(ctx)
	require.True(t, res.OK())
	assert.JSONEq(t, `{"connected":true}`, string(res.Value))

	res = client.IndexConfig(ctx)
	require.True(t, res.OK())
	var cfg map[string]string
	require.NoError(t, json.Unmarshal(res.Value, &cfg))
	assert.Equal(t, "xc-logs", cfg["index"])

	res = client.UpdateIndexConfig(ctx, []byte(`{"index":"other"}`))
	require.True(t, res.OK())
	assert.JSONEq(t, `{"index":"other"}`, string(res.Value))
}
