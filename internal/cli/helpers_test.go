package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/charliek/logdesk/internal/constants"
	"github.com/charliek/logdesk/internal/domain"
)

// fakeAPI is a stand-in for the log API that records request URLs
type fakeAPI struct {
	*httptest.Server

	mu       sync.Mutex
	requests []string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	api := &fakeAPI{}

	reply := func(w http.ResponseWriter, status int, body string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/namespaces/{tenant}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("tenant") == "broken" {
			reply(w, http.StatusInternalServerError, `{"detail":"db down"}`)
			return
		}
		reply(w, http.StatusOK, `{"namespaces":["prod","staging"]}`)
	})
	mux.HandleFunc("GET /api/loadbalancers/{tenant}/{namespace}", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, `{"loadbalancers":["lb1","lb2"]}`)
	})
	mux.HandleFunc("GET /api/diagnose/{tenant}/{namespace}/{lb}", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, `{"status":"working","recommendation":"all good","tests":[{"name":"Query Test","status":"pass","logs_found":42}]}`)
	})
	mux.HandleFunc("GET /api/logs", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, `{"file":"out.csv","log_type":"`+r.URL.Query().Get("log_type")+`","records":1000,"total_time_seconds":2.3}`)
	})
	mux.HandleFunc("POST /api/logs/elk", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, `{"documentsSent":500,"errors":5,"index":"xc-logs"}`)
	})
	mux.HandleFunc("GET /api/download", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("file") != "out.csv" {
			reply(w, http.StatusNotFound, `{"detail":{"error":"File not found"}}`)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, "Time,Method\n1,GET\n")
	})
	mux.HandleFunc("GET /api/elk/test", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, `{"connected":true}`)
	})
	mux.HandleFunc("POST /api/elk/config", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		reply(w, http.StatusOK, string(body))
	})

	api.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		api.requests = append(api.requests, r.Method+" "+r.URL.RequestURI())
		api.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(api.Close)
	return api
}

func (a *fakeAPI) seen() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.requests...)
}

// resetFlags restores every package-level flag to its default
func resetFlags() {
	configPath = ""
	apiURL = ""
	verbose = false
	jsonOutput = false
	defaults := queryFlags{logType: string(domain.LogTypeAccess), hours: constants.DefaultHours}
	logsQuery = defaults
	indexQuery = defaults
	logsSave = false
	outputDir = "."
	indexSetFile = ""
	serveHost = ""
	servePort = 0
	tuiLogFile = ""
	tuiOutDir = "."
}

// execute runs the root command with args in an empty working directory
// and returns what it wrote
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	resetFlags()
	t.Cleanup(resetFlags)

	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}
