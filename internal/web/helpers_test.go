package web

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charliek/logdesk/internal/auth"
	"github.com/charliek/logdesk/internal/remote"
	"github.com/charliek/logdesk/internal/session"
)

const (
	testEmail    = "ops@example.com"
	testPassword = "s3cret"
)

// fakeAPI is a stand-in for the remote log API that counts calls per path
type fakeAPI struct {
	*httptest.Server

	mu    sync.Mutex
	calls map[string]int
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	api := &fakeAPI{calls: make(map[string]int)}

	json := func(w http.ResponseWriter, status int, body string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/namespaces/{tenant}", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("tenant") {
		case "acme":
			json(w, http.StatusOK, `{"namespaces":["prod","staging"]}`)
		case "broken":
			json(w, http.StatusInternalServerError, `{"detail":"db down"}`)
		default:
			json(w, http.StatusOK, `{"namespaces":[]}`)
		}
	})
	mux.HandleFunc("GET /api/loadbalancers/{tenant}/{namespace}", func(w http.ResponseWriter, r *http.Request) {
		json(w, http.StatusOK, `{"loadbalancers":["lb1","lb2"]}`)
	})
	mux.HandleFunc("GET /api/diagnose/{tenant}/{namespace}/{lb}", func(w http.ResponseWriter, r *http.Request) {
		json(w, http.StatusOK, `{"status":"working","recommendation":"all good","tests":[{"name":"Query Test","status":"pass","logs_found":42}]}`)
	})
	mux.HandleFunc("GET /api/logs", func(w http.ResponseWriter, r *http.Request) {
		json(w, http.StatusOK, `{"file":"out.csv","log_type":"`+r.URL.Query().Get("log_type")+`","records":1000,"total_time_seconds":2.3}`)
	})
	mux.HandleFunc("POST /api/logs/elk", func(w http.ResponseWriter, r *http.Request) {
		json(w, http.StatusOK, `{"documentsSent":500,"errors":5,"index":"xc-logs"}`)
	})
	mux.HandleFunc("GET /api/download", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("file") != "out.csv" {
			json(w, http.StatusNotFound, `{"detail":{"error":"File not found"}}`)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, "Time,Method\n1,GET\n")
	})
	mux.HandleFunc("GET /api/elk/test", func(w http.ResponseWriter, r *http.Request) {
		json(w, http.StatusOK, `{"connected":true,"cluster":"logs"}`)
	})
	mux.HandleFunc("GET /api/elk/config", func(w http.ResponseWriter, r *http.Request) {
		json(w, http.StatusOK, `{"index":"xc-logs"}`)
	})
	mux.HandleFunc("POST /api/elk/config", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json(w, http.StatusOK, string(body))
	})

	api.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		api.calls[r.Method+" "+r.URL.Path]++
		api.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(api.Close)
	return api
}

func (a *fakeAPI) count(key string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[key]
}

// testConsole is a running console in front of a fake API
type testConsole struct {
	*httptest.Server
	api      *fakeAPI
	registry *Registry
}

func newTestConsole(t *testing.T) *testConsole {
	t.Helper()
	api := newFakeAPI(t)

	client := remote.NewClient(remote.Config{BaseURL: api.URL})
	registry := NewRegistry(RegistryConfig{
		Storage:  session.NewMemoryStorage(),
		Provider: auth.NewCredentialStore(map[string]string{testEmail: testPassword}),
		Lister:   client,
		Gate:     session.DefaultGateConfig(),
	})
	handlers := NewHandlers(registry, client, HandlersConfig{})
	server := NewServer(ServerConfig{Addr: "127.0.0.1:0"}, handlers)

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return &testConsole{Server: ts, api: api, registry: registry}
}

// browser is an HTTP client with its own cookie jar. It does not follow
// redirects so tests can assert them.
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func (c *testConsole) newBrowser(t *testing.T) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{
		t:    t,
		base: c.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (b *browser) do(method, path string, form url.Values, fragment bool) (*http.Response, string) {
	b.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, b.base+path, body)
	require.NoError(b.t, err)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if fragment {
		req.Header.Set(fragmentHeader, "1")
	}

	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return resp, string(data)
}

func (b *browser) get(path string) (*http.Response, string) {
	return b.do(http.MethodGet, path, nil, false)
}

// event posts a form change the way the page script does
func (b *browser) event(path string, form url.Values) (*http.Response, string) {
	return b.do(http.MethodPost, path, form, true)
}

func (b *browser) login(email, password string) *http.Response {
	resp, _ := b.do(http.MethodPost, "/login", url.Values{"email": {email}, "password": {password}}, false)
	return resp
}
