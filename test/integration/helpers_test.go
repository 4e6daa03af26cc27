package integration

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const (
	testEmail    = "ops@example.com"
	testPassword = "s3cret"
)

// buildBinary builds the logdesk binary and returns its path
func buildBinary(t *testing.T) string {
	t.Helper()

	// Get project root (two directories up from test/integration)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	projectRoot := filepath.Join(wd, "..", "..")

	binary := filepath.Join(t.TempDir(), "logdesk")

	cmd := exec.Command("go", "build", "-o", binary, "./cmd/logdesk")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to build binary: %v\n%s", err, output)
	}

	return binary
}

// newLogAPI serves the subset of the log API the console calls
func newLogAPI(t *testing.T) *httptest.Server {
	t.Helper()

	reply := func(w http.ResponseWriter, status int, body string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/namespaces/{tenant}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("tenant") != "acme" {
			reply(w, http.StatusOK, `{"namespaces":[]}`)
			return
		}
		reply(w, http.StatusOK, `{"namespaces":["prod","staging"]}`)
	})
	mux.HandleFunc("GET /api/loadbalancers/{tenant}/{namespace}", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, `{"loadbalancers":["lb1"]}`)
	})
	mux.HandleFunc("GET /api/logs", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, `{"file":"out.csv","log_type":"`+r.URL.Query().Get("log_type")+`","records":1234,"total_time_seconds":1.5}`)
	})
	mux.HandleFunc("GET /api/download", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, "Time,Method\n1,GET\n")
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// freePort asks the kernel for an unused TCP port
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find a free port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// writeConfig writes a logdesk.yaml with one user into a temp dir
func writeConfig(t *testing.T, apiURL string, port int) string {
	t.Helper()
	body := fmt.Sprintf(`server:
  host: 127.0.0.1
  port: %d
remote:
  base_url: %s
users:
  %s: %s
log:
  level: debug
`, port, apiURL, testEmail, testPassword)

	path := filepath.Join(t.TempDir(), "logdesk.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// startLogdesk starts the logdesk binary with the given arguments
func startLogdesk(t *testing.T, binary string, args ...string) *exec.Cmd {
	t.Helper()

	cmd := exec.Command(binary, args...)
	cmd.Dir = t.TempDir()
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start logdesk: %v", err)
	}

	return cmd
}

// killLogdesk forcefully kills the logdesk process
func killLogdesk(cmd *exec.Cmd) {
	if cmd != nil && cmd.Process != nil {
		cmd.Process.Kill()
		cmd.Wait()
	}
}

// waitForConsole waits for the console health check to answer
func waitForConsole(t *testing.T, addr string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(addr + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("console did not become ready within %v", timeout)
}

// browser keeps cookies between requests and does not follow redirects
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newBrowser(t *testing.T, base string) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	requireNoError(t, err, "failed to create cookie jar")
	return &browser{
		t:    t,
		base: base,
		client: &http.Client{
			Jar:     jar,
			Timeout: 10 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (b *browser) do(method, path string, form url.Values) (int, string) {
	b.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, b.base+path, body)
	requireNoError(b.t, err, "failed to build request")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := b.client.Do(req)
	requireNoError(b.t, err, "request failed")
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	requireNoError(b.t, err, "failed to read body")
	return resp.StatusCode, string(data)
}

// requireNoError fails the test if err is not nil
func requireNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}

// skipShort skips the test if -short flag is provided
func skipShort(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}
