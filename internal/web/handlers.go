package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/charliek/logdesk/internal/constants"
	"github.com/charliek/logdesk/internal/domain"
	"github.com/charliek/logdesk/internal/present"
	"github.com/charliek/logdesk/internal/remote"
	"github.com/charliek/logdesk/internal/selector"
)

// fragmentHeader is set by the page script on requests that want an HTML
// fragment instead of a redirect back to the page
const fragmentHeader = "X-Logdesk-Fragment"

// maxConfigBody caps the search index configuration accepted from a browser
const maxConfigBody = 1 << 20

// HandlersConfig holds handler settings
type HandlersConfig struct {
	PublicDownload bool // link exports straight to the API instead of /download
	CookieSecure   bool
	Logger         *slog.Logger
}

// Handlers contains all HTTP handlers
type Handlers struct {
	registry       *Registry
	client         *remote.Client
	publicDownload bool
	cookieSecure   bool
	logger         *slog.Logger
}

// NewHandlers creates new HTTP handlers
func NewHandlers(registry *Registry, client *remote.Client, cfg HandlersConfig) *Handlers {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		registry:       registry,
		client:         client,
		publicDownload: cfg.PublicDownload,
		cookieSecure:   cfg.CookieSecure,
		logger:         logger,
	}
}

type workspaceKey struct{}

// withWorkspace attaches the client's workspace to the request, issuing a
// client cookie on first contact
func (h *Handlers) withWorkspace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(constants.ClientCookie); err == nil {
			id = c.Value
		}

		ws := h.registry.Lookup(id)
		if ws.ID != id {
			h.setClientCookie(w, ws.ID)
		}

		ctx := context.WithValue(r.Context(), workspaceKey{}, ws)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handlers) setClientCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     constants.ClientCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func workspaceFrom(ctx context.Context) *Workspace {
	ws, _ := ctx.Value(workspaceKey{}).(*Workspace)
	return ws
}

// requireSession sends clients without a session to the login page
func (h *Handlers) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws := workspaceFrom(r.Context())
		if ws == nil || ws.Gate.CheckSession(r.Context()) == nil {
			if wantsFragment(r) {
				w.Header().Set("X-Logdesk-Redirect", "/login")
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func wantsFragment(r *http.Request) bool {
	return r.Header.Get(fragmentHeader) != ""
}

// Index handles GET / and shows the login or the main screen
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())
	sess := ws.Gate.CheckSession(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	h.render(w, http.StatusOK, "main.html", pageData{
		User:   sess.Email,
		Form:   newFormView(ws.Selector.Snapshot()),
		Result: currentResult(ws),
	})
}

// LoginPage handles GET /login
func (h *Handlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())
	if ws.Gate.CurrentScreen(r.Context()) == domain.ScreenMain {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, http.StatusOK, "login.html", pageData{})
}

// Login handles POST /login. A successful login moves the client to a new
// workspace id; the previous workspace and its session record are dropped.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())
	if err := r.ParseForm(); err != nil {
		h.render(w, http.StatusBadRequest, "login.html", pageData{Error: "Invalid form submission"})
		return
	}
	email := r.PostForm.Get("email")

	fresh := h.registry.Lookup("")
	sess, err := fresh.Gate.Login(r.Context(), email, r.PostForm.Get("password"))
	if err != nil {
		h.registry.Remove(r.Context(), fresh.ID)
		if errors.Is(err, domain.ErrInvalidCredentials) {
			h.logger.Info("login rejected", "email", email)
			h.render(w, http.StatusUnauthorized, "login.html", pageData{Email: email, Error: "Invalid email or password"})
			return
		}
		h.logger.Error("login failed", "error", err)
		h.render(w, http.StatusInternalServerError, "login.html", pageData{Email: email, Error: "Login is unavailable, try again later"})
		return
	}

	h.logger.Info("login", "email", sess.Email)
	h.registry.Remove(r.Context(), ws.ID)
	h.setClientCookie(w, fresh.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles POST /logout
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())
	if err := ws.Gate.Logout(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	ws.reset()
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// TenantChanged handles POST /ui/tenant
func (h *Handlers) TenantChanged(w http.ResponseWriter, r *http.Request) {
	h.formEvent(w, r, func(ctx context.Context, ws *Workspace, form url.Values) {
		ws.Selector.OnTenantChange(ctx, form.Get("tenant"))
	})
}

// NamespaceChanged handles POST /ui/namespace
func (h *Handlers) NamespaceChanged(w http.ResponseWriter, r *http.Request) {
	h.formEvent(w, r, func(ctx context.Context, ws *Workspace, form url.Values) {
		ws.Selector.OnNamespaceChange(ctx, form.Get("namespace"))
	})
}

// LoadBalancerChanged handles POST /ui/loadbalancer
func (h *Handlers) LoadBalancerChanged(w http.ResponseWriter, r *http.Request) {
	h.formEvent(w, r, func(ctx context.Context, ws *Workspace, form url.Values) {
		ws.Selector.OnLoadBalancerChange(form.Get("loadbalancer"))
	})
}

// LogTypeChanged handles POST /ui/logtype
func (h *Handlers) LogTypeChanged(w http.ResponseWriter, r *http.Request) {
	h.formEvent(w, r, func(ctx context.Context, ws *Workspace, form url.Values) {
		logType, err := domain.ParseLogType(form.Get("log_type"))
		if err != nil {
			ws.Region.Show(present.Validation(err))
			return
		}
		ws.Selector.OnLogTypeChange(ctx, logType)
	})
}

// HoursChanged handles POST /ui/hours
func (h *Handlers) HoursChanged(w http.ResponseWriter, r *http.Request) {
	h.formEvent(w, r, func(ctx context.Context, ws *Workspace, form url.Values) {
		if err := applyHours(ws.Selector, form); err != nil {
			ws.Region.Show(present.Validation(err))
		}
	})
}

// Reset handles POST /ui/reset
func (h *Handlers) Reset(w http.ResponseWriter, r *http.Request) {
	h.formEvent(w, r, func(ctx context.Context, ws *Workspace, form url.Values) {
		ws.reset()
	})
}

// Diagnose handles POST /ui/diagnose
func (h *Handlers) Diagnose(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(ctx context.Context, ws *Workspace) present.Message {
		tenant, namespace, lb, err := ws.Selector.DiagnoseTarget()
		if err != nil {
			return present.Validation(err)
		}

		ws.Region.Show(present.Pending("Diagnosing " + lb + "..."))
		res := h.client.Diagnose(ctx, tenant, namespace, lb)
		if !res.OK() {
			return present.Failure(present.OpDiagnose, res.Failure)
		}
		return present.Diagnosis(lb, res.Value)
	})
}

// FetchLogs handles POST /ui/logs
func (h *Handlers) FetchLogs(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(ctx context.Context, ws *Workspace) present.Message {
		q, err := ws.Selector.Query()
		if err != nil {
			return present.Validation(err)
		}

		ws.Region.Show(present.Pending("Fetching logs, please wait..."))
		res := h.client.FetchLogs(ctx, q)
		if !res.OK() {
			return present.Failure(present.OpFetchLogs, res.Failure)
		}
		return present.LogsReady(res.Value, h.downloadHref(res.Value.File))
	})
}

// SendToIndex handles POST /ui/index
func (h *Handlers) SendToIndex(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(ctx context.Context, ws *Workspace) present.Message {
		q, err := ws.Selector.IndexQuery()
		if err != nil {
			return present.Validation(err)
		}

		ws.Region.Show(present.Pending("Sending logs to the search index, please wait..."))
		res := h.client.SendToIndex(ctx, q)
		if !res.OK() {
			return present.Failure(present.OpSendToIndex, res.Failure)
		}
		return present.IndexSent(res.Value)
	})
}

// TestIndex handles GET /ui/index/test
func (h *Handlers) TestIndex(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())

	res := h.client.TestIndex(r.Context())
	if res.OK() {
		ws.Region.Show(present.Message{
			Severity: present.SeveritySuccess,
			Title:    "Search index reachable",
			Detail:   indentJSON(res.Value),
		})
	} else {
		ws.Region.Show(present.Failure(present.OpIndexTest, res.Failure))
	}
	h.respondResult(w, r, ws)
}

// IndexConfig handles GET /ui/index/config
func (h *Handlers) IndexConfig(w http.ResponseWriter, r *http.Request) {
	res := h.client.IndexConfig(r.Context())
	if !res.OK() {
		writeFailure(w, res.Failure)
		return
	}
	writeRawJSON(w, http.StatusOK, res.Value)
}

// UpdateIndexConfig handles POST /ui/index/config
func (h *Handlers) UpdateIndexConfig(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxConfigBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "reading request body", Code: "INVALID_BODY"})
		return
	}
	if !json.Valid(body) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "request body must be JSON", Code: "INVALID_BODY"})
		return
	}

	res := h.client.UpdateIndexConfig(r.Context(), body)
	if !res.OK() {
		writeFailure(w, res.Failure)
		return
	}
	writeRawJSON(w, http.StatusOK, res.Value)
}

// Download handles GET /download?file= and streams the file from the API
func (h *Handlers) Download(w http.ResponseWriter, r *http.Request) {
	file := r.URL.Query().Get("file")
	if file == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "file is required", Code: domain.ErrCodeMissingField})
		return
	}

	res := h.client.Download(r.Context(), file)
	if !res.OK() {
		h.logger.Warn("download failed", "file", file, "error", res.Failure)
		writeFailure(w, res.Failure)
		return
	}
	dl := res.Value
	defer dl.Body.Close()

	w.Header().Set("Content-Type", dl.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+safeFilename(dl.Filename)+`"`)
	if dl.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(dl.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, dl.Body); err != nil {
		h.logger.Warn("streaming download", "file", file, "error", err)
	}
}

// formEvent applies one form change and answers with the form panel and
// the result region
func (h *Handlers) formEvent(w http.ResponseWriter, r *http.Request, apply func(context.Context, *Workspace, url.Values)) {
	ws := workspaceFrom(r.Context())
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid form", Code: "INVALID_BODY"})
		return
	}

	apply(r.Context(), ws, r.PostForm)
	h.respondResult(w, r, ws)
}

// action runs one remote action after bringing the selector in line with
// the submitted form, then answers with the form panel and the result region
func (h *Handlers) action(w http.ResponseWriter, r *http.Request, run func(context.Context, *Workspace) present.Message) {
	ws := workspaceFrom(r.Context())
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid form", Code: "INVALID_BODY"})
		return
	}

	if err := syncForm(r.Context(), ws.Selector, r.PostForm); err != nil {
		ws.Region.Show(present.Validation(err))
	} else {
		ws.Region.Show(run(r.Context(), ws))
	}
	h.respondResult(w, r, ws)
}

// respondResult redirects plain form posts back to the page and answers
// script requests with the form panel and the result region
func (h *Handlers) respondResult(w http.ResponseWriter, r *http.Request, ws *Workspace) {
	if !wantsFragment(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, http.StatusOK, "panel.html", pageData{
		Form:   newFormView(ws.Selector.Snapshot()),
		Result: currentResult(ws),
	})
}

func (h *Handlers) downloadHref(file string) string {
	if h.publicDownload {
		return h.client.DownloadURL(file)
	}
	return "/download?" + url.Values{"file": {file}}.Encode()
}

// syncForm applies the submitted form to the selector. It lets the page work
// without its script: only values that differ from the current state are
// applied, and options must come from the loaded lists.
func syncForm(ctx context.Context, sel *selector.Selector, form url.Values) error {
	if len(form) == 0 {
		return nil
	}

	if _, ok := form["tenant"]; ok {
		sel.OnTenantChange(ctx, form.Get("tenant"))
	}
	if raw, ok := form["log_type"]; ok {
		logType, err := domain.ParseLogType(raw[0])
		if err != nil {
			return err
		}
		if logType != sel.Snapshot().LogType {
			sel.OnLogTypeChange(ctx, logType)
		}
	}

	st := sel.Snapshot()
	if ns := form.Get("namespace"); ns != "" && ns != st.Namespace.Value && slices.Contains(st.Namespace.Options, ns) {
		sel.OnNamespaceChange(ctx, ns)
	}

	st = sel.Snapshot()
	if lb := form.Get("loadbalancer"); lb != "" && lb != st.LoadBalancer.Value && slices.Contains(st.LoadBalancer.Options, lb) {
		sel.OnLoadBalancerChange(lb)
	}

	if form.Has("hours") || form.Has("custom_hours") {
		return applyHours(sel, form)
	}
	return nil
}

// applyHours reads the preset and the optional custom value. A custom value
// wins over the preset.
func applyHours(sel *selector.Selector, form url.Values) error {
	if raw := strings.TrimSpace(form.Get("hours")); raw != "" {
		preset, err := strconv.Atoi(raw)
		if err != nil {
			return domain.ErrInvalidHours
		}
		if err := sel.SetHours(preset); err != nil {
			return err
		}
	}

	raw := strings.TrimSpace(form.Get("custom_hours"))
	if raw == "" {
		return sel.SetCustomHours(0)
	}
	custom, err := strconv.Atoi(raw)
	if err != nil {
		return domain.ErrInvalidHours
	}
	return sel.SetCustomHours(custom)
}

func indentJSON(raw []byte) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(out)
}

func safeFilename(file string) string {
	name := path.Base(strings.ReplaceAll(file, `\`, "/"))
	return strings.Map(func(r rune) rune {
		if r == '"' || r < 0x20 {
			return '_'
		}
		return r
	}, name)
}
