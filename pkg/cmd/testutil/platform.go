package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pseudomuto/adpt/pkg/config"
	"github.com/pseudomuto/adpt/pkg/platform"
	"github.com/stretchr/testify/require"
)

const (
	// APIKey is the key the fake platform accepts.
	APIKey = "test-key"

	// UseCase is the default use case of Config().
	UseCase = "test-usecase"
)

type (
	// Resolver answers a GraphQL operation. The returned value is encoded as the
	// response's data, a returned error as its errors.
	Resolver func(vars map[string]any) (any, error)

	// UploadedFile is a file received through a GraphQL multipart request.
	UploadedFile struct {
		Operation   string
		Filename    string
		ContentType string
		Size        int
	}

	// Session is a chunked upload session opened on the fake platform.
	Session struct {
		ID          string
		ContentType string
		TotalParts  uint64
		Parts       map[uint64]int
		Aborted     bool
	}

	// PlatformFixture is an in-process stand-in for the Adaptive platform. It
	// serves the chunked upload routes and GraphQL operations registered with
	// Handle.
	PlatformFixture struct {
		URL string

		t          *testing.T
		mu         sync.Mutex
		resolvers  map[string]Resolver
		operations []string
		files      []UploadedFile
		sessions   []*Session
		failParts  map[uint64]int
	}
)

// TestPlatform starts a fake platform that is shut down with the test.
func TestPlatform(t *testing.T) *PlatformFixture {
	t.Helper()

	p := &PlatformFixture{
		t:         t,
		resolvers: make(map[string]Resolver),
		failParts: make(map[uint64]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/graphql", p.graphql)
	mux.HandleFunc("POST /api/v1/upload/init", p.initUpload)
	mux.HandleFunc("POST /api/v1/upload/part", p.uploadPart)
	mux.HandleFunc("DELETE /api/v1/upload/abort", p.abortUpload)

	srv := httptest.NewServer(p.authorize(mux))
	t.Cleanup(srv.Close)

	p.URL = srv.URL + "/api"
	return p
}

// Handle registers the resolver for a GraphQL operation name.
func (p *PlatformFixture) Handle(operation string, fn Resolver) *PlatformFixture {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.resolvers[operation] = fn
	return p
}

// Respond registers a resolver that always returns data.
func (p *PlatformFixture) Respond(operation string, data any) *PlatformFixture {
	return p.Handle(operation, func(map[string]any) (any, error) { return data, nil })
}

// FailPart makes uploads of the given part number fail with status.
func (p *PlatformFixture) FailPart(partNumber uint64, status int) *PlatformFixture {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.failParts[partNumber] = status
	return p
}

// Config returns a configuration pointing at the fake platform, saved under a
// temporary directory.
func (p *PlatformFixture) Config() *config.Config {
	return &config.Config{
		BaseURL:        p.URL,
		APIKey:         APIKey,
		DefaultUseCase: UseCase,
		Path:           filepath.Join(p.t.TempDir(), "config.yaml"),
	}
}

// Client returns a platform client for the fake platform.
func (p *PlatformFixture) Client() *platform.Client {
	p.t.Helper()

	client, err := platform.New(p.URL, APIKey)
	require.NoError(p.t, err)
	return client
}

// Operations returns the GraphQL operation names received so far, in order.
func (p *PlatformFixture) Operations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]string(nil), p.operations...)
}

// Files returns the files received through multipart requests.
func (p *PlatformFixture) Files() []UploadedFile {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]UploadedFile(nil), p.files...)
}

// Sessions returns the chunked upload sessions opened so far.
func (p *PlatformFixture) Sessions() []Session {
	p.mu.Lock()
	defer p.mu.Unlock()

	sessions := make([]Session, 0, len(p.sessions))
	for _, s := range p.sessions {
		c := *s
		c.Parts = make(map[uint64]int, len(s.Parts))
		for k, v := range s.Parts {
			c.Parts[k] = v
		}
		sessions = append(sessions, c)
	}

	return sessions
}

func (p *PlatformFixture) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+APIKey {
			http.Error(w, "invalid API key", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (p *PlatformFixture) graphql(w http.ResponseWriter, r *http.Request) {
	var (
		req struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		file *UploadedFile
	)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := json.Unmarshal([]byte(r.FormValue("operations")), &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		f, header, err := r.FormFile("0")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer func() { _ = f.Close() }()

		data, _ := io.ReadAll(f)
		file = &UploadedFile{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        len(data),
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	name := operationName(req.Query)

	p.mu.Lock()
	p.operations = append(p.operations, name)
	if file != nil {
		file.Operation = name
		p.files = append(p.files, *file)
	}
	fn, ok := p.resolvers[name]
	p.mu.Unlock()

	resp := map[string]any{}
	switch {
	case !ok:
		resp["errors"] = []map[string]any{{"message": "unknown operation " + name}}
	default:
		data, err := fn(req.Variables)
		if err != nil {
			resp["errors"] = []map[string]any{{"message": err.Error()}}
		} else {
			resp["data"] = data
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (p *PlatformFixture) initUpload(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ContentType     string `json:"content_type"`
		TotalPartsCount uint64 `json:"total_parts_count"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	s := &Session{
		ID:          fmt.Sprintf("session-%d", len(p.sessions)+1),
		ContentType: req.ContentType,
		TotalParts:  req.TotalPartsCount,
		Parts:       make(map[uint64]int),
	}
	p.sessions = append(p.sessions, s)
	p.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"session_id": s.ID})
}

func (p *PlatformFixture) uploadPart(w http.ResponseWriter, r *http.Request) {
	var partNumber uint64
	if _, err := fmt.Sscan(r.URL.Query().Get("part_number"), &partNumber); err != nil {
		http.Error(w, "invalid part_number", http.StatusBadRequest)
		return
	}

	n, err := io.Copy(io.Discard, r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if status, ok := p.failParts[partNumber]; ok {
		http.Error(w, "part rejected", status)
		return
	}

	s := p.session(r.URL.Query().Get("session_id"))
	if s == nil {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	s.Parts[partNumber] = int(n)
	w.WriteHeader(http.StatusOK)
}

func (p *PlatformFixture) abortUpload(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.session(req.SessionID)
	if s == nil {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	s.Aborted = true
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, "{}")
}

func (p *PlatformFixture) session(id string) *Session {
	for _, s := range p.sessions {
		if s.ID == id {
			return s
		}
	}

	return nil
}

// operationName extracts the name from "query Name(...)" or "mutation Name {".
func operationName(query string) string {
	fields := strings.Fields(query)
	if len(fields) < 2 {
		return ""
	}

	name, _, _ := strings.Cut(fields[1], "(")
	return name
}
