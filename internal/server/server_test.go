package server

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/matzehuels/erdraw/pkg/buildinfo"
	"github.com/matzehuels/erdraw/pkg/editor"
	"github.com/matzehuels/erdraw/pkg/erd"
	"github.com/matzehuels/erdraw/pkg/errors"
	"github.com/matzehuels/erdraw/pkg/layoutfile"
)

func testDiagram() *erd.Diagram {
	users := erd.Table{
		ID:      erd.NewTableID("public", "users"),
		Columns: []erd.Column{{Name: "id", TypeRaw: "int", IsPK: true}},
	}
	users.SetPosition(50, 50)
	posts := erd.Table{
		ID:      erd.NewTableID("public", "posts"),
		Columns: []erd.Column{{Name: "user_id", TypeRaw: "int", IsNullable: true}},
	}
	posts.SetPosition(300, 50)
	return &erd.Diagram{
		Tables: []erd.Table{users, posts},
		Relationships: []erd.Relationship{{
			Type: erd.ManyToOne,
			From: erd.EndPoint{TableID: posts.ID, ColumnNames: []string{"user_id"}},
			To:   erd.EndPoint{TableID: users.ID, ColumnNames: []string{"id"}},
		}},
	}
}

type harness struct {
	srv    *Server
	store  *layoutfile.MemoryStore
	source string
}

func newHarness(t *testing.T) harness {
	t.Helper()
	logger := log.New(io.Discard)
	hub := NewHub(logger)
	h := harness{
		store:  layoutfile.NewMemoryStore(),
		source: filepath.Join(t.TempDir(), "schema.dbml"),
	}
	sess := editor.New(testDiagram(),
		editor.WithLogger(logger),
		editor.WithStore(h.store),
		editor.WithNotifier(hub),
		editor.WithSource(h.source),
	)
	h.srv = New(sess, WithLogger(logger), WithHub(hub))
	return h
}

func (h harness) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var e errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return e
}

func TestDiagram(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/api/diagram", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var d erd.Diagram
	if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(testDiagram().Positions(), d.Positions()); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/api/version", "")
	var got buildinfo.Info
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got != buildinfo.Get() {
		t.Errorf("version = %+v, want %+v", got, buildinfo.Get())
	}
}

func TestScene(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/scene.svg", "")
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "image/svg+xml") {
		t.Fatalf("svg status = %d, type %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "<svg") || !strings.Contains(rec.Body.String(), "users") {
		t.Errorf("svg body missing content:\n%s", rec.Body)
	}

	rec = h.do(t, http.MethodGet, "/api/scene.json", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("json status = %d", rec.Code)
	}
	if !json.Valid(rec.Body.Bytes()) || !strings.Contains(rec.Body.String(), `"public.posts"`) {
		t.Errorf("json body = %s", rec.Body)
	}
}

func TestIPC_TableMoved(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/ipc", `{"type":"table_moved","table_id":"public.users","x":150,"y":250}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	lf, err := h.store.Load(context.Background(), h.source)
	if err != nil {
		t.Fatalf("layout not saved: %v", err)
	}
	want := map[string]erd.Point{
		"public.users": {X: 150, Y: 250},
		"public.posts": {X: 300, Y: 50},
	}
	if diff := cmp.Diff(want, lf.Tables); diff != "" {
		t.Errorf("saved tables mismatch (-want +got):\n%s", diff)
	}
}

func TestIPC_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   errors.Code
	}{
		{"malformed", `{"type":`, http.StatusBadRequest, errors.ErrCodeInvalidMessage},
		{"unknown type", `{"type":"drop_table"}`, http.StatusBadRequest, errors.ErrCodeInvalidMessage},
		{"missing field", `{"type":"table_moved","table_id":"public.users"}`, http.StatusBadRequest, errors.ErrCodeInvalidMessage},
		{"bad data url", `{"type":"export_png","data_url":"data:text/plain,hi"}`, http.StatusBadRequest, errors.ErrCodeInvalidMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			rec := h.do(t, http.MethodPost, "/api/ipc", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body)
			}
			if e := decodeError(t, rec); e.Code != tt.code {
				t.Errorf("code = %q, want %q", e.Code, tt.code)
			}
		})
	}
}

func TestIPC_ExportPNG(t *testing.T) {
	h := newHarness(t)
	png := []byte("\x89PNG\r\n\x1a\n")
	body := `{"type":"export_png","data_url":"` + editor.PNGDataURLPrefix + base64.StdEncoding.EncodeToString(png) + `"}`

	rec := h.do(t, http.MethodPost, "/api/ipc", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp pathResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if want := editor.PNGPath(h.source); resp.Path != want {
		t.Errorf("path = %q, want %q", resp.Path, want)
	}
	if data, err := os.ReadFile(resp.Path); err != nil || string(data) != string(png) {
		t.Errorf("exported file = %q, %v", data, err)
	}
}

func TestMoveTable(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPut, "/api/tables/public.posts/position", `{"x":420,"y":80}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	lf, err := h.store.Load(context.Background(), h.source)
	if err != nil {
		t.Fatal(err)
	}
	if p := lf.Tables["public.posts"]; p != (erd.Point{X: 420, Y: 80}) {
		t.Errorf("saved position = %v", p)
	}

	tests := []struct {
		name, path, body string
		status           int
	}{
		{"unknown table", "/api/tables/public.ghost/position", `{"x":1,"y":1}`, http.StatusNotFound},
		{"bad key", "/api/tables/users/position", `{"x":1,"y":1}`, http.StatusBadRequest},
		{"bad body", "/api/tables/public.users/position", `{"x":"one"}`, http.StatusBadRequest},
		{"unknown field", "/api/tables/public.users/position", `{"x":1,"y":1,"z":1}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := h.do(t, http.MethodPut, tt.path, tt.body); rec.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body)
			}
		})
	}
}

func TestReset(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodPost, "/api/reset", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var sl editor.SaveLayout
	if err := json.Unmarshal(rec.Body.Bytes(), &sl); err != nil {
		t.Fatal(err)
	}
	if len(sl.Tables) != 2 {
		t.Errorf("tables = %v, want 2 entries", sl.Tables)
	}
	lf, err := h.store.Load(context.Background(), h.source)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(sl.Tables, lf.Tables); diff != "" {
		t.Errorf("saved tables mismatch (-want +got):\n%s", diff)
	}
}

func TestViewport(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/viewport", `{"width":800,"height":600}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var v editor.Viewport
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatal(err)
	}
	if v.Scale <= 0 || v.Scale > editor.MaxFitScale {
		t.Errorf("scale = %v", v.Scale)
	}

	if rec := h.do(t, http.MethodPost, "/api/viewport", `{"width":0,"height":600}`); rec.Code != http.StatusBadRequest {
		t.Errorf("zero width status = %d, want 400", rec.Code)
	}
}

func TestRequestID(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/diagram", "")
	if _, err := uuid.Parse(rec.Header().Get(RequestIDHeader)); err != nil {
		t.Errorf("generated request id %q is not a UUID", rec.Header().Get(RequestIDHeader))
	}

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/diagram", nil)
	req.Header.Set(RequestIDHeader, id)
	rec = httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != id {
		t.Errorf("request id = %q, want client id %q", got, id)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/diagram", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got == "not-a-uuid" {
		t.Error("invalid client request id should be replaced")
	}
}

func TestEvents(t *testing.T) {
	h := newHarness(t)
	ts := httptest.NewServer(h.srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	lines := bufio.NewScanner(resp.Body)
	if !lines.Scan() || lines.Text() != ": connected" {
		t.Fatalf("first line = %q", lines.Text())
	}

	move, err := http.Post(ts.URL+"/api/ipc", "application/json",
		strings.NewReader(`{"type":"table_moved","table_id":"public.users","x":1,"y":2}`))
	if err != nil {
		t.Fatal(err)
	}
	move.Body.Close()

	var got []string
	for lines.Scan() {
		if lines.Text() == "" {
			if len(got) > 0 {
				break
			}
			continue
		}
		got = append(got, lines.Text())
	}
	want := []string{
		"event: table_moved",
		`data: {"type":"table_moved","table_id":"public.users","x":1,"y":2}`,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("event mismatch (-want +got):\n%s", diff)
	}
}

func TestHub(t *testing.T) {
	hub := NewHub(log.New(io.Discard))
	_, ch, cancel := hub.Subscribe()
	if hub.Subscribers() != 1 {
		t.Fatalf("Subscribers() = %d", hub.Subscribers())
	}

	if err := hub.Notify(context.Background(), editor.SaveLayout{Tables: map[string]erd.Point{}}); err != nil {
		t.Fatal(err)
	}
	ev := <-ch
	if ev.Type != editor.TypeSaveLayout || string(ev.Data) != `{"type":"save_layout","tables":{}}` {
		t.Errorf("event = %s %s", ev.Type, ev.Data)
	}

	// A full buffer drops events instead of blocking.
	for i := 0; i < subscriberBuffer+5; i++ {
		_ = hub.Notify(context.Background(), editor.TableMoved{TableID: "public.users"})
	}
	if len(ch) != subscriberBuffer {
		t.Errorf("buffered = %d, want %d", len(ch), subscriberBuffer)
	}

	cancel()
	cancel()
	if hub.Subscribers() != 0 {
		t.Errorf("Subscribers() after cancel = %d", hub.Subscribers())
	}
}
