package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/starford/laguz/internal/api"
	"github.com/starford/laguz/internal/checksum"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/prefs"
	"github.com/starford/laguz/internal/testutil"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return api.NewRouter(testutil.TestService(t), false, "", nil)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func createFolder(t *testing.T, h http.Handler, name, color string) models.Folder {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/folders", api.CreateFolderRequest{Name: name, Color: color})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create folder: %d %s", rec.Code, rec.Body.String())
	}
	return decode[models.Folder](t, rec)
}

func createNote(t *testing.T, h http.Handler, folderID, title string) models.Note {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/folders/"+folderID+"/notes", api.CreateNoteRequest{Title: title})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create note: %d %s", rec.Code, rec.Body.String())
	}
	return decode[models.Note](t, rec)
}

func TestFolderLifecycle(t *testing.T) {
	h := newTestRouter(t)

	f := createFolder(t, h, "Work", "#45b7d1")
	if f.Name != "Work" || f.Color != "#45b7d1" || f.ID == "" {
		t.Errorf("folder = %+v", f)
	}

	name := "Projects"
	rec := doJSON(t, h, http.MethodPatch, "/folders/"+f.ID, api.UpdateFolderRequest{Name: &name})
	if rec.Code != http.StatusOK {
		t.Fatalf("rename: %d %s", rec.Code, rec.Body.String())
	}
	if got := decode[models.Folder](t, rec); got.Name != "Projects" || got.Color != "#45b7d1" {
		t.Errorf("renamed = %+v", got)
	}

	rec = doJSON(t, h, http.MethodGet, "/folders", nil)
	list := decode[api.FolderListResponse](t, rec)
	if len(list.Folders) != 1 {
		t.Fatalf("folders = %+v", list.Folders)
	}

	rec = doJSON(t, h, http.MethodDelete, "/folders/"+f.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/folders", nil)
	if list := decode[api.FolderListResponse](t, rec); len(list.Folders) != 0 {
		t.Errorf("folders after delete = %+v", list.Folders)
	}
}

func TestCreateFolderValidation(t *testing.T) {
	h := newTestRouter(t)
	rec := doJSON(t, h, http.MethodPost, "/folders", api.CreateFolderRequest{Name: ""})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty name: %d", rec.Code)
	}
	req := httptest.NewRequest(http.MethodPost, "/folders", strings.NewReader("{broken"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed JSON: %d", rec.Code)
	}
}

func TestNoteLifecycle(t *testing.T) {
	h := newTestRouter(t)
	f := createFolder(t, h, "Work", "blue")
	n := createNote(t, h, f.ID, "Todo")

	body := "Buy milk\nCall Bob"
	rec := doJSON(t, h, http.MethodPatch, "/notes/"+n.ID, api.UpdateNoteRequest{Body: &body})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: %d %s", rec.Code, rec.Body.String())
	}
	updated := decode[models.Note](t, rec)
	if updated.Body != body || updated.Title != "Todo" {
		t.Errorf("updated = %+v", updated)
	}

	rec = doJSON(t, h, http.MethodGet, "/notes/"+n.ID, nil)
	if got := decode[models.Note](t, rec); got.Body != body {
		t.Errorf("get = %+v", got)
	}

	rec = doJSON(t, h, http.MethodDelete, "/notes/"+n.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/notes/"+n.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: %d", rec.Code)
	}
}

func TestUnknownIDsReturn404(t *testing.T) {
	h := newTestRouter(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/notes/nope"},
		{http.MethodDelete, "/notes/nope"},
		{http.MethodDelete, "/folders/nope"},
		{http.MethodGet, "/folders/nope/notes"},
		{http.MethodGet, "/notes/nope/export"},
	} {
		rec := doJSON(t, h, tc.method, tc.path, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s: %d", tc.method, tc.path, rec.Code)
		}
	}
}

func TestUpdateNoteIfMatch(t *testing.T) {
	h := newTestRouter(t)
	f := createFolder(t, h, "Work", "blue")
	n := createNote(t, h, f.ID, "Todo")

	body := "first"
	doJSON(t, h, http.MethodPatch, "/notes/"+n.ID, api.UpdateNoteRequest{Body: &body})

	stale := "stale write"
	payload, _ := json.Marshal(api.UpdateNoteRequest{Body: &stale})
	req := httptest.NewRequest(http.MethodPatch, "/notes/"+n.ID, bytes.NewReader(payload))
	req.Header.Set("If-Match", `"`+checksum.Sum([]byte("other content"))+`"`)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("stale If-Match: %d %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPatch, "/notes/"+n.ID, bytes.NewReader(payload))
	req.Header.Set("If-Match", checksum.Sum([]byte(body)))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("matching If-Match: %d %s", rec.Code, rec.Body.String())
	}
}

func TestMoveNote(t *testing.T) {
	h := newTestRouter(t)
	src := createFolder(t, h, "A", "red")
	dst := createFolder(t, h, "B", "green")
	n := createNote(t, h, src.ID, "wandering")

	rec := doJSON(t, h, http.MethodPost, "/notes/"+n.ID+"/move", api.MoveNoteRequest{FolderID: dst.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("move: %d %s", rec.Code, rec.Body.String())
	}
	if got := decode[models.Note](t, rec); got.FolderID != dst.ID {
		t.Errorf("FolderID = %s", got.FolderID)
	}

	rec = doJSON(t, h, http.MethodPost, "/notes/"+n.ID+"/move", api.MoveNoteRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing folder_id: %d", rec.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	h := newTestRouter(t)
	work := createFolder(t, h, "Work", "blue")
	home := createFolder(t, h, "Home", "green")
	createNote(t, h, work.ID, "project kickoff")
	createNote(t, h, home.ID, "garden project")

	rec := doJSON(t, h, http.MethodGet, "/search?q=PROJECT", nil)
	if got := decode[api.SearchResponse](t, rec); len(got.Results) != 2 {
		t.Errorf("global: %+v", got.Results)
	}
	rec = doJSON(t, h, http.MethodGet, "/search?q=project&folder="+home.ID, nil)
	if got := decode[api.SearchResponse](t, rec); len(got.Results) != 1 {
		t.Errorf("scoped: %+v", got.Results)
	}
	rec = doJSON(t, h, http.MethodGet, "/search?q=", nil)
	if got := decode[api.SearchResponse](t, rec); len(got.Results) != 0 {
		t.Errorf("empty query: %+v", got.Results)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	h := newTestRouter(t)
	f := createFolder(t, h, "Inbox", "grey")
	n := createNote(t, h, f.ID, "Meeting notes")
	body := "agenda:\n- budget"
	doJSON(t, h, http.MethodPatch, "/notes/"+n.ID, api.UpdateNoteRequest{Body: &body})

	rec := doJSON(t, h, http.MethodGet, "/notes/"+n.ID+"/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "Meeting notes.txt") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	exported := rec.Body.String()
	if exported != "Meeting notes\n\nagenda:\n- budget" {
		t.Fatalf("export body = %q", exported)
	}

	req := httptest.NewRequest(http.MethodPost, "/folders/"+f.ID+"/import", strings.NewReader(exported))
	req.Header.Set("Content-Type", "text/plain")
	recImp := httptest.NewRecorder()
	h.ServeHTTP(recImp, req)
	if recImp.Code != http.StatusCreated {
		t.Fatalf("import: %d %s", recImp.Code, recImp.Body.String())
	}
	imported := decode[models.Note](t, recImp)
	if imported.Title != "Meeting notes" || imported.Body != body {
		t.Errorf("imported = %+v", imported)
	}
}

func TestImportRejectsBinary(t *testing.T) {
	h := newTestRouter(t)
	f := createFolder(t, h, "Inbox", "grey")

	req := httptest.NewRequest(http.MethodPost, "/folders/"+f.ID+"/import", bytes.NewReader([]byte{0xff, 0xfe, 0x00}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("binary import: %d", rec.Code)
	}
}

func TestPreferencesEndpoint(t *testing.T) {
	h := newTestRouter(t)

	rec := doJSON(t, h, http.MethodGet, "/preferences", nil)
	p := decode[prefs.Preferences](t, rec)
	if p != prefs.Default() {
		t.Errorf("initial prefs = %+v", p)
	}

	p.DefaultFont = models.FontSettings{Family: "Georgia", Size: 14}
	rec = doJSON(t, h, http.MethodPut, "/preferences", p)
	if rec.Code != http.StatusOK {
		t.Fatalf("put: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/preferences", nil)
	if got := decode[prefs.Preferences](t, rec); got.DefaultFont.Family != "Georgia" {
		t.Errorf("prefs = %+v", got)
	}

	p.DefaultFont.Size = 0
	rec = doJSON(t, h, http.MethodPut, "/preferences", p)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid prefs: %d", rec.Code)
	}
}

func TestBearerAuth(t *testing.T) {
	h := api.NewRouter(testutil.TestService(t), true, "secret", nil)

	rec := doJSON(t, h, http.MethodGet, "/folders", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/folders", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/folders", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid token: %d", rec.Code)
	}
}
