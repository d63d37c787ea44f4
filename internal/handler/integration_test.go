package handler_test

// End-to-end tests for the auth and note endpoints, run against a real MySQL
// database through the full router + middleware stack. Set TEST_DSN to a
// disposable database, e.g.
//
//	TEST_DSN="root@tcp(localhost:3306)/notekeeper_test?parseTime=true&loc=UTC"
//
// The suite drops and recreates the users/notes tables.

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/note-keeper/internal/config"
	"github.com/iliyamo/note-keeper/internal/handler"
	"github.com/iliyamo/note-keeper/internal/repository"
	"github.com/iliyamo/note-keeper/internal/router"
)

const testJWTSecret = "integration-secret"

func setupServer(t *testing.T) (*echo.Echo, *sql.DB) {
	t.Helper()
	dsn := os.Getenv("TEST_DSN")
	if dsn == "" {
		t.Skip("TEST_DSN not set; skipping DB-backed tests")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	for _, stmt := range []string{
		"DROP TABLE IF EXISTS notes",
		"DROP TABLE IF EXISTS users",
		`CREATE TABLE users (
			id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			email         VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uq_users_email (email)
		)`,
		`CREATE TABLE notes (
			id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			title      VARCHAR(500) NOT NULL,
			content    TEXT NULL,
			tags       TEXT NULL,
			is_private TINYINT(1) NOT NULL DEFAULT 0,
			password   VARCHAR(255) NULL,
			owner_id   BIGINT UNSIGNED NOT NULL,
			created_at DATETIME(6) NOT NULL,
			updated_at DATETIME(6) NOT NULL,
			FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("setup schema: %v", err)
		}
	}

	cfg := config.Config{
		JWTSecret:    testJWTSecret,
		AccessTTLMin: 60,
		BcryptCost:   bcrypt.MinCost,
	}
	users := repository.NewUserRepo(db)
	notes := repository.NewNoteRepo(db)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users), cfg.JWTSecret)
	router.RegisterNotes(e, handler.NewNoteHandler(notes), cfg.JWTSecret)
	return e, db
}

func doJSON(e *echo.Echo, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func registerUser(t *testing.T, e *echo.Echo, email, password string) (token string, userID uint64) {
	t.Helper()
	rec := doJSON(e, http.MethodPost, "/auth/register", "", map[string]string{
		"email": email, "password": password,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d (%s)", email, rec.Code, rec.Body.String())
	}
	var resp struct {
		Token  string `json:"token"`
		UserID uint64 `json:"userId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return resp.Token, resp.UserID
}

func createNote(t *testing.T, e *echo.Echo, token string, body map[string]any) map[string]any {
	t.Helper()
	rec := doJSON(e, http.MethodPost, "/notes", token, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("create note: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var note map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &note); err != nil {
		t.Fatalf("decode note: %v", err)
	}
	return note
}

func TestRegisterLoginFlow(t *testing.T) {
	e, _ := setupServer(t)

	rec := doJSON(e, http.MethodPost, "/auth/register", "", map[string]string{
		"email": "alice@example.com", "password": "pw123456",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var reg struct {
		Token     string    `json:"token"`
		Email     string    `json:"email"`
		UserID    uint64    `json:"userId"`
		ExpiresAt time.Time `json:"expiresAt"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &reg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reg.Token == "" || reg.UserID == 0 || reg.Email != "alice@example.com" {
		t.Errorf("incomplete auth response: %+v", reg)
	}
	if !reg.ExpiresAt.After(time.Now()) {
		t.Errorf("token already expired: %v", reg.ExpiresAt)
	}

	// Registering the same email twice yields a duplicate error.
	rec = doJSON(e, http.MethodPost, "/auth/register", "", map[string]string{
		"email": "alice@example.com", "password": "other",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate register: expected 400, got %d", rec.Code)
	}

	// Wrong password and unknown email are indistinguishable.
	recWrong := doJSON(e, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "nope",
	})
	recUnknown := doJSON(e, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "ghost@example.com", "password": "nope",
	})
	if recWrong.Code != http.StatusBadRequest || recUnknown.Code != http.StatusBadRequest {
		t.Errorf("expected 400/400, got %d/%d", recWrong.Code, recUnknown.Code)
	}
	if recWrong.Body.String() != recUnknown.Body.String() {
		t.Errorf("login failures leak account existence: %q vs %q",
			recWrong.Body.String(), recUnknown.Body.String())
	}

	// Correct password mints a fresh token.
	rec = doJSON(e, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "pw123456",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestNoteCRUDAndOwnership(t *testing.T) {
	e, _ := setupServer(t)

	aliceTok, aliceID := registerUser(t, e, "alice@example.com", "pw123456")
	bobTok, _ := registerUser(t, e, "bob@example.com", "pw123456")

	note := createNote(t, e, aliceTok, map[string]any{
		"title": "Shopping", "tags": []string{"home"},
	})
	noteID := fmt.Sprintf("%.0f", note["id"].(float64))
	if note["createdAt"] == nil || note["updatedAt"] == nil {
		t.Error("expected generated timestamps")
	}
	if uint64(note["ownerId"].(float64)) != aliceID {
		t.Errorf("owner mismatch: %v", note["ownerId"])
	}

	// Owner sees the note; any other user gets the same 404 as a missing id.
	if rec := doJSON(e, http.MethodGet, "/notes/"+noteID, aliceTok, nil); rec.Code != http.StatusOK {
		t.Errorf("owner get: expected 200, got %d", rec.Code)
	}
	recForeign := doJSON(e, http.MethodGet, "/notes/"+noteID, bobTok, nil)
	recMissing := doJSON(e, http.MethodGet, "/notes/999999", bobTok, nil)
	if recForeign.Code != http.StatusNotFound || recMissing.Code != http.StatusNotFound {
		t.Errorf("expected 404/404, got %d/%d", recForeign.Code, recMissing.Code)
	}
	if recForeign.Body.String() != recMissing.Body.String() {
		t.Errorf("foreign and missing notes must be indistinguishable")
	}

	// Tags round-trip in order.
	rec := doJSON(e, http.MethodGet, "/notes/"+noteID, aliceTok, nil)
	var got struct {
		Tags []string `json:"tags"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if len(got.Tags) != 1 || got.Tags[0] != "home" {
		t.Errorf("tags did not round-trip: %v", got.Tags)
	}

	// Full-replace update: omitted content/tags become empty, title changes,
	// updatedAt refreshes.
	rec = doJSON(e, http.MethodPut, "/notes/"+noteID, aliceTok, map[string]any{
		"title": "Groceries", "isPrivate": true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var updated map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &updated)
	if updated["title"] != "Groceries" || updated["isPrivate"] != true {
		t.Errorf("update not applied: %v", updated)
	}
	if updated["tags"] != nil {
		t.Errorf("full-replace should clear omitted tags, got %v", updated["tags"])
	}
	if updated["createdAt"] != note["createdAt"] {
		t.Errorf("createdAt must not change on update")
	}
	if updated["updatedAt"] == note["updatedAt"] {
		t.Errorf("updatedAt should refresh on update")
	}

	// Updating a foreign note 404s without modifying it.
	rec = doJSON(e, http.MethodPut, "/notes/"+noteID, bobTok, map[string]any{"title": "Hijacked"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign update: expected 404, got %d", rec.Code)
	}

	// Validation: blank and oversized titles are rejected.
	if rec := doJSON(e, http.MethodPost, "/notes", aliceTok, map[string]any{"title": ""}); rec.Code != http.StatusBadRequest {
		t.Errorf("blank title: expected 400, got %d", rec.Code)
	}
	long := bytes.Repeat([]byte("x"), 501)
	if rec := doJSON(e, http.MethodPost, "/notes", aliceTok, map[string]any{"title": string(long)}); rec.Code != http.StatusBadRequest {
		t.Errorf("oversized title: expected 400, got %d", rec.Code)
	}

	// Delete by a non-owner and delete of a missing id both 404; the owner's
	// delete succeeds and the note is gone afterwards.
	if rec := doJSON(e, http.MethodDelete, "/notes/"+noteID, bobTok, nil); rec.Code != http.StatusNotFound {
		t.Errorf("foreign delete: expected 404, got %d", rec.Code)
	}
	if rec := doJSON(e, http.MethodDelete, "/notes/"+noteID, aliceTok, nil); rec.Code != http.StatusOK {
		t.Errorf("owner delete: expected 200, got %d", rec.Code)
	}
	if rec := doJSON(e, http.MethodDelete, "/notes/"+noteID, aliceTok, nil); rec.Code != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", rec.Code)
	}
	if rec := doJSON(e, http.MethodGet, "/notes/"+noteID, aliceTok, nil); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: expected 404, got %d", rec.Code)
	}
}

func TestSearchAndPagination(t *testing.T) {
	e, _ := setupServer(t)

	tok, _ := registerUser(t, e, "alice@example.com", "pw123456")
	otherTok, _ := registerUser(t, e, "bob@example.com", "pw123456")

	shopping := createNote(t, e, tok, map[string]any{"title": "Shopping list", "content": "milk and eggs"})
	createNote(t, e, tok, map[string]any{"title": "Work", "content": "quarterly REPORT draft"})
	createNote(t, e, tok, map[string]any{"title": "Ideas", "content": "note app improvements"})
	createNote(t, e, otherTok, map[string]any{"title": "Bob private", "content": "not alice's"})

	// Touch the oldest note so it becomes the most recently updated.
	shoppingID := fmt.Sprintf("%.0f", shopping["id"].(float64))
	rec := doJSON(e, http.MethodPut, "/notes/"+shoppingID, tok, map[string]any{
		"title": "Shopping list", "content": "milk, eggs, bread",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("touch update failed: %d", rec.Code)
	}

	// Blank query returns all of the owner's notes, most recently updated
	// first, and never another user's.
	rec = doJSON(e, http.MethodGet, "/notes?page=0&size=10&search=", tok, nil)
	var page struct {
		Content       []map[string]any `json:"content"`
		Page          int              `json:"page"`
		Size          int              `json:"size"`
		TotalElements int64            `json:"totalElements"`
		TotalPages    int64            `json:"totalPages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.TotalElements != 3 || len(page.Content) != 3 {
		t.Fatalf("expected 3 owned notes, got total=%d len=%d", page.TotalElements, len(page.Content))
	}
	if page.Content[0]["title"] != "Shopping list" {
		t.Errorf("expected most recently updated first, got %v", page.Content[0]["title"])
	}

	// A blank search parameter and no parameter return the same set.
	recNoParam := doJSON(e, http.MethodGet, "/notes", tok, nil)
	if recNoParam.Body.String() != rec.Body.String() {
		t.Errorf("blank search and absent search should match")
	}

	// Case-insensitive substring over title OR content.
	rec = doJSON(e, http.MethodGet, "/notes?search=report", tok, nil)
	_ = json.Unmarshal(rec.Body.Bytes(), &page)
	if page.TotalElements != 1 || page.Content[0]["title"] != "Work" {
		t.Errorf("content search failed: %+v", page)
	}

	// Offset pagination: size=2 gives two pages.
	rec = doJSON(e, http.MethodGet, "/notes?page=0&size=2", tok, nil)
	_ = json.Unmarshal(rec.Body.Bytes(), &page)
	if len(page.Content) != 2 || page.TotalPages != 2 {
		t.Errorf("page 0: expected 2 items over 2 pages, got %d/%d", len(page.Content), page.TotalPages)
	}
	rec = doJSON(e, http.MethodGet, "/notes?page=1&size=2", tok, nil)
	_ = json.Unmarshal(rec.Body.Bytes(), &page)
	if len(page.Content) != 1 {
		t.Errorf("page 1: expected 1 item, got %d", len(page.Content))
	}
}

func TestDistinctTags(t *testing.T) {
	e, _ := setupServer(t)

	tok, _ := registerUser(t, e, "alice@example.com", "pw123456")
	otherTok, _ := registerUser(t, e, "bob@example.com", "pw123456")

	createNote(t, e, tok, map[string]any{"title": "A", "tags": []string{"home", "todo"}})
	createNote(t, e, tok, map[string]any{"title": "B", "tags": []string{"work", "todo"}})
	createNote(t, e, tok, map[string]any{"title": "C"})
	createNote(t, e, otherTok, map[string]any{"title": "D", "tags": []string{"secret"}})

	rec := doJSON(e, http.MethodGet, "/notes/tags", tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("tags: expected 200, got %d", rec.Code)
	}
	var tags []string
	if err := json.Unmarshal(rec.Body.Bytes(), &tags); err != nil {
		t.Fatalf("decode tags: %v", err)
	}
	want := []string{"home", "todo", "work"}
	if len(tags) != len(want) {
		t.Fatalf("expected %v, got %v", want, tags)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, tags)
		}
	}
}

func TestNotesRequireAuth(t *testing.T) {
	e, _ := setupServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/notes"},
		{http.MethodGet, "/notes/1"},
		{http.MethodPost, "/notes"},
		{http.MethodPut, "/notes/1"},
		{http.MethodDelete, "/notes/1"},
		{http.MethodGet, "/notes/tags"},
	} {
		rec := doJSON(e, tc.method, tc.path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token: expected 401, got %d", tc.method, tc.path, rec.Code)
		}
	}
}
