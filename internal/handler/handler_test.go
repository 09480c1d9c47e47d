package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dukerupert/chorify/internal/apperr"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAccountAdminQuery(t *testing.T) {
	q, err := accountAdmin.query(url.Values{
		"search":    {" alice "},
		"is_staff":  {"true"},
		"is_active": {"False"},
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if q.Search != "alice" {
		t.Errorf("search = %q, want %q", q.Search, "alice")
	}
	if diff := cmp.Diff([]string{"email"}, q.SearchFields); diff != "" {
		t.Errorf("search fields (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"is_admin": 1, "is_active": 0}, q.Equals); diff != "" {
		t.Errorf("filters (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"id ASC"}, q.OrderBy); diff != "" {
		t.Errorf("ordering (-want +got):\n%s", diff)
	}
}

func TestAccountAdminQueryNoFilters(t *testing.T) {
	q, err := accountAdmin.query(url.Values{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if q.Search != "" || q.Equals != nil {
		t.Errorf("q = %+v, want no search or filters", q)
	}
}

func TestAccountAdminQueryBadBool(t *testing.T) {
	_, err := accountAdmin.query(url.Values{"is_active": {"sometimes"}})
	if !apperr.Is(err, apperr.EInvalid) {
		t.Errorf("err = %v, want invalid", err)
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
		wantFields map[string]string
	}{
		{
			name:       "validation",
			err:        apperr.Invalid("items[1].quantity", "ensure this value is greater than or equal to 0"),
			wantStatus: http.StatusBadRequest,
			wantError:  "validation failed",
			wantFields: map[string]string{"items[1].quantity": "ensure this value is greater than or equal to 0"},
		},
		{
			name:       "conflict",
			err:        apperr.Conflict("email", "email already registered"),
			wantStatus: http.StatusBadRequest,
			wantError:  "email already registered",
			wantFields: map[string]string{"email": "email already registered"},
		},
		{
			name:       "not found",
			err:        apperr.NotFound("todo not found"),
			wantStatus: http.StatusNotFound,
			wantError:  "todo not found",
		},
		{
			name:       "internal hides cause",
			err:        errors.New("database is locked"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/todo-lists/1/", nil)
			writeError(rec, req, discardLogger(), tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body errorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error != tt.wantError {
				t.Errorf("error = %q, want %q", body.Error, tt.wantError)
			}
			if diff := cmp.Diff(tt.wantFields, body.Fields); diff != "" {
				t.Errorf("fields (-want +got):\n%s", diff)
			}
			if strings.Contains(rec.Body.String(), "locked") {
				t.Error("internal cause leaked to client")
			}
		})
	}
}

func TestParseIDParam(t *testing.T) {
	mux := http.NewServeMux()
	var got int64
	var gotErr error
	mux.HandleFunc("GET /things/{id}/", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = parseIDParam(r)
	})

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/things/12/", nil))
	if gotErr != nil || got != 12 {
		t.Errorf("id = %d, err = %v; want 12", got, gotErr)
	}

	for _, path := range []string{"/things/abc/", "/things/0/", "/things/-4/"} {
		mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
		if !apperr.Is(gotErr, apperr.ENotFound) {
			t.Errorf("%s: err = %v, want not found", path, gotErr)
		}
	}
}
