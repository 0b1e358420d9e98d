package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/sisync/internal/transport"
	"github.com/campusops/sisync/pkg/errors"
)

// fakeAPI is a minimal stand-in for the remote record API: a root
// directory, one paginated collection, and JSON write endpoints.
type fakeAPI struct {
	t       *testing.T
	server  *httptest.Server
	mux     *http.ServeMux
	creates []map[string]string
	updates []map[string]string
	deletes []string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	api := &fakeAPI{t: t, mux: http.NewServeMux()}
	api.server = httptest.NewServer(api.mux)
	t.Cleanup(api.server.Close)

	api.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "sync" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(t, w, map[string]string{
			"students": api.server.URL + "/students/",
			"teachers": api.server.URL + "/teachers/",
		})
	})

	return api
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func newTestStore(api *fakeAPI) *HTTPStore {
	client := transport.New(&transport.BasicAuth{Username: "sync", Password: "secret"})
	return NewHTTPStore(api.server.URL+"/", client)
}

func TestListPaginates(t *testing.T) {
	api := newFakeAPI(t)

	api.mux.HandleFunc("GET /students/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5000", r.URL.Query().Get("page_size"))

		if r.URL.Query().Get("page") == "2" {
			writeJSON(t, w, map[string]any{
				"next": nil,
				"results": []map[string]any{
					{"url": api.server.URL + "/students/2/", "student_id": "S2", "grade": 10},
				},
			})
			return
		}
		writeJSON(t, w, map[string]any{
			"next": api.server.URL + "/students/?page=2&page_size=5000",
			"results": []map[string]any{
				{"url": api.server.URL + "/students/1/", "student_id": "S1", "first_name": "Ana"},
			},
		})
	})

	records, err := newTestStore(api).List(context.Background(), "students", "student_id")
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "Ana", records["S1"].Fields["first_name"])
	assert.Equal(t, api.server.URL+"/students/1/", records["S1"].URL)
	// Numeric values coerce to their string form for comparison.
	assert.Equal(t, "10", records["S2"].Fields["grade"])
}

func TestListUnknownResource(t *testing.T) {
	api := newFakeAPI(t)

	_, err := newTestStore(api).List(context.Background(), "ghosts", "ghost_id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghosts")
}

func TestListAuthFailureIsPermanent(t *testing.T) {
	api := newFakeAPI(t)
	client := transport.New(&transport.BasicAuth{Username: "sync", Password: "wrong"})
	store := NewHTTPStore(api.server.URL+"/", client)

	_, err := store.List(context.Background(), "students", "student_id")
	assert.True(t, errors.IsPermanent(err))
}

func TestCreatePostsToCollection(t *testing.T) {
	api := newFakeAPI(t)

	api.mux.HandleFunc("POST /students/", func(w http.ResponseWriter, r *http.Request) {
		var fields map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&fields))
		api.creates = append(api.creates, fields)
		w.WriteHeader(http.StatusCreated)
		writeJSON(t, w, map[string]string{"url": api.server.URL + "/students/9/"})
	})

	err := newTestStore(api).Create(context.Background(), "students",
		map[string]string{"student_id": "S9", "first_name": "Nia"})
	require.NoError(t, err)

	require.Len(t, api.creates, 1)
	assert.Equal(t, "S9", api.creates[0]["student_id"])
}

func TestCreateFieldRejection(t *testing.T) {
	api := newFakeAPI(t)

	api.mux.HandleFunc("POST /students/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(t, w, map[string]any{
			"email": []string{"Enter a valid email address."},
		})
	})

	err := newTestStore(api).Create(context.Background(), "students",
		map[string]string{"student_id": "S9", "email": "nope"})
	require.Error(t, err)
	assert.True(t, errors.IsPermanent(err))

	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, []string{"Enter a valid email address."}, apiErr.Fields["email"])
}

func TestServerErrorIsTransient(t *testing.T) {
	api := newFakeAPI(t)

	api.mux.HandleFunc("POST /students/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	err := newTestStore(api).Create(context.Background(), "students",
		map[string]string{"student_id": "S9"})
	assert.True(t, errors.IsTransient(err))
}

func TestUpdateAndDeleteUseRecordURL(t *testing.T) {
	api := newFakeAPI(t)

	api.mux.HandleFunc("PUT /students/1/", func(w http.ResponseWriter, r *http.Request) {
		var fields map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&fields))
		api.updates = append(api.updates, fields)
		writeJSON(t, w, map[string]string{})
	})
	api.mux.HandleFunc("DELETE /students/1/", func(w http.ResponseWriter, r *http.Request) {
		api.deletes = append(api.deletes, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	store := newTestStore(api)
	record := Record{URL: api.server.URL + "/students/1/"}

	require.NoError(t, store.Update(context.Background(), "students", record,
		map[string]string{"student_id": "S1", "grade": "11"}))
	require.NoError(t, store.Delete(context.Background(), "students", record))

	require.Len(t, api.updates, 1)
	assert.Equal(t, "11", api.updates[0]["grade"])
	assert.Equal(t, []string{"/students/1/"}, api.deletes)
}

func TestRootDirectoryFetchedOnce(t *testing.T) {
	api := newFakeAPI(t)
	rootCalls := 0

	// Replace the root handler's mux entry by counting inside the list
	// handler instead: a second List must not refetch the directory.
	api.mux.HandleFunc("GET /teachers/", func(w http.ResponseWriter, _ *http.Request) {
		rootCalls++
		writeJSON(t, w, map[string]any{"next": nil, "results": []map[string]any{}})
	})

	store := newTestStore(api)
	_, err := store.List(context.Background(), "teachers", "teacher_id")
	require.NoError(t, err)
	_, err = store.List(context.Background(), "teachers", "teacher_id")
	require.NoError(t, err)

	assert.Equal(t, 2, rootCalls)
	store.mu.Lock()
	assert.NotNil(t, store.urlMap)
	store.mu.Unlock()
}

func TestConnectionRefusedIsTransient(t *testing.T) {
	client := transport.New(&transport.NoAuth{})
	store := NewHTTPStore(fmt.Sprintf("http://127.0.0.1:%d/", 1), client)

	_, err := store.List(context.Background(), "students", "student_id")
	assert.True(t, errors.IsTransient(err))
}
