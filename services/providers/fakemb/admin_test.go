package fakemb

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func do(t *testing.T, srv *Server, method, path, body string) (int, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(out)
}

const httpImposter = `{"protocol":"http","port":4545,"name":"users","stubs":[{"predicates":[{"equals":{"path":"/test"}}],"responses":[{"is":{"statusCode":200}}]}]}`

func TestAdmin_CreateGetDelete(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	status, body := do(t, srv, http.MethodPost, "/imposters", httpImposter)
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, int64(4545), gjson.Get(body, "port").Int())
	assert.Equal(t, int64(0), gjson.Get(body, "numberOfRequests").Int())

	status, body = do(t, srv, http.MethodPost, "/imposters", httpImposter)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, codeResourceConflict, gjson.Get(body, "errors.0.code").String())

	status, body = do(t, srv, http.MethodGet, "/imposters/4545", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "/test", gjson.Get(body, "stubs.0.predicates.0.equals.path").String())
	assert.True(t, gjson.Get(body, "_links.self.href").Exists())

	status, body = do(t, srv, http.MethodGet, "/imposters/4545?replayable=true", "")
	require.Equal(t, http.StatusOK, status)
	assert.False(t, gjson.Get(body, "requests").Exists())
	assert.False(t, gjson.Get(body, "_links").Exists())

	status, body = do(t, srv, http.MethodGet, "/imposters", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"imposters":[{"protocol":"http","port":4545,"name":"users"}]}`, body)

	status, body = do(t, srv, http.MethodDelete, "/imposters/4545", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "http", gjson.Get(body, "protocol").String())

	status, body = do(t, srv, http.MethodDelete, "/imposters/4545", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{}`, body)

	status, body = do(t, srv, http.MethodGet, "/imposters/4545", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, codeNoSuchResource, gjson.Get(body, "errors.0.code").String())
}

func TestAdmin_RejectsInvalidDefinitions(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	for _, body := range []string{
		`not json`,
		`{"protocol":"http"}`,
		`{"protocol":"gopher","port":4545}`,
		`{"protocol":"http","port":4545,"stubs":[{"predicates":[]}]}`,
	} {
		status, resp := do(t, srv, http.MethodPost, "/imposters", body)
		assert.Equal(t, http.StatusBadRequest, status, body)
		assert.Equal(t, codeBadData, gjson.Get(resp, "errors.0.code").String(), body)
	}
}

func TestAdmin_Stubs(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	status, _ := do(t, srv, http.MethodPost, "/imposters", httpImposter)
	require.Equal(t, http.StatusCreated, status)

	status, body := do(t, srv, http.MethodPost, "/imposters/4545/stubs", `{"index":0,"stub":{"responses":[{"is":{"statusCode":404}}]}}`)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, int64(404), gjson.Get(body, "stubs.0.responses.0.is.statusCode").Int())
	assert.Equal(t, int64(2), gjson.Get(body, "stubs.#").Int())

	status, body = do(t, srv, http.MethodPut, "/imposters/4545/stubs", `{"stubs":[]}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(0), gjson.Get(body, "stubs.#").Int())

	status, _ = do(t, srv, http.MethodPost, "/imposters/9999/stubs", `{"stub":{"responses":[{"is":{}}]}}`)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, srv, http.MethodPost, "/imposters/4545/stubs", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAdmin_RecordedRequests(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	status, _ := do(t, srv, http.MethodPost, "/imposters", httpImposter)
	require.Equal(t, http.StatusCreated, status)

	require.NoError(t, srv.RecordRequest(4545, map[string]any{"method": "GET", "path": "/test"}))
	assert.ErrorIs(t, srv.RecordRequest(1, map[string]any{}), ErrNoSuchPort)

	_, body := do(t, srv, http.MethodGet, "/imposters/4545", "")
	assert.Equal(t, int64(1), gjson.Get(body, "numberOfRequests").Int())
	assert.Equal(t, "/test", gjson.Get(body, "requests.0.path").String())

	status, _ = do(t, srv, http.MethodDelete, "/imposters/4545/savedRequests", "")
	require.Equal(t, http.StatusOK, status)
	_, body = do(t, srv, http.MethodGet, "/imposters/4545", "")
	assert.Equal(t, int64(0), gjson.Get(body, "numberOfRequests").Int())

	status, _ = do(t, srv, http.MethodDelete, "/imposters/4545/savedProxyResponses", "")
	assert.Equal(t, http.StatusOK, status)
	status, _ = do(t, srv, http.MethodDelete, "/imposters/9999/savedProxyResponses", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAdmin_DeleteAll(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	status, body := do(t, srv, http.MethodDelete, "/imposters", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"imposters":[]}`, body)

	do(t, srv, http.MethodPost, "/imposters", httpImposter)
	status, body = do(t, srv, http.MethodDelete, "/imposters", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(1), gjson.Get(body, "imposters.#").Int())
}

func TestAdmin_Routing(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	status, _ := do(t, srv, http.MethodPatch, "/imposters", "")
	assert.Equal(t, http.StatusMethodNotAllowed, status)

	status, _ = do(t, srv, http.MethodGet, "/imposters/abc", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, srv, http.MethodGet, "/imposters/4545/unknown", "")
	assert.Equal(t, http.StatusNotFound, status)
}
