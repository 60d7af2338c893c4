package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmit(t *testing.T) {
	var got map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/builds", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"id":"b-1","status":"pending"}`))
	}))
	defer ts.Close()

	var out bytes.Buffer
	require.NoError(t, run([]string{"submit", "https://example.com/app.git", "--branch", "main", "--server", ts.URL}, &out))

	assert.Equal(t, "https://example.com/app.git", got["repo_url"])
	assert.Equal(t, "main", got["branch"])
	assert.Contains(t, out.String(), "b-1")
}

func TestStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/builds/b-9", r.URL.Path)
		http.Error(w, "build not found", http.StatusNotFound)
	}))
	defer ts.Close()

	err := run([]string{"status", "b-9", "--server", ts.URL}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "build not found")
}

func TestUsage(t *testing.T) {
	assert.Error(t, run(nil, &bytes.Buffer{}))
	assert.Error(t, run([]string{"submit"}, &bytes.Buffer{}))
	assert.Error(t, run([]string{"bogus"}, &bytes.Buffer{}))
}
