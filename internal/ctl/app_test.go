package ctl

import (
	"bufio"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReader(input string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(input))
}

func stubPassword(t *testing.T, password string) {
	t.Helper()
	orig := readPassword
	readPassword = func(fd int) ([]byte, error) { return []byte(password), nil }
	t.Cleanup(func() { readPassword = orig })
}

func TestRegister_Success(t *testing.T) {
	stubPassword(t, "Secret1")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/users", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "alice@example.com", r.PostFormValue("email"))
		assert.Equal(t, "Secret1", r.PostFormValue("password"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"email":"alice@example.com","message":"user created"}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	app := NewApp(srv.URL, strings.NewReader("alice@example.com\n"), &out)

	require.NoError(t, app.Register(context.Background()))
	assert.Contains(t, out.String(), "Success!")
}

func TestRegister_Duplicate(t *testing.T) {
	stubPassword(t, "Secret1")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"email already registered"}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	app := NewApp(srv.URL, strings.NewReader("alice@example.com\n"), &out)

	err := app.Register(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email already registered")
}

func TestReset_Success(t *testing.T) {
	stubPassword(t, "NewPass1")

	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/reset_password", r.URL.Path)
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodPost:
			w.Write([]byte(`{"email":"alice@example.com","reset_token":"tok-1"}`))
		case http.MethodPut:
			gotToken = r.PostFormValue("reset_token")
			assert.Equal(t, "NewPass1", r.PostFormValue("new_password"))
			w.Write([]byte(`{"email":"alice@example.com","message":"Password updated"}`))
		}
	}))
	defer srv.Close()

	var out bytes.Buffer
	app := NewApp(srv.URL, strings.NewReader("alice@example.com\n"), &out)

	require.NoError(t, app.Reset(context.Background()))
	assert.Equal(t, "tok-1", gotToken)
	assert.Contains(t, out.String(), "Password updated")
}

func TestReset_UnknownEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"Forbidden"}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	app := NewApp(srv.URL, strings.NewReader("ghost@example.com\n"), &out)

	err := app.Reset(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestGetSimpleText_TrimsAndHandlesEOF(t *testing.T) {
	var out bytes.Buffer

	got, err := GetSimpleText(newReader("  alice@example.com  \n"), "Email", &out)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got)

	got, err = GetSimpleText(newReader("partial"), "Email", &out)
	require.NoError(t, err)
	assert.Equal(t, "partial", got)
}
