package qrclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageURLEscapesValue(t *testing.T) {
	c := New("https://chart.googleapis.com", true)
	got := c.ImageURL("abc-event1-user2")
	assert.Equal(t, "https://chart.googleapis.com/chart?cht=qr&chs=300x300&chl=abc-event1-user2", got)

	got = c.ImageURL("has space&amp")
	assert.Equal(t, "https://chart.googleapis.com/chart?cht=qr&chs=300x300&chl=has+space%26amp", got)
}

func TestRenderSkipMode(t *testing.T) {
	c := New("https://chart.googleapis.com", true)
	url, err := c.Render(context.Background(), "value")
	require.NoError(t, err)
	assert.Equal(t, c.ImageURL("value"), url)
}

func TestRenderHitsEndpoint(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, false)
	url, err := c.Render(context.Background(), "value")
	require.NoError(t, err)
	assert.Equal(t, c.ImageURL("value"), url)
	assert.Equal(t, "/chart", gotPath)
}

func TestRenderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(srv.URL, false)
	_, err := c.Render(context.Background(), "value")
	assert.Error(t, err)

	_, err = c.Render(context.Background(), "")
	assert.Error(t, err)
}

func TestHealthSkips(t *testing.T) {
	c := New("https://chart.googleapis.com", true)
	assert.NoError(t, c.Health(context.Background()))
}
