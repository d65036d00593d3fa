package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookNotifierDisabledWithoutURL(t *testing.T) {
	n := NewWebhookNotifier("", time.Second)

	assert.False(t, n.Enabled())
	assert.NoError(t, n.NotifyRegistration(context.Background(), RegistrationNotice{}))
}

func TestWebhookNotifierPostsJSON(t *testing.T) {
	var body, contentType, deliveryID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		contentType = r.Header.Get("Content-Type")
		deliveryID = r.Header.Get("X-Delivery-ID")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, time.Second)
	err := n.NotifyRegistration(context.Background(), RegistrationNotice{FullName: "Asha", Email: "asha@example.edu"})
	require.NoError(t, err)

	assert.JSONEq(t, `{"fullName":"Asha","email":"asha@example.edu"}`, body)
	assert.Equal(t, "application/json", contentType)
	assert.NotEmpty(t, deliveryID)
}

func TestWebhookNotifierRejectsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL, time.Second).NotifyRegistration(context.Background(), RegistrationNotice{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestWebhookNotifierHonoursTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	err := NewWebhookNotifier(srv.URL, 50*time.Millisecond).NotifyRegistration(context.Background(), RegistrationNotice{})
	assert.Error(t, err)
}
