package home_assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallService(t *testing.T) {
	var (
		gotPath   string
		gotAuth   string
		gotEntity string
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotEntity = body["entity_id"]

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewClient(&Config{ApiHost: server.URL, Token: "secret"})
	require.NoError(t, err)

	err = client.CallService(context.Background(), "light", "turn_off", "light.living_room")
	require.NoError(t, err)

	assert.Equal(t, "/api/services/light/turn_off", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "light.living_room", gotEntity)
}

func TestCallService_MissingToken(t *testing.T) {
	client, err := NewClient(&Config{ApiHost: "http://homeassistant.local:8123"})
	require.NoError(t, err)

	err = client.CallService(context.Background(), "light", "turn_on", "light.kitchen")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestCallService_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	client, err := NewClient(&Config{ApiHost: server.URL, Token: "wrong"})
	require.NoError(t, err)

	err = client.CallService(context.Background(), "light", "turn_on", "light.kitchen")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(nil)
	assert.Error(t, err)

	_, err = NewClient(&Config{})
	assert.Error(t, err)
}
