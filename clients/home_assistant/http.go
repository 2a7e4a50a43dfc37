package home_assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNoToken is returned when a call is attempted without a configured
// credential. It fails that call only; the pipeline keeps running.
var ErrNoToken = errors.New("home assistant token is not configured")

type clientImpl struct {
	apiHost    string
	token      string
	httpClient *http.Client
}

type Config struct {
	ApiHost string
	Token   string

	// HTTPClient may be nil; a client with a 10s timeout is used then.
	HTTPClient *http.Client
}

func NewClient(cfg *Config) (HomeAssistantAPI, error) {
	if cfg == nil {
		return nil, errors.New("missing parameter: cfg")
	}

	if cfg.ApiHost == "" {
		return nil, errors.New("missing parameter: cfg.ApiHost")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &clientImpl{
		apiHost:    cfg.ApiHost,
		token:      cfg.Token,
		httpClient: httpClient,
	}, nil
}

// CallService posts a domain/service/entity triple to the service API.
func (client *clientImpl) CallService(ctx context.Context, domain, service, entityID string) error {
	if client.token == "" {
		return ErrNoToken
	}

	payload, err := json.Marshal(map[string]string{
		"entity_id": entityID,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/services/%s/%s", client.apiHost, domain, service)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+client.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.httpClient.Do(req)
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return fmt.Errorf("service call %s/%s failed: %s: %s", domain, service, resp.Status, body)
	}

	return nil
}
