package mymemory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

const defaultBaseURL = "https://api.mymemory.translated.net/get"

// ErrUnknown is returned when the API echoes the query back untranslated
var ErrUnknown = errors.New("failed to translate query")

// Client implements integration with mymemory translations API
// docs: https://mymemory.translated.net/doc/spec.php
type Client struct {
	baseURL string
	email   string
	client  *http.Client
}

// Translate text between languages, from and to are RFC3066 codes such as "en" and "zh-CN"
func (c *Client) Translate(ctx context.Context, q string, from string, to string) (TranslationResponse, error) {
	var result TranslationResponse
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return result, fmt.Errorf("failed to create request: %w", err)
	}
	query := req.URL.Query()
	query.Add("q", q)
	query.Add("langpair", fmt.Sprintf("%s|%s", from, to))
	if c.email != "" {
		query.Add("de", c.email)
	}
	req.URL.RawQuery = query.Encode()

	response, err := c.client.Do(req)
	if err != nil {
		return result, fmt.Errorf("failed to execute request: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return result, fmt.Errorf("failed to read response body: %w", err)
	}
	if response.StatusCode != http.StatusOK {
		log.Error().
			Str("status", response.Status).
			Str("body", string(body)).
			Msg("unsuccessful response from mymemory translated API")
		return result, fmt.Errorf("unsuccessful API response %v", response.StatusCode)
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return TranslationResponse{}, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if strings.EqualFold(result.Result.Text, q) {
		return result, ErrUnknown
	}
	return result, nil
}

// NewClient creates mymemory client, email raises the anonymous daily quota
func NewClient(httpClient *http.Client, email string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: defaultBaseURL, email: email, client: httpClient}
}
