// Package certify talks to the Fidealis deposit certification API.
package certify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/popeskul/insdr-dispatch/internal/config"
	"github.com/popeskul/insdr-dispatch/internal/models"
)

//go:generate mockgen -source=certify.go -destination=mocks/mock_certify.go -package=mocks

var ErrLoginFailed = errors.New("certification login returned no session")

// API is the subset of the certification service used for deposits.
type API interface {
	Login(ctx context.Context) (string, error)
	Deposit(ctx context.Context, sessionID, description string, files []models.DepositFile) error
}

type Client struct {
	cfg        config.CertificationConfig
	httpClient *http.Client
}

func NewClient(cfg config.CertificationConfig) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

// Login opens a session from the account key and returns its PHPSESSID.
func (c *Client) Login(ctx context.Context) (string, error) {
	query := url.Values{}
	query.Set("key", c.cfg.APIKey)
	query.Set("call", "loginUserFromAccountKey")
	query.Set("accountKey", c.cfg.AccountKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIURL+"?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", sendError(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("certification login: unexpected status code: %d", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	session, _ := body["PHPSESSID"].(string)
	if session == "" {
		return "", ErrLoginFailed
	}

	return session, nil
}

// Deposit uploads one group of files with its description. Files are numbered from 1.
func (c *Client) Deposit(ctx context.Context, sessionID, description string, files []models.DepositFile) error {
	form := url.Values{}
	form.Set("key", c.cfg.APIKey)
	form.Set("PHPSESSID", sessionID)
	form.Set("call", "setDeposit")
	form.Set("description", description)
	form.Set("type", "deposit")
	form.Set("hidden", "0")
	form.Set("sendmail", "1")

	for i, f := range files {
		idx := strconv.Itoa(i + 1)
		form.Set("filename"+idx, f.Name)
		form.Set("file"+idx, base64.StdEncoding.EncodeToString(f.Data))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return sendError(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("certification deposit: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return nil
}

// sendError drops the request URL, which carries the API key, from transport errors.
func sendError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("failed to send request: %s: %w", urlErr.Op, urlErr.Err)
	}
	return fmt.Errorf("failed to send request: %w", err)
}
