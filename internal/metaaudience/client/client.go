// Package client talks to the Meta Graph API: custom audiences and lead ads.
package client

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"admissions_crm_backend/platform/config"
	"admissions_crm_backend/platform/logger"
	"admissions_crm_backend/platform/phone"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://graph.facebook.com"
	defaultVersion = "v24.0"

	maxAudienceName = 100
)

var ErrNoIdentifiers = errors.New("email or phone is required for Meta audience")

// APIError is a non-2xx Graph response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("meta graph api: status %d: %s", e.Status, e.Message)
}

// Retryable reports whether the request may succeed later.
func (e *APIError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

type Client struct {
	baseURL     string
	adAccountID string
	accessToken string
	http        *http.Client
	limiter     *rate.Limiter
	log         *logger.Logger
}

// New builds a client for cfg. Requests are limited to a few per second across
// the process.
func New(cfg config.MetaConfig, log *logger.Logger) *Client {
	return NewWithBaseURL(DefaultBaseURL, cfg, log)
}

func NewWithBaseURL(baseURL string, cfg config.MetaConfig, log *logger.Logger) *Client {
	return build(baseURL, cfg.GetMetaGraphVersion(), cfg.GetMetaAdAccountID(), cfg.GetMetaAccessToken(), log)
}

// NewLeadsClient builds a client that reads lead ads submissions with the page token.
func NewLeadsClient(cfg config.MetaLeadsConfig, log *logger.Logger) *Client {
	return NewLeadsClientWithBaseURL(DefaultBaseURL, cfg, log)
}

func NewLeadsClientWithBaseURL(baseURL string, cfg config.MetaLeadsConfig, log *logger.Logger) *Client {
	return build(baseURL, cfg.GetMetaGraphVersion(), "", cfg.GetMetaLeadsAccessToken(), log)
}

func build(baseURL, version, adAccountID, accessToken string, log *logger.Logger) *Client {
	if version == "" {
		version = defaultVersion
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/") + "/" + version,
		adAccountID: adAccountID,
		accessToken: accessToken,
		http:        &http.Client{Timeout: 15 * time.Second},
		limiter:     rate.NewLimiter(rate.Limit(5), 10),
		log:         log,
	}
}

var audienceNoise = regexp.MustCompile(`(?i)university|college|online|education`)

// SanitizeAudienceName strips institution words, collapses whitespace and caps
// the result at 100 characters.
func SanitizeAudienceName(name string) string {
	cleaned := strings.Join(strings.Fields(audienceNoise.ReplaceAllString(name, "")), " ")
	if r := []rune(cleaned); len(r) > maxAudienceName {
		cleaned = strings.TrimSpace(string(r[:maxAudienceName]))
	}
	return cleaned
}

// HashIdentifier is the sha256 hex of the trimmed lowercased value, "" when empty.
func HashIdentifier(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])
}

type createAudienceRequest struct {
	Name               string `json:"name"`
	Subtype            string `json:"subtype"`
	Description        string `json:"description"`
	CustomerFileSource string `json:"customer_file_source"`
	AccessToken        string `json:"access_token"`
}

type createAudienceResponse struct {
	ID string `json:"id"`
}

// CreateAudience creates a customer-file custom audience and returns its Meta id.
func (c *Client) CreateAudience(ctx context.Context, name string) (string, error) {
	var out createAudienceResponse
	err := c.post(ctx, fmt.Sprintf("/act_%s/customaudiences", c.adAccountID), createAudienceRequest{
		Name:               SanitizeAudienceName(name),
		Subtype:            "CUSTOM",
		Description:        "System generated audience",
		CustomerFileSource: "USER_PROVIDED_ONLY",
		AccessToken:        c.accessToken,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", errors.New("meta graph api: audience id missing from response")
	}
	return out.ID, nil
}

type usersPayload struct {
	Schema []string   `json:"schema"`
	Data   [][]string `json:"data"`
}

type addUsersRequest struct {
	Payload     usersPayload `json:"payload"`
	AccessToken string       `json:"access_token"`
}

// AddUsersResult is Meta's count of received and rejected rows.
type AddUsersResult struct {
	AudienceID        string `json:"audience_id"`
	NumReceived       int    `json:"num_received"`
	NumInvalidEntries int    `json:"num_invalid_entries"`
}

// AddUser uploads one hashed email/phone row. Phones without a leading + get +91.
func (c *Client) AddUser(ctx context.Context, audienceID, email, rawPhone string) (AddUsersResult, error) {
	hashedEmail := HashIdentifier(email)
	hashedPhone := HashIdentifier(phone.PlusE164(rawPhone))
	if hashedEmail == "" && hashedPhone == "" {
		return AddUsersResult{}, ErrNoIdentifiers
	}

	var out AddUsersResult
	err := c.post(ctx, "/"+audienceID+"/users", addUsersRequest{
		Payload: usersPayload{
			Schema: []string{"EMAIL", "PHONE"},
			Data:   [][]string{{hashedEmail, hashedPhone}},
		},
		AccessToken: c.accessToken,
	}, &out)
	return out, err
}

type graphError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(ctx, req, path, out)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	query.Set("access_token", c.accessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(ctx, req, path, out)
}

func (c *Client) do(ctx context.Context, req *http.Request, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ge graphError
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &ge) == nil && ge.Error.Message != "" {
			msg = ge.Error.Message
		}
		c.log.WithContext(ctx).Error("meta graph request failed", "path", path, "status", resp.StatusCode, "error", msg)
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
