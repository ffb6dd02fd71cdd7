package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultGraphURL = "https://graph.facebook.com/v22.0"

// APIError is a non-2xx answer from the Graph API.
type APIError struct {
	Status    int
	Code      int
	Subcode   int
	Message   string
	FBTraceID string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("graph api: status=%d code=%d: %s", e.Status, e.Code, e.Message)
}

// ErrorCode returns the Graph error code carried by err, if any.
func ErrorCode(err error) (int, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	return 0, false
}

type Client struct {
	BaseURL       string
	Token         string
	PhoneNumberID string
	HTTP          *http.Client
}

func NewClient(baseURL, token, phoneNumberID string) *Client {
	if baseURL == "" {
		baseURL = DefaultGraphURL
	}
	return &Client{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		Token:         token,
		PhoneNumberID: phoneNumberID,
		HTTP:          &http.Client{Timeout: 10 * time.Second},
	}
}

type textBody struct {
	Body string `json:"body"`
}

type sendPayload struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type errorEnvelope struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
		FBTraceID    string `json:"fbtrace_id"`
	} `json:"error"`
}

// SendText posts a plain text message to a phone (digits only).
func (c *Client) SendText(ctx context.Context, to, body string) error {
	b, err := json.Marshal(sendPayload{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             textBody{Body: body},
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	endpoint := c.BaseURL + "/" + url.PathEscape(c.PhoneNumberID) + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 == 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return decodeError(resp)
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	var env errorEnvelope
	if json.Unmarshal(raw, &env) == nil && (env.Error.Code != 0 || env.Error.Message != "") {
		apiErr.Code = env.Error.Code
		apiErr.Subcode = env.Error.ErrorSubcode
		apiErr.Message = env.Error.Message
		apiErr.FBTraceID = env.Error.FBTraceID
	}
	return apiErr
}

// ExchangeToken trades a long-lived user token for a fresh one
// (grant_type=fb_exchange_token).
func (c *Client) ExchangeToken(ctx context.Context, appID, appSecret string) (string, error) {
	q := url.Values{}
	q.Set("grant_type", "fb_exchange_token")
	q.Set("client_id", appID)
	q.Set("client_secret", appSecret)
	q.Set("fb_exchange_token", c.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/oauth/access_token?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("exchange token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", decodeError(resp)
	}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}
	if out.AccessToken == "" {
		return "", errors.New("exchange token: empty access_token")
	}
	return out.AccessToken, nil
}
