// Package auth talks to the phone/password auth endpoint.
//
// Both operations POST {"phone", "password"} and receive
// {"access_token", "token_type"} on success or {"detail"} on rejection.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"resty.dev/v3"

	"github.com/formleszs/music-app/internal/domain"
	"github.com/formleszs/music-app/internal/ports"
)

const (
	// DefaultTimeout bounds a single auth request.
	DefaultTimeout = 10 * time.Second

	loginPath    = "/login"
	registerPath = "/register"

	userAgent = "MusicApp/1.0"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Client is a ports.AuthClient backed by resty.
type Client struct {
	logger  *slog.Logger
	http    *resty.Client
	baseURL string
}

// NewClient creates an auth client for baseURL.
func NewClient(logger *slog.Logger, baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		logger:  logger.With(slog.String("component", "auth")),
		baseURL: baseURL,
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json").
			SetHeader("User-Agent", userAgent).
			// Tunnelled dev servers show an interstitial page without it.
			SetHeader("ngrok-skip-browser-warning", "true"),
	}
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, creds ports.Credentials) (string, error) {
	return c.post(ctx, "login", loginPath, creds)
}

// Register creates an account and returns its bearer token.
func (c *Client) Register(ctx context.Context, creds ports.Credentials) (string, error) {
	return c.post(ctx, "register", registerPath, creds)
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.http.Close()
}

func (c *Client) post(ctx context.Context, op, path string, creds ports.Credentials) (string, error) {
	url := c.baseURL + path
	requestID := uuid.NewString()
	log := c.logger.With(slog.String("op", op), slog.String("request_id", requestID))

	var (
		ok  tokenResponse
		bad errorResponse
	)
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", requestID).
		SetBody(creds).
		SetResult(&ok).
		SetError(&bad).
		Post(path)
	if err != nil {
		log.Debug("request failed", slog.Any("error", err))
		return "", domain.NewNetworkError(op, url, err)
	}

	log.Debug("response received", slog.Int("status", res.StatusCode()), slog.Duration("took", res.Duration()))

	if res.IsSuccess() {
		if ok.AccessToken == "" {
			return "", domain.NewNetworkError(op, url, errors.New("response carries no access token"))
		}
		return ok.AccessToken, nil
	}

	if bad.Detail == "" {
		// Not a well-formed rejection: proxies, gateways, HTML error pages.
		return "", domain.NewNetworkError(op, url, fmt.Errorf("unexpected status %d", res.StatusCode()))
	}
	return "", domain.NewAuthError(op, ClassifyDetail(bad.Detail), bad.Detail, res.StatusCode())
}

// ClassifyDetail maps the server's detail text to a rejection reason.
func ClassifyDetail(detail string) domain.AuthReason {
	d := strings.TrimSpace(detail)
	switch {
	case strings.EqualFold(d, "User not found"):
		return domain.AuthReasonUserNotFound
	case strings.EqualFold(d, "Incorrect password"):
		return domain.AuthReasonWrongPassword
	case strings.Contains(strings.ToLower(d), "already registered"):
		return domain.AuthReasonAlreadyRegistered
	default:
		return domain.AuthReasonOther
	}
}

var _ ports.AuthClient = (*Client)(nil)
