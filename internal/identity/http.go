package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/emoji-feed/internal/model"
)

// HTTPProvider 调用 Clerk 兼容的用户 API：GET {base}/v1/users?user_id=..&limit=N
type HTTPProvider struct {
	baseURL   string
	secretKey string
	client    *http.Client
	limiter   *rate.Limiter
}

type HTTPOptions struct {
	BaseURL      string
	SecretKey    string
	Timeout      time.Duration
	RequestsPerS float64
	Burst        int
	Transport    http.RoundTripper
}

func NewHTTPProvider(opts HTTPOptions) *HTTPProvider {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	lim := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerS > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(opts.RequestsPerS), burst)
	}
	return &HTTPProvider{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		secretKey: opts.SecretKey,
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(base),
		},
		limiter: lim,
	}
}

type remoteEmail struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

type remoteUser struct {
	ID              string        `json:"id"`
	FirstName       *string       `json:"first_name"`
	LastName        *string       `json:"last_name"`
	EmailAddresses  []remoteEmail `json:"email_addresses"`
	ProfileImageURL string        `json:"profile_image_url"`
	ImageURL        string        `json:"image_url"`
}

func (u remoteUser) profile() model.AuthorProfile {
	p := model.AuthorProfile{
		ID:              u.ID,
		EmailAddresses:  make([]model.EmailAddress, 0, len(u.EmailAddresses)),
		ProfileImageURL: u.ProfileImageURL,
	}
	if u.FirstName != nil {
		p.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		p.LastName = *u.LastName
	}
	if p.ProfileImageURL == "" {
		p.ProfileImageURL = u.ImageURL
	}
	for _, e := range u.EmailAddresses {
		p.EmailAddresses = append(p.EmailAddresses, model.EmailAddress{ID: e.ID, EmailAddress: e.EmailAddress})
	}
	return p
}

func (p *HTTPProvider) GetUsersByIDs(ctx context.Context, ids []string, limit int) ([]model.AuthorProfile, error) {
	limit, err := checkBatch(ids, limit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []model.AuthorProfile{}, nil
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("identity: throttle: %w", err)
	}

	q := url.Values{}
	for _, id := range ids {
		q.Add("user_id", id)
	}
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/users?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("identity: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("identity: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var users []remoteUser
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, fmt.Errorf("identity: decode response: %w", err)
	}
	out := make([]model.AuthorProfile, 0, len(users))
	for _, u := range users {
		out = append(out, u.profile())
	}
	return out, nil
}
