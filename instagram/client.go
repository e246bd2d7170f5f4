// Package instagram implements the metrics fetch collaborator: an HTTP
// client for the Instagram web profile endpoint with rate limiting, retry on
// transient failures and an explicit session validity state machine.
//
// The fetcher never returns an error to the agent loop. Failures produce a
// placeholder profile carrying an error string, so degraded accounts flow
// through scoring and ranking as data.
package instagram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/instarank/instarank/core"
	"github.com/instarank/instarank/logging"
	"github.com/instarank/instarank/ratelimit"
	"github.com/instarank/instarank/retry"
)

// SessionState tracks whether the configured web session is believed valid.
type SessionState int

const (
	// SessionValid means the last request with this session succeeded.
	SessionValid SessionState = iota
	// SessionExpired means a request was rejected for auth reasons; the next
	// call revalidates before fetching.
	SessionExpired
)

// String returns the state name for logs.
func (s SessionState) String() string {
	if s == SessionExpired {
		return "expired"
	}
	return "valid"
}

// Options configure the Instagram client.
type Options struct {
	SessionID         string
	CSRFToken         string
	UserAgent         string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerMinute int
	MaxRetries        int
	Logger            logging.Logger
}

// Client fetches profile metrics from the Instagram web API.
//
// Client is not safe for concurrent use: the agent loop issues fetches
// strictly sequentially, and the session state transition assumes a single
// caller.
type Client struct {
	httpClient *http.Client
	opts       Options
	limiter    ratelimit.Limiter
	retryCfg   *retry.Config
	logger     logging.Logger
	state      SessionState
}

// NewClient creates an Instagram client. The session starts in the expired
// state so the first call revalidates the configured session id.
func NewClient(optFns ...func(o *Options)) *Client {
	opts := Options{
		UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		BaseURL:           "https://www.instagram.com",
		Timeout:           30 * time.Second,
		RequestsPerMinute: 60,
		MaxRetries:        3,
		Logger:            logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = opts.MaxRetries
	retryCfg.Logger = opts.Logger
	retryCfg.RetryIf = func(err error) bool {
		var apiErr *Error
		if errors.As(err, &apiErr) {
			return IsRetryable(apiErr.Type)
		}
		return retry.DefaultRetryIf(err)
	}

	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		opts:       opts,
		limiter:    ratelimit.PerMinute(opts.RequestsPerMinute),
		retryCfg:   retryCfg,
		logger:     opts.Logger,
		state:      SessionExpired,
	}
}

// State returns the current session state.
func (c *Client) State() SessionState { return c.state }

// UserMetrics fetches metrics for one username. It always returns a profile:
// on failure the profile carries zeroed fields and an error description.
func (c *Client) UserMetrics(ctx context.Context, username string) core.Profile {
	if err := c.limiter.Wait(ctx); err != nil {
		return core.PlaceholderProfile(username, fmt.Sprintf("Failed to retrieve user data: %s", err))
	}
	if err := c.ensureSession(ctx); err != nil {
		return core.PlaceholderProfile(username, fmt.Sprintf("Failed to retrieve user data: %s", err))
	}

	user, err := retry.DoWithResult(ctx, func() (*profileUser, error) {
		return c.fetchProfile(ctx, username)
	}, c.retryCfg)
	if err != nil {
		c.logger.Error("profile fetch failed", "username", username, "error", err.Error())
		return core.PlaceholderProfile(username, fmt.Sprintf("Failed to retrieve user data: %s", err))
	}

	followers := user.EdgeFollowedBy.Count
	profile := core.Profile{
		Username:          username,
		FollowersCount:    followers,
		FollowingCount:    user.EdgeFollow.Count,
		MediaCount:        user.EdgeOwnerToTimelineMedia.Count,
		IsPrivate:         user.IsPrivate,
		IsVerified:        user.IsVerified,
		EngagementRate:    engagementRate(user.EdgeOwnerToTimelineMedia.Edges, followers),
		ProfilePictureURL: cleanProfilePicURL(user.ProfilePicURLHD),
	}
	c.logger.Info("fetched profile metrics", "username", username, "followers", followers)
	return profile
}

// ensureSession is the single session transition: a no-op while the session
// is valid, a revalidation probe once it is marked expired.
func (c *Client) ensureSession(ctx context.Context) error {
	if c.state == SessionValid {
		return nil
	}

	c.logger.Info("revalidating instagram session", "state", c.state.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.BaseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("build session probe: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Type: ErrorTypeNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &Error{Type: ErrorTypeAuth, Message: "session rejected", Code: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		return &Error{Type: classifyStatus(resp.StatusCode), Message: "session probe failed", Code: resp.StatusCode}
	}

	c.state = SessionValid
	return nil
}

// fetchProfile performs one profile request. Auth rejections flip the
// session state so the next UserMetrics call revalidates first.
func (c *Client) fetchProfile(ctx context.Context, username string) (*profileUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, profileURL(c.opts.BaseURL, username), nil)
	if err != nil {
		return nil, fmt.Errorf("build profile request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Type: ErrorTypeNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errType := classifyStatus(resp.StatusCode)
		if errType == ErrorTypeAuth {
			c.state = SessionExpired
		}
		return nil, &Error{
			Type:    errType,
			Message: fmt.Sprintf("profile request for %q failed", username),
			Code:    resp.StatusCode,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Type: ErrorTypeNetwork, Message: err.Error()}
	}

	var decoded webProfileResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &Error{Type: ErrorTypeParsing, Message: err.Error()}
	}
	if decoded.Data.User.Username == "" {
		return nil, &Error{Type: ErrorTypeNotFound, Message: fmt.Sprintf("user %q not found", username), Code: http.StatusNotFound}
	}

	return &decoded.Data.User, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("X-IG-App-ID", "936619743392459")
	if c.opts.CSRFToken != "" {
		req.Header.Set("X-CSRFToken", c.opts.CSRFToken)
	}
	if c.opts.SessionID != "" {
		req.AddCookie(&http.Cookie{Name: "sessionid", Value: c.opts.SessionID})
	}
	if c.opts.CSRFToken != "" {
		req.AddCookie(&http.Cookie{Name: "csrftoken", Value: c.opts.CSRFToken})
	}
}

// engagementRate averages likes and comments over up to the newest
// engagementSampleSize posts and relates them to the follower count:
// (avgLikes+avgComments)/followers*100, rounded to two decimals. Zero
// followers or no sample yields 0.
func engagementRate(edges []mediaEdge, followers int) float64 {
	if followers == 0 || len(edges) == 0 {
		return 0
	}
	sample := edges
	if len(sample) > engagementSampleSize {
		sample = sample[:engagementSampleSize]
	}

	var likes, comments int
	for _, e := range sample {
		likes += e.Node.EdgeLikedBy.Count
		comments += e.Node.EdgeMediaToComment.Count
	}
	avgLikes := float64(likes) / float64(len(sample))
	avgComments := float64(comments) / float64(len(sample))

	rate := (avgLikes + avgComments) / float64(followers) * 100
	return math.Round(rate*100) / 100
}
