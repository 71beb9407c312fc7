package fixturefeed

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"

	"github.com/matchkick/prediction-league/internal/platform/logging"
	"github.com/matchkick/prediction-league/internal/platform/resilience"
	"github.com/matchkick/prediction-league/internal/usecase"
)

const (
	defaultBaseURL     = "https://api.fixturefeed.io/v1"
	defaultTimeout     = 20 * time.Second
	maxResponseBytes   = 6 << 20
	maxLoggedBodyBytes = 2048
)

var errFeedTransient = crerr.New("fixture feed transient failure")

type ClientConfig struct {
	BaseURL        string
	Token          string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client fetches fixtures from the external feed. It retries
// transient failures with linear backoff and trips a circuit breaker
// so a dead provider cannot stall every sync request.
type Client struct {
	client         *fasthttp.Client
	baseURL        string
	token          string
	timeout        time.Duration
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Client{
		client: &fasthttp.Client{
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxResponseBodySize: maxResponseBytes,
		},
		baseURL:        baseURL,
		token:          strings.TrimSpace(cfg.Token),
		timeout:        timeout,
		maxRetries:     maxRetries,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type feedTeam struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type feedScore struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

type feedFixture struct {
	ID        int64      `json:"id"`
	Week      int        `json:"week"`
	HomeTeam  feedTeam   `json:"home_team"`
	AwayTeam  feedTeam   `json:"away_team"`
	KickoffAt time.Time  `json:"kickoff_at"`
	Venue     string     `json:"venue"`
	Status    string     `json:"status"`
	Score     *feedScore `json:"score"`
}

type fixturesEnvelope struct {
	Data []feedFixture `json:"data"`
}

// FetchFixtures returns the feed's fixtures for one (league, week),
// ordered by kickoff then feed id.
func (c *Client) FetchFixtures(ctx context.Context, leagueRefID int64, weekNumber int) ([]usecase.ProviderFixture, error) {
	if leagueRefID <= 0 {
		return nil, fmt.Errorf("league ref id must be greater than zero")
	}
	if weekNumber < 1 {
		return nil, fmt.Errorf("week number must be >= 1")
	}

	path := fmt.Sprintf("/leagues/%d/fixtures", leagueRefID)
	query := map[string]string{"week": strconv.Itoa(weekNumber)}

	var envelope fixturesEnvelope
	if err := c.doJSON(ctx, path, query, &envelope); err != nil {
		return nil, fmt.Errorf("fetch fixtures league_ref=%d week=%d: %w", leagueRefID, weekNumber, err)
	}

	return mapFixtures(envelope.Data, weekNumber), nil
}

func mapFixtures(items []feedFixture, weekNumber int) []usecase.ProviderFixture {
	out := make([]usecase.ProviderFixture, 0, len(items))
	for _, item := range items {
		if item.ID <= 0 {
			continue
		}

		fixture := usecase.ProviderFixture{
			MatchRefID:    item.ID,
			WeekNumber:    item.Week,
			HomeTeamName:  strings.TrimSpace(item.HomeTeam.Name),
			AwayTeamName:  strings.TrimSpace(item.AwayTeam.Name),
			HomeTeamRefID: item.HomeTeam.ID,
			AwayTeamRefID: item.AwayTeam.ID,
			KickoffAt:     item.KickoffAt.UTC(),
			Venue:         strings.TrimSpace(item.Venue),
			Status:        item.Status,
		}
		if fixture.WeekNumber <= 0 {
			fixture.WeekNumber = weekNumber
		}
		if item.Score != nil {
			fixture.HomeScore = item.Score.Home
			fixture.AwayScore = item.Score.Away
		}
		out = append(out, fixture)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].KickoffAt.Equal(out[j].KickoffAt) {
			return out[i].KickoffAt.Before(out[j].KickoffAt)
		}
		return out[i].MatchRefID < out[j].MatchRefID
	})

	return out
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "fixture feed circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: fixture feed is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}

	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && isFeedCircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode feed payload: %w", err)
	}

	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := c.doOnce(ctx, fullURL)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !stderrors.Is(err, errFeedTransient) {
			return nil, err
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("feed request failed")
	}
	c.logger.WarnContext(ctx, "fixture feed request failed", "url", fullURL, "error", sanitizeSensitiveText(lastErr.Error(), c.token))
	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, fullURL string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fullURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("%w: send request: %s", errFeedTransient, sanitizeSensitiveText(err.Error(), c.token))
	}

	status := resp.StatusCode()
	body := resp.Body()

	if status >= 200 && status < 300 {
		// The response buffer is reused after release; copy through
		// the pool before handing it out.
		buf := bytebufferpool.Get()
		defer bytebufferpool.Put(buf)
		_, _ = buf.Write(body)

		out := make([]byte, buf.Len())
		copy(out, buf.B)
		return out, nil
	}

	if isRetryableStatus(status) {
		return nil, fmt.Errorf("%w: feed status=%d body=%s", errFeedTransient, status, abbreviateBody(body))
	}
	return nil, fmt.Errorf("feed status=%d body=%s", status, abbreviateBody(body))
}

func isRetryableStatus(code int) bool {
	return code == fasthttp.StatusRequestTimeout ||
		code == fasthttp.StatusTooManyRequests ||
		code >= fasthttp.StatusInternalServerError
}

func isFeedCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, errFeedTransient)
}

func sanitizeSensitiveText(value, token string) string {
	value = strings.TrimSpace(value)
	if value == "" || token == "" {
		return value
	}
	return strings.ReplaceAll(value, token, "REDACTED")
}

func abbreviateBody(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if len(text) > maxLoggedBodyBytes {
		return text[:maxLoggedBodyBytes] + "...(truncated)"
	}
	return text
}
