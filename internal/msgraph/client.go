package msgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/Tiliavir/tick/internal/lib/sl"
)

const (
	graphBaseURL = "https://graph.microsoft.com/v1.0"
	pageSize     = "100"
	// maxErrorBody caps how much of a failed response ends up in an error.
	maxErrorBody = 4 << 10
)

// DateTimeTimeZone is a Graph point in time. DateTime carries no offset;
// it is relative to TimeZone.
type DateTimeTimeZone struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// Location is where an event takes place.
type Location struct {
	DisplayName string `json:"displayName"`
}

// CalendarEvent is the subset of a Graph event the import looks at.
type CalendarEvent struct {
	ID          string           `json:"id"`
	Subject     string           `json:"subject"`
	IsAllDay    bool             `json:"isAllDay"`
	IsCancelled bool             `json:"isCancelled"`
	Sensitivity string           `json:"sensitivity"` // normal, personal, private, confidential
	ShowAs      string           `json:"showAs"`      // free, tentative, busy, oof, workingElsewhere, unknown
	Start       DateTimeTimeZone `json:"start"`
	End         DateTimeTimeZone `json:"end"`
	Location    Location         `json:"location"`
}

type eventPage struct {
	Value    []CalendarEvent `json:"value"`
	NextLink string          `json:"@odata.nextLink"`
}

// Client reads calendar events from Microsoft Graph.
type Client struct {
	hc      *http.Client
	baseURL string
	log     *slog.Logger
}

// NewClient returns a Graph client authorized by tok. Tokens refreshed on
// the way are written back to store.
func NewClient(ctx context.Context, log *slog.Logger, store *TokenStore, tok *oauth2.Token, cfg *oauth2.Config) *Client {
	src := oauth2.ReuseTokenSource(tok, &persistingSource{
		src:   cfg.TokenSource(ctx, tok),
		store: store,
		log:   log,
	})
	c := NewClientWithHTTP(oauth2.NewClient(ctx, src), graphBaseURL)
	c.log = log
	return c
}

// NewClientWithHTTP returns a Graph client that sends its requests through
// hc, which must already be authorized.
func NewClientWithHTTP(hc *http.Client, baseURL string) *Client {
	return &Client{
		hc:      hc,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		log:     slog.New(slog.DiscardHandler),
	}
}

// persistingSource stores every token it hands out. A failed save is logged
// and the token is used anyway.
type persistingSource struct {
	src   oauth2.TokenSource
	store *TokenStore
	log   *slog.Logger
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.src.Token()
	if err != nil {
		return nil, err
	}
	if err := p.store.Save(tok); err != nil {
		p.log.Warn("could not save refreshed token", sl.Err(err))
	}
	return tok, nil
}

func (c *Client) calendarViewURL(from, to time.Time) string {
	q := url.Values{}
	q.Set("startDateTime", from.UTC().Format(time.RFC3339))
	q.Set("endDateTime", to.UTC().Format(time.RFC3339))
	q.Set("$top", pageSize)
	return c.baseURL + "/me/calendarView?" + q.Encode()
}

// GetCalendarView returns the events between from and to, following
// @odata.nextLink until the last page. timezone is an IANA name such as
// "Europe/Berlin" that Graph renders the event times in; empty means UTC.
func (c *Client) GetCalendarView(ctx context.Context, from, to time.Time, timezone string) ([]CalendarEvent, error) {
	var events []CalendarEvent
	next := c.calendarViewURL(from, to)
	for pages := 1; next != ""; pages++ {
		page, err := c.getPage(ctx, next, timezone)
		if err != nil {
			return nil, err
		}
		c.log.Debug("fetched calendar page", slog.Int("page", pages), slog.Int("events", len(page.Value)))
		events = append(events, page.Value...)
		next = page.NextLink
	}
	return events, nil
}

func (c *Client) getPage(ctx context.Context, endpoint, timezone string) (*eventPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if timezone != "" {
		req.Header.Set("Prefer", fmt.Sprintf("outlook.timezone=%q", timezone))
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calendar request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("calendar request: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var page eventPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decoding calendar page: %w", err)
	}
	return &page, nil
}
