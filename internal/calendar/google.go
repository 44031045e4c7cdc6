package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"slotguard/backend/internal/domain"
	"slotguard/backend/internal/store"
)

const tokenSaveTimeout = 5 * time.Second

// GoogleOAuthConfig returns the OAuth client used to refresh expired access
// tokens, or nil when no client credentials are configured.
func GoogleOAuthConfig(clientID, clientSecret string) *oauth2.Config {
	if clientID == "" || clientSecret == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gcal.CalendarReadonlyScope},
	}
}

// GoogleClient queries the Google Calendar free/busy endpoint with the owner's
// stored tokens.
type GoogleClient struct {
	oauth *oauth2.Config
	creds store.CredentialStore
	opts  []option.ClientOption
	log   *slog.Logger
}

func NewGoogleClient(oauthCfg *oauth2.Config, creds store.CredentialStore, log *slog.Logger, opts ...option.ClientOption) *GoogleClient {
	if log == nil {
		log = slog.Default()
	}
	return &GoogleClient{
		oauth: oauthCfg,
		creds: creds,
		opts:  opts,
		log:   log.With(slog.String("component", "calendar.google")),
	}
}

func (c *GoogleClient) BusyPeriods(ctx context.Context, ownerID string, creds store.ExternalCredentials, calendarID string, iv domain.Interval) ([]BusyPeriod, error) {
	opts := append([]option.ClientOption{option.WithTokenSource(c.tokenSource(ctx, ownerID, creds))}, c.opts...)
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}

	resp, err := svc.Freebusy.Query(&gcal.FreeBusyRequest{
		TimeMin: iv.Start.UTC().Format(time.RFC3339Nano),
		TimeMax: iv.End.UTC().Format(time.RFC3339Nano),
		Items:   []*gcal.FreeBusyRequestItem{{Id: calendarID}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("freebusy query: %w", err)
	}

	cal, ok := resp.Calendars[calendarID]
	if !ok {
		return nil, nil
	}
	if len(cal.Errors) > 0 {
		return nil, fmt.Errorf("freebusy calendar %q: %s", calendarID, cal.Errors[0].Reason)
	}

	out := make([]BusyPeriod, 0, len(cal.Busy))
	for _, p := range cal.Busy {
		if p == nil || p.Start == "" || p.End == "" {
			continue
		}
		start, err := time.Parse(time.RFC3339, p.Start)
		if err != nil {
			return nil, fmt.Errorf("busy start %q: %w", p.Start, err)
		}
		end, err := time.Parse(time.RFC3339, p.End)
		if err != nil {
			return nil, fmt.Errorf("busy end %q: %w", p.End, err)
		}
		out = append(out, BusyPeriod{Start: start.UTC(), End: end.UTC()})
	}
	return out, nil
}

func (c *GoogleClient) tokenSource(ctx context.Context, ownerID string, creds store.ExternalCredentials) oauth2.TokenSource {
	tok := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       creds.Expiry,
	}
	if c.oauth == nil || creds.RefreshToken == "" {
		return oauth2.StaticTokenSource(tok)
	}
	return &persistingTokenSource{
		base:    c.oauth.TokenSource(ctx, tok),
		ownerID: ownerID,
		creds:   c.creds,
		log:     c.log,
		last:    tok.AccessToken,
	}
}

// persistingTokenSource writes refreshed tokens back to the credential store.
type persistingTokenSource struct {
	base    oauth2.TokenSource
	ownerID string
	creds   store.CredentialStore
	log     *slog.Logger

	mu   sync.Mutex
	last string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	refreshed := tok.AccessToken != s.last
	s.last = tok.AccessToken
	s.mu.Unlock()

	if refreshed && s.creds != nil {
		ctx, cancel := context.WithTimeout(context.Background(), tokenSaveTimeout)
		defer cancel()
		err := s.creds.SaveExternalCredentials(ctx, s.ownerID, store.ExternalCredentials{
			AccessToken:  tok.AccessToken,
			RefreshToken: tok.RefreshToken,
			Expiry:       tok.Expiry,
		})
		if err != nil {
			s.log.Warn("failed to persist refreshed token",
				slog.String("owner_id", s.ownerID),
				slog.Any("err", err),
			)
		}
	}
	return tok, nil
}
