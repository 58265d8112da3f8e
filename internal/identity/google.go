package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"chessconnect/api/internal/repositories"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

var ErrExchangeFailed = errors.New("google sign-in failed")

type userInfoResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// GoogleProvider runs the OAuth authorization-code flow against Google and
// resolves the signed-in account.
type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
	logger      *zap.Logger
}

func NewGoogleProvider(clientID, clientSecret, callbackURL string, logger *zap.Logger) *GoogleProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"profile", "email"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: defaultUserInfoURL,
		logger:      logger,
	}
}

// AuthCodeURL is where the browser is sent to start signing in.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Exchange trades the callback code for a token and loads the account behind it.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (repositories.GoogleIdentity, error) {
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		p.logger.Warn("google code exchange failed", zap.Error(err))
		return repositories.GoogleIdentity{}, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return repositories.GoogleIdentity{}, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	resp, err := p.config.Client(ctx, tok).Do(req)
	if err != nil {
		p.logger.Warn("google userinfo request failed", zap.Error(err))
		return repositories.GoogleIdentity{}, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return repositories.GoogleIdentity{}, fmt.Errorf("%w: userinfo status %d", ErrExchangeFailed, resp.StatusCode)
	}

	var info userInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return repositories.GoogleIdentity{}, fmt.Errorf("%w: decode userinfo: %v", ErrExchangeFailed, err)
	}
	if info.ID == "" {
		return repositories.GoogleIdentity{}, fmt.Errorf("%w: userinfo without id", ErrExchangeFailed)
	}
	return repositories.GoogleIdentity{GoogleID: info.ID, Email: info.Email, Name: info.Name}, nil
}
