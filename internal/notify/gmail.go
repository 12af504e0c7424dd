package notify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const gmailUser = "me"

// GmailConfig points to the OAuth client credentials and a previously
// authorized token.
type GmailConfig struct {
	CredentialsFile string `mapstructure:"credentials-file" validate:"required"`
	TokenFile       string `mapstructure:"token-file" validate:"required"`
	From            string `mapstructure:"from" validate:"omitempty,email"`
}

// Gmail sends summaries with the Gmail API on behalf of the authorized user.
type Gmail struct {
	service   *gmail.Service
	from      string
	to        string
	signature string
	logger    *zap.Logger
}

func NewGmail(ctx context.Context, cfg GmailConfig, to, signature string, logger *zap.Logger) (*Gmail, error) {
	b, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, gmail.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	tok, err := tokenFromFile(cfg.TokenFile)
	if err != nil {
		authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
		return nil, fmt.Errorf("unable to read gmail token %q (authorize at %s): %w", cfg.TokenFile, authURL, err)
	}

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(config.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail client: %w", err)
	}

	return newGmail(srv, cfg.From, to, signature, logger)
}

func newGmail(srv *gmail.Service, from, to, signature string, logger *zap.Logger) (*Gmail, error) {
	if to == "" {
		return nil, errors.New("hr email is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gmail{service: srv, from: from, to: to, signature: signature, logger: logger}, nil
}

func (g *Gmail) Notify(ctx context.Context, summary Summary) (string, error) {
	msg, err := Render(summary, g.signature)
	if err != nil {
		return "", err
	}

	raw := base64.URLEncoding.EncodeToString(msg.RFC822(g.from, g.to))
	sent, err := g.service.Users.Messages.Send(gmailUser, &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("gmail send: %w", err)
	}

	g.logger.Info("email sent",
		zap.Uint("candidate_id", summary.ID),
		zap.String("to", g.to),
		zap.String("gmail_message_id", sent.Id),
	)
	return StatusSent, nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}
