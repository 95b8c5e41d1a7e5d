package notification

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

type GmailConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RefreshToken string `mapstructure:"refresh_token"`
}

// GmailSender sends through the Gmail API as the account owning the refresh token.
type GmailSender struct {
	svc  *gmail.Service
	from string
	now  func() time.Time
}

func NewGmailSender(ctx context.Context, cfg GmailConfig, from string) (*GmailSender, error) {
	oc := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailSendScope},
	}
	ts := oc.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return &GmailSender{svc: svc, from: from, now: time.Now}, nil
}

func (s *GmailSender) Send(ctx context.Context, msg Message) error {
	raw, err := buildMIME(s.from, msg, s.now())
	if err != nil {
		return &DeliveryError{Provider: ProviderGmail, Kind: KindRejected, Err: err}
	}
	_, err = s.svc.Users.Messages.
		Send("me", &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)}).
		Context(ctx).
		Do()
	if err != nil {
		return &DeliveryError{Provider: ProviderGmail, Kind: gmailKind(err), Err: err}
	}
	return nil
}

func gmailKind(err error) Kind {
	var ge *googleapi.Error
	if errors.As(err, &ge) {
		switch {
		case ge.Code == http.StatusUnauthorized || ge.Code == http.StatusForbidden:
			return KindUnauthorized
		case ge.Code == http.StatusTooManyRequests || ge.Code >= 500:
			return KindUnavailable
		case ge.Code >= 400:
			return KindRejected
		}
	}
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		return KindUnauthorized
	}
	return KindUnavailable
}
