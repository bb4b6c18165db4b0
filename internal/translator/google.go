package translator

import (
	"context"
	"fmt"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// GoogleService translates through Google Cloud Translation.
type GoogleService struct {
	client *translate.Client
}

// NewGoogleService creates a Cloud Translation client. credentials is an
// optional path to a service account file; application default credentials
// are used otherwise.
func NewGoogleService(ctx context.Context, credentials string, opts ...option.ClientOption) (*GoogleService, error) {
	if credentials != "" {
		opts = append(opts, option.WithCredentialsFile(credentials))
	}

	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &GoogleService{client: client}, nil
}

func (s *GoogleService) Name() string {
	return "google"
}

func (s *GoogleService) TranslateToEnglish(ctx context.Context, text string) (string, error) {
	translations, err := s.client.Translate(ctx, []string{text}, language.English, &translate.Options{
		Format: translate.Text,
	})
	if err != nil {
		return "", &Error{Provider: s.Name(), Message: defaultMessage, Err: fmt.Errorf("translation failed: %w", err)}
	}

	if len(translations) == 0 {
		return "", &Error{Provider: s.Name(), Message: defaultMessage, Err: fmt.Errorf("no translation returned")}
	}

	return translations[0].Text, nil
}

func (s *GoogleService) Close() error {
	return s.client.Close()
}
