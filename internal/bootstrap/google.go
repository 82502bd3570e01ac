package bootstrap

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"golang.org/x/time/rate"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/kitapunya/expense-backend/config"
)

var googleScopes = []string{
	sheetsapi.SpreadsheetsScope,
	drive.DriveMetadataReadonlyScope,
}

type GoogleClients struct {
	Sheets  *sheetsapi.Service
	Drive   *drive.Service
	Limiter *rate.Limiter
}

// tokenSource builds service-account credentials, preferring the inline
// email and key over a credentials file.
func tokenSource(ctx context.Context, cfg config.GoogleConfig) (oauth2.TokenSource, error) {
	if cfg.ServiceAccountEmail != "" && cfg.PrivateKey != "" {
		jc := &jwt.Config{
			Email:      cfg.ServiceAccountEmail,
			PrivateKey: []byte(cfg.PrivateKey),
			Scopes:     googleScopes,
			TokenURL:   google.JWTTokenURL,
		}
		return jc.TokenSource(ctx), nil
	}

	raw, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	jc, err := google.JWTConfigFromJSON(raw, googleScopes...)
	if err != nil {
		return nil, fmt.Errorf("parse credentials file: %w", err)
	}
	return jc.TokenSource(ctx), nil
}

// NewGoogleClients builds the Sheets and Drive services and the shared
// request limiter. extra options are appended, which tests use to point the
// clients at a local server.
func NewGoogleClients(ctx context.Context, cfg config.GoogleConfig, extra ...option.ClientOption) (*GoogleClients, error) {
	ts, err := tokenSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	opts := append([]option.ClientOption{option.WithTokenSource(ts)}, extra...)

	sheetsSvc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("drive client: %w", err)
	}

	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &GoogleClients{
		Sheets:  sheetsSvc,
		Drive:   driveSvc,
		Limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
	}, nil
}
