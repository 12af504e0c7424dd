package cmd

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/spigell/talent-screener/internal/ai"
	"github.com/spigell/talent-screener/internal/ai/gemini"
	"github.com/spigell/talent-screener/internal/ai/vertex"
	"github.com/spigell/talent-screener/internal/blob"
	"github.com/spigell/talent-screener/internal/notify"
	"github.com/spigell/talent-screener/internal/scoring"
	"github.com/spigell/talent-screener/internal/secrets"
	"github.com/spigell/talent-screener/internal/store"
)

func newDB(cfg DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	dbCfg := cfg.Config
	if dbCfg.Type == store.TypePostgres {
		password, err := secrets.Load(secrets.Source{
			Name: "database password",
			File: cfg.PasswordFile,
			Env:  "TALENT_DB_PASSWORD",
		})
		if err != nil {
			return nil, err
		}
		dbCfg.Password = password
	}
	return store.InitDB(dbCfg, logger)
}

func newBlob(ctx context.Context, cfg StorageConfig) (blob.Store, error) {
	if cfg.Type != "minio" {
		return blob.NewFS(cfg.Dir)
	}

	secretKey, err := secrets.Load(secrets.Source{
		Name: "minio secret key",
		File: cfg.Minio.SecretKeyFile,
		Env:  "MINIO_SECRET_KEY",
	})
	if err != nil {
		return nil, err
	}

	s, err := blob.NewMinio(
		blob.WithEndpoint(cfg.Minio.Endpoint),
		blob.WithBucket(cfg.Minio.Bucket),
		blob.WithAccessKey(cfg.Minio.AccessKey),
		blob.WithSecretKey(secretKey),
		blob.WithSSL(cfg.Minio.UseSSL),
	)
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}
	if err := s.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// newExtractor returns the configured extraction capability and a function
// releasing its resources.
func newExtractor(ctx context.Context, cfg AIConfig, logger *zap.Logger) (ai.Extractor, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Provider {
	case vertex.Provider:
		if cfg.Vertex == nil {
			return nil, noop, errors.New("vertex configuration is required under ai.vertex")
		}
		client, err := vertex.New(ctx, vertex.Options{
			ProjectID:   cfg.Vertex.ProjectID,
			Location:    cfg.Vertex.Location,
			Model:       cfg.Vertex.Model,
			Temperature: cfg.Vertex.Temperature,
			Retry:       cfg.Retry,
		}, logger)
		if err != nil {
			return nil, noop, err
		}
		return client, client.Close, nil
	default:
		opts := gemini.Options{Retry: cfg.Retry}
		var keyFile string
		if cfg.Gemini != nil {
			keyFile = cfg.Gemini.APIKeyFile
			opts.Model = cfg.Gemini.Model
			opts.Temperature = cfg.Gemini.Temperature
			opts.MaxLogLength = cfg.Gemini.MaxLogLength
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name: "gemini api key",
			File: keyFile,
			Env:  "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, noop, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
		}
		opts.APIKey = apiKey

		generator, err := gemini.NewGenerator(ctx, opts, logger)
		if err != nil {
			return nil, noop, err
		}
		return generator, noop, nil
	}
}

func newNotifier(ctx context.Context, cfg NotifyConfig, dryRun bool, logger *zap.Logger) (notify.Notifier, error) {
	logger = logger.With(zap.String("channel", cfg.Channel))
	if dryRun {
		return notify.NewLog(cfg.Signature, logger), nil
	}

	switch cfg.Channel {
	case "smtp":
		smtpCfg := cfg.SMTP.SMTPConfig
		if smtpCfg.User != "" {
			password, err := secrets.Load(secrets.Source{
				Name: "smtp password",
				File: cfg.SMTP.PasswordFile,
				Env:  "SMTP_PASSWORD",
			})
			if err != nil {
				return nil, err
			}
			smtpCfg.Password = password
		}
		return notify.NewSMTP(smtpCfg, cfg.HREmail, cfg.Signature, logger)
	case "gmail":
		return notify.NewGmail(ctx, *cfg.Gmail, cfg.HREmail, cfg.Signature, logger)
	default:
		return notify.NewLog(cfg.Signature, logger), nil
	}
}

func newScoring(cfg ScoringConfig) *scoring.Engine {
	var opts []scoring.Option
	if cfg.Weights != nil {
		opts = append(opts, scoring.WithWeights(*cfg.Weights))
	}
	if len(cfg.Synonyms) > 0 {
		opts = append(opts, scoring.WithSynonyms(cfg.Synonyms))
	}
	return scoring.New(opts...)
}
