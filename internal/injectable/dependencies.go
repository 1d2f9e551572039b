package injectable

import (
	"context"
	"fmt"

	"github.com/setuphub/setuphub/internal/application/service"
	"github.com/setuphub/setuphub/internal/config"
	domainservice "github.com/setuphub/setuphub/internal/domain/service"
	"github.com/setuphub/setuphub/internal/infrastructure/database"
	"github.com/setuphub/setuphub/internal/infrastructure/repository"
	"github.com/setuphub/setuphub/internal/infrastructure/storage"
	"github.com/setuphub/setuphub/internal/observability"
	"github.com/setuphub/setuphub/pkg/logger"
)

// Dependencies holds all the dependencies required by the router
type Dependencies struct {
	Config  *config.Config
	DB      *database.Database
	Metrics *observability.Metrics
	Log     *logger.Logger

	Storage      domainservice.BlobStorage
	AuthResolver domainservice.AuthResolver

	// Services
	TokenService       *service.TokenService
	SessionService     *service.SessionService
	UserService        *service.UserService
	SetupService       *service.SetupService
	StarService        *service.StarService
	BannerService      *service.BannerService
	OAuthService       *service.OAuthService
	MaintenanceService *service.MaintenanceService
}

type options struct {
	provider    service.IdentityProvider
	hasProvider bool
	storage     domainservice.BlobStorage
}

// Option overrides a dependency that would otherwise be built from config
type Option func(*options)

// WithIdentityProvider uses p for sign-in instead of the configured provider.
// A nil p disables sign-in.
func WithIdentityProvider(p service.IdentityProvider) Option {
	return func(o *options) {
		o.provider = p
		o.hasProvider = true
	}
}

// WithStorage uses s for banners instead of the configured backend
func WithStorage(s domainservice.BlobStorage) Option {
	return func(o *options) {
		o.storage = s
	}
}

// LoadDependencies wires repositories, storage and services
func LoadDependencies(
	ctx context.Context,
	cfg *config.Config,
	db *database.Database,
	metrics *observability.Metrics,
	log *logger.Logger,
	opts ...Option,
) (*Dependencies, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	// Initialize repositories
	gormDB := db.DB()
	userRepo := repository.NewUserRepository(gormDB)
	tokenRepo := repository.NewTokenRepository(gormDB)
	sessionRepo := repository.NewSessionRepository(gormDB)
	setupRepo := repository.NewSetupRepository(gormDB)
	starRepo := repository.NewStarRepository(gormDB)

	// Initialize storage
	blobStorage := o.storage
	if blobStorage == nil {
		var err error
		blobStorage, err = storage.NewFactory(&cfg.Storage).Create(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
	}

	// Initialize services
	sessionService, err := service.NewSessionService(sessionRepo, cfg.Auth.Session, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sessions: %w", err)
	}

	provider := o.provider
	if !o.hasProvider {
		provider, err = identityProvider(ctx, &cfg.Auth.OAuth, log)
		if err != nil {
			return nil, err
		}
	}

	userService := service.NewUserService(userRepo, log)

	return &Dependencies{
		Config:             cfg,
		DB:                 db,
		Metrics:            metrics,
		Log:                log,
		Storage:            blobStorage,
		AuthResolver:       service.NewAuthResolver(tokenRepo, userRepo, sessionService, metrics, log),
		TokenService:       service.NewTokenService(tokenRepo, cfg.Auth.Tokens, log),
		SessionService:     sessionService,
		UserService:        userService,
		SetupService:       service.NewSetupService(setupRepo, userRepo, metrics, log),
		StarService:        service.NewStarService(starRepo, setupRepo, metrics, log),
		BannerService:      service.NewBannerService(blobStorage, userRepo, log),
		OAuthService:       service.NewOAuthService(provider, userService, sessionService, log),
		MaintenanceService: service.NewMaintenanceService(sessionService, starRepo, metrics, cfg.Maintenance.Interval(), log),
	}, nil
}

// identityProvider builds the configured sign-in provider, or nil when
// OAuth credentials are missing
func identityProvider(ctx context.Context, cfg *config.OAuthConfig, log *logger.Logger) (service.IdentityProvider, error) {
	if !cfg.IsConfigured() {
		log.Warn("OAuth is not configured; browser sign-in is disabled",
			logger.String("provider", cfg.Provider),
		)
		return nil, nil
	}

	if cfg.IsOIDC() {
		p, err := service.NewOIDCProvider(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OIDC provider: %w", err)
		}
		return p, nil
	}
	return service.NewGitHubProvider(cfg), nil
}
