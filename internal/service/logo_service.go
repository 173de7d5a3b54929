package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"studiodesk/internal/domain"
	"studiodesk/internal/finance"
	"studiodesk/internal/models"

	"github.com/rs/zerolog"
)

const (
	logoCacheKey = "logo:active"
	logoCacheTTL = time.Hour
)

var logoExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".svg":  true,
	".webp": true,
}

// LogoService serves the active business logo, falling back to a default.
type LogoService struct {
	store      domain.LogoStore
	files      domain.FileStorage
	cache      domain.Cache
	defaultURL string
	now        func() time.Time
	logger     *zerolog.Logger
}

// NewLogoService wires the service; cache may be nil.
func NewLogoService(store domain.LogoStore, files domain.FileStorage, cache domain.Cache, defaultURL string, logger *zerolog.Logger) *LogoService {
	if defaultURL == "" {
		defaultURL = models.DefaultLogoURL
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &LogoService{
		store:      store,
		files:      files,
		cache:      cache,
		defaultURL: defaultURL,
		now:        time.Now,
		logger:     logger,
	}
}

// GetLogoURL returns the active logo URL or the default one. It never fails;
// store errors are logged and answered with the default.
func (s *LogoService) GetLogoURL(ctx context.Context) string {
	if s.cache != nil {
		if url, ok, err := s.cache.Get(ctx, logoCacheKey); err == nil && ok {
			return url
		}
	}

	logo, err := s.store.GetActiveLogo(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error().Err(err).Msg("get active logo failed")
		}
		return s.defaultURL
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, logoCacheKey, logo.URL, logoCacheTTL); err != nil {
			s.logger.Warn().Err(err).Msg("cache logo url")
		}
	}
	return logo.URL
}

// UploadLogo stores an image and makes it the active logo.
func (s *LogoService) UploadLogo(ctx context.Context, originalName string, r io.Reader) (*models.Logo, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !logoExtensions[ext] {
		return nil, finance.ValidationError{Field: "file", Message: "must be a png, jpg, svg or webp image"}
	}

	name := fmt.Sprintf("logo-%d%s", s.now().UnixMilli(), ext)
	url, err := s.files.Save(ctx, name, r)
	if err != nil {
		s.logger.Error().Err(err).Str("file", name).Msg("save logo file failed")
		return nil, fmt.Errorf("save logo file: %w", err)
	}

	logo := &models.Logo{Name: filepath.Base(originalName), URL: url}
	if err := s.store.SaveLogo(ctx, logo); err != nil {
		s.logger.Error().Err(err).Msg("save logo failed")
		return nil, fmt.Errorf("save logo: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, logoCacheKey); err != nil {
			s.logger.Warn().Err(err).Msg("invalidate logo cache")
		}
	}
	s.logger.Info().Str("url", url).Msg("logo uploaded")
	return logo, nil
}
