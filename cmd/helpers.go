package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Tiliavir/hrms-time-calc/internal/config"
	"github.com/Tiliavir/hrms-time-calc/internal/extract"
	"github.com/Tiliavir/hrms-time-calc/internal/gemini"
	"github.com/Tiliavir/hrms-time-calc/internal/imageprep"
)

// newExtractor builds the extractor selected by ai.provider.
func newExtractor(ctx context.Context, cfg config.AI, logger *slog.Logger) (extract.Extractor, error) {
	switch cfg.Provider {
	case config.ProviderEndpoint:
		if strings.TrimSpace(cfg.EndpointURL) == "" {
			return nil, errors.New("ai.endpoint_url is required when ai.provider = \"endpoint\"")
		}
		return extract.NewClient(ctx, extract.Config{
			URL:            cfg.EndpointURL,
			AccessToken:    cfg.AccessToken,
			TimeoutSeconds: cfg.TimeoutSeconds,
		}, extract.WithLogger(logger)), nil
	default:
		client := gemini.NewClient(ctx, gemini.Config{
			APIKey:         cfg.APIKey,
			AccessToken:    cfg.AccessToken,
			BaseURL:        cfg.BaseURL,
			Model:          cfg.Model,
			TimeoutSeconds: cfg.TimeoutSeconds,
		}, gemini.WithLogger(logger))
		if !client.Configured() {
			return nil, errors.New("gemini api key not configured (set ai.api_key or GEMINI_API_KEY)")
		}
		return client, nil
	}
}

// prepareImageFile compresses the screenshot at path for upload.
func prepareImageFile(path string, cfg config.Image) ([]byte, imageprep.Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, imageprep.Stats{}, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()
	return imageprep.Prepare(f, imageprep.Options{
		MaxDimension: cfg.MaxDimension,
		Quality:      cfg.Quality,
	})
}

// compressionLine mirrors the upload confirmation: "Image compressed by 62% (1.2MB → 0.4MB)".
func compressionLine(stats imageprep.Stats) string {
	return fmt.Sprintf("Image compressed by %d%% (%.1fMB → %.1fMB)",
		stats.ReductionPercent(),
		float64(stats.OriginalBytes)/1024/1024,
		float64(stats.CompressedBytes)/1024/1024,
	)
}

// parseEntryFlag splits "9:00 AM-12:00 PM" into its clock-in and clock-out.
func parseEntryFlag(s string) (string, string, error) {
	in, out, ok := strings.Cut(s, "-")
	in, out = strings.TrimSpace(in), strings.TrimSpace(out)
	if !ok || in == "" || out == "" {
		return "", "", fmt.Errorf("invalid --entry %q: want \"<clock-in>-<clock-out>\", e.g. \"9:00 AM-12:00 PM\"", s)
	}
	return in, out, nil
}
