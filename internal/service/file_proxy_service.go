package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/arpanpramanik2003/smart-student-hub/internal/observability"
	"github.com/arpanpramanik2003/smart-student-hub/pkg/cloudinary"
)

const defaultFileProxyTimeout = 30 * time.Second

var (
	// ErrFileURLRequired indicates the url query parameter was missing.
	ErrFileURLRequired = errors.New("file url is required")
	// ErrFileURLForbidden indicates the url is not hosted on the configured Cloudinary account.
	ErrFileURLForbidden = errors.New("only cloudinary certificate urls are allowed")
	// ErrFileFetchFailed indicates the upstream fetch failed or returned a non-2xx status.
	ErrFileFetchFailed = errors.New("failed to fetch file")
	// ErrFileSigningUnavailable indicates downloads cannot be signed without Cloudinary credentials.
	ErrFileSigningUnavailable = errors.New("file downloads are not configured")
)

// URLSigner produces signed attachment URLs for stored certificates.
type URLSigner interface {
	SignedAttachmentURL(rawURL string) (string, error)
}

// ProxiedFile is a certificate fetched on behalf of the browser.
type ProxiedFile struct {
	Content     []byte
	ContentType string
	Filename    string
}

// FileProxyService serves Cloudinary certificates inline or as signed downloads.
type FileProxyService interface {
	View(ctx context.Context, rawURL string) (ProxiedFile, error)
	DownloadURL(ctx context.Context, rawURL string) (string, error)
}

type fileProxyService struct {
	cloudName string
	signer    URLSigner
	client    *resty.Client
	logger    zerolog.Logger
}

// NewFileProxyService constructs the proxy. A nil client gets a resty client with the given timeout.
func NewFileProxyService(cloudName string, signer URLSigner, client *resty.Client, timeout time.Duration, logger zerolog.Logger) FileProxyService {
	if timeout <= 0 {
		timeout = defaultFileProxyTimeout
	}
	if client == nil {
		client = resty.New()
	}
	client.SetTimeout(timeout)

	return &fileProxyService{
		cloudName: cloudName,
		signer:    signer,
		client:    client,
		logger:    logger.With().Str("component", "file_proxy_service").Logger(),
	}
}

func (s *fileProxyService) View(ctx context.Context, rawURL string) (ProxiedFile, error) {
	tracer := otel.Tracer("github.com/arpanpramanik2003/smart-student-hub/internal/service/file_proxy")
	ctx, span := tracer.Start(ctx, "files.view")
	defer span.End()

	target, err := s.validate(rawURL)
	if err != nil {
		observability.FileProxyRequests().WithLabelValues("view", "rejected").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "rejected")
		return ProxiedFile{}, err
	}
	span.SetAttributes(attribute.String("files.url", target))

	resp, err := s.client.R().SetContext(ctx).Get(target)
	if err != nil {
		observability.FileProxyRequests().WithLabelValues("view", "error").Inc()
		s.logger.Error().Err(err).Str("url", target).Msg("certificate fetch failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch_failed")
		return ProxiedFile{}, fmt.Errorf("%w: %v", ErrFileFetchFailed, err)
	}
	if !resp.IsSuccess() {
		observability.FileProxyRequests().WithLabelValues("view", "upstream_error").Inc()
		s.logger.Warn().Int("status", resp.StatusCode()).Str("url", target).Msg("certificate fetch returned non-success status")
		span.SetStatus(codes.Error, "upstream_status")
		return ProxiedFile{}, fmt.Errorf("%w: upstream returned %d", ErrFileFetchFailed, resp.StatusCode())
	}

	contentType := resp.Header().Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	observability.FileProxyRequests().WithLabelValues("view", "ok").Inc()
	span.SetStatus(codes.Ok, "served")

	return ProxiedFile{
		Content:     resp.Body(),
		ContentType: contentType,
		Filename:    fileNameFromURL(target),
	}, nil
}

func (s *fileProxyService) DownloadURL(ctx context.Context, rawURL string) (string, error) {
	target, err := s.validate(rawURL)
	if err != nil {
		observability.FileProxyRequests().WithLabelValues("download", "rejected").Inc()
		return "", err
	}
	if s.signer == nil {
		observability.FileProxyRequests().WithLabelValues("download", "error").Inc()
		return "", ErrFileSigningUnavailable
	}

	signed, err := s.signer.SignedAttachmentURL(target)
	if err != nil {
		observability.FileProxyRequests().WithLabelValues("download", "error").Inc()
		s.logger.Error().Err(err).Str("url", target).Msg("failed to sign download url")
		if errors.Is(err, cloudinary.ErrForeignURL) {
			return "", ErrFileURLForbidden
		}
		return "", fmt.Errorf("%w: %v", ErrFileFetchFailed, err)
	}

	observability.FileProxyRequests().WithLabelValues("download", "ok").Inc()
	return signed, nil
}

func (s *fileProxyService) validate(rawURL string) (string, error) {
	target := strings.TrimSpace(rawURL)
	if target == "" {
		return "", ErrFileURLRequired
	}
	if !cloudinary.OwnsURL(target, s.cloudName) {
		s.logger.Warn().Str("url", target).Msg("rejected non-cloudinary file url")
		return "", ErrFileURLForbidden
	}
	return target, nil
}

func fileNameFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "certificate"
	}
	name := path.Base(parsed.Path)
	if name == "" || name == "." || name == "/" {
		return "certificate"
	}
	return name
}
