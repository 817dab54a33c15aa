package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/asset"
	"github.com/rs/zerolog"
)

const deliveryHost = "res.cloudinary.com"

// ErrForeignURL indicates a URL that is not served from the configured cloud.
var ErrForeignURL = errors.New("url does not belong to the configured cloudinary account")

var versionSegment = regexp.MustCompile(`^v\d+$`)

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Service uploads certificates and signs delivery URLs for them.
type Service struct {
	client    *cloudinary.Cloudinary
	cloudName string
	folder    string
	logger    zerolog.Logger
}

// New constructs a Cloudinary service instance.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Service{
		client:    cld,
		cloudName: cfg.CloudName,
		folder:    cfg.Folder,
		logger:    logger.With().Str("component", "cloudinary").Logger(),
	}, nil
}

// Upload sends the file to Cloudinary and returns a secure URL.
func (s *Service) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	params := uploader.UploadParams{
		Folder:       strings.Trim(s.folder, "/"),
		PublicID:     buildPublicID(name),
		ResourceType: "auto",
	}

	result, err := s.client.Upload.Upload(ctx, reader, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload asset: %w", err)
	}

	s.logger.Info().Str("public_id", result.PublicID).Msg("certificate uploaded to cloudinary")

	return result.SecureURL, nil
}

// OwnsURL reports whether rawURL points at this account's delivery host.
func OwnsURL(rawURL, cloudName string) bool {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || cloudName == "" {
		return false
	}
	if parsed.Scheme != "https" || !strings.EqualFold(parsed.Host, deliveryHost) {
		return false
	}
	prefix := "/" + cloudName + "/"
	if !strings.HasPrefix(parsed.Path, prefix) {
		return false
	}
	return strings.HasPrefix(path.Clean(parsed.Path), prefix)
}

// Location is a delivery URL split into the parts needed to rebuild it.
type Location struct {
	ResourceType string
	DeliveryType string
	PublicID     string
}

// ParseDeliveryURL extracts the resource type, delivery type and public id (with
// extension) from a res.cloudinary.com URL. Transformations and version are dropped.
func ParseDeliveryURL(rawURL, cloudName string) (Location, error) {
	if !OwnsURL(rawURL, cloudName) {
		return Location{}, ErrForeignURL
	}

	parsed, _ := url.Parse(strings.TrimSpace(rawURL))
	segments := strings.Split(strings.TrimPrefix(parsed.Path, "/"+cloudName+"/"), "/")
	if len(segments) < 3 {
		return Location{}, fmt.Errorf("unrecognised cloudinary path %q", parsed.Path)
	}

	location := Location{ResourceType: segments[0], DeliveryType: segments[1]}
	rest := segments[2:]
	for i, segment := range rest {
		if versionSegment.MatchString(segment) {
			rest = rest[i+1:]
			break
		}
	}

	location.PublicID = strings.Join(rest, "/")
	if location.PublicID == "" {
		return Location{}, fmt.Errorf("missing public id in %q", parsed.Path)
	}
	return location, nil
}

// SignedAttachmentURL rebuilds rawURL as a signed URL carrying the fl_attachment flag,
// which makes Cloudinary serve the asset as a download.
func (s *Service) SignedAttachmentURL(rawURL string) (string, error) {
	location, err := ParseDeliveryURL(rawURL, s.cloudName)
	if err != nil {
		return "", err
	}

	var target *asset.Asset
	switch location.ResourceType {
	case "video":
		target, err = s.client.Video(location.PublicID)
	case "raw":
		target, err = s.client.File(location.PublicID)
	default:
		target, err = s.client.Image(location.PublicID)
	}
	if err != nil {
		return "", fmt.Errorf("build cloudinary asset: %w", err)
	}

	target.Config.URL.Secure = true
	target.Config.URL.SignURL = true
	target.Transformation = "fl_attachment"

	signed, err := target.String()
	if err != nil {
		return "", fmt.Errorf("sign cloudinary url: %w", err)
	}
	return signed, nil
}

// CloudName returns the configured account name.
func (s *Service) CloudName() string {
	return s.cloudName
}

func buildPublicID(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, base)

	base = strings.Trim(base, "-")
	if base == "" {
		base = fmt.Sprintf("certificate-%d", time.Now().Unix())
	}

	return fmt.Sprintf("%s-%d", base, time.Now().Unix())
}
