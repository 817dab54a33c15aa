package cloudinary

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestOwnsURL(t *testing.T) {
	require.True(t, OwnsURL("https://res.cloudinary.com/demo/image/upload/v1/cert.pdf", "demo"))
	require.False(t, OwnsURL("http://res.cloudinary.com/demo/image/upload/v1/cert.pdf", "demo"))
	require.False(t, OwnsURL("https://res.cloudinary.com/other/image/upload/v1/cert.pdf", "demo"))
	require.False(t, OwnsURL("https://evil.example.com/demo/image/upload/cert.pdf", "demo"))
	require.False(t, OwnsURL("https://res.cloudinary.com/demo-evil/image/upload/cert.pdf", "demo"))
	require.False(t, OwnsURL("::not a url", "demo"))
	require.False(t, OwnsURL("https://res.cloudinary.com/demo/../other/image/upload/cert.pdf", "demo"))
	require.False(t, OwnsURL("https://res.cloudinary.com/demo/%2e%2e/other/image/upload/cert.pdf", "demo"))
	require.True(t, OwnsURL("https://res.cloudinary.com/demo/image/../raw/upload/cert.pdf", "demo"))
}

func TestParseDeliveryURL(t *testing.T) {
	location, err := ParseDeliveryURL("https://res.cloudinary.com/demo/image/upload/c_fill,w_200/v1700000000/certs/hackathon.pdf", "demo")
	require.NoError(t, err)
	require.Equal(t, Location{ResourceType: "image", DeliveryType: "upload", PublicID: "certs/hackathon.pdf"}, location)

	raw, err := ParseDeliveryURL("https://res.cloudinary.com/demo/raw/upload/certs/notes.docx", "demo")
	require.NoError(t, err)
	require.Equal(t, "raw", raw.ResourceType)
	require.Equal(t, "certs/notes.docx", raw.PublicID)

	_, err = ParseDeliveryURL("https://res.cloudinary.com/other/image/upload/v1/a.png", "demo")
	require.ErrorIs(t, err, ErrForeignURL)

	_, err = ParseDeliveryURL("https://res.cloudinary.com/demo/image", "demo")
	require.Error(t, err)
}

func TestSignedAttachmentURL(t *testing.T) {
	svc, err := New(Config{CloudName: "demo", APIKey: "key", APISecret: "secret"}, zerolog.Nop())
	require.NoError(t, err)

	signed, err := svc.SignedAttachmentURL("https://res.cloudinary.com/demo/image/upload/v1700000000/certs/hackathon.pdf")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(signed, "https://res.cloudinary.com/demo/image/upload/"))
	require.Contains(t, signed, "fl_attachment")
	require.Contains(t, signed, "s--")
	require.Contains(t, signed, "certs/hackathon")

	_, err = svc.SignedAttachmentURL("https://example.com/file.pdf")
	require.ErrorIs(t, err, ErrForeignURL)
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{CloudName: "demo"}, zerolog.Nop())
	require.Error(t, err)
}
