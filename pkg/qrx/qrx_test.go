package qrx_test

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/aussiebroadwan/authcore/pkg/qrx"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	t.Parallel()

	t.Run("empty content", func(t *testing.T) {
		t.Parallel()
		for _, content := range []string{"", "  \t\n"} {
			out, err := qrx.Renderer{}.Render(content)
			require.ErrorIs(t, err, qrx.ErrEmptyContent)
			require.Nil(t, out)
		}
	})

	t.Run("default size", func(t *testing.T) {
		t.Parallel()
		out, err := qrx.Renderer{}.Render("otpauth://totp/Authcore:alice?secret=JBSWY3DPEHPK3PXP&issuer=Authcore")
		require.NoError(t, err)

		img, err := png.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		require.Equal(t, qrx.DefaultSize, img.Bounds().Dx())
		require.Equal(t, qrx.DefaultSize, img.Bounds().Dy())
	})

	t.Run("custom size", func(t *testing.T) {
		t.Parallel()
		out, err := qrx.Renderer{Size: 128}.Render("hello")
		require.NoError(t, err)

		img, err := png.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		require.Equal(t, 128, img.Bounds().Dx())
	})

	t.Run("content too long", func(t *testing.T) {
		t.Parallel()
		_, err := qrx.Renderer{}.Render(strings.Repeat("x", 5000))
		require.ErrorIs(t, err, qrx.ErrRender)
	})
}

func TestDataURL(t *testing.T) {
	out, err := qrx.Renderer{}.Render("hello")
	require.NoError(t, err)

	url := qrx.DataURL(out)
	require.True(t, strings.HasPrefix(url, "data:image/png;base64,"))

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:image/png;base64,"))
	require.NoError(t, err)
	require.Equal(t, out, decoded)
}
