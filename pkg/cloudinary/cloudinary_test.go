package cloudinary

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildPublicIDKeepsSubmissionKeying(t *testing.T) {
	publicID := buildPublicID("portfolio/submissions/7/site.zip")
	require.True(t, strings.HasPrefix(publicID, "portfolio/submissions/7/site-"), publicID)
}

func TestBuildPublicIDStripsTraversalSegments(t *testing.T) {
	publicID := buildPublicID("../portfolio/../7/site.zip")
	require.NotContains(t, publicID, "..")
	require.False(t, strings.HasPrefix(publicID, "/"))
}

func TestBuildPublicIDSanitizesSegments(t *testing.T) {
	publicID := buildPublicID("portfolio/laporan akhir (final).zip")
	require.True(t, strings.HasPrefix(publicID, "portfolio/laporan-akhir--final"), publicID)
}
