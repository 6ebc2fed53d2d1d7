package service_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seka-portal-api/internal/service"
)

func TestBuildPreview_EmbedsAllParts(t *testing.T) {
	doc := service.BuildPreview("<h1>Hi</h1>", "h1 { color: red; }", "console.log('x')")

	require.True(t, strings.HasPrefix(doc, "<!DOCTYPE html>"))
	require.Contains(t, doc, service.PreviewContentPolicy)
	require.Contains(t, doc, "<style>\nh1 { color: red; }\n</style>")
	require.Contains(t, doc, "<h1>Hi</h1>")
	require.Contains(t, doc, "<script>\nconsole.log('x')\n</script>")
}

func TestBuildPreview_OmitsEmptyBlocks(t *testing.T) {
	doc := service.BuildPreview("<p>only html</p>", "", "")

	require.NotContains(t, doc, "<style>")
	require.NotContains(t, doc, "<script>")
	require.Contains(t, doc, "<p>only html</p>")
}

func TestBuildPreview_PolicyBlocksNetwork(t *testing.T) {
	require.Contains(t, service.PreviewContentPolicy, "default-src 'none'")
	require.Contains(t, service.PreviewContentPolicy, "frame-ancestors 'none'")
}
