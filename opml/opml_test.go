package opml

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/robertmeta/newswire/model"
	"github.com/robertmeta/newswire/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOPML_ValidFile(t *testing.T) {
	opmlContent := `<?xml version="1.0" encoding="UTF-8"?>
<opml version="2.0">
  <head>
    <title>Test Feeds</title>
  </head>
  <body>
    <outline text="spor" title="spor">
      <outline type="rss" text="ntv" xmlUrl="https://example.com/ntv-spor" color="#006699"/>
      <outline type="rss" text="sabah" xmlUrl="https://example.com/sabah-spor"/>
    </outline>
    <outline type="rss" text="milliyet" xmlUrl="https://example.com/milliyet" logo="/logos/milliyet.png"/>
    <outline type="rss" title="hurriyet" xmlUrl="https://example.com/hurriyet-dunya" category="dunya"/>
  </body>
</opml>`

	reg, err := Parse(strings.NewReader(opmlContent), "all")
	require.NoError(t, err)
	assert.Equal(t, []string{"all", "dunya", "spor"}, reg.Categories())

	_, spor := reg.Resolve("spor")
	require.Len(t, spor, 2)
	assert.Equal(t, "ntv", spor[0].ID)
	assert.Equal(t, "#006699", spor[0].Color)
	assert.Equal(t, "sabah", spor[1].ID)

	_, all := reg.Resolve("all")
	require.Len(t, all, 1)
	assert.Equal(t, "/logos/milliyet.png", all[0].Logo)

	_, dunya := reg.Resolve("dunya")
	require.Len(t, dunya, 1)
	assert.Equal(t, "hurriyet", dunya[0].ID, "title is used when text is missing")
}

func TestParseOPML_Invalid(t *testing.T) {
	_, err := Parse(strings.NewReader("<opml><broken>"), "all")
	assert.Error(t, err)

	_, err = Parse(strings.NewReader(`<opml version="2.0"><body></body></opml>`), "all")
	assert.Error(t, err, "an OPML without feeds cannot form a registry")
}

func TestGenerate_RoundTrip(t *testing.T) {
	reg, err := registry.New("all", map[string][]model.Source{
		"all":      {{ID: "ntv", URL: "https://example.com/ntv", Logo: "/logos/ntv.png", Color: "#006699"}},
		"breaking": {{ID: "trthaber", URL: "https://example.com/trt"}},
	}, map[string]time.Duration{"breaking": time.Hour}, 0)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, reg))
	assert.Contains(t, buf.String(), `xmlUrl="https://example.com/ntv"`)

	back, err := Parse(&buf, "all")
	require.NoError(t, err)
	assert.Equal(t, reg.Categories(), back.Categories())

	_, all := back.Resolve("all")
	require.Len(t, all, 1)
	assert.Equal(t, "ntv", all[0].ID)
	assert.Equal(t, "/logos/ntv.png", all[0].Logo)
	assert.Equal(t, "#006699", all[0].Color)
}
