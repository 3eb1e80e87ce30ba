package webfetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ilkoid/pilates-vision/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><head>
<title>Pilates</title>
<style>.x { color: red; } /* a long enough style line to be kept */</style>
<script>var longEnoughScriptVariable = "should never appear";</script>
</head><body>
<noscript>Please enable JavaScript to view this page properly</noscript>
<h1>Short</h1>
<p>The Hundred: breathing and core activation exercise</p>
<p>   Roll Up: spinal articulation, hamstring flexibility   </p>
<ul><li>Single Leg Circle improves hip mobility</li></ul>
</body></html>`

func TestExtractText(t *testing.T) {
	text, err := ExtractText(strings.NewReader(page), 90, 20)
	require.NoError(t, err)

	assert.Equal(t,
		"The Hundred: breathing and core activation exercise\n"+
			"Roll Up: spinal articulation, hamstring flexibility\n"+
			"Single Leg Circle improves hip mobility",
		text)
	assert.NotContains(t, text, "longEnoughScriptVariable")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "enable JavaScript")
}

func TestExtractText_MaxLines(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 120; i++ {
		fmt.Fprintf(&b, "<p>Exercise number %03d with a long description</p>", i)
	}
	b.WriteString("</body></html>")

	text, err := ExtractText(strings.NewReader(b.String()), 90, 20)
	require.NoError(t, err)

	lines := strings.Split(text, "\n")
	assert.Len(t, lines, 90)
	assert.Contains(t, lines[89], "089")
}

func TestRelevantLines_LengthIsStrict(t *testing.T) {
	exactly20 := strings.Repeat("a", 20)
	exactly21 := strings.Repeat("б", 21)
	assert.Equal(t, exactly21, relevantLines(exactly20+"\n"+exactly21, 90, 20))
}

func TestClient_FetchText(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	c := NewFromConfig(config.FetcherConfig{RateLimit: 6000, BurstLimit: 10})

	text, err := c.FetchText(context.Background(), srv.URL+"/ok")
	require.NoError(t, err)
	assert.Contains(t, text, "The Hundred")
	assert.Equal(t, "PilatesVisionProgressBot/1.0", gotUA)

	_, err = c.FetchText(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	_, err = c.FetchText(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestClient_LimiterPerHost(t *testing.T) {
	c := NewFromConfig(config.FetcherConfig{})
	a := c.getOrCreateLimiter("a.example")
	assert.Same(t, a, c.getOrCreateLimiter("a.example"))
	assert.NotSame(t, a, c.getOrCreateLimiter("b.example"))
}
