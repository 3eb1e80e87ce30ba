package std

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ilkoid/pilates-vision/pkg/config"
	"github.com/ilkoid/pilates-vision/pkg/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	pages map[string]string
	calls []string
}

func (f *fakeFetcher) FetchText(ctx context.Context, url string) (string, error) {
	f.calls = append(f.calls, url)
	text, ok := f.pages[url]
	if !ok {
		return "", errors.New("404 Not Found for url: " + url)
	}
	return text, nil
}

func TestFetchPilatesTool_Definition(t *testing.T) {
	tool := NewFetchPilatesTool(&fakeFetcher{}, config.FetcherConfig{})
	require.NoError(t, tools.NewRegistry().Register(tool))
	assert.Equal(t, FetchPilatesToolName, tool.Definition().Name)
}

func TestFetchPilatesTool_DefaultURLs(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		config.DefaultFetchURLs[0]: "The Hundred",
		config.DefaultFetchURLs[1]: "Roll Up",
	}}
	tool := NewFetchPilatesTool(f, config.FetcherConfig{})

	for _, args := range []string{"", "{}", `{"urls": null}`, `{"urls": []}`} {
		out, err := tool.Execute(context.Background(), args)
		require.NoError(t, err)
		assert.Equal(t,
			"Source: "+config.DefaultFetchURLs[0]+"\nThe Hundred\n\n"+
				"Source: "+config.DefaultFetchURLs[1]+"\nRoll Up",
			out)
	}
}

func TestFetchPilatesTool_PartialFailureIsInline(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{"https://a.example/": "Swan dive"}}
	tool := NewFetchPilatesTool(f, config.FetcherConfig{})

	out, err := tool.Execute(context.Background(), `{"urls":["https://a.example/","https://b.example/"]}`)
	require.NoError(t, err)

	assert.Contains(t, out, "Source: https://a.example/\nSwan dive")
	assert.Contains(t, out, "Source: https://b.example/\nError fetching content: 404 Not Found")
	assert.Equal(t, []string{"https://a.example/", "https://b.example/"}, f.calls)
}

func TestFetchPilatesTool_Truncation(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{"https://a.example/": strings.Repeat("x", 20000)}}
	tool := NewFetchPilatesTool(f, config.FetcherConfig{})

	out, err := tool.Execute(context.Background(), `{"urls":["https://a.example/"]}`)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(out, "\n\n[truncated]"))
	assert.Equal(t, 14000+len("\n\n[truncated]"), len(out))
}

func TestFetchPilatesTool_InvalidArgs(t *testing.T) {
	tool := NewFetchPilatesTool(&fakeFetcher{}, config.FetcherConfig{})
	_, err := tool.Execute(context.Background(), `{"urls": "not-a-list"}`)
	assert.Error(t, err)
}
