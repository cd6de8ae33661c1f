package runner

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextHandler_OutputNumbersOptions(t *testing.T) {
	var out bytes.Buffer
	h := NewTextHandler(strings.NewReader(""), &out)

	err := h.Output(context.Background(), []domain.Activity{
		domain.NewOptionsActivity("Pick one", []domain.Option{
			{Title: "Buy", Payload: "buy"},
			{Title: "Sell", Payload: "sell"},
		}),
	})
	require.NoError(t, err)
	assert.Equal(t, "Pick one\n  1. Buy\n  2. Sell\n", out.String())
}

func TestTextHandler_NumberSelectsPayload(t *testing.T) {
	var out bytes.Buffer
	h := NewTextHandler(strings.NewReader("2\n7\nhello\n"), &out)
	require.NoError(t, h.Output(context.Background(), []domain.Activity{
		domain.NewOptionsActivity("Pick", []domain.Option{
			{Title: "Buy", Payload: "buy"},
			{Title: "Sell", Payload: "sell"},
		}),
	}))

	got, err := h.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sell", got)

	got, err = h.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "7", got, "out of range numbers pass through")

	got, err = h.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	_, err = h.Input(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestTextHandler_RejectsOversizedInput(t *testing.T) {
	var out bytes.Buffer
	h := NewTextHandler(strings.NewReader("way too long\nok\n"), &out, WithTextHandlerMaxInput(5))

	got, err := h.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Contains(t, out.String(), "Please try again")
}

func TestTextHandler_Renderer(t *testing.T) {
	var out bytes.Buffer
	h := NewTextHandler(strings.NewReader(""), &out, WithTextHandlerRenderer(func(s string) (string, error) {
		return "**" + s + "**", nil
	}))
	require.NoError(t, h.Output(context.Background(), []domain.Activity{domain.NewTextActivity("hi")}))
	assert.Equal(t, "**hi**\n", out.String())
}

func TestTextHandler_InputCancelled(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	h := NewTextHandler(r, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.Input(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJSONHandler_DecodeInput(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{`"buy"`, "buy"},
		{`{"text":"Clothes"}`, "Clothes"},
		{`About shopping`, "About shopping"},
		{`{"other":1}`, `{"other":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeInput(tt.line))
		})
	}
}

func TestJSONHandler_SkipsBlankLinesAndStripsControls(t *testing.T) {
	var out bytes.Buffer
	h := NewJSONHandler(strings.NewReader("\n\"\\u0000ok\"\n"), &out)

	got, err := h.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", got)

	_, err = h.Input(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}
