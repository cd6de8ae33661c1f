package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
)

// JSONHandler implements IOHandler over JSON Lines.
// Each turn's activities are one line; input lines may be a JSON string,
// an object with a "text" field, or raw text.
type JSONHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Encoder  *json.Encoder
	MaxInput int
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:   bufio.NewReader(r),
		Writer:   w,
		Encoder:  json.NewEncoder(w),
		MaxInput: limitFromEnv(),
	}
}

type jsonEnvelope struct {
	Type       string            `json:"type"`
	Activities []domain.Activity `json:"activities,omitempty"`
	Message    string            `json:"message,omitempty"`
}

func (h *JSONHandler) Output(ctx context.Context, activities []domain.Activity) error {
	if len(activities) == 0 {
		return nil
	}
	return h.Encoder.Encode(jsonEnvelope{Type: "activities", Activities: activities})
}

func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	for {
		line, err := h.Reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line == "" {
			if err != nil {
				return "", err
			}
			continue
		}

		text := decodeInput(line)
		clean, serr := SanitizeInputLimit(text, h.MaxInput)
		if serr != nil {
			if eerr := h.SystemOutput(ctx, serr.Error()); eerr != nil {
				return "", eerr
			}
			if err != nil {
				return "", err
			}
			continue
		}
		return clean, nil
	}
}

func decodeInput(line string) string {
	var s string
	if err := json.Unmarshal([]byte(line), &s); err == nil {
		return s
	}
	var obj struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(line), &obj); err == nil && obj.Text != "" {
		return obj.Text
	}
	return line
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(jsonEnvelope{Type: "system", Message: msg})
}
