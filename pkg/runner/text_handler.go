package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/parley/pkg/domain"
)

// TextHandler implements the interactive terminal interface.
// Options are printed as a numbered list; answering with a number sends that option's payload,
// the same text a card click would send.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer
	MaxInput int

	mu          sync.Mutex
	lastOptions []domain.Option

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithTextHandlerMaxInput sets the input size limit. Zero keeps the default.
func WithTextHandlerMaxInput(limit int) TextHandlerOption {
	return func(h *TextHandler) {
		h.MaxInput = limit
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader:   bufio.NewReader(r),
		Writer:   w,
		MaxInput: limitFromEnv(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

// pump reads lines in the background so Input can honor context cancellation.
func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				h.inputChan <- inputResult{err: err}
			}
			close(h.inputChan)
			return
		}
	}
}

// Output writes text activities as-is and option activities as a numbered list.
func (h *TextHandler) Output(ctx context.Context, activities []domain.Activity) error {
	for _, act := range activities {
		if _, err := fmt.Fprintln(h.Writer, h.render(act.Text)); err != nil {
			return err
		}
		if act.Type != domain.ActivityOptions {
			continue
		}
		for i, opt := range act.Options {
			if _, err := fmt.Fprintf(h.Writer, "  %d. %s\n", i+1, opt.Title); err != nil {
				return err
			}
		}
		h.mu.Lock()
		h.lastOptions = append([]domain.Option(nil), act.Options...)
		h.mu.Unlock()
	}
	return nil
}

func (h *TextHandler) render(text string) string {
	out := text
	if h.Renderer != nil {
		if rendered, err := h.Renderer(text); err == nil {
			out = rendered
		}
	}
	return strings.TrimSpace(out)
}

// Input prompts and reads one sanitized line. Invalid input is reported and re-read.
func (h *TextHandler) Input(ctx context.Context) (string, error) {
	h.initPump()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			fmt.Fprint(h.Writer, "> ")
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}

			clean, err := SanitizeInputLimit(strings.TrimSpace(res.text), h.MaxInput)
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			return h.resolveChoice(clean), nil
		}
	}
}

// resolveChoice maps "2" to the payload of the second option last shown.
func (h *TextHandler) resolveChoice(text string) string {
	n, err := strconv.Atoi(text)
	if err != nil {
		return text
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if n < 1 || n > len(h.lastOptions) {
		return text
	}
	return h.lastOptions[n-1].Payload
}

// SystemOutput prints a meta-message with a "[System]" prefix.
func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, "\n[System] %s\n", msg)
	return err
}
