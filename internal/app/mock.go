package app

import (
	"context"
	"fmt"
	"strings"
)

// MockClient is an offline Client that speaks the real tag protocol. Used by
// --mock mode and tests; scripted responses take priority, otherwise a small
// intent sniff over the latest user message produces a plausible reply.
type MockClient struct {
	// Responses are consumed in order when set.
	Responses []string
	// ChunkSize controls how Stream slices output; <=0 streams line by line.
	ChunkSize int
	Calls     int
}

func NewMockClient(responses ...string) *MockClient {
	return &MockClient{Responses: responses}
}

func (c *MockClient) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.Calls++
	if len(c.Responses) > 0 {
		resp := c.Responses[0]
		c.Responses = c.Responses[1:]
		return resp, nil
	}
	return c.generate(prompt), nil
}

func (c *MockClient) Stream(ctx context.Context, prompt string, onDelta func(delta string)) (string, error) {
	full, err := c.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	var total strings.Builder
	for _, chunk := range c.chunks(full) {
		if err := ctx.Err(); err != nil {
			return total.String(), err
		}
		total.WriteString(chunk)
		if onDelta != nil {
			onDelta(chunk)
		}
	}
	return total.String(), nil
}

func (c *MockClient) chunks(s string) []string {
	if c.ChunkSize > 0 {
		var out []string
		for len(s) > c.ChunkSize {
			out = append(out, s[:c.ChunkSize])
			s = s[c.ChunkSize:]
		}
		if s != "" {
			out = append(out, s)
		}
		return out
	}
	return strings.SplitAfter(s, "\n")
}

func (c *MockClient) generate(prompt string) string {
	input := latestUserMessage(prompt)
	lower := strings.ToLower(input)

	switch {
	case strings.Contains(lower, "create"):
		path := firstUnknownPath(prompt, input)
		if path != "" {
			return fmt.Sprintf(`<status_update>Creating %s</status_update>Created a placeholder file.
<file_changes>
<change path=%q>
<content>
# placeholder generated in mock mode
</content>
</change>
</file_changes>`, path, path)
		}
	case strings.Contains(lower, "delete"):
		path := firstMentionedPath(prompt, input)
		if path != "" {
			return fmt.Sprintf(`<status_update>Removing %s</status_update>Removed the file as requested.
<file_changes>
<change path=%q>
<content></content>
</change>
</file_changes>`, path, path)
		}
	}

	return "<status_update>Thinking</status_update>This is a mock response; set an API key for real model output."
}

// latestUserMessage pulls the final [USER] section out of the rendered prompt.
func latestUserMessage(prompt string) string {
	idx := strings.LastIndex(prompt, "[USER]\n")
	if idx < 0 {
		return prompt
	}
	rest := prompt[idx+len("[USER]\n"):]
	if end := strings.Index(rest, "\n[ASSISTANT]"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

// firstMentionedPath finds a loaded file path that the user named.
func firstMentionedPath(prompt, input string) string {
	for _, word := range strings.Fields(input) {
		word = strings.Trim(word, `.,"'`)
		if strings.Contains(word, ".") && strings.Contains(prompt, "--- "+word+" ---") {
			return word
		}
	}
	return ""
}

// firstUnknownPath finds a file-looking word that is not already loaded.
func firstUnknownPath(prompt, input string) string {
	for _, word := range strings.Fields(input) {
		word = strings.Trim(word, `.,"'`)
		if strings.Contains(word, ".") && !strings.HasSuffix(word, ".") &&
			!strings.Contains(prompt, "--- "+word+" ---") {
			return word
		}
	}
	return ""
}
