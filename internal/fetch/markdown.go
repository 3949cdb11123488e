package fetch

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/ledongthuc/pdf"
)

// maxMarkdownChars caps page text passed to the extraction agents
const maxMarkdownChars = 10000

// Markdown fetches a URL and returns its content as markdown text. PDF
// responses are reduced to plain text instead.
func (f *Fetcher) Markdown(ctx context.Context, rawURL string) (string, error) {
	result, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}

	var text string
	if isPDF(result.ContentType, result.FinalURL) {
		text, err = pdfText(result.Body)
		if err != nil {
			return "", fmt.Errorf("extract pdf text: %w", err)
		}
	} else {
		converter := md.NewConverter("", true, nil)
		text, err = converter.ConvertString(string(result.Body))
		if err != nil {
			return "", fmt.Errorf("convert to markdown: %w", err)
		}
	}

	text = stripImageData(text)
	if len(text) > maxMarkdownChars {
		text = text[:maxMarkdownChars]
	}
	return text, nil
}

func isPDF(contentType, finalURL string) bool {
	if strings.Contains(strings.ToLower(contentType), "application/pdf") {
		return true
	}
	return strings.HasSuffix(strings.ToLower(finalURL), ".pdf")
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// stripImageData drops lines carrying inline image payloads, which bloat the
// text without carrying membership information
func stripImageData(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.Contains(line, "data:image/") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
