package urp

import (
	"context"
	"fmt"
)

var defaultParser = NewParser(DefaultConfig())

// Parse parses text with the default tables and no logging.
func Parse(text string) (*ParsedResponse, error) {
	return defaultParser.Parse(text)
}

func ExtractFileList(text string) []string {
	return defaultParser.ExtractFileList(text)
}

func GetStreamingStatus(text string, detected []string) StreamingStatus {
	return defaultParser.StreamingStatus(text, detected)
}

func ParseMarkerStream(text string) StreamingFiles {
	return defaultParser.ParseMarkerStream(text)
}

// Apply parses content and writes the result under opts.Root.
func Apply(ctx context.Context, content string, opts Options) (Summary, error) {
	res, err := Parse(content)
	if err != nil {
		return Summary{}, err
	}

	app, err := NewApp(opts)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to initialize urp app: %w", err)
	}
	return app.Execute(ctx, res)
}
