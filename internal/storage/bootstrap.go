package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
)

// fetchBootstrap reads the one-time seed document from a path or an http(s)
// URL. A missing source is reported as ok=false.
func fetchBootstrap(ctx context.Context, client *http.Client, source string) ([]byte, bool, error) {
	if source == "" {
		return nil, false, nil
	}

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, false, fmt.Errorf("invalid bootstrap URL: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, false, fmt.Errorf("failed to fetch bootstrap document: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, false, nil
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, false, fmt.Errorf("failed to fetch bootstrap document: status %d", resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, false, fmt.Errorf("failed to read bootstrap document: %w", err)
		}
		return data, true, nil
	}

	data, err := os.ReadFile(source)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read bootstrap document: %w", err)
	}
	return data, true, nil
}
