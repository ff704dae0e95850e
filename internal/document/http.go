package document

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"docsift-backend/internal/shared/fault"
)

const httpLoadTimeout = 60 * time.Second

// HTTPSource downloads a document from an http(s) URL.
type HTTPSource struct {
	URL  string
	Name string

	// Client overrides the default HTTP client, mainly for tests.
	Client *http.Client
}

func (s HTTPSource) Load(ctx context.Context) ([]byte, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: httpLoadTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fault.Wrap(fault.KindDocument, fmt.Sprintf("build request for %s", s.URL), err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fault.Wrap(fault.KindDocument, fmt.Sprintf("download %s", s.URL), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fault.Newf(fault.KindDocument, "download %s: status %d", s.URL, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fault.Wrap(fault.KindDocument, fmt.Sprintf("read body of %s", s.URL), err)
	}
	return data, nil
}

func (s HTTPSource) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	parsed, err := url.Parse(s.URL)
	if err != nil {
		return s.URL
	}
	segments := strings.Split(strings.TrimSuffix(parsed.Path, "/"), "/")
	if last := segments[len(segments)-1]; last != "" {
		return last
	}
	return s.URL
}
