// Package snapshot reads strategy exports from a file, an HTTP endpoint or
// a Kafka topic and decodes them into models.Snapshot.
package snapshot

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"FinDash/internal/domain/models"
	"FinDash/internal/domain/repository"
	xhttp "FinDash/pkg/http"
)

// Kind identifies how a snapshot location is read.
type Kind string

const (
	KindFile  Kind = "file"
	KindHTTP  Kind = "http"
	KindKafka Kind = "kafka"
)

const kafkaScheme = "kafka://"

// ParseLocation classifies a configured snapshot location. For kafka the
// returned target is the topic name.
func ParseLocation(location string) (Kind, string) {
	switch {
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return KindHTTP, location
	case strings.HasPrefix(location, kafkaScheme):
		return KindKafka, strings.TrimPrefix(location, kafkaScheme)
	default:
		return KindFile, location
	}
}

// HTTPSource polls a snapshot URL. Every request carries a fresh cache
// busting token so intermediaries never serve a stale export.
type HTTPSource struct {
	url    string
	client *xhttp.Client
}

// NewHTTPSource creates an HTTP snapshot source.
func NewHTTPSource(location string, timeout time.Duration) *HTTPSource {
	opts := []xhttp.ClientOption{}
	if timeout > 0 {
		opts = append(opts, xhttp.WithTimeout(timeout))
	}
	return &HTTPSource{url: location, client: xhttp.NewClient(opts...)}
}

func (s *HTTPSource) Location() string { return s.url }

// Fetch downloads and decodes the export.
func (s *HTTPSource) Fetch(ctx context.Context) (*models.Snapshot, error) {
	var body []byte
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     s.url,
		Headers: map[string]string{"Cache-Control": "no-cache"},
		Query:   url.Values{"t": {uuid.NewString()}},
	}, &body)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot %s: %w", s.url, err)
	}
	return Decode(body)
}

// FileSource reads the export straight from disk.
type FileSource struct {
	path string
}

// NewFileSource creates a file snapshot source.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Location() string { return s.path }

// Fetch reads and decodes the export.
func (s *FileSource) Fetch(ctx context.Context) (*models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return Decode(b)
}

// NewSource builds a polling source for a file path or URL. Kafka
// locations need a consumer and are built with NewKafkaSource instead.
func NewSource(location string, timeout time.Duration) (repository.SnapshotSource, error) {
	kind, target := ParseLocation(location)
	switch kind {
	case KindHTTP:
		return NewHTTPSource(target, timeout), nil
	case KindFile:
		if target == "" {
			return nil, fmt.Errorf("snapshot source is empty")
		}
		return NewFileSource(target), nil
	default:
		return nil, fmt.Errorf("snapshot source %q needs a kafka consumer", location)
	}
}
