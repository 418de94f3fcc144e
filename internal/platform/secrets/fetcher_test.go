package secrets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type stubClient struct {
	values map[string]string
	err    error
	calls  int
}

func (s *stubClient) AccessSecretVersion(_ context.Context, req *secretmanagerpb.AccessSecretVersionRequest, _ ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	value, ok := s.values[req.GetName()]
	if !ok {
		return nil, status.Error(codes.NotFound, "missing")
	}
	return &secretmanagerpb.AccessSecretVersionResponse{Payload: &secretmanagerpb.SecretPayload{Data: []byte(value)}}, nil
}

func (s *stubClient) Close() error { return nil }

func TestResolveRemoteAndCache(t *testing.T) {
	client := &stubClient{values: map[string]string{
		"projects/site-prod/secrets/session-hash/versions/latest": "hash-value",
	}}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	fetcher, err := NewFetcher(context.Background(),
		WithClient(client),
		WithProject("site-prod"),
		WithFallbackFile(filepath.Join(t.TempDir(), "missing")),
		WithClock(func() time.Time { return now }),
	)
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}

	for i := 0; i < 2; i++ {
		value, err := fetcher.Resolve(context.Background(), "secret://session/hash")
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if value != "hash-value" {
			t.Fatalf("unexpected value %q", value)
		}
	}
	if client.calls != 1 {
		t.Fatalf("expected cached second lookup, got %d calls", client.calls)
	}

	now = now.Add(time.Hour)
	if _, err := fetcher.Resolve(context.Background(), "secret://session/hash"); err != nil {
		t.Fatalf("Resolve after expiry: %v", err)
	}
	if client.calls != 2 {
		t.Fatalf("expected refetch after ttl, got %d calls", client.calls)
	}
}

func TestResolveFallsBackOnUnavailable(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".secrets.local")
	if err := os.WriteFile(path, []byte("# local\nsm://smtp/password=local-pass\n"), 0o600); err != nil {
		t.Fatalf("write fallback: %v", err)
	}
	client := &stubClient{err: status.Error(codes.Unavailable, "offline")}
	fetcher, err := NewFetcher(context.Background(), WithClient(client), WithProject("p"), WithFallbackFile(path))
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	value, err := fetcher.Resolve(context.Background(), "secret://smtp/password")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if value != "local-pass" {
		t.Fatalf("unexpected value %q", value)
	}
}

func TestResolveDoesNotFallBackOnNotFound(t *testing.T) {
	client := &stubClient{values: map[string]string{}}
	fetcher, err := NewFetcher(context.Background(), WithClient(client), WithProject("p"), WithFallbackFile(""))
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	_, err = fetcher.Resolve(context.Background(), "secret://db/dsn")
	if err == nil || status.Code(errors.Unwrap(err)) != codes.NotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestResolveWithoutProjectUsesFallbackOnly(t *testing.T) {
	fetcher, err := NewFetcher(context.Background(), WithFallbackFile(filepath.Join(t.TempDir(), "none")))
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	_, err = fetcher.Resolve(context.Background(), "secret://db/dsn")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestParseReference(t *testing.T) {
	ref, err := parseReference("secret://db/dsn?version=3&project=other")
	if err != nil {
		t.Fatalf("parseReference: %v", err)
	}
	if ref.name != "db-dsn" || ref.version != "3" || ref.project != "other" {
		t.Fatalf("unexpected reference %+v", ref)
	}
	if _, err := parseReference("https://example.com/x"); err == nil {
		t.Fatalf("expected unsupported scheme error")
	}
}
