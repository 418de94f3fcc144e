package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const defaultDialTimeout = 10 * time.Second

// ErrProviderClosed is returned by Client after Close.
var ErrProviderClosed = errors.New("firestore: provider is closed")

// Provider lazily creates one shared Firestore client.
type Provider struct {
	projectID    string
	emulatorHost string
	dialTimeout  time.Duration
	clientOpts   []option.ClientOption

	mu     sync.Mutex
	client *firestore.Client
	closed bool
}

// ProviderOption customises the Provider.
type ProviderOption func(*Provider)

// WithEmulatorHost points the client at a local emulator without credentials.
func WithEmulatorHost(host string) ProviderOption {
	return func(p *Provider) { p.emulatorHost = strings.TrimSpace(host) }
}

// WithDialTimeout overrides the client creation timeout.
func WithDialTimeout(timeout time.Duration) ProviderOption {
	return func(p *Provider) {
		if timeout > 0 {
			p.dialTimeout = timeout
		}
	}
}

// WithClientOptions appends Google API client options.
func WithClientOptions(opts ...option.ClientOption) ProviderOption {
	return func(p *Provider) { p.clientOpts = append(p.clientOpts, opts...) }
}

// NewProvider constructs a Provider for projectID.
func NewProvider(projectID string, opts ...ProviderOption) *Provider {
	p := &Provider{projectID: strings.TrimSpace(projectID), dialTimeout: defaultDialTimeout}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Client returns the shared client, creating it on first use. Creation is
// serialised by the provider mutex so concurrent callers share one client.
func (p *Provider) Client(ctx context.Context) (*firestore.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrProviderClosed
	}
	if p.client != nil {
		return p.client, nil
	}
	if p.projectID == "" {
		return nil, errors.New("firestore: project id is required")
	}

	dialCtx, cancel := context.WithTimeout(ctx, p.dialTimeout)
	defer cancel()

	opts := append([]option.ClientOption(nil), p.clientOpts...)
	if p.emulatorHost != "" {
		opts = append(opts,
			option.WithoutAuthentication(),
			option.WithEndpoint(p.emulatorHost),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	}
	client, err := firestore.NewClient(dialCtx, p.projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore: create client: %w", err)
	}
	p.client = client
	return client, nil
}

// Ping lists at most one collection to verify connectivity.
func (p *Provider) Ping(ctx context.Context) error {
	client, err := p.Client(ctx)
	if err != nil {
		return err
	}
	iter := client.Collections(ctx)
	if _, err := iter.Next(); err != nil && !isDone(err) {
		return WrapError("firestore.ping", err)
	}
	return nil
}

// Close releases the client. The provider cannot be reused afterwards.
func (p *Provider) Close(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.client == nil {
		return nil
	}
	err := p.client.Close()
	p.client = nil
	return err
}
