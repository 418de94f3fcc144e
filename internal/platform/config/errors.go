package config

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

var errSecretResolverNotConfigured = errors.New("secret resolver not configured")

// ValidationError lists configuration fields that are missing or invalid.
type ValidationError struct {
	fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

func (e *ValidationError) Fields() []string { return slices.Clone(e.fields) }

// SecretError describes a failed secret reference lookup.
type SecretError struct {
	Ref string
	Err error
}

func (e *SecretError) Error() string {
	return fmt.Sprintf("secret resolution failed for ref %q: %v", e.Ref, e.Err)
}

func (e *SecretError) Unwrap() error { return e.Err }

// MissingSecretsError is returned by Load when a field listed through
// WithRequiredSecrets is still empty after resolution. Its message carries
// hashed names only, so it can be logged as is.
type MissingSecretsError struct {
	names []string
}

func (e *MissingSecretsError) Error() string {
	redacted := e.RedactedNames()
	if len(redacted) == 0 {
		return "missing required secrets"
	}
	return "missing required secrets [" + strings.Join(redacted, ", ") + "]"
}

// RedactedNames maps each name to the first 8 bytes of its sha256, hex encoded.
func (e *MissingSecretsError) RedactedNames() []string {
	if e == nil {
		return nil
	}
	out := make([]string, len(e.names))
	for i, name := range e.names {
		sum := sha256.Sum256([]byte(name))
		out[i] = hex.EncodeToString(sum[:8])
	}
	sort.Strings(out)
	return out
}

// Names is the sorted list of config field paths, e.g. "Mail.Password".
func (e *MissingSecretsError) Names() []string {
	if e == nil {
		return nil
	}
	out := slices.Clone(e.names)
	sort.Strings(out)
	return out
}

func findMissingSecrets(required []string, resolved map[string]string) *MissingSecretsError {
	var missing []string
	for _, name := range required {
		name = strings.TrimSpace(name)
		if name == "" || slices.Contains(missing, name) {
			continue
		}
		if strings.TrimSpace(resolved[name]) == "" {
			missing = append(missing, name)
		}
	}
	if missing == nil {
		return nil
	}
	return &MissingSecretsError{names: missing}
}
