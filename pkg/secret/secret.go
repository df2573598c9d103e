// Package secret resolves indirect credential references to their values.
// Resolution is synchronous and happens exactly once, while a configuration
// snapshot is being built; the steady-state request path never touches it.
package secret

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// KubernetesMountRoot is where the standard secret volume mounts live.
const KubernetesMountRoot = "/var/run/secrets"

// Ref is a tagged reference to a credential. Exactly one field is set.
type Ref struct {
	// Literal is the secret value inline.
	Literal string `yaml:"literal,omitempty" json:"literal,omitempty"`

	// Environment names a process environment variable.
	Environment string `yaml:"environment,omitempty" json:"environment,omitempty"`

	// File names a file whose trimmed contents are the secret.
	File string `yaml:"file,omitempty" json:"file,omitempty"`

	// Kubernetes references a key in a mounted kubernetes secret.
	Kubernetes *KubernetesRef `yaml:"kubernetes,omitempty" json:"kubernetes,omitempty"`
}

// KubernetesRef addresses one key of a file-mounted kubernetes secret.
type KubernetesRef struct {
	SecretName string `yaml:"secret_name" json:"secret_name"`
	Key        string `yaml:"key" json:"key"`
}

// IsZero reports whether the reference is empty.
func (r *Ref) IsZero() bool {
	return r == nil || (r.Literal == "" && r.Environment == "" && r.File == "" && r.Kubernetes == nil)
}

// Resolve reads the referenced secret. Environment references read the
// process environment at call time; file and kubernetes references read the
// named file once. A missing or unreadable secret is an error.
func (r *Ref) Resolve() (string, error) {
	switch {
	case r == nil:
		return "", fmt.Errorf("secret reference is nil")
	case r.Literal != "":
		return r.Literal, nil
	case r.Environment != "":
		v, ok := os.LookupEnv(r.Environment)
		if !ok {
			return "", fmt.Errorf("environment variable %q is not set", r.Environment)
		}
		return v, nil
	case r.File != "":
		return readSecretFile(r.File)
	case r.Kubernetes != nil:
		if r.Kubernetes.SecretName == "" || r.Kubernetes.Key == "" {
			return "", fmt.Errorf("kubernetes secret reference requires secret_name and key")
		}
		return readSecretFile(filepath.Join(KubernetesMountRoot, r.Kubernetes.SecretName, r.Kubernetes.Key))
	default:
		return "", fmt.Errorf("secret reference is empty")
	}
}

func readSecretFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading secret file %s: %w", path, err)
	}
	return strings.TrimSpace(string(b)), nil
}
