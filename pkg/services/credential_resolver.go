package services

import (
	"context"
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-sheets/pkg/adapters/datastore"
	"github.com/ekaya-inc/ekaya-sheets/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-sheets/pkg/audit"
	"github.com/ekaya-inc/ekaya-sheets/pkg/config"
	"github.com/ekaya-inc/ekaya-sheets/pkg/logging"
	"github.com/ekaya-inc/ekaya-sheets/pkg/models"
)

// SecretDecryptor opens project secrets sealed for a project.
type SecretDecryptor interface {
	Decrypt(projectID uuid.UUID, encrypted string) (string, error)
}

// ResolvedStore is where an import is written and with which secret.
type ResolvedStore struct {
	Config datastore.Config
	// Central is true when the project routes to the shared central store.
	Central bool
}

// CredentialResolver picks the datastore for a project and decrypts its secret.
type CredentialResolver interface {
	Resolve(ctx context.Context, target *models.ImportTarget) (*ResolvedStore, error)
}

type credentialResolver struct {
	central   config.CentralStoreConfig
	decryptor SecretDecryptor
	auditor   *audit.SecurityAuditor
	logger    *zap.Logger

	centralAddress string
}

// NewCredentialResolver creates a resolver. central is read once at startup
// and copied; later changes to the caller's value have no effect.
func NewCredentialResolver(
	central config.CentralStoreConfig,
	decryptor SecretDecryptor,
	auditor *audit.SecurityAuditor,
	logger *zap.Logger,
) CredentialResolver {
	return &credentialResolver{
		central:        central,
		decryptor:      decryptor,
		auditor:        auditor,
		logger:         logger.Named("credentials"),
		centralAddress: NormalizeAddress(central.Address),
	}
}

var _ CredentialResolver = (*credentialResolver)(nil)

// Resolve routes a project with its own address to that datastore using
// the project secret. A project with no address, or one equal to the central
// address, goes to the central store with the shared secret, or with its own
// secret when no shared secret is configured.
func (r *credentialResolver) Resolve(ctx context.Context, target *models.ImportTarget) (*ResolvedStore, error) {
	if target == nil {
		return nil, apperrors.ErrNoImportTarget
	}

	address := NormalizeAddress(target.Address)
	if address != "" && address != r.centralAddress {
		return r.resolveExternal(ctx, target, address)
	}
	return r.resolveCentral(ctx, target)
}

func (r *credentialResolver) resolveExternal(ctx context.Context, target *models.ImportTarget, address string) (*ResolvedStore, error) {
	if IsLocalStore(target.StoreType, address) {
		r.logger.Warn("Rejected file-based datastore for project",
			zap.String("project_id", target.ProjectID.String()),
			zap.String("store_type", target.StoreType))
		return nil, &apperrors.ConfigurationError{
			Message:     "file-based datastores cannot be used as a project's import target",
			Remediation: "Point the project's connection settings at a database server or REST API.",
		}
	}

	if !target.HasSecret() {
		r.logger.Warn("External datastore has no credentials",
			zap.String("project_id", target.ProjectID.String()))
		return nil, &apperrors.ConfigurationError{
			Message:     "the project's datastore has no credentials configured",
			Remediation: "Update the project's connection settings with the datastore API key or password, then retry the import.",
		}
	}

	secret, err := r.decrypt(ctx, target)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Routing import to external datastore",
		zap.String("project_id", target.ProjectID.String()),
		zap.String("address", logging.SanitizeConnectionString(address)))
	return &ResolvedStore{
		Config: datastore.Config{Type: target.StoreType, Address: address, Secret: secret},
	}, nil
}

func (r *credentialResolver) resolveCentral(ctx context.Context, target *models.ImportTarget) (*ResolvedStore, error) {
	if !r.central.IsConfigured() {
		return nil, &apperrors.ConfigurationError{
			Message:     "no datastore is configured for this project",
			Remediation: "Set a datastore address in the project's connection settings.",
		}
	}

	secret := r.central.Secret
	if !r.central.HasSecret() {
		if !target.HasSecret() {
			return nil, &apperrors.ConfigurationError{
				Message:     "the central datastore has no credentials configured",
				Remediation: "Set CENTRAL_STORE_SECRET or add credentials to the project's connection settings.",
			}
		}
		var err error
		if secret, err = r.decrypt(ctx, target); err != nil {
			return nil, err
		}
	}

	storeType := r.central.Type
	if storeType == "" {
		storeType = target.StoreType
	}
	return &ResolvedStore{
		Config:  datastore.Config{Type: storeType, Address: r.centralAddress, Secret: secret},
		Central: true,
	}, nil
}

func (r *credentialResolver) decrypt(ctx context.Context, target *models.ImportTarget) (string, error) {
	secret, err := r.decryptor.Decrypt(target.ProjectID, target.EncryptedSecret)
	if err != nil {
		if r.auditor != nil {
			r.auditor.LogCredentialFailure(ctx, target.ProjectID, "project secret could not be decrypted")
		}
		return "", &apperrors.CredentialError{Err: err}
	}
	return secret, nil
}

// localSchemes are address schemes that resolve to files on this server.
var localSchemes = map[string]bool{
	"sqlite":  true,
	"sqlite3": true,
	"file":    true,
}

// IsLocalStore reports whether a store type or address names a database file
// on the server rather than a remote datastore.
func IsLocalStore(storeType, address string) bool {
	if localSchemes[strings.ToLower(strings.TrimSpace(storeType))] {
		return true
	}
	scheme, _, ok := strings.Cut(strings.TrimSpace(address), ":")
	return ok && localSchemes[strings.ToLower(scheme)]
}

// addressRewrites turns dashboard and sub-resource URLs into the canonical
// API address. Patterns are tried in order; the first match wins.
var addressRewrites = []struct {
	pattern *regexp.Regexp
	replace string
}{
	{regexp.MustCompile(`^https?://(?:app\.)?supabase\.com/dashboard/project/([a-z0-9]+)(?:[/?#].*)?$`), "https://$1.supabase.co"},
	{regexp.MustCompile(`^https?://(?:app\.)?supabase\.com/project/([a-z0-9]+)(?:[/?#].*)?$`), "https://$1.supabase.co"},
	{regexp.MustCompile(`^https?://([a-z0-9]+)\.supabase\.co/(?:rest|auth|storage)/v1(?:[/?#].*)?$`), "https://$1.supabase.co"},
}

var defaultPorts = map[string]string{
	"http":       "80",
	"https":      "443",
	"postgres":   "5432",
	"postgresql": "5432",
	"sqlserver":  "1433",
	"mysql":      "3306",
}

// NormalizeAddress returns the canonical form of a datastore address so two
// spellings of the same store compare equal. Scheme and host are lowercased;
// default ports and trailing slashes are dropped. Empty input stays empty.
func NormalizeAddress(address string) string {
	address = strings.TrimSpace(address)
	if address == "" {
		return ""
	}

	u, err := url.Parse(address)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.TrimRight(address, "/")
	}

	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	switch port := u.Port(); {
	case port != "" && port != defaultPorts[u.Scheme]:
		host = net.JoinHostPort(host, port)
	case strings.Contains(host, ":"):
		host = "[" + host + "]"
	}
	u.Host = host
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.Fragment = ""

	normalized := u.String()
	for _, rw := range addressRewrites {
		if rw.pattern.MatchString(normalized) {
			return rw.pattern.ReplaceAllString(normalized, rw.replace)
		}
	}
	return normalized
}
