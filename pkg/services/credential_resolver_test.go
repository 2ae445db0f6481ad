package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ekaya-inc/ekaya-sheets/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-sheets/pkg/audit"
	"github.com/ekaya-inc/ekaya-sheets/pkg/config"
	"github.com/ekaya-inc/ekaya-sheets/pkg/crypto"
	"github.com/ekaya-inc/ekaya-sheets/pkg/models"
)

const centralAddress = "https://central.supabase.co"

func newTestEncryptor(t *testing.T) *crypto.CredentialEncryptor {
	t.Helper()
	enc, err := crypto.NewCredentialEncryptor("MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=")
	require.NoError(t, err)
	return enc
}

func sealedTarget(t *testing.T, enc *crypto.CredentialEncryptor, address, secret string) *models.ImportTarget {
	t.Helper()
	target := &models.ImportTarget{ProjectID: uuid.New(), Address: address, TableName: "sales"}
	if secret != "" {
		sealed, err := enc.Encrypt(target.ProjectID, secret)
		require.NoError(t, err)
		target.EncryptedSecret = sealed
	}
	return target
}

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"   ", ""},
		{"https://supabase.com/dashboard/project/abcdefgh/editor/123", "https://abcdefgh.supabase.co"},
		{"https://app.supabase.com/project/abcdefgh", "https://abcdefgh.supabase.co"},
		{"https://abcdefgh.supabase.co/rest/v1/", "https://abcdefgh.supabase.co"},
		{"HTTPS://AbcDefgh.Supabase.co/", "https://abcdefgh.supabase.co"},
		{"https://abcdefgh.supabase.co:443", "https://abcdefgh.supabase.co"},
		{"postgres://ingest@DB.example.com:5432/sales/", "postgres://ingest@db.example.com/sales"},
		{"postgres://db.example.com:6543/sales", "postgres://db.example.com:6543/sales"},
		{"sqlserver://[::1]:1433?database=sales", "sqlserver://[::1]?database=sales"},
		{"not a url/", "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeAddress(tt.input))
		})
	}
}

func TestCredentialResolver_ExternalUsesProjectSecret(t *testing.T) {
	enc := newTestEncryptor(t)
	resolver := NewCredentialResolver(config.CentralStoreConfig{Address: centralAddress, Secret: "shared"}, enc, nil, zap.NewNop())

	target := sealedTarget(t, enc, "https://supabase.com/dashboard/project/tenantref", "tenant-key")
	target.StoreType = "rest"

	resolved, err := resolver.Resolve(context.Background(), target)
	require.NoError(t, err)
	assert.False(t, resolved.Central)
	assert.Equal(t, "https://tenantref.supabase.co", resolved.Config.Address)
	assert.Equal(t, "tenant-key", resolved.Config.Secret)
	assert.Equal(t, "rest", resolved.Config.Type)
}

func TestCredentialResolver_ExternalWithoutSecret(t *testing.T) {
	enc := newTestEncryptor(t)
	resolver := NewCredentialResolver(config.CentralStoreConfig{Address: centralAddress, Secret: "shared"}, enc, nil, zap.NewNop())

	_, err := resolver.Resolve(context.Background(), sealedTarget(t, enc, "https://tenant.supabase.co", ""))

	var cfgErr *apperrors.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Remediation, "connection settings")
}

func TestCredentialResolver_RejectsFileBasedStores(t *testing.T) {
	enc := newTestEncryptor(t)
	resolver := NewCredentialResolver(config.CentralStoreConfig{Address: centralAddress, Secret: "shared"}, enc, nil, zap.NewNop())

	tests := []struct {
		name      string
		address   string
		storeType string
	}{
		{"sqlite url", "sqlite:///tmp/tenant_chosen.db", ""},
		{"sqlite relative", "sqlite://tenant.db", ""},
		{"file uri", "file:/var/lib/ekaya/tenant.db?mode=rwc", ""},
		{"uppercase scheme", "SQLITE:///tmp/x.db", ""},
		{"explicit type", "/tmp/tenant.db", "sqlite"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := sealedTarget(t, enc, tt.address, "tenant-key")
			target.StoreType = tt.storeType

			resolved, err := resolver.Resolve(context.Background(), target)

			assert.Nil(t, resolved)
			var cfgErr *apperrors.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Contains(t, cfgErr.Message, "file-based")
		})
	}
}

func TestIsLocalStore(t *testing.T) {
	assert.True(t, IsLocalStore("", "sqlite::memory:"))
	assert.True(t, IsLocalStore("SQLite", "https://tenant.supabase.co"))
	assert.False(t, IsLocalStore("", "postgres://db.example.com/sales"))
	assert.False(t, IsLocalStore("rest", "https://tenant.supabase.co"))
	assert.False(t, IsLocalStore("", ""))
}

func TestCredentialResolver_CentralRouting(t *testing.T) {
	enc := newTestEncryptor(t)

	tests := []struct {
		name       string
		central    config.CentralStoreConfig
		address    string
		secret     string
		wantSecret string
	}{
		{
			name:       "matching address uses shared secret",
			central:    config.CentralStoreConfig{Address: centralAddress, Secret: "shared"},
			address:    "https://supabase.com/dashboard/project/central/settings",
			secret:     "tenant-key",
			wantSecret: "shared",
		},
		{
			name:       "absent address uses shared secret",
			central:    config.CentralStoreConfig{Address: centralAddress, Secret: "shared"},
			wantSecret: "shared",
		},
		{
			name:       "no shared secret falls back to project secret",
			central:    config.CentralStoreConfig{Address: centralAddress},
			address:    centralAddress + "/",
			secret:     "tenant-key",
			wantSecret: "tenant-key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := NewCredentialResolver(tt.central, enc, nil, zap.NewNop())

			resolved, err := resolver.Resolve(context.Background(), sealedTarget(t, enc, tt.address, tt.secret))
			require.NoError(t, err)
			assert.True(t, resolved.Central)
			assert.Equal(t, centralAddress, resolved.Config.Address)
			assert.Equal(t, tt.wantSecret, resolved.Config.Secret)
		})
	}
}

func TestCredentialResolver_CentralWithoutAnySecret(t *testing.T) {
	enc := newTestEncryptor(t)
	resolver := NewCredentialResolver(config.CentralStoreConfig{Address: centralAddress}, enc, nil, zap.NewNop())

	_, err := resolver.Resolve(context.Background(), sealedTarget(t, enc, "", ""))

	var cfgErr *apperrors.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Remediation, "CENTRAL_STORE_SECRET")
}

func TestCredentialResolver_NothingConfigured(t *testing.T) {
	enc := newTestEncryptor(t)
	resolver := NewCredentialResolver(config.CentralStoreConfig{}, enc, nil, zap.NewNop())

	_, err := resolver.Resolve(context.Background(), sealedTarget(t, enc, "", ""))

	var cfgErr *apperrors.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestCredentialResolver_DecryptFailure(t *testing.T) {
	enc := newTestEncryptor(t)
	core, logs := observer.New(zapcore.InfoLevel)
	auditor := audit.NewSecurityAuditor(zap.New(core))
	resolver := NewCredentialResolver(config.CentralStoreConfig{Address: centralAddress}, enc, auditor, zap.NewNop())

	// Sealed for one project, presented as another's.
	target := sealedTarget(t, enc, "https://tenant.supabase.co", "tenant-key")
	target.ProjectID = uuid.New()

	_, err := resolver.Resolve(context.Background(), target)

	var credErr *apperrors.CredentialError
	require.ErrorAs(t, err, &credErr)
	assert.ErrorIs(t, err, crypto.ErrDecryptionFailed)
	assert.NotContains(t, err.Error(), "tenant-key")

	entries := logs.FilterMessage("Datastore credential decryption failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, target.ProjectID.String(), entries[0].ContextMap()["project_id"])
}

type failingDecryptor struct{}

func (failingDecryptor) Decrypt(uuid.UUID, string) (string, error) {
	return "", errors.New("boom")
}

func TestCredentialResolver_NilTarget(t *testing.T) {
	resolver := NewCredentialResolver(config.CentralStoreConfig{}, failingDecryptor{}, nil, zap.NewNop())

	_, err := resolver.Resolve(context.Background(), nil)
	assert.ErrorIs(t, err, apperrors.ErrNoImportTarget)
}
