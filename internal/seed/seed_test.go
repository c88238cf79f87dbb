package seed

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appauth "github.com/yigit/gradebook/internal/app/auth"
	"github.com/yigit/gradebook/internal/app/repositories/inmem"
	"github.com/yigit/gradebook/internal/app/services"
	"github.com/yigit/gradebook/internal/config"
	"github.com/yigit/gradebook/internal/pkg/auth"
	"golang.org/x/crypto/bcrypt"
)

func newServices(t *testing.T) *services.Services {
	t.Helper()
	auth.BcryptCost = bcrypt.MinCost
	return services.New(services.Deps{
		Repos:          inmem.NewStore().Repositories(),
		Sessions:       auth.NewSessionManager(auth.SessionConfig{SecretKey: "test-secret", TTL: time.Hour, Issuer: "test"}),
		ImportPassword: "changeme",
		Logger:         zerolog.Nop(),
	})
}

func TestEnsureDefaultAdmin_IsIdempotent(t *testing.T) {
	s := newServices(t)
	cfg := &config.Config{}
	cfg.Admin.Email = "root@uni.example"
	cfg.Admin.Password = "s3cret"
	ctx := context.Background()

	require.NoError(t, EnsureDefaultAdmin(ctx, s.Auth, cfg, zerolog.Nop()))
	require.NoError(t, EnsureDefaultAdmin(ctx, s.Auth, cfg, zerolog.Nop()))

	_, err := s.Auth.Login(ctx, appauth.RoleAdmin, "root@uni.example", "s3cret")
	assert.NoError(t, err)
}

func TestEnsureDefaultAdmin_SkipsWithoutCredentials(t *testing.T) {
	s := newServices(t)
	assert.NoError(t, EnsureDefaultAdmin(context.Background(), s.Auth, &config.Config{}, zerolog.Nop()))
}

func TestCreateDemoData(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	require.NoError(t, CreateDemoData(ctx, s, zerolog.Nop()))
	require.NoError(t, CreateDemoData(ctx, s, zerolog.Nop()))

	classes, err := s.Classes.List(ctx)
	require.NoError(t, err)
	require.Len(t, classes, 1)

	students, err := s.Provisioning.ListStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, students, 1)
}
