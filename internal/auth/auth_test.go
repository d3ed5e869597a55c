package auth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/crew-alert/internal/domain/crew"
)

// testParams keeps hashing fast in tests.
//
//nolint:gochecknoglobals // Shared test fixture.
var testParams = Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

func newTestAuthenticator(t *testing.T) *Authenticator {
	t.Helper()

	supervisor, err := HashCode("chef", testParams)
	require.NoError(t, err)

	member, err := HashCode("equipier", testParams)
	require.NoError(t, err)

	a, err := New(supervisor, member)
	require.NoError(t, err)

	return a
}

// TestLogin_Roles verifies each code unlocks its role regardless of case and spacing.
func TestLogin_Roles(t *testing.T) {
	t.Parallel()

	a := newTestAuthenticator(t)

	role, err := a.Login("chef")
	require.NoError(t, err)
	require.Equal(t, crew.RoleSupervisor, role)

	role, err = a.Login("  EQUIPIER ")
	require.NoError(t, err)
	require.Equal(t, crew.RoleCrewMember, role)
}

// TestLogin_Rejections verifies empty and unknown codes.
func TestLogin_Rejections(t *testing.T) {
	t.Parallel()

	a := newTestAuthenticator(t)

	_, err := a.Login(" ")
	require.ErrorIs(t, err, crew.ErrInvalidInput)

	_, err = a.Login("pompier")
	require.ErrorIs(t, err, ErrInvalidCode)
	require.ErrorIs(t, err, crew.ErrForbidden)
}

// TestHashCode_SaltedAndParsable verifies hashes differ per call and round-trip through the parser.
func TestHashCode_SaltedAndParsable(t *testing.T) {
	t.Parallel()

	first, err := HashCode("chef", testParams)
	require.NoError(t, err)

	second, err := HashCode("chef", testParams)
	require.NoError(t, err)
	require.NotEqual(t, first, second)
	require.Contains(t, first, "$argon2id$v=19$m=1024,t=1,p=1$")

	parsed, err := parseHash(first)
	require.NoError(t, err)
	require.True(t, parsed.matches("chef"))
	require.False(t, parsed.matches("equipier"))
}

// TestNew_InvalidHashes verifies malformed configuration is rejected.
func TestNew_InvalidHashes(t *testing.T) {
	t.Parallel()

	valid, err := HashCode("chef", testParams)
	require.NoError(t, err)

	_, err = New("chef", valid)
	require.ErrorIs(t, err, ErrInvalidHash)

	_, err = New(valid, "$argon2id$v=16$m=1,t=1,p=1$c2FsdA$a2V5")
	require.ErrorIs(t, err, ErrIncompatibleVersion)

	_, err = New(valid, "$argon2id$v=19$m=1,t=1,p=1$!!!$a2V5")
	require.ErrorIs(t, err, ErrInvalidHash)
}
