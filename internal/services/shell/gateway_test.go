package shell

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/tkserver/internal/testutil"
)

type fakeExecutor struct {
	stdout, stderr string
	err            error
	commands       []string
}

func (f *fakeExecutor) Run(_ context.Context, command string) (string, string, error) {
	f.commands = append(f.commands, command)
	return f.stdout, f.stderr, f.err
}

func TestAuthenticate(t *testing.T) {
	g := New(Config{Secret: "Z@5g!7pL"}, nil, testutil.NopLogger())

	tests := []struct {
		name     string
		provided string
		expected bool
	}{
		{"exact match", "Z@5g!7pL", true},
		{"wrong", "nope", false},
		{"case differs", "z@5g!7pl", false},
		{"prefix", "Z@5g", false},
		{"trailing space", "Z@5g!7pL ", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, g.Authenticate(tt.provided))
		})
	}
}

func TestAuthenticateEmptySecretAlwaysFails(t *testing.T) {
	g := New(Config{}, nil, testutil.NopLogger())
	assert.False(t, g.Authenticate(""))
	assert.False(t, g.Authenticate("anything"))
}

func TestAuthenticateBcryptSecret(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	g := New(Config{Secret: string(hash)}, nil, testutil.NopLogger())
	assert.True(t, g.Authenticate("hunter2"))
	assert.False(t, g.Authenticate("hunter3"))
	assert.False(t, g.Authenticate(string(hash)))
}

func TestExecutePrefersStdout(t *testing.T) {
	exec := &fakeExecutor{stdout: "out\n", stderr: "err\n"}
	g := New(Config{Secret: "s"}, exec, testutil.NopLogger())

	out, err := g.Execute(context.Background(), "dir")
	require.NoError(t, err)
	assert.Equal(t, "out\n", out)
	assert.Equal(t, []string{"dir"}, exec.commands)
}

func TestExecuteFallsBackToStderr(t *testing.T) {
	exec := &fakeExecutor{stdout: "  \n", stderr: "not recognized\n"}
	g := New(Config{Secret: "s"}, exec, testutil.NopLogger())

	out, err := g.Execute(context.Background(), "bogus")
	require.NoError(t, err)
	assert.Equal(t, "not recognized\n", out)
}

func TestExecuteSpawnFailure(t *testing.T) {
	boom := errors.New("no such file")
	g := New(Config{Secret: "s"}, &fakeExecutor{err: boom}, testutil.NopLogger())

	_, err := g.Execute(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
}

func TestDisabledExecutor(t *testing.T) {
	g := New(Config{Secret: "s"}, DisabledExecutor{}, testutil.NopLogger())

	_, err := g.Execute(context.Background(), "whoami")
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestHostExecutor(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}

	stdout, stderr, err := HostExecutor{}.Run(context.Background(), "echo hello; echo oops 1>&2; exit 3")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", stdout)
	assert.Equal(t, "oops\n", stderr)
}
