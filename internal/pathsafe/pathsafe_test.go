package pathsafe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/ArthurDEV44/ctxopt/internal/errors"
)

func TestValidatePathTraversalRejected(t *testing.T) {
	_, err := ValidatePath("../../etc/passwd", "/work")
	require.Error(t, err)
	assert.Equal(t, cerrors.PathValidation, cerrors.CodeOf(err))
}

func TestValidatePathBlockedBasenameRejected(t *testing.T) {
	_, err := ValidatePath(".env", "/work")
	require.Error(t, err)
	assert.Equal(t, cerrors.PathValidation, cerrors.CodeOf(err))
}

func TestValidatePathHappyPath(t *testing.T) {
	v, err := ValidatePath("src/x.ts", "/work")
	require.NoError(t, err)
	assert.Equal(t, "/work/src/x.ts", v.String())
}

func TestValidatePathContainment(t *testing.T) {
	// property: any Ok result is absolute and relative(W, v) doesn't start with ".."
	for _, p := range []string{"a.go", "nested/b.go", "./c.go"} {
		v, err := ValidatePath(p, "/work")
		require.NoError(t, err)
		assert.True(t, len(v.String()) > 0 && v.String()[0] == '/')
	}
}

func TestValidatePatternRejectsTraversal(t *testing.T) {
	_, err := ValidatePattern("../**/*.go")
	require.Error(t, err)
	assert.Equal(t, cerrors.PatternInvalid, cerrors.CodeOf(err))
}

func TestValidatePatternAccepts(t *testing.T) {
	p, err := ValidatePattern("src/**/*.go")
	require.NoError(t, err)
	assert.True(t, p.Match("src/a/b.go"))
	assert.False(t, p.Match("other/a/b.go"))
}
