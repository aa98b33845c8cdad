package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "rumor-trust-system/pkg/errors"
)

func TestNewRejectsEmptySalt(t *testing.T) {
	// 盐值缺失必须拒绝，不允许退回默认值
	_, err := New("")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindConfiguration, apperrors.KindOf(err))
}

func TestTokenDeterministic(t *testing.T) {
	g, err := New("salt-a")
	require.NoError(t, err)

	first := g.Token("voter-1", 42)
	second := g.Token("voter-1", 42)
	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestTokenVariesWithInputs(t *testing.T) {
	g, err := New("salt-a")
	require.NoError(t, err)

	base := g.Token("voter-1", 42)
	assert.NotEqual(t, base, g.Token("voter-2", 42))
	assert.NotEqual(t, base, g.Token("voter-1", 43))

	// 换盐之后同样输入得到不同指纹
	rotated, err := New("salt-b")
	require.NoError(t, err)
	assert.NotEqual(t, base, rotated.Token("voter-1", 42))
}
