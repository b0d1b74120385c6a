package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyEqualityIsStructural(t *testing.T) {
	assert.True(t, K("projects", "p1").Equal(K("projects", "p1")))
	assert.False(t, K("projects", "p1").Equal(K("projects")))
	assert.False(t, K("a/b").Equal(K("a", "b")))
	assert.NotEqual(t, K("a/b").id(), K("a", "b").id())
}

func TestKeyHasPrefix(t *testing.T) {
	tests := []struct {
		name   string
		key    Key
		prefix Key
		want   bool
	}{
		{name: "exact", key: K("projects"), prefix: K("projects"), want: true},
		{name: "child", key: K("projects", "p1"), prefix: K("projects"), want: true},
		{name: "empty prefix", key: K("stats"), prefix: nil, want: true},
		{name: "other resource", key: K("stats"), prefix: K("projects"), want: false},
		{name: "segment not string prefix", key: K("projects-archive"), prefix: K("projects"), want: false},
		{name: "longer prefix", key: K("projects"), prefix: K("projects", "p1"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.key.HasPrefix(tt.prefix))
		})
	}
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "projects/p1", K("projects", "p1").String())
	assert.Equal(t, "fetching", StatusFetching.String())
}
