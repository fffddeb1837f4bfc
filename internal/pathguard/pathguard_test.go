package pathguard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSafe(t *testing.T) {
	testCases := []struct {
		path string
		want bool
	}{
		{"/overlays/boot_000001/mite/x.jpg", true},
		{"/bee_overlays/boot_000007/000012.jpg", true},
		{"/overlays/../etc/passwd", false},
		{"/bee_overlays/boot_000001/..", false},
		{"overlays/x.jpg", false},
		{"/other_root/x.jpg", false},
		{"/frames/boot_000001/000001.jpg", false},
		{"/overlays", false},
		{"/overlaysX/a.jpg", false},
		{"", false},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.want, IsSafe(tc.path))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "/overlays/boot_000001/a.jpg", Normalize("%2Foverlays%2fboot_000001/a.jpg"))
	assert.Equal(t, "/bee_overlays/boot_000001/a.jpg", Normalize("\\bee_overlays\\boot_000001\\a.jpg"))
	assert.False(t, IsSafe(Normalize("/overlays%2F..%2Fetc/passwd")))
}
