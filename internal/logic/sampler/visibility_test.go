package sampler_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/declue/container-ops/internal/logic/sampler"
)

type visibilityCase struct {
	name         string
	giveMode     string
	giveExplicit string
	giveSelfUID  int32
	want         map[int32]struct{}
}

func TestResolveAllowedUIDs(t *testing.T) {
	t.Parallel()

	tests := []visibilityCase{
		{
			name:        "all mode returns no filter",
			giveMode:    sampler.VisibilityAll,
			giveSelfUID: 1000,
			want:        nil,
		},
		{
			name:        "unknown mode defaults to no filter",
			giveMode:    "",
			giveSelfUID: 1000,
			want:        nil,
		},
		{
			name:        "user mode returns own uid",
			giveMode:    sampler.VisibilityUser,
			giveSelfUID: 1000,
			want:        map[int32]struct{}{1000: {}},
		},
		{
			name:        "user+root mode adds root",
			giveMode:    sampler.VisibilityUserRoot,
			giveSelfUID: 1000,
			want:        map[int32]struct{}{0: {}, 1000: {}},
		},
		{
			name:         "explicit list overrides mode and dedupes",
			giveMode:     sampler.VisibilityUser,
			giveExplicit: "5, 7,7",
			giveSelfUID:  1000,
			want:         map[int32]struct{}{5: {}, 7: {}},
		},
		{
			name:         "explicit list parsing to empty falls back to own uid",
			giveMode:     sampler.VisibilityAll,
			giveExplicit: "abc, -1",
			giveSelfUID:  1000,
			want:         map[int32]struct{}{1000: {}},
		},
		{
			name:         "whitespace-only explicit list is ignored",
			giveMode:     sampler.VisibilityUser,
			giveExplicit: "   ",
			giveSelfUID:  42,
			want:         map[int32]struct{}{42: {}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := sampler.ResolveAllowedUIDs(tt.giveMode, tt.giveExplicit, tt.giveSelfUID)
			require.Equal(t, tt.want, got)
		})
	}
}
