package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperation_String(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		want string
	}{
		{"added", OpAdded, "ADDED"},
		{"changed", OpChanged, "CHANGED"},
		{"removed", OpRemoved, "REMOVED"},
		{"unknown", Operation(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.op.String())
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	// When: getting default options
	opts := DefaultOptions()

	// Then: defaults are sensible
	assert.Equal(t, 200*time.Millisecond, opts.DebounceWindow)
	assert.Equal(t, 5*time.Second, opts.PollInterval)
	assert.Equal(t, 100, opts.EventBufferSize)
	assert.Equal(t, ".mdx", opts.Extension)
	assert.False(t, opts.ForcePolling)
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr string
	}{
		{"defaults", DefaultOptions(), ""},
		{"zero value", Options{}, ""},
		{"negative debounce", Options{DebounceWindow: -time.Second}, "debounce"},
		{"negative poll", Options{PollInterval: -time.Second}, "poll interval"},
		{"extension without dot", Options{Extension: "md"}, "extension"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOptions_WithDefaults(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want Options
	}{
		{
			name: "empty options get defaults",
			opts: Options{},
			want: DefaultOptions(),
		},
		{
			name: "partial options keep custom values",
			opts: Options{
				DebounceWindow: 500 * time.Millisecond,
				ForcePolling:   true,
			},
			want: Options{
				DebounceWindow:  500 * time.Millisecond,
				PollInterval:    5 * time.Second,
				EventBufferSize: 100,
				Extension:       ".mdx",
				ForcePolling:    true,
			},
		},
		{
			name: "all custom values preserved",
			opts: Options{
				DebounceWindow:  100 * time.Millisecond,
				PollInterval:    10 * time.Second,
				EventBufferSize: 500,
				Extension:       ".md",
			},
			want: Options{
				DebounceWindow:  100 * time.Millisecond,
				PollInterval:    10 * time.Second,
				EventBufferSize: 500,
				Extension:       ".md",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.opts.WithDefaults())
		})
	}
}

func TestIsContentFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"magniy.mdx", true},
		{"vitamin-d.mdx", true},
		{".mdx", false},
		{"", false},
		{".", false},
		{"notes.md", false},
		{".hidden.mdx", false},
		{"#magniy.mdx#", false},
		{"#magniy.mdx", false},
		{"magniy.mdx~", false},
		{"nested/magniy.mdx", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsContentFile(tt.path, ".mdx"))
		})
	}
}
