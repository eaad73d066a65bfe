package naming

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestNamingFunctions(t *testing.T) {
	now := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{
			name:     "Group",
			got:      Group("smoke_test", "ci-runner", now),
			expected: "smoke_test-ci-runner-1709978400",
		},
		{
			name:     "Group with dotted host",
			got:      Group("smoke_test", "runner.ci.local", now),
			expected: "smoke_test-runner-ci-local-1709978400",
		},
		{
			name:     "Group with empty host",
			got:      Group("smoke_test", "", now),
			expected: "smoke_test-unknown-1709978400",
		},
		{
			name:     "VM",
			got:      VM("universal-vm-", 2),
			expected: "universal-vm-2",
		},
		{
			name:     "LogFile",
			got:      LogFile(now),
			expected: "smoke_test_2024_03_09.log",
		},
		{
			name:     "Abbreviation",
			got:      Abbreviation("zh1-spm22.zh1"),
			expected: "zh1",
		},
		{
			name:     "Abbreviation short",
			got:      Abbreviation("z1"),
			expected: "z1",
		},
		{
			name:     "Abbreviation multi-byte",
			got:      Abbreviation("zürich-1.zh1"),
			expected: "zür",
		},
		{
			name:     "Abbreviation three runes",
			got:      Abbreviation("äöü"),
			expected: "äöü",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.got)
		})
	}
}

func TestAbbreviation_ValidUTF8(t *testing.T) {
	for _, host := range []string{"日本語-1.jp1", "zü.zh1", "ab"} {
		assert.True(t, utf8.ValidString(Abbreviation(host)), host)
		assert.LessOrEqual(t, utf8.RuneCountInString(Abbreviation(host)), 3)
	}
}

func TestGroup_UniquePerSecond(t *testing.T) {
	now := time.Now()
	assert.NotEqual(t, Group("p", "h", now), Group("p", "h", now.Add(time.Second)))
}
