package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestVersion(t *testing.T) {
	if version == "" {
		t.Error("version should not be empty")
	}
}

func TestDebugFlagsExist(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)

	for _, flagName := range debugFlagNames {
		flag := cmd.Flags().Lookup(flagName)
		if flag == nil {
			t.Errorf("expected flag --%s to exist", flagName)
		}
	}
}

func TestDebugFlagsWarnAndExit(t *testing.T) {
	testCases := []struct {
		flagName string
		wantMsg  string
	}{
		{"dtypes", "dtypes"},
		{"dair", "dair"},
		{"dlocal", "dlocal"},
		{"dasm", "dasm"},
	}

	for _, tc := range testCases {
		t.Run(tc.flagName, func(t *testing.T) {
			resetDebugFlags()

			var out, errOut bytes.Buffer
			cmd := newRootCmd(&out, &errOut)
			cmd.SetArgs([]string{"--" + tc.flagName, "test.c"})
			err := cmd.Execute()

			if err == nil {
				t.Errorf("expected error for flag --%s, got nil", tc.flagName)
			}
			if !errors.Is(err, ErrNotImplemented) {
				t.Errorf("expected ErrNotImplemented, got %v", err)
			}

			output := errOut.String()
			if !strings.Contains(output, tc.wantMsg) {
				t.Errorf("expected output to contain %q, got %q", tc.wantMsg, output)
			}
			if !strings.Contains(output, "not yet implemented") {
				t.Errorf("expected output to contain 'not yet implemented', got %q", output)
			}
		})
	}
}

func TestNoDebugFlagsNoError(t *testing.T) {
	resetDebugFlags()

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"test.c"})
	err := cmd.Execute()

	if err != nil {
		t.Errorf("expected no error without debug flags, got %v", err)
	}
}

func resetDebugFlags() {
	dTypes = false
	dAIR = false
	dLocal = false
	dAsm = false
}

func TestNormalizeFlags(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "single-dash dtypes",
			input:    []string{"-dtypes", "test.c"},
			expected: []string{"--dtypes", "test.c"},
		},
		{
			name:     "double-dash dtypes unchanged",
			input:    []string{"--dtypes", "test.c"},
			expected: []string{"--dtypes", "test.c"},
		},
		{
			name:     "single-dash dasm",
			input:    []string{"-dasm", "test.c"},
			expected: []string{"--dasm", "test.c"},
		},
		{
			name:     "mixed flags",
			input:    []string{"test.c", "-dtypes", "-dair"},
			expected: []string{"test.c", "--dtypes", "--dair"},
		},
		{
			name:     "no flags",
			input:    []string{"test.c"},
			expected: []string{"test.c"},
		},
		{
			name:     "other flags unchanged",
			input:    []string{"-o", "output.o", "test.c"},
			expected: []string{"-o", "output.o", "test.c"},
		},
		{
			name:     "all debug flags",
			input:    []string{"-dtypes", "-dair", "-dlocal", "-dasm"},
			expected: []string{"--dtypes", "--dair", "--dlocal", "--dasm"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := normalizeFlags(tc.input)
			if len(result) != len(tc.expected) {
				t.Errorf("normalizeFlags(%v) = %v, want %v", tc.input, result, tc.expected)
				return
			}
			for i := range result {
				if result[i] != tc.expected[i] {
					t.Errorf("normalizeFlags(%v) = %v, want %v", tc.input, result, tc.expected)
					return
				}
			}
		})
	}
}
