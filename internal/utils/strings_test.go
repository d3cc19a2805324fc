package utils

import (
	"strings"
	"testing"
)

func TestTruncateString(t *testing.T) {
	testCases := []struct {
		name          string
		input         string
		maxLen        int
		wantTruncated bool
	}{
		{name: "shorter than maxLen returns unchanged", input: "hello", maxLen: 10},
		{name: "exactly at maxLen returns unchanged", input: "hello", maxLen: 5},
		{name: "longer than maxLen gets truncated", input: "hello world", maxLen: 5, wantTruncated: true},
		{name: "zero maxLen uses default", input: strings.Repeat("a", DefaultMaxStringLength+1), wantTruncated: true},
		{name: "negative maxLen uses default", input: strings.Repeat("b", DefaultMaxStringLength+1), maxLen: -1, wantTruncated: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			got := TruncateString(testCase.input, testCase.maxLen)

			hasSuffix := strings.Contains(got, "... (truncated, total:")
			if hasSuffix != testCase.wantTruncated {
				t.Errorf("TruncateString(%q, %d) truncated=%v, want %v; got %q",
					testCase.input, testCase.maxLen, hasSuffix, testCase.wantTruncated, got)
			}
		})
	}
}

func TestHead(t *testing.T) {
	testCases := []struct {
		input string
		n     int
		want  string
	}{
		{"abcdef", 3, "abc"},
		{"abc", 3, "abc"},
		{"abc", 10, "abc"},
		{"abc", 0, "abc"},
		{"äöüß", 2, "äö"},
		{"", 4, ""},
	}

	for _, testCase := range testCases {
		if got := Head(testCase.input, testCase.n); got != testCase.want {
			t.Errorf("Head(%q, %d) = %q, want %q", testCase.input, testCase.n, got, testCase.want)
		}
	}
}

func TestRuneLen(t *testing.T) {
	if got := RuneLen("…ab"); got != 3 {
		t.Errorf("RuneLen = %d, want 3", got)
	}
}

func TestRound(t *testing.T) {
	testCases := []struct {
		value  float64
		places int
		want   float64
	}{
		{0.5714285, 3, 0.571},
		{1.23456, 2, 1.23},
		{0.6666, 3, 0.667},
		{2, 2, 2},
		{0, 3, 0},
	}

	for _, testCase := range testCases {
		if got := Round(testCase.value, testCase.places); got != testCase.want {
			t.Errorf("Round(%v, %d) = %v, want %v", testCase.value, testCase.places, got, testCase.want)
		}
	}
}
