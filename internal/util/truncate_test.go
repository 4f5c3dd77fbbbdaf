package util

import "testing"

func TestTruncateLog_ExactLimit(t *testing.T) {
	input := "12345678901234567890" // 20 chars
	result := TruncateLog(input, 20)
	if result != input {
		t.Errorf("TruncateLog() should not truncate at exact limit, got %q", result)
	}
}

func TestTruncateLog_LongString(t *testing.T) {
	input := "1234567890abcdefghij" // 20 chars
	result := TruncateLog(input, 10)
	if result != "1234567890... [truncated, 20 bytes total]" {
		t.Errorf("TruncateLog() = %q, want \"1234567890... [truncated, 20 bytes total]\"", result)
	}
}

func TestTruncateBytes_LongBytes(t *testing.T) {
	// Create bytes longer than DefaultLogMaxLen (1024)
	input := make([]byte, 2000)
	for i := range input {
		input[i] = 'x'
	}
	result := TruncateBytes(input)
	if len(result) <= DefaultLogMaxLen {
		t.Errorf("TruncateBytes() result should be longer than maxLen due to suffix, got len=%d", len(result))
	}
	if result[:DefaultLogMaxLen] != string(input[:DefaultLogMaxLen]) {
		t.Error("TruncateBytes() should preserve first DefaultLogMaxLen bytes")
	}
}

func TestTruncateBody(t *testing.T) {
	if got := TruncateBody("abcdef", 6); got != "abcdef" {
		t.Errorf("TruncateBody() at limit = %q, want unchanged", got)
	}
	if got := TruncateBody("abcdefgh", 4); got != "abcd...[truncated]" {
		t.Errorf("TruncateBody() = %q, want \"abcd...[truncated]\"", got)
	}
	// "é" is two bytes; a limit of 2 falls inside it.
	if got := TruncateBody("aébc", 2); got != "a...[truncated]" {
		t.Errorf("TruncateBody() split a rune: %q", got)
	}
}

func TestMaskKey(t *testing.T) {
	tests := map[string]string{
		"":                    "",
		"short":               "****",
		"12345678":            "****",
		"sk-ant-api03-abcdef": "sk-a****cdef",
	}
	for in, want := range tests {
		if got := MaskKey(in); got != want {
			t.Errorf("MaskKey(%q) = %q, want %q", in, got, want)
		}
	}
}
