package services

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNewChunkingServiceRejectsBadParams(t *testing.T) {
	cases := []struct {
		name      string
		chunkSize int
		overlap   int
	}{
		{"overlap equals size", 100, 100},
		{"overlap above size", 100, 150},
		{"negative overlap", 100, -1},
		{"zero size", 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewChunkingService(tc.chunkSize, tc.overlap); err == nil {
				t.Fatalf("expected configuration error for size=%d overlap=%d", tc.chunkSize, tc.overlap)
			}
		})
	}
}

func TestChunkTextWindowing(t *testing.T) {
	cs, err := NewChunkingService(10, 2)
	if err != nil {
		t.Fatalf("chunker: %v", err)
	}

	text := strings.Repeat("abcdefgh", 5) // 40 chars
	chunks := cs.ChunkText(text)

	// stride 8 over 40 chars: windows start at 0, 8, 16, 24, 32
	if len(chunks) != 5 {
		t.Fatalf("expected 5 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		start := i * 8
		end := start + 10
		if end > len(text) {
			end = len(text)
		}
		if chunk != text[start:end] {
			t.Errorf("chunk %d: expected %q, got %q", i, text[start:end], chunk)
		}
	}
}

func TestChunkTextDropsWhitespaceWindows(t *testing.T) {
	cs, err := NewChunkingService(4, 0)
	if err != nil {
		t.Fatalf("chunker: %v", err)
	}

	chunks := cs.ChunkText("abcd        wxyz")
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			t.Errorf("emitted all-whitespace chunk %q", chunk)
		}
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 non-empty chunks, got %d: %q", len(chunks), chunks)
	}
}

func TestChunkTextWindowsOverRunes(t *testing.T) {
	cs, err := NewChunkingService(10, 2)
	if err != nil {
		t.Fatalf("chunker: %v", err)
	}

	// 20 three-byte runes; byte-based windows would split one mid-sequence.
	text := strings.Repeat("₹", 20)
	chunks := cs.ChunkText(text)

	// stride 8 over 20 runes: windows start at 0, 8, 16
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if !utf8.ValidString(chunk) {
			t.Errorf("chunk %d is invalid UTF-8: %q", i, chunk)
		}
	}
	if chunks[0] != strings.Repeat("₹", 10) {
		t.Errorf("chunk 0 = %q, want 10 rupee signs", chunks[0])
	}
	if chunks[2] != strings.Repeat("₹", 4) {
		t.Errorf("chunk 2 = %q, want 4 rupee signs", chunks[2])
	}
}

func TestChunkTextDegenerateInputs(t *testing.T) {
	cs, err := NewChunkingService(500, 50)
	if err != nil {
		t.Fatalf("chunker: %v", err)
	}

	if chunks := cs.ChunkText("short invoice text"); len(chunks) != 1 {
		t.Errorf("short text: expected exactly 1 chunk, got %d", len(chunks))
	}
	if chunks := cs.ChunkText(""); len(chunks) != 0 {
		t.Errorf("empty text: expected 0 chunks, got %d", len(chunks))
	}
	if chunks := cs.ChunkText("   \n\t  "); len(chunks) != 0 {
		t.Errorf("whitespace text: expected 0 chunks, got %d", len(chunks))
	}
}

func TestChunkTextCountApproximation(t *testing.T) {
	cs, err := NewChunkingService(500, 50)
	if err != nil {
		t.Fatalf("chunker: %v", err)
	}

	textLen := 2345
	text := strings.Repeat("x", textLen)
	chunks := cs.ChunkText(text)

	// ceil(2345 / 450) = 6
	want := (textLen + 449) / 450
	if len(chunks) != want {
		t.Fatalf("expected %d chunks for %d chars, got %d", want, textLen, len(chunks))
	}
	if got := cs.EstimateChunks(textLen); got != want {
		t.Fatalf("EstimateChunks(%d) = %d, want %d", textLen, got, want)
	}
}
