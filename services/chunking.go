package services

import (
	"fmt"
	"strings"
)

// ChunkingService splits extracted document text into fixed-width
// overlapping windows. Window order matters: the chunk id of each window is
// its emission index.
type ChunkingService struct {
	chunkSize int
	overlap   int
}

// NewChunkingService validates the windowing parameters. An overlap at or
// above the chunk size makes the stride non-positive and the sweep would
// never terminate.
func NewChunkingService(chunkSize, overlap int) (*ChunkingService, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("invalid configuration: chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("invalid configuration: overlap must satisfy 0 <= overlap < chunk size, got overlap=%d size=%d", overlap, chunkSize)
	}
	return &ChunkingService{chunkSize: chunkSize, overlap: overlap}, nil
}

// ChunkText slides a window of chunkSize characters across text, advancing
// the start by chunkSize-overlap each step. Windows are measured in runes so
// a boundary never splits a multi-byte character (currency signs, accented
// names). Windows whose trimmed content is empty are dropped. Text shorter
// than one window yields a single chunk if non-empty, otherwise none.
func (cs *ChunkingService) ChunkText(text string) []string {
	runes := []rune(text)
	var chunks []string
	stride := cs.chunkSize - cs.overlap

	for start := 0; start < len(runes); start += stride {
		end := start + cs.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		window := string(runes[start:end])
		if strings.TrimSpace(window) != "" {
			chunks = append(chunks, window)
		}
	}

	return chunks
}

// EstimateChunks returns the window count ChunkText would emit for a text of
// the given length in runes, assuming no all-whitespace windows.
func (cs *ChunkingService) EstimateChunks(textLen int) int {
	if textLen == 0 {
		return 0
	}
	stride := cs.chunkSize - cs.overlap
	return (textLen + stride - 1) / stride
}
