package model

import (
	"testing"
	"time"
)

func TestChunkInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		input   ChunkInput
		wantErr bool
	}{
		{"valid", ChunkInput{TextContent: "hello", UserID: "u1"}, false},
		{"empty text", ChunkInput{TextContent: "", UserID: "u1"}, true},
		{"whitespace text", ChunkInput{TextContent: "   ", UserID: "u1"}, true},
		{"empty user", ChunkInput{TextContent: "hello", UserID: ""}, true},
		{"whitespace user", ChunkInput{TextContent: "hello", UserID: "\t"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestChunkInput_ResolveDefaults(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	chunk := (&ChunkInput{TextContent: " hello ", UserID: "u1"}).Resolve(now)
	if chunk.ChunkID == "" {
		t.Error("Expected generated chunk_id")
	}
	if !chunk.Timestamp.Equal(now) {
		t.Errorf("Expected timestamp defaulted to call time, got %v", chunk.Timestamp)
	}
	if chunk.TextContent != "hello" {
		t.Errorf("Expected trimmed text, got %q", chunk.TextContent)
	}
	if chunk.SourceType != SourceTypeMessage {
		t.Errorf("Expected default source_type message, got %s", chunk.SourceType)
	}

	explicit := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	chunk = (&ChunkInput{ChunkID: "c1", TextContent: "x", UserID: "u1", Timestamp: explicit}).Resolve(now)
	if chunk.ChunkID != "c1" {
		t.Errorf("Explicit chunk_id should be kept, got %s", chunk.ChunkID)
	}
	if !chunk.Timestamp.Equal(explicit) {
		t.Errorf("Explicit timestamp should be kept, got %v", chunk.Timestamp)
	}
}

func TestChunkInput_PrivacyDefaulting(t *testing.T) {
	now := time.Now()

	chunk := (&ChunkInput{TextContent: "x", UserID: "u1", IsTwinInteraction: true}).Resolve(now)
	if !chunk.IsPrivate {
		t.Error("is_private should default to is_twin_interaction")
	}

	chunk = (&ChunkInput{TextContent: "x", UserID: "u1"}).Resolve(now)
	if chunk.IsPrivate {
		t.Error("is_private should default to false for non-twin content")
	}

	explicitFalse := false
	chunk = (&ChunkInput{TextContent: "x", UserID: "u1", IsTwinInteraction: true, IsPrivate: &explicitFalse}).Resolve(now)
	if chunk.IsPrivate {
		t.Error("explicit is_private=false should override the twin default")
	}

	explicitTrue := true
	chunk = (&ChunkInput{TextContent: "x", UserID: "u1", IsPrivate: &explicitTrue}).Resolve(now)
	if !chunk.IsPrivate {
		t.Error("explicit is_private=true should be kept")
	}
}
