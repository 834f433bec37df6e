package errors

import (
	"testing"
)

func TestValidateLayerName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "eyes", false},
		{"valid with digit", "accessories2", false},
		{"valid with dash", "hair-back", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 200)), true},
		{"slash", "eyes/left", true},
		{"backslash", "eyes\\left", true},
		{"dot", ".", true},
		{"dotdot", "..", true},
		{"control char", "eyes\x01", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLayerName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLayerName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidLayer) {
				t.Errorf("ValidateLayerName(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidLayer)
			}
		})
	}
}

func TestValidateAssetName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid png", "e1.png", false},
		{"valid without suffix", "blue eyes", false},
		{"valid unicode", "über.png", false},

		{"empty", "", true},
		{"whitespace", "   ", true},
		{"with path /", "path/to/file.png", true},
		{"with path \\", "path\\file.png", true},
		{"hidden file", ".hidden.png", true},
		{"newline", "a\nb.png", true},
		{"too long", string(make([]byte, 300)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAssetName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAssetName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "out/collage.png", false},
		{"absolute", "/tmp/collage.png", false},
		{"empty", "", true},
		{"null byte", "out\x00.png", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
