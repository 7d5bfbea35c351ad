package store

import (
	"errors"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"hallmark", false},
		{"c2.cp.kegg", false},
		{"GO_Biological_Process_2023", false},
		{"", true},
		{".", true},
		{"..", true},
		{".hidden", true},
		{"a/b", true},
		{`a\b`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.name)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidName) {
				t.Errorf("ValidateName(%q) error = %v, want ErrInvalidName", tt.name, err)
			}
		})
	}
}

func TestLibraryFile(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		want string
	}{
		{"hallmark", "", "hallmark.gmt"},
		{"hallmark", "zst", "hallmark.gmt.zst"},
		{"kegg", "gz", "kegg.gmt.gz"},
	}
	for _, tt := range tests {
		if got := LibraryFile(tt.name, tt.ext); got != tt.want {
			t.Errorf("LibraryFile(%q, %q) = %q, want %q", tt.name, tt.ext, got, tt.want)
		}
	}
}

func TestLibraryName(t *testing.T) {
	tests := []struct {
		file   string
		ext    string
		want   string
		wantOK bool
	}{
		{"hallmark.gmt.zst", "zst", "hallmark", true},
		{"hallmark.gmt", "", "hallmark", true},
		{"hallmark.gmt.gz", "zst", "", false},
		{"manifest.json", "", "", false},
		{".gmt", "", "", false},
	}
	for _, tt := range tests {
		got, ok := LibraryName(tt.file, tt.ext)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("LibraryName(%q, %q) = %q, %v, want %q, %v", tt.file, tt.ext, got, ok, tt.want, tt.wantOK)
		}
	}
}
