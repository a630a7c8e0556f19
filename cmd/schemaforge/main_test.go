package main

import (
	"path/filepath"
	"testing"
)

func TestParseTableList(t *testing.T) {
	tests := []struct {
		name       string
		tablesStr  string
		wantTables []string
	}{
		{
			name:       "single table",
			tablesStr:  "users",
			wantTables: []string{"users"},
		},
		{
			name:       "multiple tables",
			tablesStr:  "users,posts,comments",
			wantTables: []string{"users", "posts", "comments"},
		},
		{
			name:       "tables with spaces",
			tablesStr:  "users, posts, comments",
			wantTables: []string{"users", "posts", "comments"},
		},
		{
			name:       "empty string",
			tablesStr:  "",
			wantTables: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotTables := parseTableList(tt.tablesStr)

			if len(gotTables) != len(tt.wantTables) {
				t.Errorf("parseTableList() returned %d tables, want %d", len(gotTables), len(tt.wantTables))
				return
			}

			for i, table := range gotTables {
				if table != tt.wantTables[i] {
					t.Errorf("parseTableList() table[%d] = %s, want %s", i, table, tt.wantTables[i])
				}
			}
		})
	}
}

func TestMetadataFileID(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "conventional layout",
			path: filepath.Join("artifacts", "northwind", "metadata.json"),
			want: "northwind",
		},
		{
			name: "absolute conventional layout",
			path: filepath.Join(string(filepath.Separator), "data", "acme", "metadata.json"),
			want: "acme",
		},
		{
			name: "bare document in working directory",
			path: "metadata.json",
			want: "metadata",
		},
		{
			name: "custom file name",
			path: filepath.Join("models", "store.json"),
			want: "store",
		},
		{
			name: "custom file name without extension",
			path: filepath.Join("models", "store"),
			want: "store",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := metadataFileID(tt.path); got != tt.want {
				t.Errorf("metadataFileID(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
