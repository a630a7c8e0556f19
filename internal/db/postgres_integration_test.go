//go:build integration
// +build integration

package db

import (
	"context"
	"os"
	"testing"
)

func TestPostgresDiscovery(t *testing.T) {
	connString := os.Getenv("POSTGRES_TEST_URL")
	if connString == "" {
		t.Skip("POSTGRES_TEST_URL not set")
	}
	ctx := context.Background()

	client, err := NewPostgresClient(ctx, connString)
	if err != nil {
		t.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer client.Close(ctx)

	extractor := NewPostgresExtractor(client, "public")
	md, err := extractor.Discover(ctx, nil)
	if err != nil {
		t.Fatalf("Failed to discover schema: %v", err)
	}

	if md.FileID != "public" {
		t.Errorf("FileID = %q, want public", md.FileID)
	}
	if len(md.Tables) == 0 {
		t.Fatal("Expected at least one table in the public schema")
	}

	for _, table := range md.Tables {
		if table.Name == "" {
			t.Error("Discovered table with empty name")
		}
		for _, col := range table.Columns {
			if col.Name == "" {
				t.Errorf("Table %s has a column with empty name", table.Name)
			}
			if col.DataType == "" {
				t.Errorf("Column %s.%s has no data type", table.Name, col.Name)
			}
			if col.IsForeignKey && col.ReferencesTable == "" {
				t.Errorf("Column %s.%s is a foreign key without a target table", table.Name, col.Name)
			}
		}
	}
}

func TestPostgresDiscoverySpecificTables(t *testing.T) {
	connString := os.Getenv("POSTGRES_TEST_URL")
	if connString == "" {
		t.Skip("POSTGRES_TEST_URL not set")
	}
	tableName := os.Getenv("POSTGRES_TEST_TABLE")
	if tableName == "" {
		t.Skip("POSTGRES_TEST_TABLE not set")
	}
	ctx := context.Background()

	client, err := NewPostgresClient(ctx, connString)
	if err != nil {
		t.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer client.Close(ctx)

	extractor := NewPostgresExtractor(client, "public")
	md, err := extractor.Discover(ctx, []string{tableName})
	if err != nil {
		t.Fatalf("Failed to discover schema: %v", err)
	}

	if len(md.Tables) != 1 || md.Tables[0].Name != tableName {
		t.Errorf("Expected only table %q, got %d tables", tableName, len(md.Tables))
	}
}
