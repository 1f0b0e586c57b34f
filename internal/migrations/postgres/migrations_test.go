package postgres

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFiles(t *testing.T) {
	t.Parallel()

	files, err := Files()
	if err != nil {
		t.Fatalf("Files() error = %v", err)
	}
	if len(files) == 0 || files[0] != "000001_webhook_deliveries.sql" {
		t.Errorf("Files() = %v, want webhook deliveries first", files)
	}
}

func TestStatements(t *testing.T) {
	t.Parallel()

	got := statements("CREATE TABLE a (id INT);\n\n  CREATE INDEX a_id ON a (id) ;\n;")
	want := []string{"CREATE TABLE a (id INT)", "CREATE INDEX a_id ON a (id)"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("statements() mismatch (-want +got):\n%s", diff)
	}
}

func TestEmbeddedMigrationsParse(t *testing.T) {
	t.Parallel()

	files, err := Files()
	if err != nil {
		t.Fatalf("Files() error = %v", err)
	}
	for _, name := range files {
		content, err := migrationsFS.ReadFile(migrationsDir + "/" + name)
		if err != nil {
			t.Fatalf("ReadFile(%s) error = %v", name, err)
		}
		stmts := statements(string(content))
		if len(stmts) == 0 {
			t.Errorf("%s has no statements", name)
		}
		if !strings.Contains(strings.ToUpper(stmts[0]), "CREATE TABLE") {
			t.Errorf("%s first statement = %q, want CREATE TABLE", name, stmts[0])
		}
	}
}
