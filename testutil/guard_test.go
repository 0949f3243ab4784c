package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPredicates(t *testing.T) {
	cases := []struct {
		pred func(string) bool
		in   string
		want bool
	}{
		{InternalImportForbidden, "ethicure/internal/kv", true},
		{InternalImportForbidden, "ethicure/pkg/domain", false},
		{StorageDriverImportForbidden, "ethicure/internal/infra/kv/s3", true},
		{StorageDriverImportForbidden, "ethicure/internal/kv", false},
		{StorageLibraryImportForbidden, "github.com/aws/aws-sdk-go-v2/service/s3", true},
		{StorageLibraryImportForbidden, "go.mongodb.org/mongo-driver/mongo", true},
		{StorageLibraryImportForbidden, "database/sql", true},
		{StorageLibraryImportForbidden, "database/sql/driver", true},
		{StorageLibraryImportForbidden, "github.com/jackc/pgx/v5/stdlib", true},
		{StorageLibraryImportForbidden, "modernc.org/sqlite", true},
		{StorageLibraryImportForbidden, "github.com/google/uuid", false},
		{StorageLibraryImportForbidden, "github.com/aws/aws-sdk-go-v2x", false},
	}
	for _, c := range cases {
		if got := c.pred(c.in); got != c.want {
			t.Errorf("predicate(%q)=%v want %v", c.in, got, c.want)
		}
	}
	combined := AnyOf(InternalImportForbidden, StorageLibraryImportForbidden)
	if !combined("modernc.org/sqlite") || !combined("x/internal/y") || combined("fmt") {
		t.Fatalf("AnyOf did not combine predicates")
	}
}

func writeTempPackage(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestAssertNoDirectImportsPasses(t *testing.T) {
	dir := writeTempPackage(t, map[string]string{
		"x.go":      "package tmp\nimport \"fmt\"\nfunc X(){fmt.Println(1)}",
		"x_test.go": "package tmp\nimport _ \"ethicure/internal/kv\"",
	})
	AssertNoDirectImports(t, dir, InternalImportForbidden, "tests may import internals")
}

type recordingFatal struct{ msg string }

func (r *recordingFatal) Fatalf(format string, args ...any) { r.msg = fmt.Sprintf(format, args...) }

func TestDirectViolationsReported(t *testing.T) {
	dir := writeTempPackage(t, map[string]string{
		"a.go": "package tmp\nimport _ \"ethicure/internal/infra/kv/fs\"",
		"b.go": "package tmp\nimport \"strings\"\nvar _ = strings.ToUpper",
	})
	viols, err := directImportViolations(dir, StorageDriverImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || !strings.Contains(viols[0], "a.go") {
		t.Fatalf("unexpected violations %v", viols)
	}
	rec := &recordingFatal{}
	failIfDirectViolations(rec, "drivers stay behind kv", viols)
	if !strings.Contains(rec.msg, "drivers stay behind kv") {
		t.Fatalf("expected reason in failure, got %q", rec.msg)
	}
	rec = &recordingFatal{}
	failIfDirectViolations(rec, "none", nil)
	if rec.msg != "" {
		t.Fatalf("no violations should not fail")
	}
}

func TestDirectImportViolationsErrors(t *testing.T) {
	if _, err := directImportViolations(filepath.Join(t.TempDir(), "missing"), InternalImportForbidden); err == nil {
		t.Fatalf("expected error for missing dir")
	}
	dir := writeTempPackage(t, map[string]string{"bad.go": "package"})
	if _, err := directImportViolations(dir, InternalImportForbidden); err == nil {
		t.Fatalf("expected parse error")
	}
}
