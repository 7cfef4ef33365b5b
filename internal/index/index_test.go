package index

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/idmkit/internal/idm"
	"github.com/starford/idmkit/internal/outline"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "idmkit-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustParse(t *testing.T, text string) *outline.Outline {
	t.Helper()
	o, err := idm.Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return o
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM files`).Scan(&count); err != nil {
		t.Fatalf("files table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM sections`).Scan(&count); err != nil {
		t.Fatalf("sections table missing: %v", err)
	}
}

func TestReplaceAndGetChecksum(t *testing.T) {
	db := testDB(t)
	row := FileRow{
		Path:     "hello.idm",
		Checksum: "abc123",
		Sections: []SectionRow{{Position: 0, Path: "0", Headline: "Hello World", Tags: []string{"go", "test"}}},
	}
	if err := db.ReplaceFile(row); err != nil {
		t.Fatalf("ReplaceFile: %v", err)
	}
	cs, err := db.GetChecksum("hello.idm")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
}

func TestReplaceFileReplacesSections(t *testing.T) {
	db := testDB(t)
	_ = db.ReplaceFile(FileRow{Path: "up.idm", Checksum: "1", Sections: []SectionRow{
		{Position: 0, Path: "0", Headline: "Old", URI: "https://old.example"},
		{Position: 1, Path: "1", Headline: "Other"},
	}})
	_ = db.ReplaceFile(FileRow{Path: "up.idm", Checksum: "2", Sections: []SectionRow{
		{Position: 0, Path: "0", Headline: "New", URI: "https://new.example"},
	}})

	cs, _ := db.GetChecksum("up.idm")
	if cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
	if got, _ := db.SectionsByURI("https://old.example"); len(got) != 0 {
		t.Error("old sections should be removed on replace")
	}
	got, _ := db.SectionsByURI("https://new.example")
	if len(got) != 1 || got[0].Headline != "New" || got[0].File != "up.idm" {
		t.Errorf("sections by uri = %+v", got)
	}
	files, _ := db.Files()
	if len(files) != 1 || files[0].Sections != 1 {
		t.Errorf("files = %+v, want one file with one section", files)
	}
}

func TestDeleteFile(t *testing.T) {
	db := testDB(t)
	_ = db.ReplaceFile(FileRow{Path: "del.idm", Checksum: "x", Sections: []SectionRow{{Path: "0", Headline: "gone", URI: "u"}}})

	if err := db.DeleteFile("del.idm"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	cs, _ := db.GetChecksum("del.idm")
	if cs != "" {
		t.Errorf("deleted file still has checksum %q", cs)
	}
	if got, _ := db.SectionsByURI("u"); len(got) != 0 {
		t.Errorf("expected 0 sections after delete, got %d", len(got))
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent.idm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.ReplaceFile(FileRow{Path: "s.idm", Checksum: "1", Sections: []SectionRow{
		{Position: 0, Path: "0", Headline: "Search Me"},
		{Position: 1, Path: "0.0", Headline: "uniqueword appears here"},
	}})

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].File != "s.idm" || results[0].Path != "0.0" {
		t.Errorf("search results = %+v, want 1 hit for s.idm 0.0", results)
	}
}

func TestTags(t *testing.T) {
	db := testDB(t)
	_ = db.ReplaceFile(FileRow{Path: "a.idm", Checksum: "1", Sections: []SectionRow{
		{Position: 0, Path: "0", Tags: []string{"go", "db"}},
		{Position: 1, Path: "1", Tags: []string{"go"}},
		{Position: 2, Path: "2"},
	}})

	tags, err := db.Tags()
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	if len(tags) != 2 || tags[0].Tag != "go" || tags[0].Count != 2 || tags[1].Tag != "db" || tags[1].Count != 1 {
		t.Errorf("tags = %+v", tags)
	}
}

func TestSync(t *testing.T) {
	db := testDB(t)
	logger := quietLogger()

	o := mustParse(t, "a\n  Item\n    :uri https://a.example\n    :tags x\nsub/\n  b\n    Other\n")
	report, err := Sync(db, o, logger)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(report.Created) != 2 || report.Created[0] != "a.idm" || report.Created[1] != "sub/b.idm" {
		t.Errorf("created = %v", report.Created)
	}
	hits, _ := db.SectionsByURI("https://a.example")
	if len(hits) != 1 || hits[0].Headline != "Item" || hits[0].Path != "0" || hits[0].Tags[0] != "x" {
		t.Errorf("indexed section = %+v", hits)
	}

	// Unchanged files are left alone.
	report, _ = Sync(db, o, logger)
	if report.Changed() {
		t.Errorf("second sync changed %+v", report)
	}

	o.Sections[0].Body.Sections[0].Head = "Renamed"
	o.Remove(1)
	report, _ = Sync(db, o, logger)
	if len(report.Updated) != 1 || report.Updated[0] != "a.idm" {
		t.Errorf("updated = %v", report.Updated)
	}
	if len(report.Deleted) != 1 || report.Deleted[0] != "sub/b.idm" {
		t.Errorf("deleted = %v", report.Deleted)
	}
	hits, _ = db.SectionsByURI("https://a.example")
	if len(hits) != 1 || hits[0].Headline != "Renamed" {
		t.Errorf("section not reindexed: %+v", hits)
	}
}

func TestSyncDir_SkipsIgnored(t *testing.T) {
	db := testDB(t)
	dir := t.TempDir()
	if err := os.WriteFile(dir+"/keep.idm", []byte("kept\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dir+"/drafts.idm", []byte("draft\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	report, err := SyncDir(db, dir, []string{"drafts.*"}, quietLogger())
	if err != nil {
		t.Fatalf("SyncDir: %v", err)
	}
	if len(report.Created) != 1 || report.Created[0] != "keep.idm" {
		t.Errorf("created = %v", report.Created)
	}
}

func TestSkipped(t *testing.T) {
	cases := map[string]bool{
		".":              false,
		"a.idm":          false,
		".git":           true,
		"sub/.hidden":    true,
		"build/out.idm":  true,
		"notes/tmp.swp":  true,
		"notes/keep.idm": false,
	}
	for rel, want := range cases {
		if got := skipped(rel, []string{"build/**", "*.swp"}); got != want {
			t.Errorf("skipped(%q) = %v, want %v", rel, got, want)
		}
	}
}
