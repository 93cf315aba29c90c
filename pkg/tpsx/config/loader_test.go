package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebaB003/tpsx/pkg/tpsx"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoaderBuild(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tpsx.yaml"), `
language: italian
topics:
  - label: felini
    examples: ["Il gatto e la lince."]
  - label: animali
    examples: ["Il gatto e il cane."]
  - label: volatili
    html_dir: pages/volatili
  - label: pesci
corpus: [corpus.jsonl]
relations:
  - from: [felini]
    to: [animali]
    coexist: true
    bidirectional: true
rules: zoo.rules
`)
	writeFile(t, filepath.Join(dir, "pages", "volatili", "aquila.html"),
		"<html><body><p>L'aquila ha le ali.</p></body></html>")
	writeFile(t, filepath.Join(dir, "corpus.jsonl"),
		`{"topics":["pesci"],"text":"Il pesce ha le pinne."}`+"\n")
	writeFile(t, filepath.Join(dir, "zoo.rules"), "# volatili e pesci\nconflict(volatili, pesci)\n")

	cfg, err := Load(filepath.Join(dir, "tpsx.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	e, err := (&Loader{Config: cfg}).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if n := len(e.Topics()); n != 4 {
		t.Errorf("topics = %d, want 4", n)
	}
	rels := e.Relations()
	if len(rels) != 2 {
		t.Fatalf("relations = %v, want 2", rels)
	}
	if rels[0].String() != "felini --- animali" || rels[1].String() != "volatili -x- pesci" {
		t.Errorf("relations = %v", rels)
	}

	tests := []struct {
		input string
		topic string
	}{
		{"una lince", "felini"},
		{"le ali", "volatili"},
		{"pinne", "pesci"},
	}
	for _, tt := range tests {
		results, err := e.Predict([]string{tt.input}, cfg.MergeEnabled())
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := results[tt.topic]; !ok {
			t.Errorf("Predict(%q) missing %s: %v", tt.input, tt.topic, results)
		}
	}
}

func TestLoaderBuildUnknownRuleTopic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tpsx.yaml"), "topics:\n  - label: a\nrules: r.rules\n")
	writeFile(t, filepath.Join(dir, "r.rules"), "coexist(a, b)\n")

	cfg, err := Load(filepath.Join(dir, "tpsx.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := (&Loader{Config: cfg}).Build(); !errors.Is(err, tpsx.ErrUnknownTopic) {
		t.Errorf("Build error = %v, want ErrUnknownTopic", err)
	}
}

func TestLoaderBuildMissingCorpus(t *testing.T) {
	cfg, err := Parse([]byte("corpus: [/nonexistent/corpus.jsonl]\n"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := (&Loader{Config: cfg}).Build(); err == nil {
		t.Error("expected error for missing corpus")
	}
}

func TestLoaderBuildAnimalsExample(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "..", "examples", "animals", "tpsx.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	e, err := (&Loader{Config: cfg}).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if n := len(e.Topics()); n != 4 {
		t.Errorf("topics = %d, want 4", n)
	}
	// felini-animali, animali-volatili, animali-pesci, volatili-pesci
	if n := len(e.Relations()); n != 4 {
		t.Errorf("relations = %v, want 4", e.Relations())
	}

	results, err := e.Predict([]string{"I gatti mangiano i pesci (non nemo) anche quelli che volano"}, true)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := results["felini"]; !ok {
		t.Errorf("felini missing from %v", results)
	}
	if _, ok := results["pesci"]; !ok {
		t.Errorf("pesci missing from %v", results)
	}
}
