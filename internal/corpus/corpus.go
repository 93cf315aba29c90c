package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sebaB003/tpsx/pkg/tpsx/internalerr"
	"github.com/sebaB003/tpsx/pkg/tpsx/text"
)

const maxLine = 4 << 20

// Example is one labeled training document.
type Example struct {
	Topics []string `json:"topics"`
	Text   string   `json:"text"`
}

// LoadJSONL loads examples from a JSONL file, one object per line.
// Malformed or incomplete lines are logged and skipped.
func LoadJSONL(path string, log *zap.Logger) ([]Example, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSONL(f, path, log)
}

// ReadJSONL reads examples from r. name only appears in log messages.
func ReadJSONL(r io.Reader, name string, log *zap.Logger) ([]Example, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var examples []Example
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)

	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		var ex Example
		if err := json.Unmarshal([]byte(line), &ex); err != nil {
			log.Warn("skipping malformed corpus line",
				zap.String("file", name), zap.Int("line", n), zap.Error(err))
			continue
		}
		if len(ex.Topics) == 0 || strings.TrimSpace(ex.Text) == "" {
			log.Warn("skipping corpus line without topics or text",
				zap.String("file", name), zap.Int("line", n))
			continue
		}
		examples = append(examples, ex)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", name, err)
	}

	if len(examples) == 0 {
		return nil, fmt.Errorf("no valid examples found in %s: %w", name, internalerr.ErrInvalidArgument)
	}
	return examples, nil
}

// LoadHTMLDir turns every *.html file of dir into an example labeled with
// topics, using the visible text of the page. Pages are parsed concurrently
// but returned in file name order.
func LoadHTMLDir(dir string, topics []string) ([]Example, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	sort.Strings(paths)

	bodies := make([]string, len(paths))
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			body, err := readHTML(path)
			if err != nil {
				return err
			}
			bodies[i] = body
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var examples []Example
	for _, body := range bodies {
		if strings.TrimSpace(body) == "" {
			continue
		}
		examples = append(examples, Example{Topics: topics, Text: body})
	}
	return examples, nil
}

func readHTML(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	body, err := text.ExtractHTML(f)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", path, err)
	}
	return body, nil
}

// Group collects the examples sharing the same topic set, preserving the
// order in which each set first appears.
func Group(examples []Example) []Batch {
	var batches []Batch
	index := make(map[string]int)
	for _, ex := range examples {
		key := strings.Join(ex.Topics, "\x00")
		i, ok := index[key]
		if !ok {
			i = len(batches)
			index[key] = i
			batches = append(batches, Batch{Topics: ex.Topics})
		}
		batches[i].Texts = append(batches[i].Texts, ex.Text)
	}
	return batches
}

// Batch is a set of texts trained against the same topics.
type Batch struct {
	Topics []string
	Texts  []string
}
