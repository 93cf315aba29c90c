package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/sebaB003/tpsx/internal/app"
	"github.com/sebaB003/tpsx/internal/logger"
	"github.com/sebaB003/tpsx/pkg/tpsx"
	"github.com/sebaB003/tpsx/pkg/tpsx/config"
)

type cliOptions struct {
	configPath string
	lang       string
	corpus     string
	dbPath     string
	name       string
	model      string
	save       bool
	query      string
	merge      bool
	mergeSet   bool
	details    bool
	logMode    string
}

func parseFlags(args []string) (cliOptions, error) {
	var o cliOptions
	fs := flag.NewFlagSet("tpsx", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "Config file (optional)")
	fs.StringVar(&o.lang, "lang", "", "Language, overrides the config")
	fs.StringVar(&o.corpus, "corpus", "", "JSONL training corpus (optional)")
	fs.StringVar(&o.dbPath, "db", "", "SQLite model store, overrides the config store")
	fs.StringVar(&o.name, "name", "", "Model name in the store")
	fs.StringVar(&o.model, "model", "", "Load a stored model by ID, or \"latest\"")
	fs.BoolVar(&o.save, "save", false, "Store the engine after training")
	fs.StringVar(&o.query, "query", "", "One-shot prediction (non-interactive mode)")
	fs.BoolVar(&o.merge, "merge", true, "Adjust scores through topic relations")
	fs.BoolVar(&o.details, "details", false, "Show matched tokens and related topics")
	fs.StringVar(&o.logMode, "log", "", "Log mode: development or production")
	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "merge" {
			o.mergeSet = true
		}
	})
	if fs.NArg() > 0 {
		return cliOptions{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return o, nil
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(o cliOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.Load(o.configPath)
	} else {
		cfg, err = config.Parse(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if o.lang != "" {
		cfg.Language = o.lang
	}
	if o.dbPath != "" {
		cfg.Store.Driver = config.DriverSQLite
		cfg.Store.Path = o.dbPath
	}
	if o.name != "" {
		cfg.Store.Name = o.name
	}
	if o.mergeSet {
		cfg.Merge = &o.merge
	}
	if o.logMode != "" {
		cfg.Log.Mode = o.logMode
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			return
		}
		log.Fatal(err)
	}

	cfg, err := loadConfig(o)
	if err != nil {
		log.Fatal(err)
	}

	lg, err := logger.New(cfg.Log.Mode)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg, lg, o.model)
	if err != nil {
		lg.Fatal("build engine", "error", err)
	}
	defer a.Close()

	if o.corpus != "" {
		if _, err := a.TrainCorpus(o.corpus); err != nil {
			lg.Fatal("train corpus", "error", err)
		}
	}

	if o.save {
		ref, err := a.Persist(ctx)
		if err != nil {
			lg.Fatal("save model", "error", err)
		}
		fmt.Println("Saved model:", ref)
	}

	merge := cfg.MergeEnabled()

	// One-shot mode
	if o.query != "" {
		if err := executeQuery(os.Stdout, a.Engine, o.query, merge, o.details); err != nil {
			lg.Fatal("predict", "error", err)
		}
		return
	}

	// Interactive mode
	fmt.Println("===========================================")
	fmt.Println("  tpsx topic labeling")
	fmt.Printf("  language: %s, topics: %d\n", a.Engine.Language(), len(a.Engine.Topics()))
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Println("Type a sentence (Ctrl+D to exit):")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if err := executeQuery(os.Stdout, a.Engine, line, merge, o.details); err != nil {
			fmt.Println("Error:", err)
		}
	}

	fmt.Println("\nGoodbye!")
}

func executeQuery(w io.Writer, e *tpsx.Engine, query string, merge, details bool) error {
	results, err := e.Predict([]string{query}, merge)
	if err != nil {
		return fmt.Errorf("predict: %w", err)
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "No topics found.")
		fmt.Fprintln(w)
		return nil
	}

	for _, r := range results.Ranked() {
		fmt.Fprintln(w, r.Report(details))
	}
	return nil
}
