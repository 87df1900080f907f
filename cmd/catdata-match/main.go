// catdata-match evaluates a category data filter against a scenario and
// prints the IDs of matching entities.
//
// The scenario comes from a YAML file or, when -scenario is omitted, from
// the SQLite database named in the config. The filter comes from -filter
// (a serialized expression) or -name (an entry in the preference file named
// in the config). With -watch, the preference file is monitored and the
// match re-evaluates as the named filter changes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/scrypster/catdata/internal/config"
	"github.com/scrypster/catdata/internal/filter"
	"github.com/scrypster/catdata/internal/importer"
	"github.com/scrypster/catdata/internal/naming"
	"github.com/scrypster/catdata/internal/notify"
	"github.com/scrypster/catdata/internal/storage/sqlite"
	"github.com/scrypster/catdata/internal/store"
)

func main() {
	var (
		configPath   = flag.String("config", "", "config file (YAML)")
		scenarioPath = flag.String("scenario", "", "scenario file (YAML); omit to load from the database")
		expression   = flag.String("filter", "", "serialized filter expression")
		filterName   = flag.String("name", "", "named filter from the preference file")
		atTime       = flag.Float64("time", 0, "scenario time to evaluate at")
		watch        = flag.Bool("watch", false, "re-evaluate as the preference file changes")
		persist      = flag.Bool("persist", false, "save the loaded scenario to the database")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("catdata-match: %v", err)
		}
	}

	if *expression == "" && *filterName == "" {
		log.Fatal("catdata-match: one of -filter or -name is required")
	}
	if *watch && *filterName == "" {
		log.Fatal("catdata-match: -watch requires -name")
	}

	names := naming.NewManager()
	if err := names.SetCaseSensitive(cfg.Naming.CaseSensitive); err != nil {
		log.Fatalf("catdata-match: %v", err)
	}
	st := store.New(names)
	st.SetDataLimiting(store.Limits{
		Enabled: cfg.Limits.Enabled,
		Points:  cfg.Limits.Points,
		Seconds: cfg.Limits.Seconds,
	})

	if *scenarioPath != "" {
		sc, err := importer.LoadScenario(*scenarioPath)
		if err != nil {
			log.Fatalf("catdata-match: %v", err)
		}
		if err := sc.Populate(st); err != nil {
			log.Fatalf("catdata-match: %v", err)
		}
	} else {
		db, err := sqlite.NewScenarioStore(cfg.Paths.Database)
		if err != nil {
			log.Fatalf("catdata-match: %v", err)
		}
		err = db.LoadScenario(context.Background(), st)
		db.Close()
		if err != nil {
			log.Fatalf("catdata-match: %v", err)
		}
	}

	if *persist {
		if *scenarioPath == "" {
			log.Fatal("catdata-match: -persist requires -scenario")
		}
		db, err := sqlite.NewScenarioStore(cfg.Paths.Database)
		if err != nil {
			log.Fatalf("catdata-match: %v", err)
		}
		err = db.SaveScenario(context.Background(), st)
		db.Close()
		if err != nil {
			log.Fatalf("catdata-match: %v", err)
		}
		log.Printf("catdata-match: saved scenario to %s", cfg.Paths.Database)
	}

	st.Update(*atTime)

	f := filter.New(names, filter.NewFactory())
	if *expression != "" {
		if err := f.Deserialize(*expression, false); err != nil {
			log.Fatalf("catdata-match: %v", err)
		}
		evaluate(st, f)
		return
	}

	if cfg.Paths.Filters == "" {
		log.Fatal("catdata-match: -name requires paths.filters in the config")
	}

	apply := func(name, expr string) {
		if name != *filterName {
			return
		}
		if err := f.Deserialize(expr, false); err != nil {
			log.Printf("catdata-match: filter %q: %v", name, err)
			return
		}
		evaluate(st, f)
	}

	if !*watch {
		prefs, err := notify.ReadFilterFile(cfg.Paths.Filters)
		if err != nil {
			log.Fatalf("catdata-match: %v", err)
		}
		expr, ok := prefs[*filterName]
		if !ok {
			log.Fatalf("catdata-match: no filter named %q in %s", *filterName, cfg.Paths.Filters)
		}
		apply(*filterName, expr)
		return
	}

	fw := notify.NewFilterWatcher(cfg.Paths.Filters, apply)
	if err := fw.Start(); err != nil {
		log.Fatalf("catdata-match: %v", err)
	}
	defer fw.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
}

// evaluate prints the IDs of entities matching f, one per line.
func evaluate(st *store.MemoryStore, f *filter.Filter) {
	for _, id := range st.EntityIDs() {
		if f.Match(st, id) {
			fmt.Println(id)
		}
	}
}
