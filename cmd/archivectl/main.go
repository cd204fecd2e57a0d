package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/SHP-ART/werkstattarchiv/internal/bootstrap"
	"github.com/SHP-ART/werkstattarchiv/internal/config"
	"github.com/SHP-ART/werkstattarchiv/internal/core/domain"
	"github.com/SHP-ART/werkstattarchiv/internal/observability/logging"
	"github.com/SHP-ART/werkstattarchiv/internal/observability/metrics"
)

const usage = `Usage: archivectl [-config datei] <befehl> [optionen]

Befehle:
  analyze   Dokumente analysieren ohne Ablage
  process   Dokumente analysieren, ablegen und indexieren
  search    Den Dokumentindex durchsuchen
  stats     Indexstatistik anzeigen
  export    Suchergebnis als XLSX exportieren
  legacy    Offene Altbestand-Fälle verwalten (list|assign|delete)
  customer  Kundenstamm pflegen (add|replace-virtual)
  vehicle   Fahrzeugzuordnung pflegen (set|owners)
  pattern   Extraktionsmuster anzeigen und testen (list|set|reset|test)
`

func main() {
	configPath := flag.String("config", "archiv.yaml", "Pfad zur Konfigurationsdatei")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := logging.New("archivectl", cfg.LogLevel, cfg.LogJSON)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	if cfg.Template != "" {
		app.Templates.SetActive(cfg.Template)
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "analyze":
		err = runAnalyze(ctx, app, rest)
	case "process":
		err = runProcess(ctx, app, rest)
	case "search":
		err = runSearch(ctx, app, rest)
	case "stats":
		err = runStats(ctx, app, rest)
	case "export":
		err = runExport(ctx, app, rest)
	case "legacy":
		err = runLegacy(ctx, app, rest)
	case "customer":
		err = runCustomer(app, rest)
	case "vehicle":
		err = runVehicle(app, rest)
	case "pattern":
		err = runPattern(app, rest)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

func runAnalyze(ctx context.Context, app *bootstrap.App, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	template := fs.String("template", "", "Vorlage (Standard|Alternativ)")
	fs.Parse(args)

	if fs.NArg() == 0 {
		return fmt.Errorf("keine Dateien angegeben")
	}
	for _, path := range fs.Args() {
		meta := app.Analyzer.Analyze(ctx, path, *template)
		if err := printJSON(map[string]any{"datei": path, "metadaten": meta}); err != nil {
			return err
		}
	}
	return nil
}

func runProcess(ctx context.Context, app *bootstrap.App, args []string) error {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	dir := fs.String("dir", "", "Eingangsverzeichnis (alle PDF-Dateien)")
	metricsListen := fs.String("metrics-listen", app.Config.MetricsAddr, "Adresse für den /metrics Endpunkt")
	fs.Parse(args)

	paths := fs.Args()
	if *dir != "" {
		found, err := collectDocuments(*dir)
		if err != nil {
			return err
		}
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		return fmt.Errorf("keine Dateien angegeben")
	}

	if *metricsListen != "" {
		go func() {
			if err := metrics.Serve(ctx, *metricsListen, app.Metrics.Handler(), app.Logger); err != nil {
				app.Logger.Error("metrics endpoint failed", "error", err)
			}
		}()
	}

	results, err := app.Processor.ProcessBatch(ctx, paths)
	if err != nil {
		return err
	}

	counts := make(map[domain.DocumentStatus]int)
	for _, r := range results {
		counts[r.Status]++
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATEI\tSTATUS\tZIEL\tGRUND")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", filepath.Base(r.Path), r.Status, r.TargetPath, r.Reason)
	}
	w.Flush()

	fmt.Printf("\n%d Dokumente verarbeitet", len(results))
	for _, status := range sortedStatuses(counts) {
		fmt.Printf(", %d %s", counts[status], status)
	}
	fmt.Println()
	return nil
}

func runSearch(ctx context.Context, app *bootstrap.App, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	filter := bindSearchFlags(fs)
	asJSON := fs.Bool("json", false, "Ergebnis als JSON ausgeben")
	fs.Parse(args)

	docs, err := app.Index.Search(ctx, *filter)
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(docs)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tAUFTRAG\tTYP\tJAHR\tKUNDE\tNAME\tSTATUS\tDATEI")
	for _, d := range docs {
		year := ""
		if d.Year != nil {
			year = fmt.Sprintf("%d", *d.Year)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			d.ID, domain.StrOrEmpty(d.OrderNr), domain.StrOrEmpty(d.DocumentType), year,
			domain.StrOrEmpty(d.CustomerNr), domain.StrOrEmpty(d.CustomerName), d.Status, d.Filename)
	}
	w.Flush()
	fmt.Printf("\n%d Treffer\n", len(docs))
	return nil
}

func runStats(ctx context.Context, app *bootstrap.App, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	quick := fs.Bool("quick", false, "nur die Schnellstatistik abfragen")
	fs.Parse(args)

	if *quick {
		q, err := app.Index.GetQuickStatistics(ctx)
		if err != nil {
			return err
		}
		return printJSON(q)
	}
	stats, err := app.Index.GetStatistics(ctx)
	if err != nil {
		return err
	}
	return printJSON(stats)
}

func runExport(ctx context.Context, app *bootstrap.App, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("out", "archiv_export.xlsx", "Zieldatei")
	filter := bindSearchFlags(fs)
	fs.Parse(args)

	data, err := app.Export.ExportDocumentsXLSX(ctx, *filter)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	fmt.Printf("Export geschrieben: %s\n", *out)
	return nil
}

func runLegacy(ctx context.Context, app *bootstrap.App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("unterbefehl fehlt (list|assign|delete)")
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "list":
		fs := flag.NewFlagSet("legacy list", flag.ExitOnError)
		status := fs.String("status", domain.UnclearOpen, "Status-Filter (open|assigned, leer für alle)")
		fs.Parse(rest)

		entries, err := app.Index.ListUnclearLegacy(ctx, *status)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDATEI\tNAME\tFIN\tGRUND\tSTATUS")
		for _, e := range entries {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
				e.ID, e.Filename, domain.StrOrEmpty(e.CustomerName), domain.StrOrEmpty(e.VIN), e.MatchReason, e.Status)
		}
		w.Flush()
		fmt.Printf("\n%d Einträge\n", len(entries))
		return nil

	case "assign":
		fs := flag.NewFlagSet("legacy assign", flag.ExitOnError)
		id := fs.Int64("id", 0, "Eintrags-ID")
		customerNr := fs.String("kunde", "", "Kundennummer")
		name := fs.String("name", "", "Name für einen neuen virtuellen Kunden")
		fs.Parse(rest)

		if *id == 0 {
			return fmt.Errorf("-id ist erforderlich")
		}
		nr := *customerNr
		switch {
		case nr != "":
			if !app.Customers.Exists(nr) {
				return fmt.Errorf("unbekannte Kundennummer %s", nr)
			}
		case *name != "":
			// Unknown customer: file under a virtual number until the real
			// one turns up in the customer export.
			c, err := app.Customers.CreateVirtual(*name)
			if err != nil {
				return err
			}
			nr = c.CustomerNr
			fmt.Printf("Virtueller Kunde %s (%s) angelegt\n", nr, c.Name)
		default:
			return fmt.Errorf("-kunde oder -name ist erforderlich")
		}
		if err := app.Index.AssignUnclearLegacy(ctx, *id, nr); err != nil {
			return err
		}
		fmt.Printf("Eintrag %d dem Kunden %s zugewiesen\n", *id, nr)
		return nil

	case "delete":
		fs := flag.NewFlagSet("legacy delete", flag.ExitOnError)
		id := fs.Int64("id", 0, "Eintrags-ID")
		fs.Parse(rest)

		if *id == 0 {
			return fmt.Errorf("-id ist erforderlich")
		}
		if err := app.Index.DeleteUnclearLegacy(ctx, *id); err != nil {
			return err
		}
		fmt.Printf("Eintrag %d gelöscht\n", *id)
		return nil

	default:
		return fmt.Errorf("unbekannter Unterbefehl %q", sub)
	}
}

func runCustomer(app *bootstrap.App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("unterbefehl fehlt (add|replace-virtual)")
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "add":
		fs := flag.NewFlagSet("customer add", flag.ExitOnError)
		nr := fs.String("kunde", "", "Kundennummer")
		name := fs.String("name", "", "Name")
		plz := fs.String("plz", "", "Postleitzahl")
		city := fs.String("ort", "", "Ort")
		street := fs.String("strasse", "", "Straße")
		phone := fs.String("telefon", "", "Telefon")
		fs.Parse(rest)

		err := app.Customers.Register(domain.Customer{
			CustomerNr: *nr,
			Name:       *name,
			PostalCode: *plz,
			City:       *city,
			Street:     *street,
			Phone:      *phone,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Kunde %s (%s) gespeichert\n", *nr, *name)
		return nil

	case "replace-virtual":
		fs := flag.NewFlagSet("customer replace-virtual", flag.ExitOnError)
		virtualNr := fs.String("virtuell", "", "virtuelle Kundennummer (VK...)")
		realNr := fs.String("kunde", "", "echte Kundennummer")
		name := fs.String("name", "", "Name, falls der echte Kunde noch fehlt")
		fs.Parse(rest)

		if *virtualNr == "" || *realNr == "" {
			return fmt.Errorf("-virtuell und -kunde sind erforderlich")
		}
		if err := app.Customers.ReplaceVirtual(*virtualNr, *realNr, *name); err != nil {
			return err
		}
		fmt.Printf("%s durch %s ersetzt\n", *virtualNr, *realNr)
		return nil

	default:
		return fmt.Errorf("unbekannter Unterbefehl %q", sub)
	}
}

func runVehicle(app *bootstrap.App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("unterbefehl fehlt (set|owners)")
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "set":
		fs := flag.NewFlagSet("vehicle set", flag.ExitOnError)
		vin := fs.String("fin", "", "Fahrgestellnummer (17 Zeichen)")
		customerNr := fs.String("kunde", "", "Kundennummer des Halters")
		plate := fs.String("kennzeichen", "", "Kennzeichen")
		marke := fs.String("marke", "", "Marke")
		modell := fs.String("modell", "", "Modell")
		fs.Parse(rest)

		if *customerNr != "" && !app.Customers.Exists(*customerNr) {
			return fmt.Errorf("unbekannte Kundennummer %s", *customerNr)
		}
		err := app.Vehicles.Upsert(domain.Vehicle{
			VIN:          *vin,
			LicensePlate: *plate,
			CustomerNr:   *customerNr,
			Make:         *marke,
			Model:        *modell,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Fahrzeug %s dem Kunden %s zugeordnet\n", strings.ToUpper(*vin), *customerNr)
		return nil

	case "owners":
		fs := flag.NewFlagSet("vehicle owners", flag.ExitOnError)
		vin := fs.String("fin", "", "Fahrgestellnummer")
		fs.Parse(rest)

		if *vin == "" {
			return fmt.Errorf("-fin ist erforderlich")
		}
		owners := app.Vehicles.FindCustomersByVIN(*vin)
		if len(owners) == 0 {
			fmt.Println("keine Zuordnung gefunden")
			return nil
		}
		for _, nr := range owners {
			name, _ := app.Customers.GetName(nr)
			fmt.Printf("%s\t%s\n", nr, name)
		}
		return nil

	default:
		return fmt.Errorf("unbekannter Unterbefehl %q", sub)
	}
}

func runPattern(app *bootstrap.App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("unterbefehl fehlt (list|set|reset|test)")
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "list":
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FELD\tMUSTER")
		for _, name := range app.Patterns.Names() {
			src, _ := app.Patterns.Get(name)
			fmt.Fprintf(w, "%s\t%s\n", name, src)
		}
		return w.Flush()

	case "set":
		fs := flag.NewFlagSet("pattern set", flag.ExitOnError)
		field := fs.String("field", "", "Feldname")
		pattern := fs.String("regex", "", "neues Muster")
		fs.Parse(rest)

		if *field == "" || *pattern == "" {
			return fmt.Errorf("-field und -regex sind erforderlich")
		}
		if err := app.Patterns.Update(*field, *pattern); err != nil {
			return err
		}
		fmt.Printf("Muster für %s übernommen\n", *field)
		return nil

	case "reset":
		app.Patterns.ResetToDefaults()
		fmt.Println("Standardmuster wiederhergestellt")
		return nil

	case "test":
		fs := flag.NewFlagSet("pattern test", flag.ExitOnError)
		pattern := fs.String("regex", "", "zu testendes Muster")
		text := fs.String("text", "", "Beispieltext")
		fs.Parse(rest)

		if *pattern == "" || *text == "" {
			return fmt.Errorf("-regex und -text sind erforderlich")
		}
		match, err := app.Patterns.Test(*pattern, *text)
		if err != nil {
			return err
		}
		if match == "" {
			fmt.Println("kein Treffer")
			return nil
		}
		fmt.Printf("Treffer: %s\n", match)
		return nil

	default:
		return fmt.Errorf("unbekannter Unterbefehl %q", sub)
	}
}

func bindSearchFlags(fs *flag.FlagSet) *domain.SearchFilter {
	filter := &domain.SearchFilter{}
	fs.StringVar(&filter.CustomerNr, "kunde", "", "Kundennummer (exakt)")
	fs.StringVar(&filter.OrderNr, "auftrag", "", "Auftragsnummer (exakt)")
	fs.StringVar(&filter.DocumentType, "typ", "", "Dokumenttyp (exakt)")
	fs.IntVar(&filter.Year, "jahr", 0, "Jahr")
	fs.IntVar(&filter.Month, "monat", 0, "Monat der Verarbeitung")
	fs.StringVar(&filter.CustomerName, "name", "", "Kundenname (Teilstring)")
	fs.StringVar(&filter.Filename, "datei", "", "Dateiname (Teilstring)")
	fs.StringVar(&filter.VIN, "fin", "", "FIN (Teilstring)")
	fs.StringVar(&filter.LicensePlate, "kennzeichen", "", "Kennzeichen (Teilstring)")
	fs.BoolVar(&filter.LegacyOnly, "legacy", false, "nur Altbestand")
	fs.Func("status", "Status (success|unclear|error|duplicate)", func(v string) error {
		filter.Status = domain.DocumentStatus(v)
		return nil
	})
	return filter
}

func collectDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".pdf", ".txt":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func sortedStatuses(counts map[domain.DocumentStatus]int) []domain.DocumentStatus {
	statuses := make([]domain.DocumentStatus, 0, len(counts))
	for s := range counts {
		statuses = append(statuses, s)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })
	return statuses
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
