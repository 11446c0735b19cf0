package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/lmackenzie/smokewatch/internal/api"
	"github.com/lmackenzie/smokewatch/internal/catalog"
	"github.com/lmackenzie/smokewatch/internal/ingest"
	"github.com/lmackenzie/smokewatch/internal/publish"
	"github.com/lmackenzie/smokewatch/internal/store"
	"github.com/lmackenzie/smokewatch/internal/waqi"
)

type Globals struct {
	DB      string `kong:"default='data/smokewatch.db',help='Path to the SQLite database.'"`
	DataDir string `kong:"default='data/reference',help='Directory with per-city catalog CSV files.'"`
}

type cli struct {
	Globals

	Serve    serveCmd    `kong:"cmd,default='withargs',help='Run the hourly poller and the API server.'"`
	Evaluate evaluateCmd `kong:"cmd,help='Run one evaluation cycle and print the result as JSON.'"`
	Seed     seedCmd     `kong:"cmd,help='Load catalog CSVs into the database and exit.'"`
}

type serveCmd struct {
	Port         string   `kong:"default='8080',help='HTTP server port.'"`
	Demo         bool     `kong:"help='Use built-in demo readings instead of the live API.'"`
	WAQIToken    string   `kong:"env='WAQI_API_TOKEN',help='WAQI API token. Without it the service runs on demo readings.'"`
	KafkaBrokers []string `kong:"env='KAFKA_BROKERS',help='Kafka brokers for alert publishing. Empty disables publishing.'"`
	KafkaTopic   string   `kong:"default='smokewatch.alerts',env='KAFKA_TOPIC',help='Kafka topic for fired alerts.'"`
	NoPoll       bool     `kong:"help='Disable polling (server only, for local dev).'"`
}

type evaluateCmd struct {
	Demo      bool   `kong:"help='Use built-in demo readings instead of the live API.'"`
	WAQIToken string `kong:"env='WAQI_API_TOKEN',help='WAQI API token.'"`
}

type seedCmd struct{}

func main() {
	var app cli
	ktx := kong.Parse(&app,
		kong.Name("smokewatch"),
		kong.Description("PM2.5 smoke early-warning service: upwind station evaluation and city alerting."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)
	ktx.FatalIfErrorf(ktx.Run(&app.Globals))
}

func openStore(g *Globals) (*store.Store, func(), error) {
	db, err := sql.Open("sqlite", g.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return st, func() { db.Close() }, nil
}

// seedStations mirrors the CSV catalogs into the stations table so the
// reference data is queryable alongside readings and decisions.
func seedStations(st *store.Store, catalogs *catalog.Cache) error {
	stations, err := catalogs.AllStations()
	if err != nil {
		return err
	}
	for _, station := range stations {
		if err := st.UpsertStation(station); err != nil {
			return fmt.Errorf("upsert station %s: %w", station.ID, err)
		}
	}
	log.Printf("seeded %d stations", len(stations))
	return nil
}

func newCatalog(g *Globals) *catalog.Cache {
	loader := catalog.NewCSVLoader(g.DataDir)
	return catalog.NewCache(loader.LoadStations)
}

func newSource(token string, demo bool) ingest.ObservationSource {
	if demo {
		log.Println("using demo readings (--demo)")
		return nil
	}
	if token == "" {
		log.Println("WAQI_API_TOKEN not set, using demo readings")
		return nil
	}
	return waqi.NewClient(token)
}

func (c *serveCmd) Run(g *Globals) error {
	st, closeDB, err := openStore(g)
	if err != nil {
		return err
	}
	defer closeDB()

	catalogs := newCatalog(g)
	if err := seedStations(st, catalogs); err != nil {
		return err
	}

	scheduler := ingest.NewScheduler(st, catalogs, newSource(c.WAQIToken, c.Demo))

	if len(c.KafkaBrokers) > 0 {
		writer := publish.NewAlertWriter(c.KafkaBrokers, c.KafkaTopic)
		defer writer.Close()
		scheduler.SetPublisher(writer)
		log.Printf("publishing alerts to %s", c.KafkaTopic)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !c.NoPoll {
		go scheduler.Run(ctx)
	} else {
		log.Println("polling disabled (--no-poll)")
	}

	server := api.NewServer(st, catalogs, c.Port)
	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

func (c *evaluateCmd) Run(g *Globals) error {
	st, closeDB, err := openStore(g)
	if err != nil {
		return err
	}
	defer closeDB()

	catalogs := newCatalog(g)
	scheduler := ingest.NewScheduler(st, catalogs, newSource(c.WAQIToken, c.Demo))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	result, err := scheduler.Cycle(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func (c *seedCmd) Run(g *Globals) error {
	st, closeDB, err := openStore(g)
	if err != nil {
		return err
	}
	defer closeDB()

	return seedStations(st, newCatalog(g))
}
