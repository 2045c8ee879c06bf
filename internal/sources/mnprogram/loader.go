// =============================================================================
// Clinic Template Migrator - CSV Folder Loader
// =============================================================================
//
// A CSV folder backup is a directory of per-table CSV files written by a
// legacy Windows application:
//
//   clientes.csv        primary patient table (required in practice)
//   Bonos.csv           bonuses, owner in icodcliClientes
//   diagnosticoPac.csv  diagnoses, owner in icodcli
//   events.csv          appointments
//   eventsit.csv        appointment attendees, keyed by eventid
//
// File names match case-insensitively. A missing auxiliary file is logged
// and treated as an empty table. Column names are lower-cased on load so
// field lookups do not depend on the exporter's capitalisation.
//
// =============================================================================

package mnprogram

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ginjaninja78/clinic-template-migrator/internal/csvparser"
	"github.com/ginjaninja78/clinic-template-migrator/internal/types"
)

const (
	primaryFile    = "clientes.csv"
	bonusesFile    = "Bonos.csv"
	diagnosesFile  = "diagnosticoPac.csv"
	eventsFile     = "events.csv"
	eventItemsFile = "eventsit.csv"
)

// clientKeyCandidates are tried in order against the primary table header.
var clientKeyCandidates = []string{"icodcli", "idcliente", "id"}

// Folder holds the tables of one CSV folder backup.
type Folder struct {
	// Clients is keyed by ClientKey.
	Clients   *types.Table
	ClientKey string

	Bonuses    []types.Record
	Diagnoses  []types.Record
	Events     []types.Record
	EventItems *types.Table
}

// LoadFolder reads the tables found in dir, trying encodings in order for
// each file.
//
// RETURNS:
//   - The loaded tables. Missing files yield empty tables.
//   - An error if dir cannot be listed or a present file cannot be read.
func LoadFolder(dir string, encodings []string, log zerolog.Logger) (*Folder, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list CSV folder: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	folder := &Folder{Clients: types.NewTable(), EventItems: types.NewTable()}
	settings := csvparser.Settings{Encodings: encodings}

	if name := primaryTableName(names); name == "" {
		log.Warn().Str("path", dir).Strs("files", names).Msg("no clients table found")
	} else {
		data, err := readTable(filepath.Join(dir, name), settings, log)
		if err != nil {
			return nil, err
		}
		keyColumn := clientKey(data, log)
		folder.ClientKey = strings.ToLower(keyColumn)
		if blank := countBlank(csvparser.GetColumnByHeader(data, keyColumn)); blank > 0 {
			log.Warn().Str("table", name).Str("key", keyColumn).Int("rows", blank).Msg("clients without id are skipped")
		}
		for _, rec := range lowerRecords(data) {
			folder.Clients.Put(rec.Str(folder.ClientKey), rec)
		}
		log.Info().Str("table", name).Str("key", folder.ClientKey).Int("records", folder.Clients.Len()).Msg("loaded clients")
	}

	aux := []struct {
		file string
		dst  *[]types.Record
	}{
		{bonusesFile, &folder.Bonuses},
		{diagnosesFile, &folder.Diagnoses},
		{eventsFile, &folder.Events},
	}
	for _, a := range aux {
		recs, err := readAuxTable(dir, names, a.file, settings, log)
		if err != nil {
			return nil, err
		}
		*a.dst = recs
	}

	items, err := readAuxTable(dir, names, eventItemsFile, settings, log)
	if err != nil {
		return nil, err
	}
	for _, rec := range items {
		folder.EventItems.Put(rec.Str("eventid"), rec)
	}

	return folder, nil
}

// primaryTableName picks clientes.csv, else any *cliente*.csv, else the
// first CSV file.
func primaryTableName(names []string) string {
	if name := lookupName(names, primaryFile); name != "" {
		return name
	}
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), "cliente") {
			return n
		}
	}
	if len(names) > 0 {
		return names[0]
	}
	return ""
}

func lookupName(names []string, want string) string {
	for _, n := range names {
		if strings.EqualFold(n, want) {
			return n
		}
	}
	return ""
}

// clientKey returns the key column of the primary table as spelled in its
// header, falling back to its first column.
func clientKey(data *csvparser.CSVData, log zerolog.Logger) string {
	if col, ok := csvparser.FindColumn(data.Headers, clientKeyCandidates...); ok {
		return col
	}
	if len(data.Headers) == 0 {
		return ""
	}
	log.Warn().Str("path", data.SourceFile).Str("column", data.Headers[0]).Msg("no client id column found, using first column")
	return data.Headers[0]
}

func countBlank(values []string) int {
	n := 0
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			n++
		}
	}
	return n
}

func readAuxTable(dir string, names []string, file string, settings csvparser.Settings, log zerolog.Logger) ([]types.Record, error) {
	name := lookupName(names, file)
	if name == "" {
		log.Warn().Str("table", file).Str("path", dir).Msg("auxiliary table not found")
		return nil, nil
	}
	data, err := readTable(filepath.Join(dir, name), settings, log)
	if err != nil {
		return nil, err
	}
	recs := lowerRecords(data)
	log.Info().Str("table", name).Int("records", len(recs)).Msg("loaded table")
	return recs, nil
}

// readTable parses one file. A file with no header is an empty table.
func readTable(path string, settings csvparser.Settings, log zerolog.Logger) (*csvparser.CSVData, error) {
	data, err := csvparser.Parse(path, settings)
	if errors.Is(err, csvparser.ErrEmpty) {
		log.Warn().Str("path", path).Msg("table is empty")
		return &csvparser.CSVData{SourceFile: path}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	log.Debug().Str("path", path).Str("encoding", data.Encoding).Int("rows", data.RowCount).Msg("parsed table")
	return data, nil
}

func lowerRecords(data *csvparser.CSVData) []types.Record {
	recs := make([]types.Record, 0, len(data.Rows))
	for _, row := range data.Rows {
		rec := make(types.Record, len(row))
		for k, v := range row {
			rec[strings.ToLower(k)] = v
		}
		recs = append(recs, rec)
	}
	return recs
}
