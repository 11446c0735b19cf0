package catalog

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/lmackenzie/smokewatch/internal/models"
)

// ExcludedStationIDs lists sensors too far from any target city to be usable.
// Rows with these ids are dropped during load.
var ExcludedStationIDs = map[string]bool{
	"50308": true,
	"50310": true,
	"50314": true,
	"50313": true,
	"55702": true,
}

// CSVLoader reads per-city regression catalogs from a reference-data
// directory. Each city has two files:
//
//	<City>_pm25_regression.csv  — fitted stations (id, city, distance,
//	                              direction, tier, R, slope, intercept)
//	<City>_stations.csv         — coordinate table (id, lat, lon)
//
// Header names are matched loosely so exports with slightly different column
// titles still load. Malformed rows are skipped, not fatal; a partial catalog
// is valid.
type CSVLoader struct {
	dataDir string
}

func NewCSVLoader(dataDir string) *CSVLoader {
	return &CSVLoader{dataDir: dataDir}
}

// LoadStations loads and enriches the catalog for one target city. A missing
// catalog file yields an empty slice, not an error.
func (l *CSVLoader) LoadStations(cityKey string) ([]models.Station, error) {
	rows, err := readCSV(filepath.Join(l.dataDir, cityKey+"_pm25_regression.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load catalog %s: %w", cityKey, err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	headers := rows[0]
	colID := findCol(headers, "station id")
	colCity := findCol(headers, "city")
	colDist := findCol(headers, "distance")
	colDir := findCol(headers, "direction")
	colTier := findCol(headers, "tier")
	colSlope := findCol(headers, "slope")
	colInt := findCol(headers, "intercept")
	colR := findColExact(headers, "R")

	if colID < 0 {
		return nil, fmt.Errorf("load catalog %s: no station id column", cityKey)
	}

	var stations []models.Station
	for _, row := range rows[1:] {
		sid := cell(row, colID)
		if sid == "" || ExcludedStationIDs[sid] {
			continue
		}

		st := models.Station{
			ID:         sid,
			CityName:   cell(row, colCity),
			Direction:  cell(row, colDir),
			Tier:       1,
			TargetCity: cityKey,
		}

		// Numeric fields: any unparsable value drops the row.
		var bad bool
		st.DistanceKm, bad = parseFloat(cell(row, colDist), bad)
		st.CorrelationR, bad = parseFloat(cell(row, colR), bad)
		st.Slope, bad = parseFloat(cell(row, colSlope), bad)
		st.Intercept, bad = parseFloat(cell(row, colInt), bad)
		if bad {
			continue
		}

		if tierStr := cell(row, colTier); tierStr != "" {
			tierStr = strings.TrimSpace(strings.TrimPrefix(tierStr, "Tier"))
			tier, err := strconv.Atoi(tierStr)
			if err != nil {
				continue
			}
			st.Tier = tier
		}

		stations = append(stations, st)
	}

	coords, err := l.loadCoords(cityKey)
	if err != nil {
		return nil, err
	}
	for i := range stations {
		if c, ok := coords[stations[i].ID]; ok {
			stations[i].Lat = sql.NullFloat64{Float64: c[0], Valid: true}
			stations[i].Lon = sql.NullFloat64{Float64: c[1], Valid: true}
		}
	}

	SortStations(stations)
	return stations, nil
}

// loadCoords reads the coordinate table for a city. Missing files or
// unparsable rows simply leave stations without coordinates.
func (l *CSVLoader) loadCoords(cityKey string) (map[string][2]float64, error) {
	rows, err := readCSV(filepath.Join(l.dataDir, cityKey+"_stations.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load coords %s: %w", cityKey, err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	headers := rows[0]
	colID := findCol(headers, "station id")
	colLat := findCol(headers, "lat")
	colLon := findCol(headers, "lon")
	if colID < 0 || colLat < 0 || colLon < 0 {
		return nil, nil
	}

	coords := make(map[string][2]float64)
	for _, row := range rows[1:] {
		sid := cell(row, colID)
		if sid == "" {
			continue
		}
		lat, err1 := strconv.ParseFloat(cell(row, colLat), 64)
		lon, err2 := strconv.ParseFloat(cell(row, colLon), 64)
		if err1 != nil || err2 != nil {
			continue
		}
		coords[sid] = [2]float64{lat, lon}
	}
	return coords, nil
}

// SortStations orders a single-city catalog by tier, then distance descending,
// matching the reference dataset's presentation order.
func SortStations(stations []models.Station) {
	sort.SliceStable(stations, func(i, j int) bool {
		if stations[i].TargetCity != stations[j].TargetCity {
			return stations[i].TargetCity < stations[j].TargetCity
		}
		if stations[i].Tier != stations[j].Tier {
			return stations[i].Tier < stations[j].Tier
		}
		return stations[i].DistanceKm > stations[j].DistanceKm
	})
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

// findCol locates the first header containing the candidate, case-insensitive.
func findCol(headers []string, candidate string) int {
	for i, h := range headers {
		if strings.Contains(strings.ToLower(strings.TrimSpace(h)), candidate) {
			return i
		}
	}
	return -1
}

// findColExact locates a header by exact trimmed match. Used for the "R"
// column, which substring matching would confuse with "Direction".
func findColExact(headers []string, name string) int {
	for i, h := range headers {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func parseFloat(s string, alreadyBad bool) (float64, bool) {
	if alreadyBad {
		return 0, true
	}
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, true
	}
	return v, false
}
