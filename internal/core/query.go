package core

// query.go implements the analytics over a published relation.
//
// Every operation is a pure function of the relation snapshot: it filters
// into a fresh slice, aggregates by summing, and returns new result values.
// "Nothing matched" is never an error; results come back zero-valued with
// empty (non-nil) lists so that renderers need no special cases.

import (
	"fmt"
	"sort"
	"strings"
)

// aggregateCountries are pseudo-countries that summarize other rows.
var aggregateCountries = map[string]bool{
	"world total":     true,
	"other countries": true,
}

// Engine runs queries over relations and deposit sets.
type Engine struct {
	aliases *AliasTable
}

// NewEngine returns an engine using aliases for country fallback.
// A nil table selects the embedded defaults.
func NewEngine(aliases *AliasTable) *Engine {
	if aliases == nil {
		aliases = DefaultAliases()
	}
	return &Engine{aliases: aliases}
}

// RankingQuery selects a producer ranking. Year 0 means the latest year;
// TopN <= 0 returns every country.
type RankingQuery struct {
	Commodity     string
	Year          int
	StatisticType string
	TopN          int
}

// RankingEntry is one ranked country.
type RankingEntry struct {
	Rank         int     `json:"rank"`
	Country      string  `json:"country"`
	Quantity     float64 `json:"quantity"`
	SharePercent float64 `json:"share_percent"`
}

// RankingResult is the response of Ranking.
type RankingResult struct {
	Commodity     string         `json:"commodity"`
	Year          int            `json:"year"`
	StatisticType string         `json:"statistic_type"`
	Units         string         `json:"units,omitempty"`
	TotalQuantity float64        `json:"total_quantity"`
	Rankings      []RankingEntry `json:"rankings"`
}

// TimeSeriesQuery selects a per-year series. An empty Country sums all
// countries; zero year bounds are open.
type TimeSeriesQuery struct {
	Commodity     string
	Country       string
	StatisticType string
	YearFrom      int
	YearTo        int
}

// SeriesPoint is one year of a time series.
type SeriesPoint struct {
	Year             int      `json:"year"`
	Quantity         float64  `json:"quantity"`
	YoYChangePercent *float64 `json:"yoy_change_percent"`
}

// TimeSeriesResult is the response of TimeSeries.
type TimeSeriesResult struct {
	Commodity     string        `json:"commodity"`
	Country       string        `json:"country,omitempty"`
	StatisticType string        `json:"statistic_type"`
	Units         string        `json:"units,omitempty"`
	Series        []SeriesPoint `json:"series"`
}

// CompareQuery selects series for several countries. Countries is a comma
// separated list.
type CompareQuery struct {
	Commodity     string
	Countries     string
	StatisticType string
	YearFrom      int
	YearTo        int
}

// CompareResult maps each requested country with data to its series.
type CompareResult struct {
	Commodity     string                   `json:"commodity"`
	StatisticType string                   `json:"statistic_type"`
	Units         string                   `json:"units,omitempty"`
	Countries     map[string][]SeriesPoint `json:"countries"`

	// Order lists the keys of Countries in request order.
	Order []string `json:"-"`
}

// ProfileQuery selects a country's commodity mix. Year 0 means the latest
// year for the country; Limit <= 0 returns every commodity.
type ProfileQuery struct {
	Country       string
	Year          int
	StatisticType string
	Limit         int
}

// ProfileEntry is one commodity of a country profile.
type ProfileEntry struct {
	Commodity string  `json:"commodity"`
	Quantity  float64 `json:"quantity"`
	Units     string  `json:"units,omitempty"`
}

// ProfileResult is the response of Profile.
type ProfileResult struct {
	Country       string         `json:"country"`
	Year          int            `json:"year"`
	StatisticType string         `json:"statistic_type"`
	Units         string         `json:"units,omitempty"`
	Commodities   []ProfileEntry `json:"commodities"`
}

// RecordsQuery selects raw observations. Limit <= 0 returns every match.
type RecordsQuery struct {
	Commodity     string
	Country       string
	StatisticType string
	YearFrom      int
	YearTo        int
	Limit         int
}

// Commodities returns the sorted unique commodity names of rel.
func (e *Engine) Commodities(rel *Relation) []string {
	return uniqueSorted(rel.Observations, func(o Observation) string { return o.Commodity })
}

// Countries returns the sorted unique country names, optionally limited to
// rows of a commodity.
func (e *Engine) Countries(rel *Relation, commodity string) []string {
	rows := filterCommodity(rel.Observations, commodity)
	return uniqueSorted(rows, func(o Observation) string { return o.Country })
}

// Records returns matching observations in relation order.
func (e *Engine) Records(rel *Relation, q RecordsQuery) []Observation {
	rows := e.filter(rel, q.Commodity, q.Country, q.StatisticType)
	rows = filterYears(rows, q.YearFrom, q.YearTo)
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	if rows == nil {
		rows = []Observation{}
	}
	return rows
}

// Ranking ranks countries by summed quantity for one year.
//
// When the source has a statistic column only production rows are ranked,
// whatever StatisticType asks for.
func (e *Engine) Ranking(rel *Relation, q RankingQuery) RankingResult {
	res := RankingResult{
		Commodity:     q.Commodity,
		Year:          q.Year,
		StatisticType: q.StatisticType,
		Rankings:      []RankingEntry{},
	}

	rows := e.filter(rel, q.Commodity, "", q.StatisticType)
	if rel.HasStatistic() {
		rows = filterStatistic(rows, StatisticTypeProduction)
	}
	if len(rows) == 0 {
		return res
	}

	if res.Year == 0 {
		res.Year = maxYear(rows)
	}
	rows = filterYears(rows, res.Year, res.Year)
	if len(rows) == 0 {
		return res
	}
	res.Units = unitMode(rows)

	groups := sumBy(rows, func(o Observation) string { return o.Country })
	kept := groups[:0]
	for _, g := range groups {
		if !aggregateCountries[strings.ToLower(strings.TrimSpace(g.key))] {
			kept = append(kept, g)
		}
	}
	sortDescending(kept)

	for _, g := range kept {
		res.TotalQuantity += g.sum
	}
	for i, g := range kept {
		if q.TopN > 0 && i >= q.TopN {
			break
		}
		res.Rankings = append(res.Rankings, RankingEntry{
			Rank:         i + 1,
			Country:      g.key,
			Quantity:     g.sum,
			SharePercent: sharePercent(g.sum, res.TotalQuantity),
		})
	}

	return res
}

// TimeSeries sums quantity per year in ascending year order.
func (e *Engine) TimeSeries(rel *Relation, q TimeSeriesQuery) TimeSeriesResult {
	res := TimeSeriesResult{
		Commodity:     q.Commodity,
		Country:       q.Country,
		StatisticType: q.StatisticType,
		Series:        []SeriesPoint{},
	}

	rows := e.filter(rel, q.Commodity, q.Country, q.StatisticType)
	rows = filterYears(rows, q.YearFrom, q.YearTo)
	if len(rows) == 0 {
		return res
	}

	res.Units = unitMode(rows)
	res.Series = buildSeries(rows)
	return res
}

// Compare runs TimeSeries per requested country. Countries without data
// are left out; when none has data ErrNoData is returned.
func (e *Engine) Compare(rel *Relation, q CompareQuery) (CompareResult, error) {
	res := CompareResult{
		Commodity:     q.Commodity,
		StatisticType: q.StatisticType,
		Countries:     make(map[string][]SeriesPoint),
	}

	names := SplitCountries(q.Countries)
	if len(names) == 0 {
		return res, fmt.Errorf("%w: countries is empty", ErrInvalidParameter)
	}

	for _, name := range names {
		if _, seen := res.Countries[name]; seen {
			continue
		}
		ts := e.TimeSeries(rel, TimeSeriesQuery{
			Commodity:     q.Commodity,
			Country:       name,
			StatisticType: q.StatisticType,
			YearFrom:      q.YearFrom,
			YearTo:        q.YearTo,
		})
		if len(ts.Series) == 0 {
			continue
		}
		res.Countries[name] = ts.Series
		res.Order = append(res.Order, name)
		if res.Units == "" {
			res.Units = ts.Units
		}
	}

	if len(res.Countries) == 0 {
		return res, fmt.Errorf("%w for %s in %s", ErrNoData, q.Commodity, strings.Join(names, ", "))
	}
	return res, nil
}

// Profile sums quantity per commodity for one country and year.
func (e *Engine) Profile(rel *Relation, q ProfileQuery) ProfileResult {
	res := ProfileResult{
		Country:       q.Country,
		Year:          q.Year,
		StatisticType: q.StatisticType,
		Commodities:   []ProfileEntry{},
	}

	rows := e.filter(rel, "", q.Country, q.StatisticType)
	if len(rows) == 0 {
		return res
	}

	year := q.Year
	if year == 0 {
		year = maxYear(rows)
	}
	res.Year = year
	rows = filterYears(rows, year, year)
	if len(rows) == 0 {
		return res
	}
	res.Units = unitMode(rows)

	groups := sumBy(rows, func(o Observation) string { return o.Commodity })
	sortDescending(groups)
	for i, g := range groups {
		if q.Limit > 0 && i >= q.Limit {
			break
		}
		res.Commodities = append(res.Commodities, ProfileEntry{
			Commodity: g.key,
			Quantity:  g.sum,
			Units:     res.Units,
		})
	}

	return res
}

// SearchDeposits filters a deposit set by country and commodity.
func (e *Engine) SearchDeposits(set *DepositSet, q DepositQuery) []Deposit {
	idx := allIndexes(len(set.Deposits))
	if q.Country != "" && set.HasCountry {
		idx = e.aliases.MatchCountry(len(set.Deposits), q.Country,
			func(i int) string { return set.Deposits[i].Country }, nil)
	}

	needle := strings.ToLower(strings.TrimSpace(q.Commodity))
	out := make([]Deposit, 0)
	for _, i := range idx {
		d := set.Deposits[i]
		if needle != "" && !strings.Contains(d.commodityText, needle) {
			continue
		}
		out = append(out, d)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out
}

// SplitCountries splits a comma separated list and drops blank entries.
func SplitCountries(list string) []string {
	var out []string
	for _, p := range strings.Split(list, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// filter applies the commodity, country and statistic filters shared by
// every operation.
func (e *Engine) filter(rel *Relation, commodity, country, statistic string) []Observation {
	rows := filterCommodity(rel.Observations, commodity)

	if strings.TrimSpace(country) != "" {
		var code func(int) string
		if rel.HasCountryCode() {
			code = func(i int) string { return rows[i].CountryCode }
		}
		idx := e.aliases.MatchCountry(len(rows), country,
			func(i int) string { return rows[i].Country }, code)
		picked := make([]Observation, len(idx))
		for j, i := range idx {
			picked[j] = rows[i]
		}
		rows = picked
	}

	if rel.HasStatistic() {
		rows = filterStatistic(rows, statistic)
	}
	return rows
}

func filterCommodity(rows []Observation, commodity string) []Observation {
	return filterContains(rows, commodity, func(o Observation) string { return o.Commodity })
}

func filterStatistic(rows []Observation, statistic string) []Observation {
	return filterContains(rows, statistic, func(o Observation) string { return o.StatisticType })
}

// filterContains keeps rows whose field contains needle, ignoring case.
// An empty needle keeps a copy of every row.
func filterContains(rows []Observation, needle string, field func(Observation) string) []Observation {
	needle = strings.ToLower(strings.TrimSpace(needle))
	out := make([]Observation, 0, len(rows))
	for _, o := range rows {
		if needle == "" || strings.Contains(strings.ToLower(field(o)), needle) {
			out = append(out, o)
		}
	}
	return out
}

func filterYears(rows []Observation, from, to int) []Observation {
	if from == 0 && to == 0 {
		return rows
	}
	out := make([]Observation, 0, len(rows))
	for _, o := range rows {
		if from != 0 && o.Year < from {
			continue
		}
		if to != 0 && o.Year > to {
			continue
		}
		out = append(out, o)
	}
	return out
}

func maxYear(rows []Observation) int {
	year := 0
	for _, o := range rows {
		if o.Year > year {
			year = o.Year
		}
	}
	return year
}

type group struct {
	key string
	sum float64
}

// sumBy sums quantity per key, keeping groups in first-seen order.
func sumBy(rows []Observation, key func(Observation) string) []group {
	pos := make(map[string]int)
	var groups []group
	for _, o := range rows {
		k := key(o)
		i, ok := pos[k]
		if !ok {
			i = len(groups)
			pos[k] = i
			groups = append(groups, group{key: k})
		}
		groups[i].sum += o.Quantity
	}
	return groups
}

// sortDescending orders groups by sum, keeping first-seen order on ties.
func sortDescending(groups []group) {
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].sum > groups[j].sum
	})
}

func buildSeries(rows []Observation) []SeriesPoint {
	byYear := make(map[int]float64)
	for _, o := range rows {
		byYear[o.Year] += o.Quantity
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	series := make([]SeriesPoint, len(years))
	for i, y := range years {
		series[i] = SeriesPoint{Year: y, Quantity: byYear[y]}
		if i > 0 {
			series[i].YoYChangePercent = yoyChange(series[i-1].Quantity, byYear[y])
		}
	}
	return series
}

// yoyChange is nil when prev is not positive.
func yoyChange(prev, curr float64) *float64 {
	if prev <= 0 {
		return nil
	}
	v := round2((curr - prev) / prev * 100)
	return &v
}

func sharePercent(q, total float64) float64 {
	if total == 0 {
		return 0
	}
	return round2(q / total * 100)
}

// unitMode returns the most frequent non-empty unit; ties go to the
// lexicographically smallest.
func unitMode(rows []Observation) string {
	counts := make(map[string]int)
	for _, o := range rows {
		if o.Units != "" {
			counts[o.Units]++
		}
	}

	best, bestN := "", 0
	for u, n := range counts {
		if n > bestN || (n == bestN && u < best) {
			best, bestN = u, n
		}
	}
	return best
}

func uniqueSorted(rows []Observation, field func(Observation) string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, o := range rows {
		v := strings.TrimSpace(field(o))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
