// Package render formats query results as Markdown for tool-calling
// clients and terminals. JSON output is produced by the callers directly.
package render

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/core"
)

// ContentType is the media type of every rendered document.
const ContentType = "text/markdown; charset=utf-8"

// numbers formats quantities with thousands separators.
var numbers = message.NewPrinter(language.English)

func quantity(v float64) string {
	return numbers.Sprintf("%.2f", v)
}

func percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

func orNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}

// cell escapes pipes so free text cannot break a table row.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

type doc struct {
	b strings.Builder
}

func (d *doc) title(format string, args ...any) {
	fmt.Fprintf(&d.b, "## "+format+"\n\n", args...)
}

func (d *doc) field(name, value string) {
	fmt.Fprintf(&d.b, "- **%s:** %s\n", name, value)
}

func (d *doc) line(format string, args ...any) {
	fmt.Fprintf(&d.b, format+"\n", args...)
}

func (d *doc) blank() {
	d.b.WriteString("\n")
}

func (d *doc) table(header []string, rows [][]string) {
	d.line("| %s |", strings.Join(header, " | "))
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	d.line("| %s |", strings.Join(sep, " | "))
	for _, r := range rows {
		escaped := make([]string, len(r))
		for i, c := range r {
			escaped[i] = cell(c)
		}
		d.line("| %s |", strings.Join(escaped, " | "))
	}
}

func (d *doc) String() string {
	return d.b.String()
}

// Sources renders the source list.
func Sources(infos []core.SourceInfo) string {
	var d doc
	d.title("Sources")
	rows := make([][]string, 0, len(infos))
	for _, s := range infos {
		rows = append(rows, []string{s.Key, s.Label, s.Kind, yesNo(s.Configured), yesNo(s.Loaded)})
	}
	d.table([]string{"Key", "Label", "Kind", "Configured", "Loaded"}, rows)
	return d.String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// Commodities renders a commodity list, grouped by category when present.
func Commodities(list core.CommodityList) string {
	var d doc
	d.title("Commodities")
	d.line("Total: %d commodities", list.Total)
	d.blank()

	if len(list.Categories) == 0 {
		for _, c := range list.Commodities {
			d.line("- %s", c)
		}
		return d.String()
	}

	for _, cat := range core.CategoryNames() {
		names, ok := list.Categories[cat]
		if !ok {
			continue
		}
		d.line("### %s", cat)
		d.blank()
		for _, c := range names {
			d.line("- %s", c)
		}
		d.blank()
	}
	return d.String()
}

// Countries renders a country list.
func Countries(list core.CountryList, commodity string) string {
	var d doc
	if commodity != "" {
		d.title("Countries producing %s", commodity)
	} else {
		d.title("Countries")
	}
	d.line("Total: %d countries", list.Total)
	d.blank()
	for _, c := range list.Countries {
		d.line("- %s", c)
	}
	return d.String()
}

// Records renders raw observations as a table.
func Records(list core.RecordList) string {
	var d doc
	d.title("Records")
	d.line("Total: %d records", list.Total)
	d.blank()
	if list.Total == 0 {
		return d.String()
	}

	rows := make([][]string, 0, len(list.Records))
	for _, o := range list.Records {
		rows = append(rows, []string{
			o.Commodity, o.Country, fmt.Sprint(o.Year), orNA(o.StatisticType), quantity(o.Quantity), orNA(o.Units),
		})
	}
	d.table([]string{"Commodity", "Country", "Year", "Statistic", "Quantity", "Units"}, rows)
	return d.String()
}

// Ranking renders a producer ranking.
func Ranking(r core.RankingResult) string {
	var d doc
	d.title("%s ranking", r.Commodity)
	d.field("Year", yearOrNA(r.Year))
	d.field("Statistic", orNA(r.StatisticType))
	d.field("Total", strings.TrimSpace(quantity(r.TotalQuantity)+" "+r.Units))
	d.blank()

	if len(r.Rankings) == 0 {
		d.line("No producing countries found.")
		return d.String()
	}

	rows := make([][]string, 0, len(r.Rankings))
	for _, e := range r.Rankings {
		rows = append(rows, []string{fmt.Sprint(e.Rank), e.Country, quantity(e.Quantity), percent(e.SharePercent)})
	}
	d.table([]string{"Rank", "Country", "Quantity", "Share"}, rows)
	return d.String()
}

func yearOrNA(y int) string {
	if y == 0 {
		return "n/a"
	}
	return fmt.Sprint(y)
}

// TimeSeries renders a per-year series.
func TimeSeries(r core.TimeSeriesResult) string {
	var d doc
	if r.Country != "" {
		d.title("%s in %s", r.Commodity, r.Country)
	} else {
		d.title("%s, all countries", r.Commodity)
	}
	d.field("Statistic", orNA(r.StatisticType))
	d.field("Units", orNA(r.Units))
	d.blank()

	if len(r.Series) == 0 {
		d.line("No data found.")
		return d.String()
	}
	d.table([]string{"Year", "Quantity", "YoY change"}, seriesRows(r.Series))
	return d.String()
}

func seriesRows(series []core.SeriesPoint) [][]string {
	rows := make([][]string, 0, len(series))
	for _, p := range series {
		change := "n/a"
		if p.YoYChangePercent != nil {
			change = percent(*p.YoYChangePercent)
		}
		rows = append(rows, []string{fmt.Sprint(p.Year), quantity(p.Quantity), change})
	}
	return rows
}

// Compare renders one section per country, in request order.
func Compare(r core.CompareResult) string {
	var d doc
	d.title("%s comparison", r.Commodity)
	d.field("Statistic", orNA(r.StatisticType))
	d.field("Units", orNA(r.Units))
	d.blank()

	order := r.Order
	if len(order) == 0 {
		for name := range r.Countries {
			order = append(order, name)
		}
		sort.Strings(order)
	}

	for _, name := range order {
		d.line("### %s", name)
		d.blank()
		d.table([]string{"Year", "Quantity", "YoY change"}, seriesRows(r.Countries[name]))
		d.blank()
	}
	return d.String()
}

// Profile renders a country's commodity mix.
func Profile(r core.ProfileResult) string {
	var d doc
	d.title("%s profile", r.Country)
	d.field("Year", yearOrNA(r.Year))
	d.field("Statistic", orNA(r.StatisticType))
	d.blank()

	if len(r.Commodities) == 0 {
		d.line("No data found.")
		return d.String()
	}
	for _, c := range r.Commodities {
		d.line("- %s: %s", c.Commodity, strings.TrimSpace(quantity(c.Quantity)+" "+c.Units))
	}
	return d.String()
}

// Deposits renders deposit search results.
func Deposits(list core.DepositList) string {
	var d doc
	d.title("Deposits")
	d.line("Total: %d deposits", list.Total)
	if list.CommodityIgnored {
		d.line("No deposits matched the commodity; showing results without that filter.")
	}
	d.blank()
	if list.Total == 0 {
		return d.String()
	}

	rows := make([][]string, 0, len(list.Deposits))
	for _, dep := range list.Deposits {
		rows = append(rows, []string{
			dep.Name,
			orNA(dep.Country),
			fmt.Sprintf("%.4f, %.4f", dep.Lat, dep.Lng),
			strings.Join(dep.Commodities, ", "),
		})
	}
	d.table([]string{"Name", "Country", "Location", "Commodities"}, rows)
	return d.String()
}

// Error renders a caller-facing error, naming any missing column roles.
func Error(msg core.UserMessage, missing ...string) string {
	var d doc
	d.title("Error %s", msg.Code)
	d.line("%s", msg.Message)
	if len(missing) > 0 {
		d.line("Missing columns: %s", strings.Join(missing, ", "))
	}
	if msg.Action != "" {
		d.blank()
		d.line("%s", msg.Action)
	}
	return d.String()
}
