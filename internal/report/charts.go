package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

type timeSeriesData struct {
	timestamps []time.Time
	values     []float64
}

var chartBackground = chart.Style{
	Padding: chart.Box{
		Top:    20,
		Left:   20,
		Right:  20,
		Bottom: 20,
	},
}

var gridStyle = chart.Style{
	StrokeColor: drawing.Color{R: 200, G: 200, B: 200, A: 255},
	StrokeWidth: 1.0,
}

func (g *Generator) generateAvailabilityChart(outputDir string, hours int) error {
	query := `
        WITH hourly AS (
            SELECT
                strftime('%Y-%m-%d %H:00:00', timestamp) as hour,
                host || ' ' || port || '/' || protocol as series,
                COUNT(*) as total,
                SUM(CASE WHEN reachable THEN 1 ELSE 0 END) as reachable
            FROM service_results
            WHERE timestamp > datetime('now', '-' || ? || ' hours')
            GROUP BY hour, series
            ORDER BY hour
        )
        SELECT
            hour,
            series,
            (CAST(reachable AS REAL) / total) * 100 as uptime_percent
        FROM hourly
    `

	rows, err := g.db.Query(query, hours)
	if err != nil {
		return err
	}
	defer rows.Close()

	seriesData := make(map[string]timeSeriesData)
	for rows.Next() {
		var hourStr, name string
		var uptime float64

		if scanErr := rows.Scan(&hourStr, &name, &uptime); scanErr != nil {
			return scanErr
		}
		hour, ok := parseHour(hourStr)
		if !ok {
			continue
		}

		data := seriesData[name]
		data.timestamps = append(data.timestamps, hour)
		data.values = append(data.values, uptime)
		seriesData[name] = data
	}
	if err := rows.Err(); err != nil {
		return err
	}

	names := make([]string, 0, len(seriesData))
	for name, data := range seriesData {
		// a single point has no range to draw
		if len(data.values) >= 2 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)

	var allSeries []chart.Series
	for i, name := range names {
		data := seriesData[name]
		allSeries = append(allSeries, chart.TimeSeries{
			Name: name,
			Style: chart.Style{
				StrokeColor: chart.GetDefaultColor(i),
				StrokeWidth: 2,
			},
			XValues: data.timestamps,
			YValues: data.values,
		})
	}

	graph := chart.Chart{
		Title: "Service Availability (Hourly)",
		TitleStyle: chart.Style{
			FontSize: 16,
		},
		Background: chartBackground,
		Width:      1200,
		Height:     400,
		XAxis: chart.XAxis{
			Name: "Time",
			Style: chart.Style{
				StrokeColor: drawing.ColorBlack,
				FontSize:    10,
			},
			ValueFormatter: chart.TimeHourValueFormatter,
		},
		YAxis: chart.YAxis{
			Name: "Uptime %",
			Style: chart.Style{
				StrokeColor: drawing.ColorBlack,
				FontSize:    10,
			},
			Range: &chart.ContinuousRange{
				Min: 0,
				Max: 100,
			},
			GridMajorStyle: gridStyle,
		},
		Series: allSeries,
	}

	graph.Elements = []chart.Renderable{
		chart.Legend(&graph),
	}

	file, err := os.Create(filepath.Join(outputDir, "availability.png"))
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func (g *Generator) generateLatencyChart(outputDir string, hours int) error {
	query := `
        SELECT timestamp, host, rtt_ms
        FROM probe_runs
        WHERE rtt_ms IS NOT NULL
        AND timestamp > datetime('now', '-' || ? || ' hours')
        ORDER BY timestamp
    `

	rows, err := g.db.Query(query, hours)
	if err != nil {
		return err
	}
	defer rows.Close()

	hostData := make(map[string]timeSeriesData)
	for rows.Next() {
		var timestamp time.Time
		var host string
		var rtt float64

		if err := rows.Scan(&timestamp, &host, &rtt); err != nil {
			continue
		}

		data := hostData[host]
		data.timestamps = append(data.timestamps, timestamp)
		data.values = append(data.values, rtt)
		hostData[host] = data
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for host, data := range hostData {
		if len(data.values) < 2 {
			continue
		}

		graph := chart.Chart{
			Title: fmt.Sprintf("Ping Latency - %s", host),
			TitleStyle: chart.Style{
				FontSize: 16,
			},
			Background: chartBackground,
			Width:      1200,
			Height:     400,
			XAxis: chart.XAxis{
				Name: "Time",
				Style: chart.Style{
					StrokeColor: drawing.ColorBlack,
					FontSize:    10,
				},
				ValueFormatter: chart.TimeMinuteValueFormatter,
			},
			YAxis: chart.YAxis{
				Name: "Latency (ms)",
				Style: chart.Style{
					StrokeColor: drawing.ColorBlack,
					FontSize:    10,
				},
				GridMajorStyle: gridStyle,
			},
			Series: []chart.Series{
				chart.TimeSeries{
					Name: host,
					Style: chart.Style{
						StrokeColor: chart.GetDefaultColor(0),
						StrokeWidth: 2,
					},
					XValues: data.timestamps,
					YValues: data.values,
				},
			},
		}

		// Add moving average
		if len(data.values) > 10 {
			ts := graph.Series[0].(chart.TimeSeries)
			graph.Series = append(graph.Series, chart.SMASeries{
				Name: "Moving Avg",
				Style: chart.Style{
					StrokeColor:     chart.GetDefaultColor(1),
					StrokeWidth:     2,
					StrokeDashArray: []float64{5, 5},
				},
				InnerSeries: ts,
				Period:      10,
			})
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("latency_%s.png", sanitizeFilename(host)))
		file, err := os.Create(filename)
		if err != nil {
			return err
		}

		if err := graph.Render(chart.PNG, file); err != nil {
			file.Close()
			return err
		}
		file.Close()
	}

	return nil
}

// generateFailureChart plots how many service probes failed in each hour
func (g *Generator) generateFailureChart(outputDir string, hours int) error {
	query := `
        SELECT
            strftime('%Y-%m-%d %H:00', timestamp) as hour,
            COUNT(*) as failures
        FROM service_results
        WHERE reachable = 0
        AND timestamp > datetime('now', '-' || ? || ' hours')
        GROUP BY hour
        ORDER BY hour
    `

	rows, err := g.db.Query(query, hours)
	if err != nil {
		return err
	}
	defer rows.Close()

	var values []chart.Value
	maxFailures := 0.0
	for rows.Next() {
		var hour string
		var failures int
		if err := rows.Scan(&hour, &failures); err != nil {
			return err
		}
		values = append(values, chart.Value{
			Label: hour,
			Value: float64(failures),
		})
		maxFailures = math.Max(maxFailures, float64(failures))
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if len(values) == 0 {
		return nil
	}

	graph := chart.BarChart{
		Title: "Failed Service Probes by Hour",
		TitleStyle: chart.Style{
			FontSize: 16,
		},
		Background: chartBackground,
		Width:      1200,
		Height:     400,
		Bars:       values,
		BarWidth:   40,
		// bars of equal height would otherwise leave a zero range
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: maxFailures},
		},
	}

	file, err := os.Create(filepath.Join(outputDir, "failure_frequency.png"))
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}
