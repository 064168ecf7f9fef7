package leaderboardservice

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"time"

	ledgerdb "github.com/Black-And-White-Club/doubles-bot/app/modules/ledger/infrastructure/repositories"
	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	"github.com/Black-And-White-Club/doubles-bot/app/results"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	chartLine       = drawing.ColorFromHex("2f6f4f")
	chartDot        = drawing.ColorFromHex("c9a227")
	chartBackground = drawing.ColorFromHex("ffffff")
	chartText       = drawing.ColorFromHex("333333")
)

// HistoryPoint is a player's cumulative points at the end of a session date.
type HistoryPoint struct {
	Date       time.Time
	Cumulative float64
}

// PointsHistory folds a player's game records into one point per session
// date, in date order.
func PointsHistory(records []ledgerdb.GameRecord, playerID string) ([]HistoryPoint, error) {
	perDate := make(map[string]float64)
	for i := range records {
		r := &records[i]
		if !r.Involves(playerID) {
			continue
		}
		perDate[r.SessionDate] += r.Award().PlayerPoints()[sessiondomain.PlayerID(playerID)]
	}

	dates := make([]string, 0, len(perDate))
	for d := range perDate {
		dates = append(dates, d)
	}
	slices.Sort(dates)

	out := make([]HistoryPoint, 0, len(dates))
	var total float64
	for _, d := range dates {
		day, err := time.Parse(time.DateOnly, d)
		if err != nil {
			return nil, fmt.Errorf("game record has invalid date %q: %w", d, err)
		}
		total += perDate[d]
		out = append(out, HistoryPoint{Date: day, Cumulative: total})
	}
	return out, nil
}

// PointsHistoryChart renders a player's cumulative points as a PNG.
func (s *LeaderboardService) PointsHistoryChart(ctx context.Context, playerID string) ([]byte, error) {
	result, err := withTelemetry(s, ctx, "PointsHistoryChart", playerID, func(ctx context.Context) (results.OperationResult[[]byte, error], error) {
		db := s.readDB()
		player, err := s.repo.GetPlayer(ctx, db, playerID)
		if err != nil {
			return classify[[]byte](nil, err)
		}
		records, err := s.repo.ListGameRecordsForPlayer(ctx, db, playerID)
		if err != nil {
			return results.OperationResult[[]byte, error]{}, fmt.Errorf("failed to list game records: %w", err)
		}
		history, err := PointsHistory(records, playerID)
		if err != nil {
			return results.OperationResult[[]byte, error]{}, err
		}

		png, err := renderPointsChart(player.DisplayName, history)
		if err != nil {
			return results.OperationResult[[]byte, error]{}, fmt.Errorf("failed to render chart: %w", err)
		}
		return results.SuccessResult[[]byte, error](png), nil
	})
	return unwrap(result, err)
}

func renderPointsChart(name string, history []HistoryPoint) ([]byte, error) {
	if len(history) == 0 {
		return renderNoDataPlaceholder("No games recorded for " + name)
	}

	// Anchor the series at zero the day before the first session so a single
	// date still spans a range.
	xValues := make([]time.Time, 0, len(history)+1)
	yValues := make([]float64, 0, len(history)+1)
	xValues = append(xValues, history[0].Date.AddDate(0, 0, -1))
	yValues = append(yValues, 0)
	maxY := 10.0
	for _, p := range history {
		xValues = append(xValues, p.Date)
		yValues = append(yValues, p.Cumulative)
		maxY = max(maxY, p.Cumulative)
	}

	graph := chart.Chart{
		Title:      name,
		Width:      800,
		Height:     400,
		Background: chart.Style{FillColor: chartBackground},
		Canvas:     chart.Style{FillColor: chartBackground},
		XAxis: chart.XAxis{
			Name:           "Session date",
			ValueFormatter: chart.TimeValueFormatterWithFormat(time.DateOnly),
			Style:          chart.Style{FontColor: chartText},
		},
		YAxis: chart.YAxis{
			Name:  "Cumulative points",
			Style: chart.Style{FontColor: chartText},
			Range: &chart.ContinuousRange{Min: 0, Max: maxY},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Points",
				XValues: xValues,
				YValues: yValues,
				Style: chart.Style{
					StrokeColor: chartLine,
					StrokeWidth: 2,
					DotWidth:    4,
					DotColor:    chartDot,
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderNoDataPlaceholder(msg string) ([]byte, error) {
	graph := chart.Chart{
		Width:      400,
		Height:     200,
		Background: chart.Style{FillColor: chartBackground},
		Canvas:     chart.Style{FillColor: chartBackground},
		XAxis:      chart.XAxis{Style: chart.Style{Hidden: true}},
		YAxis:      chart.YAxis{Style: chart.Style{Hidden: true}},
		// Render refuses a chart without series.
		Series: []chart.Series{
			chart.ContinuousSeries{
				Style:   chart.Style{Hidden: true},
				XValues: []float64{0, 1},
				YValues: []float64{0, 1},
			},
		},
		Elements: []chart.Renderable{
			func(r chart.Renderer, cb chart.Box, _ chart.Style) {
				r.SetFontColor(chartText)
				r.SetFontSize(12.0)
				tb := r.MeasureText(msg)
				r.Text(msg, (cb.Width()-tb.Width())/2, (cb.Height()+tb.Height())/2)
			},
		},
	}
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
