package leaderboardservice

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	leaderboarddomain "github.com/Black-And-White-Club/doubles-bot/app/modules/leaderboard/domain"
	"github.com/Black-And-White-Club/doubles-bot/app/results"
	"github.com/xuri/excelize/v2"
)

var exportViews = []leaderboarddomain.View{
	leaderboarddomain.ViewPoints,
	leaderboarddomain.ViewClub,
	leaderboarddomain.ViewDifferential,
}

var exportHeader = []any{
	"Rank", "ID", "Name", "Avg Points", "Games", "Total Points",
	"Wins", "Losses", "Win %", "Point Diff", "Rating", "Satisfaction", "Qualifies",
}

// ExportStandings renders one worksheet per view. q.View is ignored.
func (s *LeaderboardService) ExportStandings(ctx context.Context, q Query) ([]byte, error) {
	result, err := withTelemetry(s, ctx, "ExportStandings", q.Mode, func(ctx context.Context) (results.OperationResult[[]byte, error], error) {
		boards := make([]*leaderboarddomain.Leaderboard, 0, len(exportViews))
		for _, view := range exportViews {
			board, err := s.GetLeaderboard(ctx, Query{Mode: q.Mode, Threshold: q.Threshold, View: string(view)})
			if err != nil {
				return classify[[]byte](nil, err)
			}
			boards = append(boards, board)
		}

		data, err := renderWorkbook(boards)
		if err != nil {
			return results.OperationResult[[]byte, error]{}, fmt.Errorf("failed to render workbook: %w", err)
		}
		return results.SuccessResult[[]byte, error](data), nil
	})
	return unwrap(result, err)
}

func renderWorkbook(boards []*leaderboarddomain.Leaderboard) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	first := f.GetSheetName(f.GetActiveSheetIndex())
	for i, board := range boards {
		sheet := sheetName(board.View)
		if i == 0 {
			if err := f.SetSheetName(first, sheet); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}

		if err := f.SetSheetRow(sheet, "A1", &exportHeader); err != nil {
			return nil, err
		}
		for r, e := range board.Entries {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return nil, err
			}
			row := []any{
				e.Rank, e.ID, e.Name, e.AvgPoints, e.GamesPlayed, e.TotalPoints,
				e.Wins, e.Losses, e.WinPct, e.PointDiff, e.Rating, e.Satisfaction, e.Qualifies,
			}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sheetName(v leaderboarddomain.View) string {
	s := string(v)
	return strings.ToUpper(s[:1]) + s[1:]
}
