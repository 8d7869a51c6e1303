// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/danielhkuo/qr-ballot/models"
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	open    = color.New(color.FgGreen)
	closed  = color.New(color.FgRed)
	muted   = color.New(color.FgYellow)
)

// Countdown formats seconds left as HH:MM:SS
func Countdown(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}

// Render writes the selected scope of res as a table, preceded by the
// election title and voting status and followed by the other scopes
func Render(w io.Writer, res *models.ElectionResults) {
	heading.Fprintf(w, "%s\n", res.Title)

	switch {
	case res.EndsAt == nil:
		open.Fprintln(w, "Voting open, no end time")
	case res.RemainingSeconds > 0:
		open.Fprintf(w, "Voting ends in %s\n", Countdown(res.RemainingSeconds))
	default:
		closed.Fprintln(w, "Voting closed")
	}

	scope := selectedScope(res)
	if scope == nil {
		muted.Fprintln(w, "No candidates yet")
		return
	}

	fmt.Fprintf(w, "\n%s: %d voters, %d votes, %d%% turnout of %d sessions\n",
		scope.Name, scope.TotalVoters, scope.TotalVotes, scope.TurnoutPercent, res.EligibleSessions)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Rank", "Candidate", "Votes", "Share", "Ballots"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, c := range scope.Candidates {
		table.Append([]string{
			strconv.Itoa(c.Rank),
			c.Name,
			strconv.Itoa(c.Votes),
			strconv.FormatFloat(c.Percentage, 'f', 2, 64) + "%",
			strconv.FormatFloat(c.BallotShare, 'f', 2, 64) + "%",
		})
	}
	table.Render()

	if len(res.Scopes) > 1 {
		muted.Fprint(w, "Other categories:")
		for _, s := range res.Scopes {
			if s.Key() != scope.Key() {
				muted.Fprintf(w, " %s (%s)", s.Name, s.Key())
			}
		}
		fmt.Fprintln(w)
	}
}

func selectedScope(res *models.ElectionResults) *models.ScopeResult {
	for i := range res.Scopes {
		if res.Scopes[i].Key() == res.SelectedCategory {
			return &res.Scopes[i]
		}
	}
	if len(res.Scopes) > 0 {
		return &res.Scopes[0]
	}
	return nil
}
