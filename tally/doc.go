// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tally turns an election's votes into ranked results.

Compute is pure: it takes the election, its categories and candidates, every
vote and the number of eligible sessions, and returns one ScopeResult per
category (or a single "Overall" scope when the election has no categories).

# Counting

A candidate's vote count is the number of distinct voter tokens that picked it,
so a voter who picks two candidates in a category counts once for each.

  - percentage:   votes / sum of all candidate votes in the scope * 100
  - ballot_share: votes / distinct voters in the scope * 100
  - turnout:      distinct voters / eligible sessions * 100, rounded

Percentages sum to 100 across a scope. Ballot shares sum to at most the vote
cap times 100. Every ratio is 0 when its denominator is 0.

Candidates are sorted by votes, descending, with a stable sort so ties keep the
candidates' configured order. Tied candidates share a rank.

# Refreshing

Watcher polls a FetchFunc on a ticker. It keeps the viewer's selected category
across refreshes, falling back to the first scope when the selection
disappears, and recomputes remaining_seconds from the absolute end time each
tick.
*/
package tally
