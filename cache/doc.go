// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cache holds short-lived copies of computed election results.

The results endpoints are polled by every open dashboard, so computing them on
each request would re-read every vote of the election. ResultsCache keeps the
last computation per election for a configurable TTL.

Two implementations exist:

  - Memory: a mutex-guarded map, used when REDIS_URL is empty
  - Redis: JSON values under "qr-ballot:results:<election id>" with a TTL,
    shared by every server instance

Recording a vote or editing an election invalidates its entry, so the TTL
only bounds staleness caused by other instances. Cache failures are never
fatal; callers log them and fall back to computing.
*/
package cache
