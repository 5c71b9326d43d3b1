// Package export parses LinkedIn data export files into typed records.
package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrUnknownKind is returned when Files contains a kind the parser does
	// not know.
	ErrUnknownKind = errors.New("unknown export kind")
	// ErrNoFiles is returned when no files were supplied at all.
	ErrNoFiles = errors.New("no export files")

	errNoHeader    = errors.New("no header row")
	errUnparseable = errors.New("unparseable date")
)

// Options controls ParseAll.
type Options struct {
	// Now is the clock used for unparseable dates.
	Now time.Time
	// Workers bounds parallel file parsing. Zero means one per kind.
	Workers int
}

// ParseAll parses every supplied file. Files are parsed in parallel; each
// worker only touches its own slot. Row-level problems are counted in the
// returned stats and never fail the call.
func ParseAll(ctx context.Context, files Files, opts Options) (*Records, ParseStats, error) {
	if len(files) == 0 {
		return nil, nil, ErrNoFiles
	}
	for kind := range files {
		if !kind.Valid() {
			return nil, nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
		}
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	var recs Records
	stats := make([]KindStats, len(Kinds))

	g, ctx := errgroup.WithContext(ctx)
	if opts.Workers > 0 {
		g.SetLimit(opts.Workers)
	}
	for i, kind := range Kinds {
		content, ok := files[kind]
		if !ok {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			stats[i] = parseKind(&recs, kind, content, now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("parse export: %w", err)
	}

	out := make(ParseStats, len(files))
	for i, kind := range Kinds {
		if _, ok := files[kind]; ok {
			out[kind] = stats[i]
		}
	}
	return &recs, out, nil
}

// parseKind writes exactly one field of recs.
func parseKind(recs *Records, kind Kind, content string, now time.Time) KindStats {
	var st KindStats
	switch kind {
	case KindConnections:
		recs.Connections, st = parseConnections(content, now)
	case KindMessages:
		recs.Messages, st = parseMessages(content, now)
	case KindEndorsementsReceived:
		recs.EndorsementsReceived, st = parseEndorsements(content, "Endorser", now)
	case KindEndorsementsGiven:
		recs.EndorsementsGiven, st = parseEndorsements(content, "Endorsee", now)
	case KindRecommendationsReceived:
		recs.RecommendationsReceived, st = parseRecommendations(content, now)
	case KindRecommendationsGiven:
		recs.RecommendationsGiven, st = parseRecommendations(content, now)
	case KindPositions:
		recs.Positions, st = parsePositions(content, now)
	case KindInvitations:
		recs.Invitations, st = parseInvitations(content, now)
	case KindReactions:
		recs.Reactions, st = parseReactions(content, now)
	}
	return st
}
