package monitor

import (
	"context"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/macarvajall/OFAC/internal/config"
	"github.com/macarvajall/OFAC/internal/domain"
	"github.com/macarvajall/OFAC/internal/normalize"
	"github.com/macarvajall/OFAC/internal/sanctions"
)

// maxScoreCandidates caps how many blocked candidates are fully scored
// per mention. Candidates arrive pre-score ordered, so the cap trims
// only the least promising tail.
const maxScoreCandidates = 50

// contextRadius is how many bytes of surrounding document text are
// carried on each mention.
const contextRadius = 80

// extractWorkers bounds parallel extraction within one cycle.
const extractWorkers = 4

// runCycle executes one full pipeline pass for a source:
// fetch -> extract -> match -> emit. Any phase error aborts the cycle;
// alerts already emitted stay (each is individually durable), and the
// source retries from scratch on its next tick.
func (s *Scheduler) runCycle(ctx context.Context, src config.Source) error {
	defer s.setPhase(src.ID, PhaseIdle)

	started := time.Now().UTC()
	s.updateStats(src.ID, func(st *SourceStats) {
		st.LastRun = started
	})

	// Fetch.
	s.setPhase(src.ID, PhaseFetching)
	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	docs, err := s.fetcher.Fetch(fetchCtx, src)
	cancel()
	if err != nil {
		s.recordCycleError(src.ID, err)
		return err
	}

	// Extract.
	s.setPhase(src.ID, PhaseExtracting)
	mentions, err := s.extractAll(ctx, docs)
	if err != nil {
		s.recordCycleError(src.ID, err)
		return err
	}

	// Match and emit against one snapshot generation for the whole
	// cycle. No snapshot yet means nothing to match against; the cycle
	// completes empty rather than erroring.
	emitted := 0
	if ix := s.snapshots.Current(); ix != nil {
		s.setPhase(src.ID, PhaseMatching)
		for i := range mentions {
			n, err := s.matchAndEmit(ctx, ix, &mentions[i])
			if err != nil {
				s.recordCycleError(src.ID, err)
				return err
			}
			emitted += n
		}
	} else {
		s.logger.Debug("no sanctions snapshot yet, skipping matching", "source", src.ID)
	}

	s.updateStats(src.ID, func(st *SourceStats) {
		st.LastOK = time.Now().UTC()
		st.LastError = ""
		st.Cycles++
		st.ItemsFetched += uint64(len(docs))
		st.Mentions += uint64(len(mentions))
		st.AlertsEmitted += uint64(emitted)
	})
	s.logger.Info("cycle complete",
		"source", src.ID,
		"items", len(docs),
		"mentions", len(mentions),
		"alerts", emitted,
		"took", time.Since(started),
	)
	return nil
}

// extractAll runs the extractor over the fetched documents in parallel
// and flattens the results into mentions. Document order is preserved
// in the output so cycles are deterministic for a given fetch batch.
func (s *Scheduler) extractAll(ctx context.Context, docs []domain.RawDocument) ([]domain.Mention, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.extractTimeout)
	defer cancel()

	perDoc := make([][]domain.Mention, len(docs))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(extractWorkers)
	for i := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ms := mentionsFrom(&docs[i], s.extractor.ExtractPersons(docs[i].Text))
			mu.Lock()
			perDoc[i] = ms
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []domain.Mention
	for _, ms := range perDoc {
		out = append(out, ms...)
	}
	return out, nil
}

// mentionsFrom turns extracted spans into mentions, dropping spans that
// normalize to nothing.
func mentionsFrom(doc *domain.RawDocument, spans []domain.Span) []domain.Mention {
	mentions := make([]domain.Mention, 0, len(spans))
	for _, span := range spans {
		norm := normalize.Name(span.Text)
		if norm == "" {
			continue
		}
		mentions = append(mentions, domain.Mention{
			Raw:         span.Text,
			Normalized:  norm,
			SourceID:    doc.SourceID,
			ItemID:      doc.ItemID,
			URL:         doc.URL,
			PublishedAt: doc.PublishedAt,
			Context:     snippet(doc.Text, span.Offset, len(span.Text)),
			Relevant:    doc.Relevant,
		})
	}
	return mentions
}

// matchAndEmit scores one mention against the snapshot, classifies the
// best hit, and emits an alert when the verdict is not NONE. Returns
// how many alerts were newly recorded (0 or 1).
func (s *Scheduler) matchAndEmit(ctx context.Context, ix *sanctions.Index, mention *domain.Mention) (int, error) {
	candidates := ix.Candidates(mention.Normalized)

	best := domain.MatchResult{Classification: domain.ClassNone}
	scored := 0
	for i := range candidates {
		if scored >= maxScoreCandidates {
			break
		}
		entity := candidates[i].Entity
		if entity.Kind != domain.KindPerson {
			continue
		}
		scored++

		score, dist := s.scorer.Score(mention.Normalized, entity)
		if score > best.Score {
			best = domain.MatchResult{
				EntityUID:   entity.UID,
				EntityName:  entity.PrimaryName,
				Score:       score,
				AliasScores: dist,
			}
		}
	}
	if best.EntityUID == "" {
		return 0, nil
	}

	best.Classification = s.classifier.Classify(best.Score, mention.Relevant)
	if best.Classification == domain.ClassNone {
		return 0, nil
	}

	return s.emit(ctx, mention, best)
}

// emit records the alert if its (source item, entity) pair is unseen
// and fans it out to publishers. Publishing happens only for the
// recording writer, so subscribers see each pair once.
func (s *Scheduler) emit(ctx context.Context, mention *domain.Mention, result domain.MatchResult) (int, error) {
	s.setPhase(mention.SourceID, PhaseEmitting)
	defer s.setPhase(mention.SourceID, PhaseMatching)

	id, err := gonanoid.New()
	if err != nil {
		return 0, err
	}

	alert := domain.AlertRecord{
		ID:        id,
		DedupKey:  domain.AlertDedupKey(mention.ItemID, result.EntityUID),
		Mention:   *mention,
		Result:    result,
		FirstSeen: time.Now().UTC(),
	}

	inserted, err := s.dedup.RecordIfNew(ctx, alert.DedupKey, &alert)
	if err != nil {
		return 0, err
	}
	if !inserted {
		return 0, nil
	}

	for _, p := range s.publishers {
		p.PublishAlert(alert)
	}
	s.logger.Info("alert emitted",
		"source", mention.SourceID,
		"name", mention.Raw,
		"entity", result.EntityName,
		"score", result.Score,
		"class", result.Classification,
	)
	return 1, nil
}

// snippet clips the document text around a span for analyst context.
func snippet(text string, offset, length int) string {
	start := offset - contextRadius
	if start < 0 {
		start = 0
	}
	end := offset + length + contextRadius
	if end > len(text) {
		end = len(text)
	}
	// Back off to rune boundaries so the clip never splits a character.
	for start > 0 && !utf8RuneStart(text[start]) {
		start--
	}
	for end < len(text) && !utf8RuneStart(text[end]) {
		end++
	}
	return text[start:end]
}

func utf8RuneStart(b byte) bool { return b&0xC0 != 0x80 }
