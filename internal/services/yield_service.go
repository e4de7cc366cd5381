// Package services – YieldService
//
// YieldService reads an instance's yield history. The first read by a user
// rebuilds the timeline of every instance that has answers but no history,
// by replaying its sessions through the projector. The rebuild is claimed
// atomically per user, so concurrent first reads run it once.
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-livestock-backend/internal/domain"
	"github.com/tbourn/go-livestock-backend/internal/repo"
)

// YieldService serves the derived yield history timeline.
type YieldService struct {
	DB        *gorm.DB
	Projector *Projector
	Now       func() time.Time
}

func (s *YieldService) projector() *Projector {
	if s.Projector != nil {
		return s.Projector
	}
	return &Projector{}
}

// History returns the timeline of an instance ordered by date, then
// insertion. ErrNotFound when the instance has neither active answers nor
// history.
func (s *YieldService) History(ctx context.Context, userID, animalID uint, number string) ([]domain.YieldHistory, error) {
	tr := otel.Tracer("services/YieldService")
	ctx, span := tr.Start(ctx, "History",
		trace.WithAttributes(
			attribute.Int64("user.id", int64(userID)),
			attribute.Int64("animal.id", int64(animalID)),
			attribute.String("animal.number", number),
		),
	)
	defer span.End()

	key, err := scopeKey(userID, animalID, number)
	if err != nil {
		return nil, err
	}
	if _, err := s.Backfill(ctx, userID); err != nil {
		return nil, err
	}

	rows, err := repo.ListYieldHistory(ctx, s.DB, key)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return rows, nil
	}
	ok, err := repo.HasActiveInstance(ctx, s.DB, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return []domain.YieldHistory{}, nil
}

// Backfill rebuilds the yield history of userID's instances that have none,
// once per user. It reports the number of rows written; 0 when the claim was
// already taken.
func (s *YieldService) Backfill(ctx context.Context, userID uint) (int, error) {
	tr := otel.Tracer("services/YieldService")
	ctx, span := tr.Start(ctx, "Backfill",
		trace.WithAttributes(attribute.Int64("user.id", int64(userID))),
	)
	defer span.End()

	done, err := repo.BackfillDone(ctx, s.DB, userID)
	if err != nil || done {
		return 0, err
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	written := 0
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		won, err := repo.ClaimBackfill(ctx, tx, userID, now())
		if err != nil || !won {
			return err
		}
		instances, err := repo.ListInstancesWithoutHistory(ctx, tx, userID)
		if err != nil {
			return err
		}
		for _, key := range instances {
			// A write may have projected this instance since the listing.
			if err := repo.LockInstance(ctx, tx, key); err != nil {
				return err
			}
			has, err := repo.HasYieldHistory(ctx, tx, key)
			if err != nil {
				return err
			}
			if has {
				continue
			}
			n, err := s.replay(ctx, tx, key)
			if err != nil {
				return err
			}
			written += n
		}
		return repo.FinishBackfill(ctx, tx, userID, written)
	})
	if err != nil {
		return 0, err
	}
	span.SetAttributes(attribute.Int("rows", written))
	if written > 0 {
		zerolog.Ctx(ctx).Info().Uint("user_id", userID).Int("rows", written).Msg("yield history backfilled")
	}
	return written, nil
}

// replay projects every active session of key, oldest first.
func (s *YieldService) replay(ctx context.Context, tx *gorm.DB, key domain.InstanceKey) (int, error) {
	sessions, err := repo.ListInstanceSessions(ctx, tx, key)
	if err != nil {
		return 0, err
	}
	seen := map[uint]struct{}{}
	var qids []uint
	var catIDs []uint
	for _, sess := range sessions {
		catIDs = append(catIDs, sess.CategoryID)
		for _, a := range sess.Answers {
			if _, ok := seen[a.QuestionID]; !ok {
				seen[a.QuestionID] = struct{}{}
				qids = append(qids, a.QuestionID)
			}
		}
	}
	tags, err := repo.QuestionTags(ctx, tx, qids)
	if err != nil {
		return 0, err
	}
	kinds, err := categoryKinds(ctx, tx, catIDs)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, sess := range sessions {
		answers := make([]taggedAnswer, 0, len(sess.Answers))
		for _, a := range sess.Answers {
			canon := a.Canonical
			if canon == "" {
				canon = Canonicalize(a.Answer)
			}
			answers = append(answers, taggedAnswer{QuestionID: a.QuestionID, Tag: tags[a.QuestionID], Text: a.Answer, Canonical: canon})
		}
		row, err := s.projector().Apply(ctx, tx, projection{
			Key:        key,
			SessionID:  sess.ID,
			CategoryID: sess.CategoryID,
			Kind:       kinds[sess.CategoryID],
			At:         sess.At,
			Answers:    answers,
			Replay:     true,
		})
		if err != nil {
			return 0, err
		}
		if row != nil {
			n++
		}
	}
	return n, nil
}

func categoryKinds(ctx context.Context, db *gorm.DB, ids []uint) (map[uint]domain.CategoryKind, error) {
	out := make(map[uint]domain.CategoryKind, len(ids))
	for _, id := range ids {
		if _, ok := out[id]; ok {
			continue
		}
		c, err := repo.GetCategory(ctx, db, id)
		if err != nil {
			return nil, err
		}
		out[id] = c.Kind
	}
	return out, nil
}

// Stats returns the number of timeline rows of an instance and the newest
// insertion time, for conditional responses.
func (s *YieldService) Stats(ctx context.Context, userID, animalID uint, number string) (int64, *time.Time, error) {
	key, err := scopeKey(userID, animalID, number)
	if err != nil {
		return 0, nil, err
	}
	return repo.YieldStats(ctx, s.DB, key)
}
