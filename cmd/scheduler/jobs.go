package main

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	customError "github.com/krazydeals07-dot/eBachatgat-Backend-App/pkg/errors"
)

// loanPenalties adds the late fee to every overdue pending installment.
func (j *jobs) loanPenalties(ctx context.Context) runStats {
	return j.forEachGroup(ctx, "loan_penalties", func(ctx context.Context, groupID uuid.UUID) (int, error) {
		res, err := j.installments.ApplyGroupPenalties(ctx, groupID)
		if err != nil {
			return 0, err
		}
		return res.Updated, nil
	})
}

// savingsPenalties adds the late fee to every overdue open savings record.
func (j *jobs) savingsPenalties(ctx context.Context) runStats {
	return j.forEachGroup(ctx, "savings_penalties", func(ctx context.Context, groupID uuid.UUID) (int, error) {
		res, err := j.savings.ApplyGroupPenalties(ctx, groupID)
		if err != nil {
			return 0, err
		}
		return res.Updated, nil
	})
}

// initiateSavings opens the current cycle. Groups without a savings amount
// or without members are skipped.
func (j *jobs) initiateSavings(ctx context.Context) runStats {
	return j.forEachGroup(ctx, "savings_cycle", func(ctx context.Context, groupID uuid.UUID) (int, error) {
		res, err := j.savings.Initiate(ctx, groupID, nil)
		if customError.KindOf(err) == customError.KindValidation || errors.Is(err, customError.ErrNoMembers) {
			log.Debug().Err(err).Str("shg_group_id", groupID.String()).Msg("savings cycle skipped")
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		return len(res.Created), nil
	})
}
