package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/domain"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/notify"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/repository"
	customError "github.com/krazydeals07-dot/eBachatgat-Backend-App/pkg/errors"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/pkg/utils"
)

var hundred = decimal.NewFromInt(100)

// PrecloseService closes active loans early against a lump sum.
type PrecloseService struct {
	store  repository.Store
	ledger *LedgerService
	notes  NotesRenderer
	opts   Options
}

func NewPrecloseService(store repository.Store, ledger *LedgerService, notes NotesRenderer, opts Options) *PrecloseService {
	return &PrecloseService{
		store:  store,
		ledger: ledger,
		notes:  notes,
		opts:   opts.withDefaults(),
	}
}

// PrecloseCharge is round(balance * rate / 100), half up.
func PrecloseCharge(balance, rate decimal.Decimal) decimal.Decimal {
	return utils.RoundCurrency(balance.Mul(rate).Div(hundred))
}

// Quote reports what closing the loan today costs.
func (s *PrecloseService) Quote(ctx context.Context, loanID uuid.UUID) (*domain.PrecloseQuote, error) {
	loan, err := loadLoan(ctx, s.store.Loans, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != domain.LoanStatusActive {
		return nil, customError.WrapLoanAlreadyClosed(loan.ID.String())
	}
	settings, err := loadSettings(ctx, s.store.Settings, loan.ShgGroupID)
	if err != nil {
		return nil, err
	}
	return quoteFor(loan, settings.LoanSettings.PreclosePenaltyRate), nil
}

func quoteFor(loan *domain.Loan, rate decimal.Decimal) *domain.PrecloseQuote {
	charge := PrecloseCharge(loan.PrincipalBalance, rate)
	return &domain.PrecloseQuote{
		LoanID:              loan.ID,
		PrincipalBalance:    loan.PrincipalBalance,
		PreclosePenaltyRate: rate,
		PrecloseCharge:      charge,
		RequiredTotal:       loan.PrincipalBalance.Add(charge),
	}
}

// Preclose accepts an offer of at least balance + charge. The loan row is
// locked and rechecked inside the transaction, so a concurrent installment
// approval or second pre-closure cannot slip between quote and close.
func (s *PrecloseService) Preclose(ctx context.Context, req *domain.PrecloseRequest) (*domain.LoanPreclose, error) {
	if !req.TotalPrecloseAmount.IsPositive() {
		return nil, customError.WrapInvalidAmount("total_preclose_amount")
	}

	loan, err := loadLoan(ctx, s.store.Loans, req.LoanID)
	if err != nil {
		return nil, err
	}
	if loan.ShgGroupID != req.ShgGroupID {
		return nil, customError.WrapLoanNotFound(req.LoanID.String())
	}
	if loan.Status != domain.LoanStatusActive {
		return nil, customError.WrapLoanAlreadyClosed(loan.ID.String())
	}
	approver, err := loadMember(ctx, s.store.Members, req.ShgGroupID, req.ApprovedBy)
	if err != nil {
		return nil, err
	}
	borrower, err := loadMember(ctx, s.store.Members, loan.ShgGroupID, loan.MemberID)
	if err != nil {
		return nil, err
	}
	settings, err := loadSettings(ctx, s.store.Settings, loan.ShgGroupID)
	if err != nil {
		return nil, err
	}
	rate := settings.LoanSettings.PreclosePenaltyRate

	quote := quoteFor(loan, rate)
	if req.TotalPrecloseAmount.LessThan(quote.RequiredTotal) {
		return nil, customError.WrapPrecloseAmountTooLow(quote.RequiredTotal.String(), req.TotalPrecloseAmount.String())
	}

	now := s.opts.now()
	notes, err := s.notes.Render(notify.LoanPreclose, map[string]any{
		"member_name":   borrower.Name,
		"amount":        req.TotalPrecloseAmount.String(),
		"preclose_date": now.Format("02/01/2006"),
		"approved_by":   approver.Name,
	})
	if err != nil {
		return nil, customError.WrapTemplateError(err)
	}

	var preclose *domain.LoanPreclose
	err = s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		locked, err := s.store.Loans.GetByIDForUpdate(ctx, loan.ID)
		if err != nil {
			return err
		}
		if locked.Status != domain.LoanStatusActive {
			return customError.WrapLoanAlreadyClosed(loan.ID.String())
		}
		quote = quoteFor(locked, rate)
		if req.TotalPrecloseAmount.LessThan(quote.RequiredTotal) {
			return customError.WrapPrecloseAmountTooLow(quote.RequiredTotal.String(), req.TotalPrecloseAmount.String())
		}

		var closeOn *int
		first, err := s.store.Schedules.FirstPending(ctx, loan.ID)
		switch {
		case err == nil:
			n := first.InstallmentNumber
			closeOn = &n
		case !isNoRows(err):
			return err
		}

		if _, err := s.store.Schedules.CompletePending(ctx, loan.ID); err != nil {
			return err
		}
		err = s.store.Loans.Close(ctx, loan.ID)
		if isStale(err) {
			return customError.WrapLoanAlreadyClosed(loan.ID.String())
		}
		if err != nil {
			return err
		}

		preclose = &domain.LoanPreclose{
			ID:                   uuid.New(),
			ShgGroupID:           loan.ShgGroupID,
			LoanID:               loan.ID,
			TotalPrecloseAmount:  req.TotalPrecloseAmount,
			PrincipalAmount:      quote.PrincipalBalance,
			PrecloseChargeAmount: quote.PrecloseCharge,
			ApprovedBy:           req.ApprovedBy,
			CloseOnInstallmentNo: closeOn,
			Notes:                req.Notes,
			CreatedAt:            now,
		}
		if err := s.store.Precloses.Create(ctx, preclose); err != nil {
			return err
		}

		_, err = s.ledger.Record(ctx, &domain.GroupTransaction{
			ShgGroupID:      loan.ShgGroupID,
			MemberID:        nullID(loan.MemberID),
			Amount:          req.TotalPrecloseAmount,
			FlowType:        domain.FlowIn,
			TransactionType: domain.TxLoanPreclose,
			Reference:       domain.LoanPrecloseRef(preclose.ID),
			Notes:           notes,
			CreatedByID:     req.ApprovedBy,
		})
		return err
	})
	if err != nil {
		return nil, dbErr(err)
	}

	log.Info().
		Str("shg_group_id", loan.ShgGroupID.String()).
		Str("loan_id", loan.ID.String()).
		Str("amount", req.TotalPrecloseAmount.String()).
		Str("charge", quote.PrecloseCharge.String()).
		Msg("loan preclosed")

	return preclose, nil
}
