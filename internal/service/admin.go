package service

import (
	"context"
	"fmt"

	"github.com/passion-dev-group/guardian/internal/models"
)

// ContributionView is one recurring contribution enriched with the vendor's
// current status, for the admin listing.
type ContributionView struct {
	Contribution models.RecurringContribution `json:"contribution"`
	VendorStatus string                       `json:"vendor_status,omitempty"`
}

// requireSiteAdmin checks the caller's profile for the site-admin role.
func (s *Service) requireSiteAdmin(ctx context.Context, callerID string) error {
	profile, err := s.store.GetProfile(ctx, callerID)
	if err != nil || !profile.SiteAdmin {
		return ErrNotSiteAdmin
	}
	return nil
}

// ListRecurringContributions returns active recurring contributions, scoped
// to one circle when circleID is non-empty. Site administrators only.
// Vendor status lookups are best effort; a lookup failure leaves the field
// empty rather than failing the listing.
func (s *Service) ListRecurringContributions(ctx context.Context, callerID, circleID string) ([]ContributionView, error) {
	if err := s.requireSiteAdmin(ctx, callerID); err != nil {
		return nil, err
	}

	contributions, err := s.store.ListActiveContributions(ctx, circleID)
	if err != nil {
		return nil, err
	}

	views := make([]ContributionView, 0, len(contributions))
	for _, rc := range contributions {
		view := ContributionView{Contribution: rc}
		if rt, err := s.transfers.GetRecurringTransfer(ctx, rc.RecurringTransferID); err != nil {
			s.log.Warnf("Vendor lookup failed for recurring transfer %s: %v", rc.RecurringTransferID, err)
		} else {
			view.VendorStatus = rt.Status
		}
		views = append(views, view)
	}
	return views, nil
}

// CancelRecurringContribution cancels one member's scheduled debit at the
// vendor and deactivates the local record. Site administrators only.
func (s *Service) CancelRecurringContribution(ctx context.Context, callerID, contributionID string) error {
	if err := s.requireSiteAdmin(ctx, callerID); err != nil {
		return err
	}

	rc, err := s.store.GetRecurringContribution(ctx, contributionID)
	if err != nil {
		return err
	}
	if !rc.Active {
		return fmt.Errorf("recurring contribution %s is already inactive", contributionID)
	}

	if err := s.transfers.CancelRecurringTransfer(ctx, rc.RecurringTransferID); err != nil {
		return fmt.Errorf("failed to cancel recurring transfer %s: %w", rc.RecurringTransferID, err)
	}

	if err := s.store.DeactivateContribution(ctx, contributionID); err != nil {
		return err
	}

	s.log.Infof("Cancelled recurring contribution %s (transfer %s)", contributionID, rc.RecurringTransferID)
	return nil
}
