package githubapi

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v55/github"

	"github.com/gitsecureops/access-reconciler/internal/domain"
)

// TwoFactorAudit reports which members of an organization have two-factor
// authentication disabled. Requires org admin rights; GitHub only exposes the
// 2fa_disabled member filter to owners.
func (s *githubService) TwoFactorAudit(ctx context.Context, org string) (*domain.TwoFactorReport, error) {
	total, err := s.listMemberLogins(ctx, org, "")
	if err != nil {
		return nil, err
	}

	nonCompliant, err := s.listMemberLogins(ctx, org, "2fa_disabled")
	if err != nil {
		return nil, err
	}

	report := &domain.TwoFactorReport{
		Org:            org,
		TotalMembers:   len(total),
		CompliantCount: len(total) - len(nonCompliant),
		NonCompliant:   nonCompliant,
		GeneratedAt:    time.Now(),
	}
	if report.TotalMembers > 0 {
		report.CompliancePct = 100 * float64(report.CompliantCount) / float64(report.TotalMembers)
	}
	return report, nil
}

func (s *githubService) listMemberLogins(ctx context.Context, org, filter string) ([]string, error) {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	var logins []string
	opts := &github.ListMembersOptions{
		Filter:      filter,
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		members, resp, err := s.client.Organizations.ListMembers(ctx, org, opts)
		if err != nil {
			return nil, classifyError(fmt.Sprintf("failed to list members for %s", org), resp, err)
		}

		s.updateRateLimitFromResponse(resp)

		for _, member := range members {
			logins = append(logins, member.GetLogin())
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage

		if err := s.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	return logins, nil
}
