package casdoor

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/psytest-service/internal/repositories"
)

// EntitlementChecker answers premium-access questions from the purchase
// properties stored on the owner's Casdoor account.
type EntitlementChecker struct {
	users repositories.UserRepository
}

func NewEntitlementChecker(users repositories.UserRepository) *EntitlementChecker {
	return &EntitlementChecker{users: users}
}

func (e *EntitlementChecker) HasPaidAccess(ctx context.Context, ownerID string, testID uint) (bool, error) {
	user, err := e.users.GetByID(ctx, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to load owner %s: %w", ownerID, err)
	}
	return user.HasPaidTest(testID), nil
}
