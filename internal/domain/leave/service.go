package leave

import "context"

type EntitlementService interface {
	GetEntitlements(ctx context.Context, req EntitlementRequest) (EntitlementResponse, error)
}
