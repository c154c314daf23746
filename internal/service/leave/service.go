package leave

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/calendar"
	"github.com/go-chi/jwtauth/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type EntitlementServiceImpl struct {
	employeeRepo  employee.EmployeeRepository
	leaveTypeRepo leave.LeaveTypeRepository
	calculator    *QuotaCalculator
	logger        *zap.Logger
	now           func() time.Time
}

func NewEntitlementService(
	employeeRepo employee.EmployeeRepository,
	leaveTypeRepo leave.LeaveTypeRepository,
	logger *zap.Logger,
) leave.EntitlementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EntitlementServiceImpl{
		employeeRepo:  employeeRepo,
		leaveTypeRepo: leaveTypeRepo,
		calculator:    NewQuotaCalculator(),
		logger:        logger,
		now:           time.Now,
	}
}

func getCompanyID(ctx context.Context) (string, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to extract claims from context: %w", err)
	}
	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return "", fmt.Errorf("company_id claim is missing or invalid")
	}
	return companyID, nil
}

// usedDays reads the used days of a leave type from the employee's credits.
func usedDays(emp employee.Employee, leaveType string) decimal.Decimal {
	for _, credit := range emp.LeaveCredits {
		if strings.EqualFold(strings.TrimSpace(credit.LeaveType), strings.TrimSpace(leaveType)) {
			return credit.Used
		}
	}
	return decimal.Zero
}

// GetEntitlements implements leave.EntitlementService. Leave types whose
// quota rules cannot be resolved are skipped.
func (s *EntitlementServiceImpl) GetEntitlements(ctx context.Context, req leave.EntitlementRequest) (leave.EntitlementResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.EntitlementResponse{}, err
	}

	companyID, err := getCompanyID(ctx)
	if err != nil {
		return leave.EntitlementResponse{}, err
	}

	asOf := s.now()
	if req.AsOf != "" {
		d, err := calendar.ParseDay(req.AsOf)
		if err != nil {
			return leave.EntitlementResponse{}, fmt.Errorf("%w: %v", leave.ErrInvalidAsOfDate, err)
		}
		asOf = d.Time()
	}

	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID, companyID)
	if err != nil {
		return leave.EntitlementResponse{}, err
	}
	types, err := s.leaveTypeRepo.GetByCompanyID(ctx, companyID)
	if err != nil {
		return leave.EntitlementResponse{}, fmt.Errorf("failed to get leave types: %w", err)
	}

	items := make([]leave.EntitlementItem, 0, len(types))
	for _, t := range types {
		ent, err := s.calculator.Entitlement(emp, t, usedDays(emp, t.Name), asOf)
		if errors.Is(err, leave.ErrNoQuotaRules) || errors.Is(err, leave.ErrNoMatchingRule) {
			s.logger.Warn("skipping leave type without applicable quota",
				zap.String("leave_type", t.Name),
				zap.String("employee_id", emp.ID),
				zap.Error(err),
			)
			continue
		}
		if err != nil {
			return leave.EntitlementResponse{}, err
		}
		items = append(items, leave.EntitlementItem{
			LeaveType:    ent.LeaveType,
			AnnualQuota:  ent.AnnualQuota,
			Accrued:      ent.Accrued,
			Used:         ent.Used,
			Balance:      ent.Balance,
			TenureMonths: ent.TenureMonths,
			PeriodStart:  calendar.DayOf(ent.PeriodStart).String(),
			PeriodEnd:    calendar.DayOf(ent.PeriodEnd).String(),
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].LeaveType < items[j].LeaveType })

	return leave.EntitlementResponse{
		EmployeeID: emp.ID,
		AsOf:       calendar.DayOf(asOf).String(),
		Items:      items,
	}, nil
}
