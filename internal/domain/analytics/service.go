// internal/domain/analytics/service.go
package analytics

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/electrostore/ecommerce-backend/internal/domain/order"
	"github.com/electrostore/ecommerce-backend/internal/domain/product"
	"github.com/electrostore/ecommerce-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// GroupBy selects the bucket size of an earnings report
type GroupBy string

const (
	GroupByDay   GroupBy = "day"
	GroupByMonth GroupBy = "month"
)

// earningStates are the states of an order whose payment was collected
var earningStates = []order.State{order.StatePaid, order.StateShipped, order.StateDelivered}

// Service computes margin earnings from paid orders
type Service struct {
	db  *gorm.DB
	loc *time.Location
	now func() time.Time
}

// NewService creates a new earnings service. Day boundaries are taken in loc.
func NewService(db *gorm.DB, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		db:  db,
		loc: loc,
		now: time.Now,
	}
}

// PeriodEarnings is the margin collected in a period
type PeriodEarnings struct {
	Margin int64 `json:"margin"`
	Orders int64 `json:"orders"`
}

// Summary holds earnings for the usual dashboard periods
type Summary struct {
	Today     PeriodEarnings `json:"today"`
	Last7     PeriodEarnings `json:"last_7_days"`
	ThisMonth PeriodEarnings `json:"this_month"`
}

// Dashboard holds the catalog and order counts of the admin panel
type Dashboard struct {
	ActiveProducts int64 `json:"active_products"`
	ProductsOnSale int64 `json:"products_on_sale"`
	PaidOrders     int64 `json:"paid_orders"`
}

// ReportRequest represents earnings report query parameters
type ReportRequest struct {
	From    string  `form:"from"`
	To      string  `form:"to"`
	GroupBy GroupBy `form:"groupBy"`
}

// SeriesPoint is one bucket of an earnings report
type SeriesPoint struct {
	Key    string `json:"key"`
	Margin int64  `json:"margin"`
	Orders int64  `json:"orders"`
}

// Report is the earnings for a date range
type Report struct {
	From        time.Time     `json:"from"`
	To          time.Time     `json:"to"`
	GroupBy     GroupBy       `json:"group_by"`
	TotalMargin int64         `json:"total_margin"`
	TotalOrders int64         `json:"total_orders"`
	Series      []SeriesPoint `json:"series"`
}

type paidRow struct {
	TotalMargin int64
	PaidAt      time.Time
}

// GetSummary returns earnings for today, the last 7 days including today, and the current month
func (s *Service) GetSummary(ctx context.Context) (*Summary, error) {
	now := s.now().In(s.loc)
	todayStart := startOfDay(now)
	todayEnd := todayStart.AddDate(0, 0, 1)
	weekStart := todayStart.AddDate(0, 0, -6)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)

	summary := &Summary{}
	periods := []struct {
		from   time.Time
		target *PeriodEarnings
	}{
		{todayStart, &summary.Today},
		{weekStart, &summary.Last7},
		{monthStart, &summary.ThisMonth},
	}

	for _, p := range periods {
		earnings, err := s.sumRange(ctx, p.from, todayEnd)
		if err != nil {
			return nil, err
		}
		*p.target = earnings
	}

	return summary, nil
}

// GetReport returns earnings between two inclusive dates grouped by day or month
func (s *Service) GetReport(ctx context.Context, req *ReportRequest) (*Report, error) {
	if req.From == "" || req.To == "" {
		return nil, apperrors.Validation("from and to are required")
	}

	from, err := time.ParseInLocation(dateLayout, strings.TrimSpace(req.From), s.loc)
	if err != nil {
		return nil, apperrors.Validation("invalid date format, use YYYY-MM-DD")
	}
	to, err := time.ParseInLocation(dateLayout, strings.TrimSpace(req.To), s.loc)
	if err != nil {
		return nil, apperrors.Validation("invalid date format, use YYYY-MM-DD")
	}
	if to.Before(from) {
		return nil, apperrors.Validation("to must not be before from")
	}

	groupBy := req.GroupBy
	switch groupBy {
	case "":
		groupBy = GroupByDay
	case GroupByDay, GroupByMonth:
	default:
		return nil, apperrors.Validation("groupBy must be day or month")
	}

	end := to.AddDate(0, 0, 1)
	rows, err := s.paidRows(ctx, from, end)
	if err != nil {
		return nil, err
	}

	report := &Report{
		From:    from,
		To:      end.Add(-time.Millisecond),
		GroupBy: groupBy,
		Series:  []SeriesPoint{},
	}

	buckets := make(map[string]*SeriesPoint)
	for _, row := range rows {
		key := bucketKey(row.PaidAt.In(s.loc), groupBy)
		point, ok := buckets[key]
		if !ok {
			point = &SeriesPoint{Key: key}
			buckets[key] = point
		}
		point.Margin += row.TotalMargin
		point.Orders++

		report.TotalMargin += row.TotalMargin
		report.TotalOrders++
	}

	for _, point := range buckets {
		report.Series = append(report.Series, *point)
	}
	sort.Slice(report.Series, func(i, j int) bool {
		return report.Series[i].Key < report.Series[j].Key
	})

	return report, nil
}

func (s *Service) sumRange(ctx context.Context, from, to time.Time) (PeriodEarnings, error) {
	var result PeriodEarnings
	err := s.db.WithContext(ctx).Model(&order.Order{}).
		Select("COALESCE(SUM(total_margin), 0) AS margin, COUNT(*) AS orders").
		Where("state IN ? AND paid_at >= ? AND paid_at < ?", earningStates, from, to).
		Scan(&result).Error
	if err != nil {
		return result, fmt.Errorf("failed to sum earnings: %w", err)
	}
	return result, nil
}

func (s *Service) paidRows(ctx context.Context, from, to time.Time) ([]paidRow, error) {
	var rows []paidRow
	err := s.db.WithContext(ctx).Model(&order.Order{}).
		Select("total_margin, paid_at").
		Where("state IN ? AND paid_at >= ? AND paid_at < ?", earningStates, from, to).
		Order("paid_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load paid orders: %w", err)
	}
	return rows, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func bucketKey(t time.Time, groupBy GroupBy) string {
	if groupBy == GroupByMonth {
		return t.Format("2006-01")
	}
	return t.Format(dateLayout)
}

// DashboardSummary counts active products, active products on sale with a
// positive percentage, and orders whose payment was collected
func (s *Service) DashboardSummary(ctx context.Context) (*Dashboard, error) {
	db := s.db.WithContext(ctx)
	var d Dashboard

	if err := db.Model(&product.Product{}).Where("is_active = ?", true).Count(&d.ActiveProducts).Error; err != nil {
		return nil, fmt.Errorf("failed to count active products: %w", err)
	}

	err := db.Model(&product.Product{}).
		Where("is_active = ? AND is_on_sale = ? AND sale_percentage > ?", true, true, 0).
		Count(&d.ProductsOnSale).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count products on sale: %w", err)
	}

	if err := db.Model(&order.Order{}).Where("state IN ?", earningStates).Count(&d.PaidOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to count paid orders: %w", err)
	}

	return &d, nil
}
