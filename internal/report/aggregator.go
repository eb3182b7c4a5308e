package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"laundrypro/internal/domain"
)

// Aggregate builds the order statistics from per-status totals and the
// completed orders of the same range. It does no I/O; top customers come
// back without name or phone.
func Aggregate(statuses []domain.StatusSummary, completed []domain.CompletedOrderRow) domain.OrderStats {
	stats := domain.OrderStats{
		ByStatus:     sortedStatuses(statuses),
		Revenue:      domain.RevenueSummary{TotalRevenue: decimal.Zero, AvgOrderValue: decimal.Zero},
		Daily:        []domain.DailyRevenue{},
		TopCustomers: []domain.TopCustomer{},
	}
	if len(completed) == 0 {
		return stats
	}

	days := map[string]*domain.DailyRevenue{}
	customers := map[string]*domain.TopCustomer{}

	for _, row := range completed {
		stats.Revenue.TotalRevenue = stats.Revenue.TotalRevenue.Add(row.TotalPrice)
		stats.Revenue.TotalOrders++

		key := row.CreatedAt.UTC().Format("2006-01-02")
		d, ok := days[key]
		if !ok {
			d = &domain.DailyRevenue{Date: key, Revenue: decimal.Zero}
			days[key] = d
		}
		d.Count++
		d.Revenue = d.Revenue.Add(row.TotalPrice)

		c, ok := customers[row.CustomerID]
		if !ok {
			c = &domain.TopCustomer{CustomerID: row.CustomerID, TotalSpent: decimal.Zero}
			customers[row.CustomerID] = c
		}
		c.TotalOrders++
		c.TotalSpent = c.TotalSpent.Add(row.TotalPrice)
	}

	stats.Revenue.AvgOrderValue = stats.Revenue.TotalRevenue.
		DivRound(decimal.NewFromInt(int64(stats.Revenue.TotalOrders)), 2)

	for _, d := range days {
		stats.Daily = append(stats.Daily, *d)
	}
	sort.Slice(stats.Daily, func(i, j int) bool {
		return stats.Daily[i].Date > stats.Daily[j].Date
	})
	if len(stats.Daily) > domain.MaxDailyBuckets {
		stats.Daily = stats.Daily[:domain.MaxDailyBuckets]
	}

	for _, c := range customers {
		stats.TopCustomers = append(stats.TopCustomers, *c)
	}
	sort.Slice(stats.TopCustomers, func(i, j int) bool {
		a, b := stats.TopCustomers[i], stats.TopCustomers[j]
		if cmp := a.TotalSpent.Cmp(b.TotalSpent); cmp != 0 {
			return cmp > 0
		}
		if a.TotalOrders != b.TotalOrders {
			return a.TotalOrders > b.TotalOrders
		}
		return a.CustomerID < b.CustomerID
	})
	if len(stats.TopCustomers) > domain.MaxTopCustomers {
		stats.TopCustomers = stats.TopCustomers[:domain.MaxTopCustomers]
	}

	return stats
}

// sortedStatuses orders the summaries along the workflow, cancelled last.
func sortedStatuses(in []domain.StatusSummary) []domain.StatusSummary {
	rank := map[domain.OrderStatus]int{}
	for i, s := range domain.AllOrderStatuses() {
		rank[s] = i
	}

	out := make([]domain.StatusSummary, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		return rank[out[i].Status] < rank[out[j].Status]
	})
	return out
}
