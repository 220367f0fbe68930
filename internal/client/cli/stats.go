package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
)

const (
	requestsMetric = "contactbook_gateway_requests_total"
	durationMetric = "contactbook_gateway_request_duration_seconds"
)

type callStats struct {
	outcomes map[string]float64
	count    uint64
	seconds  float64
}

// Stats prints the remote call counters gathered since start-up.
func (a *App) Stats(ctx context.Context) error {
	if a.metrics == nil {
		a.println("No statistics available")
		return nil
	}

	families, err := a.metrics.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	byOp := map[string]*callStats{}
	get := func(op string) *callStats {
		s, ok := byOp[op]
		if !ok {
			s = &callStats{outcomes: map[string]float64{}}
			byOp[op] = s
		}
		return s
	}

	for _, mf := range families {
		switch mf.GetName() {
		case requestsMetric:
			for _, m := range mf.GetMetric() {
				labels := map[string]string{}
				for _, lp := range m.GetLabel() {
					labels[lp.GetName()] = lp.GetValue()
				}
				get(labels["op"]).outcomes[labels["outcome"]] += m.GetCounter().GetValue()
			}
		case durationMetric:
			for _, m := range mf.GetMetric() {
				var op string
				for _, lp := range m.GetLabel() {
					if lp.GetName() == "op" {
						op = lp.GetValue()
					}
				}
				h := m.GetHistogram()
				s := get(op)
				s.count += h.GetSampleCount()
				s.seconds += h.GetSampleSum()
			}
		}
	}

	if len(byOp) == 0 {
		a.println("No remote calls yet")
		return nil
	}

	ops := make([]string, 0, len(byOp))
	for op := range byOp {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	tw := tabwriter.NewWriter(a.writer(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "OP\tCALLS\tAVG\tOUTCOMES")
	for _, op := range ops {
		s := byOp[op]
		avg := "-"
		if s.count > 0 {
			avg = fmt.Sprintf("%.1fms", s.seconds/float64(s.count)*1000)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", op, s.count, avg, formatOutcomes(s.outcomes))
	}
	return tw.Flush()
}

func formatOutcomes(m map[string]float64) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%.0f", k, m[k]))
	}
	return strings.Join(parts, " ")
}
