package gemini

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
)

const (
	metricsCollection = "metrics"
	alertsCollection  = "alerts"
)

type alertRule struct {
	Metric      string
	Threshold   float64
	Description string
}

// Fixed alert rules. The budget rule is filed separately because its
// threshold is the user's own limit.
var alertRules = map[string]alertRule{
	"high_error_rate": {Metric: "error_rate", Threshold: 0.05, Description: "error rate above 5%"},
	"high_cost":       {Metric: "hourly_cost", Threshold: 10.0, Description: "hourly cost above $10"},
	"slow_response":   {Metric: "latency_p95", Threshold: 10.0, Description: "p95 latency above 10 seconds"},
}

// recordMetric appends one sample. EvaluateAlerts aggregates them later.
func (s *Service) recordMetric(ctx context.Context, metricType string, value float64, model string) {
	_, _, err := s.client.Collection(metricsCollection).Add(ctx, map[string]interface{}{
		"type":      metricType,
		"value":     value,
		"model":     model,
		"timestamp": time.Now(),
	})
	if err != nil {
		s.logger.Warn("Failed to record metric", zap.String("type", metricType), zap.Error(err))
	}
}

// metricWindow loads every sample of a type from the last hour.
func (s *Service) metricWindow(ctx context.Context, metricType string) ([]float64, error) {
	hourAgo := time.Now().Add(-time.Hour)
	iter := s.client.Collection(metricsCollection).
		Where("type", "==", metricType).
		Where("timestamp", ">=", hourAgo).
		Documents(ctx)
	defer iter.Stop()

	var values []float64
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		if v, ok := doc.Data()["value"].(float64); ok {
			values = append(values, v)
		}
	}
	return values, nil
}

// p95 follows the monitoring convention: below 21 samples the max stands in
// for the percentile.
func p95(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if len(sorted) > 20 {
		return sorted[int(float64(len(sorted))*0.95)]
	}
	return sorted[len(sorted)-1]
}

// EvaluateAlerts checks the fixed rules over the last hour of metrics and
// files an alert document for every rule that trips.
func (s *Service) EvaluateAlerts(ctx context.Context) error {
	errorSamples, err := s.metricWindow(ctx, "error")
	if err != nil {
		return err
	}
	successSamples, err := s.metricWindow(ctx, "success")
	if err != nil {
		return err
	}
	latencies, err := s.metricWindow(ctx, "latency")
	if err != nil {
		return err
	}
	costs, err := s.metricWindow(ctx, "cost")
	if err != nil {
		return err
	}

	errorRate := 0.0
	if total := len(errorSamples) + len(successSamples); total > 0 {
		errorRate = float64(len(errorSamples)) / float64(total)
	}

	hourlyCost := 0.0
	for _, v := range costs {
		hourlyCost += v
	}

	checks := map[string]float64{
		"high_error_rate": errorRate,
		"high_cost":       hourlyCost,
		"slow_response":   p95(latencies),
	}

	for name, value := range checks {
		rule := alertRules[name]
		if value > rule.Threshold {
			if err := s.fileAlert(ctx, name, rule, value, ""); err != nil {
				return err
			}
		}
	}
	return nil
}

// fileAlert writes an alert document unless the rule already has an active
// one.
func (s *Service) fileAlert(ctx context.Context, name string, rule alertRule, value float64, userID string) error {
	existing, err := s.client.Collection(alertsCollection).
		Where("rule", "==", name).
		Where("status", "==", "active").
		Limit(1).
		Documents(ctx).
		GetAll()
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	alert := Alert{
		Rule:        name,
		Metric:      rule.Metric,
		Value:       value,
		Threshold:   rule.Threshold,
		Description: rule.Description,
		UserID:      userID,
		Status:      "active",
		CreatedAt:   time.Now(),
	}
	if _, _, err := s.client.Collection(alertsCollection).Add(ctx, alert); err != nil {
		return err
	}

	s.logger.Warn("Alert triggered",
		zap.String("rule", name),
		zap.Float64("value", value),
		zap.Float64("threshold", rule.Threshold))
	return nil
}

func (s *Service) triggerBudgetAlert(ctx context.Context, userID string, used, limit float64) {
	rule := alertRule{Metric: "user_budget", Threshold: limit, Description: "user daily budget exhausted"}
	if err := s.fileAlert(ctx, "budget_exceeded", rule, used, userID); err != nil {
		s.logger.Warn("Failed to file budget alert", zap.String("user", userID), zap.Error(err))
	}
}

// ActiveAlerts lists unresolved alerts, newest first.
func (s *Service) ActiveAlerts(ctx context.Context) ([]Alert, error) {
	docs, err := s.client.Collection(alertsCollection).
		Where("status", "==", "active").
		OrderBy("created_at", firestore.Desc).
		Limit(50).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, err
	}

	var alerts []Alert
	for _, doc := range docs {
		var alert Alert
		if err := doc.DataTo(&alert); err != nil {
			// If this fails, we have an inconsistency error as we control both the data written to
			// Firestore and the shape of our alert struct.
			return nil, fmt.Errorf(
				"consistency error. Converting %+v to internal alert struct failed: %w",
				doc,
				err,
			)
		}
		alert.ID = doc.Ref.ID
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

// ResolveAlert marks an alert handled.
func (s *Service) ResolveAlert(ctx context.Context, alertID string) error {
	_, err := s.client.Collection(alertsCollection).Doc(alertID).Update(ctx, []firestore.Update{
		{Path: "status", Value: "resolved"},
		{Path: "resolved_at", Value: time.Now()},
	})
	return err
}
