package rules

// RecordingRules returns a PrometheusRule CR containing pre-computed rate
// expressions used by dashboards and alert rules.
func RecordingRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: "monitoring.coreos.com/v1",
		Kind:       "PrometheusRule",
		Metadata: PrometheusRuleMetadata{
			Name: "autocote-recording-rules",
			Labels: map[string]string{
				"prometheus": "system-rules-prometheus",
			},
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "autocote-recording",
					Rules: []Rule{
						{
							Record: "autocote:http_requests:rate5m",
							Expr:   `sum(rate(autocote_http_requests_total[5m]))`,
						},
						{
							Record: "autocote:http_errors:rate5m",
							Expr:   `sum(rate(autocote_http_requests_total{status=~"5.."}[5m]))`,
						},
						{
							Record: "autocote:scoring_listings:rate5m",
							Expr:   `rate(autocote_scoring_listings_total[5m])`,
						},
						{
							Record: "autocote:scoring_errors:rate5m",
							Expr:   `rate(autocote_scoring_errors_total[5m])`,
						},
						{
							Record: "autocote:models_trained:rate1h",
							Expr:   `increase(autocote_market_models_trained_total[1h])`,
						},
						{
							Record: "autocote:models_skipped:rate1h",
							Expr:   `increase(autocote_market_models_skipped_total[1h])`,
						},
						{
							Record: "autocote:notifications_sent:rate5m",
							Expr:   `rate(autocote_notifications_sent_total[5m])`,
						},
					},
				},
			},
		},
	}
}
