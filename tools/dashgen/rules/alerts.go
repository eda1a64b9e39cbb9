package rules

// AlertRules returns a PrometheusRule CR containing alert rules for
// autocote operational monitoring.
func AlertRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: "monitoring.coreos.com/v1",
		Kind:       "PrometheusRule",
		Metadata: PrometheusRuleMetadata{
			Name: "autocote-alerts",
			Labels: map[string]string{
				"prometheus": "system-rules-prometheus",
			},
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "autocote-alerts",
					Rules: []Rule{
						{
							Alert: "AutocoteDown",
							Expr:  `absent(up{job="autocote"})`,
							For:   "2m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "autocote is down",
								"description": "The autocote job has been absent for more than 2 minutes.",
							},
						},
						{
							Alert: "AutocoteReadinessDown",
							Expr:  `autocote_readyz_up == 0`,
							For:   "2m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "autocote readiness check is failing",
								"description": "The readiness probe has been reporting not-ready for more than 2 minutes.",
							},
						},
						{
							Alert: "AutocoteHighErrorRate",
							Expr:  `autocote:http_errors:rate5m / autocote:http_requests:rate5m > 0.05`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "High HTTP error rate on autocote",
								"description": "More than 5% of HTTP requests are returning 5xx errors over the last 5 minutes.",
							},
						},
						{
							Alert: "AutocoteScoringErrors",
							Expr:  `autocote:scoring_errors:rate5m > 0`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Scoring errors detected",
								"description": "The scoring pipeline has been producing errors for more than 5 minutes.",
							},
						},
						{
							Alert: "AutocoteModelsSkipped",
							Expr:  `autocote:models_skipped:rate1h > autocote:models_trained:rate1h`,
							For:   "1h",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Most valuation models are left untrained",
								"description": "More refresh cycles are skipping training than completing it. Cohorts may be too small or over-filtered.",
							},
						},
						{
							Alert: "AutocoteNotificationFailures",
							Expr:  `increase(autocote_notification_failures_total[5m]) > 0`,
							For:   "1m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Notification delivery failures detected",
								"description": "One or more top-deal webhook notifications have failed to send.",
							},
						},
					},
				},
			},
		},
	}
}
